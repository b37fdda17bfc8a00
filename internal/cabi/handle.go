package cabi

// #include <stdlib.h>
import "C"
import (
	"io"
	"runtime/cgo"
	"unsafe"
)

const cellSize = C.size_t(unsafe.Sizeof(uintptr(0)))

// NewHandle pins v in the runtime handle table and returns the address of a
// C-allocated cell holding the handle. The result is never nil on success.
func NewHandle(v any) (unsafe.Pointer, error) {
	cell := C.malloc(cellSize)
	if cell == nil {
		return nil, ErrAlloc
	}
	*(*uintptr)(cell) = uintptr(cgo.NewHandle(v))
	return cell, nil
}

// Borrow returns the value behind p without transferring ownership. A cell
// that does not hold a live handle makes the runtime panic; callers run
// inside boundary.Run, which turns that into an internal error.
func Borrow[T any](p unsafe.Pointer) (T, error) {
	var zero T
	if p == nil {
		return zero, ErrNullArgument
	}
	v, ok := cgo.Handle(*(*uintptr)(p)).Value().(T)
	if !ok {
		return zero, ErrHandleType
	}
	return v, nil
}

// FreeHandle deletes the handle, frees its cell and closes the value if it
// is an io.Closer. NULL is a no-op. Freeing the same cell twice is undefined.
func FreeHandle(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	h := cgo.Handle(*(*uintptr)(p))
	v := h.Value()
	h.Delete()
	*(*uintptr)(p) = 0
	C.free(p)

	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
