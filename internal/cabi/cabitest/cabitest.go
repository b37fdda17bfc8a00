// Package cabitest plays the C caller in tests: it allocates error
// descriptors and handle cells the way a host program would.
package cabitest

/*
#cgo CFLAGS: -I${SRCDIR}/../../../include

#include <stdlib.h>
#include "objinfo_types.h"
*/
import "C"
import (
	"unsafe"

	"github.com/hsiuhsiu/objinfo-go/internal/boundary"
	"github.com/hsiuhsiu/objinfo-go/internal/cabi"
)

// NewSlot allocates a zeroed descriptor, as a C caller would on its stack.
func NewSlot() unsafe.Pointer {
	p := C.calloc(1, C.size_t(C.sizeof_objinfo_error_t))
	if p == nil {
		panic(cabi.ErrAlloc)
	}
	return p
}

// ReadSlot returns the descriptor fields without modifying them.
func ReadSlot(p unsafe.Pointer) (failed bool, code boundary.Code, message string) {
	e := (*C.objinfo_error_t)(p)
	if e.message != nil {
		message = C.GoString(e.message)
	}
	return e.failed != 0, boundary.Code(e.code), message
}

// FreeSlot clears and releases a descriptor from NewSlot.
func FreeSlot(p unsafe.Pointer) {
	if p == nil {
		return
	}
	cabi.ClearSlot(p)
	C.free(p)
}

// NewRawCell allocates a handle cell holding bits verbatim, standing in for
// a pointer that never came from objinfo_object_open.
func NewRawCell(bits uintptr) unsafe.Pointer {
	cell := C.malloc(C.size_t(unsafe.Sizeof(uintptr(0))))
	if cell == nil {
		panic(cabi.ErrAlloc)
	}
	*(*uintptr)(cell) = bits
	return cell
}

// FreeRawCell releases a cell from NewRawCell.
func FreeRawCell(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}
