package cabi

/*
#include <stdlib.h>
#include "objinfo_types.h"
*/
import "C"
import "unsafe"

// NewString copies s into a nul-terminated C string owned by the caller.
// Release it with FreeString.
func NewString(s string) unsafe.Pointer {
	return unsafe.Pointer(C.CString(s))
}

// FreeString releases a string from NewString. NULL is a no-op.
func FreeString(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}

// GoString copies a caller-supplied C string.
func GoString(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", ErrNullArgument
	}
	return C.GoString((*C.char)(p)), nil
}

// NewBuffer copies b into a single allocation: the objinfo_buf_t header
// immediately followed by the bytes. Release it with FreeBuffer.
func NewBuffer(b []byte) (unsafe.Pointer, error) {
	hdr := C.size_t(C.sizeof_objinfo_buf_t)
	p := C.malloc(hdr + C.size_t(len(b)))
	if p == nil {
		return nil, ErrAlloc
	}

	buf := (*C.objinfo_buf_t)(p)
	buf.len = C.size_t(len(b))
	buf.data = nil
	if len(b) > 0 {
		data := unsafe.Add(p, uintptr(hdr))
		copy(unsafe.Slice((*byte)(data), len(b)), b)
		buf.data = (*C.uint8_t)(data)
	}
	return p, nil
}

// FreeBuffer releases a buffer from NewBuffer. NULL is a no-op.
func FreeBuffer(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}

// BufferBytes copies the contents of an objinfo_buf_t.
func BufferBytes(p unsafe.Pointer) ([]byte, error) {
	if p == nil {
		return nil, ErrNullArgument
	}
	buf := (*C.objinfo_buf_t)(p)
	if buf.len == 0 {
		return []byte{}, nil
	}
	return C.GoBytes(unsafe.Pointer(buf.data), C.int(buf.len)), nil
}
