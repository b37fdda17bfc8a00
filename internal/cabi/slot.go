package cabi

/*
#cgo CFLAGS: -I${SRCDIR}/../../include

#include <stdlib.h>
#include "objinfo_types.h"
*/
import "C"
import (
	"unsafe"

	"github.com/hsiuhsiu/objinfo-go/internal/boundary"
)

// slot writes into a caller-owned objinfo_error_t. It never reads the
// previous contents, so a stale message is the caller's to release.
type slot struct {
	p *C.objinfo_error_t
}

func (s slot) Report(code boundary.Code, message string) {
	s.p.message = C.CString(message)
	s.p.failed = 1
	s.p.code = C.int32_t(code)
}

// Slot adapts an objinfo_error_t pointer to a boundary.Reporter. A NULL
// pointer yields a nil Reporter, which makes failures silent.
func Slot(p unsafe.Pointer) boundary.Reporter {
	if p == nil {
		return nil
	}
	return slot{p: (*C.objinfo_error_t)(p)}
}

// ClearSlot releases the message held by the descriptor and zeroes it.
func ClearSlot(p unsafe.Pointer) {
	if p == nil {
		return
	}
	e := (*C.objinfo_error_t)(p)
	if e.message != nil {
		C.free(unsafe.Pointer(e.message))
	}
	e.message = nil
	e.failed = 0
	e.code = 0
}
