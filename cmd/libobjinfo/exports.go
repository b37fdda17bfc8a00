package main

/*
#cgo CFLAGS: -I${SRCDIR}/../../include

#include "objinfo_types.h"
*/
import "C"
import "unsafe"

//export objinfo_object_open
func objinfo_object_open(path *C.char, err *C.objinfo_error_t) *C.objinfo_object_t {
	return (*C.objinfo_object_t)(objectOpen(unsafe.Pointer(path), unsafe.Pointer(err)))
}

//export objinfo_object_free
func objinfo_object_free(obj *C.objinfo_object_t) {
	objectFree(unsafe.Pointer(obj))
}

//export objinfo_object_query
func objinfo_object_query(obj *C.objinfo_object_t, arch, name *C.char, err *C.objinfo_error_t) *C.char {
	return (*C.char)(objectQuery(unsafe.Pointer(obj), unsafe.Pointer(arch), unsafe.Pointer(name), unsafe.Pointer(err)))
}

//export objinfo_str_free
func objinfo_str_free(s *C.char) {
	strFree(unsafe.Pointer(s))
}

//export objinfo_object_arches
func objinfo_object_arches(obj *C.objinfo_object_t, err *C.objinfo_error_t) *C.char {
	return (*C.char)(objectArches(unsafe.Pointer(obj), unsafe.Pointer(err)))
}

//export objinfo_object_arch_count
func objinfo_object_arch_count(obj *C.objinfo_object_t, err *C.objinfo_error_t) C.int32_t {
	return C.int32_t(objectArchCount(unsafe.Pointer(obj), unsafe.Pointer(err)))
}

//export objinfo_object_build_id
func objinfo_object_build_id(obj *C.objinfo_object_t, arch *C.char, err *C.objinfo_error_t) *C.objinfo_buf_t {
	return (*C.objinfo_buf_t)(objectBuildID(unsafe.Pointer(obj), unsafe.Pointer(arch), unsafe.Pointer(err)))
}

//export objinfo_buf_free
func objinfo_buf_free(buf *C.objinfo_buf_t) {
	bufFree(unsafe.Pointer(buf))
}

//export objinfo_object_debug_id
func objinfo_object_debug_id(obj *C.objinfo_object_t, arch *C.char, err *C.objinfo_error_t) *C.char {
	return (*C.char)(objectDebugID(unsafe.Pointer(obj), unsafe.Pointer(arch), unsafe.Pointer(err)))
}

//export objinfo_error_clear
func objinfo_error_clear(err *C.objinfo_error_t) {
	errorClear(unsafe.Pointer(err))
}

//export objinfo_version
func objinfo_version() *C.char {
	return (*C.char)(version())
}
