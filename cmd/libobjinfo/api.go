package main

import (
	"strings"
	"unsafe"

	"github.com/hsiuhsiu/objinfo-go/internal/boundary"
	"github.com/hsiuhsiu/objinfo-go/internal/cabi"
	"github.com/hsiuhsiu/objinfo-go/pkg/objinfo"
)

// The functions below take and return unsafe.Pointer so that tests, which
// cannot use cgo types, drive exactly the code the exports run.

func objectOpen(path, errp unsafe.Pointer) unsafe.Pointer {
	return boundary.RunPtr(cabi.Slot(errp), "objinfo_object_open", func() (unsafe.Pointer, error) {
		lib := configure()
		p, err := cabi.GoString(path)
		if err != nil {
			return nil, err
		}
		obj, err := objinfo.Open(p, lib.options...)
		if err != nil {
			return nil, err
		}
		h, err := cabi.NewHandle(obj)
		if err != nil {
			_ = obj.Close()
			return nil, err
		}
		return h, nil
	})
}

func objectFree(obj unsafe.Pointer) {
	boundary.Release("objinfo_object_free", func() error {
		return cabi.FreeHandle(obj)
	})
}

func objectQuery(obj, arch, name, errp unsafe.Pointer) unsafe.Pointer {
	return boundary.RunPtr(cabi.Slot(errp), "objinfo_object_query", func() (unsafe.Pointer, error) {
		o, a, err := borrowWithArch(obj, arch)
		if err != nil {
			return nil, err
		}
		n, err := cabi.GoString(name)
		if err != nil {
			return nil, err
		}
		loc, err := o.Query(a, n)
		if err != nil {
			return nil, err
		}
		return cabi.NewString(loc), nil
	})
}

func strFree(s unsafe.Pointer) {
	boundary.Release("objinfo_str_free", func() error {
		cabi.FreeString(s)
		return nil
	})
}

func objectArches(obj, errp unsafe.Pointer) unsafe.Pointer {
	return boundary.RunPtr(cabi.Slot(errp), "objinfo_object_arches", func() (unsafe.Pointer, error) {
		o, err := borrow(obj)
		if err != nil {
			return nil, err
		}
		return cabi.NewString(strings.Join(o.Arches(), ",")), nil
	})
}

func objectArchCount(obj, errp unsafe.Pointer) int32 {
	return boundary.Run(cabi.Slot(errp), "objinfo_object_arch_count", func() (int32, error) {
		o, err := borrow(obj)
		if err != nil {
			return 0, err
		}
		return int32(len(o.Arches())), nil
	})
}

func objectBuildID(obj, arch, errp unsafe.Pointer) unsafe.Pointer {
	return boundary.RunPtr(cabi.Slot(errp), "objinfo_object_build_id", func() (unsafe.Pointer, error) {
		o, a, err := borrowWithArch(obj, arch)
		if err != nil {
			return nil, err
		}
		id, err := o.BuildID(a)
		if err != nil {
			return nil, err
		}
		return cabi.NewBuffer(id)
	})
}

func bufFree(buf unsafe.Pointer) {
	boundary.Release("objinfo_buf_free", func() error {
		cabi.FreeBuffer(buf)
		return nil
	})
}

func objectDebugID(obj, arch, errp unsafe.Pointer) unsafe.Pointer {
	return boundary.RunPtr(cabi.Slot(errp), "objinfo_object_debug_id", func() (unsafe.Pointer, error) {
		o, a, err := borrowWithArch(obj, arch)
		if err != nil {
			return nil, err
		}
		id, err := o.DebugID(a)
		if err != nil {
			return nil, err
		}
		return cabi.NewString(id), nil
	})
}

func errorClear(errp unsafe.Pointer) {
	boundary.Release("objinfo_error_clear", func() error {
		cabi.ClearSlot(errp)
		return nil
	})
}

func version() unsafe.Pointer {
	return boundary.RunPtr(nil, "objinfo_version", func() (unsafe.Pointer, error) {
		configure()
		return cabi.NewString(objinfo.Version), nil
	})
}

func borrow(obj unsafe.Pointer) (*objinfo.Object, error) {
	configure()
	return cabi.Borrow[*objinfo.Object](obj)
}

func borrowWithArch(obj, arch unsafe.Pointer) (*objinfo.Object, string, error) {
	o, err := borrow(obj)
	if err != nil {
		return nil, "", err
	}
	a, err := cabi.GoString(arch)
	if err != nil {
		return nil, "", err
	}
	return o, a, nil
}
