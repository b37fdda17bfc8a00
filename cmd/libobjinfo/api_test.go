package main

import (
	"debug/macho"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"unsafe"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/objinfo-go/internal/boundary"
	"github.com/hsiuhsiu/objinfo-go/internal/cabi"
	"github.com/hsiuhsiu/objinfo-go/internal/cabi/cabitest"
	"github.com/hsiuhsiu/objinfo-go/internal/testutil/objfixture"
)

func TestMain(m *testing.M) {
	os.Setenv("OBJINFO_CONFIG", "")
	os.Setenv("OBJINFO_LOG_LEVEL", "disabled")
	os.Exit(m.Run())
}

func cstr(t *testing.T, s string) unsafe.Pointer {
	t.Helper()
	p := cabi.NewString(s)
	t.Cleanup(func() { cabi.FreeString(p) })
	return p
}

func newSlot(t *testing.T) unsafe.Pointer {
	t.Helper()
	p := cabitest.NewSlot()
	t.Cleanup(func() { cabitest.FreeSlot(p) })
	return p
}

func requireFailure(t *testing.T, slot unsafe.Pointer, want boundary.Code) string {
	t.Helper()
	failed, code, msg := cabitest.ReadSlot(slot)
	require.True(t, failed, "descriptor not marked failed")
	require.Equal(t, want, code, "message: %s", msg)
	require.NotEmpty(t, msg)
	return msg
}

func requireNoFailure(t *testing.T, slot unsafe.Pointer) {
	t.Helper()
	failed, _, msg := cabitest.ReadSlot(slot)
	require.False(t, failed, "unexpected failure: %s", msg)
}

func goString(t *testing.T, p unsafe.Pointer) string {
	t.Helper()
	s, err := cabi.GoString(p)
	require.NoError(t, err)
	return s
}

func openFixture(t *testing.T, path string) unsafe.Pointer {
	t.Helper()
	slot := newSlot(t)
	obj := objectOpen(cstr(t, path), slot)
	requireNoFailure(t, slot)
	require.NotNil(t, obj)
	return obj
}

func TestOpenNonexistentPath(t *testing.T) {
	slot := newSlot(t)
	path := filepath.Join(t.TempDir(), "missing.so")

	obj := objectOpen(cstr(t, path), slot)

	assert.Nil(t, obj)
	msg := requireFailure(t, slot, boundary.CodeIO)
	assert.Contains(t, msg, "missing.so")
}

func TestOpenNullPath(t *testing.T) {
	slot := newSlot(t)
	assert.Nil(t, objectOpen(nil, slot))
	requireFailure(t, slot, boundary.CodeInvalidArgument)
}

func TestOpenMalformedObject(t *testing.T) {
	slot := newSlot(t)
	path := objfixture.Write(t, "garbage.bin", []byte("definitely not an object file"))

	assert.Nil(t, objectOpen(cstr(t, path), slot))
	requireFailure(t, slot, boundary.CodeMalformedObject)
}

func TestNullDescriptorIsSilent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.so")
	assert.NotPanics(t, func() {
		assert.Nil(t, objectOpen(cstr(t, path), nil))
		assert.Nil(t, objectOpen(nil, nil))
		assert.Nil(t, objectQuery(nil, nil, nil, nil))
		assert.Zero(t, objectArchCount(nil, nil))
	})
}

func TestQuery(t *testing.T) {
	obj := openFixture(t, objfixture.WriteELF(t, objfixture.Standard()))
	defer objectFree(obj)

	tests := []struct {
		name     string
		arch     string
		symbol   string
		want     string
		wantCode boundary.Code
	}{
		{name: "declaration", arch: "x86_64", symbol: "main", want: "main.c:10"},
		{name: "alias", arch: "amd64", symbol: "helper", want: "main.c:42"},
		{name: "low pc", arch: "x86_64", symbol: "entry", want: "main.c:7"},
		{name: "no location", arch: "x86_64", symbol: "orphan", wantCode: boundary.CodeMissingAttribute},
		{name: "unknown symbol", arch: "x86_64", symbol: "nope", wantCode: boundary.CodeNotFound},
		{name: "absent arch", arch: "arm64", symbol: "main", wantCode: boundary.CodeUnsupportedArch},
		{name: "unknown arch", arch: "vax", symbol: "main", wantCode: boundary.CodeUnsupportedArch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := newSlot(t)
			res := objectQuery(obj, cstr(t, tt.arch), cstr(t, tt.symbol), slot)
			if tt.wantCode != 0 {
				assert.Nil(t, res)
				requireFailure(t, slot, tt.wantCode)
				return
			}
			requireNoFailure(t, slot)
			require.NotNil(t, res)
			defer strFree(res)
			assert.Equal(t, tt.want, goString(t, res))
		})
	}
}

func TestQueryUnsupportedArchKeepsHandleValid(t *testing.T) {
	obj := openFixture(t, objfixture.WriteELF(t, objfixture.Standard()))

	slot := newSlot(t)
	assert.Nil(t, objectQuery(obj, cstr(t, "arm64"), cstr(t, "main"), slot))
	msg := requireFailure(t, slot, boundary.CodeUnsupportedArch)
	assert.Contains(t, msg, "arm64")

	// Releasing the message must not affect the handle.
	errorClear(slot)
	failed, code, msg := cabitest.ReadSlot(slot)
	assert.False(t, failed)
	assert.Zero(t, code)
	assert.Empty(t, msg)

	res := objectQuery(obj, cstr(t, "x86_64"), cstr(t, "main"), slot)
	require.NotNil(t, res)
	assert.Equal(t, "main.c:10", goString(t, res))
	strFree(res)

	assert.NotPanics(t, func() { objectFree(obj) })
}

func TestQueryMachOSlice(t *testing.T) {
	path := objfixture.Write(t, "fat", objfixture.Fat(
		objfixture.MachO{Cpu: macho.CpuAmd64},
		objfixture.MachO{Cpu: macho.CpuArm64, Sections: objfixture.StandardDWARF()},
	))
	obj := openFixture(t, path)
	defer objectFree(obj)

	slot := newSlot(t)
	res := objectQuery(obj, cstr(t, "arm64"), cstr(t, "helper"), slot)
	requireNoFailure(t, slot)
	require.NotNil(t, res)
	assert.Equal(t, "main.c:42", goString(t, res))
	strFree(res)

	assert.Nil(t, objectQuery(obj, cstr(t, "x86_64"), cstr(t, "helper"), slot))
	requireFailure(t, slot, boundary.CodeMissingSection)
}

func TestFailureMessageOutlivesObject(t *testing.T) {
	obj := openFixture(t, objfixture.WriteELF(t, objfixture.Standard()))

	slot := newSlot(t)
	assert.Nil(t, objectQuery(obj, cstr(t, "x86_64"), cstr(t, "does_not_exist"), slot))
	before := requireFailure(t, slot, boundary.CodeNotFound)
	assert.Contains(t, before, "does_not_exist")

	objectFree(obj)
	// Churn the allocator so a message freed with the object would be clobbered.
	for range 64 {
		cabi.FreeString(cabi.NewString("xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"))
	}

	after := requireFailure(t, slot, boundary.CodeNotFound)
	assert.Equal(t, before, after)

	errorClear(slot)
	failed, _, msg := cabitest.ReadSlot(slot)
	assert.False(t, failed)
	assert.Empty(t, msg)
}

func TestQueryNullArguments(t *testing.T) {
	obj := openFixture(t, objfixture.WriteELF(t, objfixture.Standard()))
	defer objectFree(obj)

	for name, call := range map[string]func(slot unsafe.Pointer) unsafe.Pointer{
		"handle": func(slot unsafe.Pointer) unsafe.Pointer {
			return objectQuery(nil, cstr(t, "x86_64"), cstr(t, "main"), slot)
		},
		"arch": func(slot unsafe.Pointer) unsafe.Pointer {
			return objectQuery(obj, nil, cstr(t, "main"), slot)
		},
		"name": func(slot unsafe.Pointer) unsafe.Pointer {
			return objectQuery(obj, cstr(t, "x86_64"), nil, slot)
		},
	} {
		t.Run(name, func(t *testing.T) {
			slot := newSlot(t)
			assert.Nil(t, call(slot))
			requireFailure(t, slot, boundary.CodeInvalidArgument)
		})
	}
}

func TestSequentialQueriesAreIndependent(t *testing.T) {
	obj := openFixture(t, objfixture.WriteELF(t, objfixture.Standard()))
	defer objectFree(obj)

	slot := newSlot(t)
	first := objectQuery(obj, cstr(t, "x86_64"), cstr(t, "main"), slot)
	second := objectQuery(obj, cstr(t, "x86_64"), cstr(t, "main"), slot)
	requireNoFailure(t, slot)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotEqual(t, first, second)

	strFree(first)
	assert.Equal(t, "main.c:10", goString(t, second))
	strFree(second)
}

func TestInvalidHandleIsInternal(t *testing.T) {
	cell := cabitest.NewRawCell(uintptr(1) << 40)
	defer cabitest.FreeRawCell(cell)

	slot := newSlot(t)
	var res unsafe.Pointer
	require.NotPanics(t, func() {
		res = objectQuery(cell, cstr(t, "x86_64"), cstr(t, "main"), slot)
	})
	assert.Nil(t, res)
	msg := requireFailure(t, slot, boundary.CodeInternal)
	assert.Equal(t, "internal error in objinfo_object_query", msg)
}

func TestFreeNullIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		objectFree(nil)
		strFree(nil)
		bufFree(nil)
		errorClear(nil)
	})
}

func TestArches(t *testing.T) {
	path := objfixture.Write(t, "universal", objfixture.Fat(
		objfixture.MachO{Cpu: macho.CpuAmd64},
		objfixture.MachO{Cpu: macho.CpuArm64},
	))
	obj := openFixture(t, path)
	defer objectFree(obj)

	slot := newSlot(t)
	s := objectArches(obj, slot)
	require.NotNil(t, s)
	defer strFree(s)
	assert.Equal(t, "x86_64,arm64", goString(t, s))
	assert.Equal(t, int32(2), objectArchCount(obj, slot))
	requireNoFailure(t, slot)
}

func TestArchCountFailureIsZero(t *testing.T) {
	slot := newSlot(t)
	assert.Zero(t, objectArchCount(nil, slot))
	requireFailure(t, slot, boundary.CodeInvalidArgument)
}

func TestBuildID(t *testing.T) {
	obj := openFixture(t, objfixture.WriteELF(t, objfixture.Standard()))
	defer objectFree(obj)

	slot := newSlot(t)
	buf := objectBuildID(obj, cstr(t, "x86_64"), slot)
	requireNoFailure(t, slot)
	require.NotNil(t, buf)
	defer bufFree(buf)

	got, err := cabi.BufferBytes(buf)
	require.NoError(t, err)
	assert.Equal(t, objfixture.StandardBuildID, got)
}

func TestBuildIDMissing(t *testing.T) {
	path := objfixture.WriteELF(t, objfixture.ELF{
		Machine:  objfixture.Standard().Machine,
		Sections: objfixture.DWARF("a.c", objfixture.Func{Name: "f", Line: 1}),
	})
	obj := openFixture(t, path)
	defer objectFree(obj)

	slot := newSlot(t)
	assert.Nil(t, objectBuildID(obj, cstr(t, "x86_64"), slot))
	requireFailure(t, slot, boundary.CodeMissingSection)
}

func TestDebugID(t *testing.T) {
	id := []byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	path := objfixture.Write(t, "thin", objfixture.MachO{Cpu: macho.CpuArm64, UUID: id}.Bytes())
	obj := openFixture(t, path)
	defer objectFree(obj)

	slot := newSlot(t)
	s := objectDebugID(obj, cstr(t, "aarch64"), slot)
	requireNoFailure(t, slot)
	require.NotNil(t, s)
	defer strFree(s)

	want, err := uuid.FromBytes(id)
	require.NoError(t, err)
	assert.Equal(t, want.String(), goString(t, s))
}

func TestVersion(t *testing.T) {
	v := version()
	require.NotNil(t, v)
	defer strFree(v)
	assert.NotEmpty(t, goString(t, v))
}

func TestConcurrentQueries(t *testing.T) {
	obj := openFixture(t, objfixture.WriteELF(t, objfixture.Standard()))
	defer objectFree(obj)

	arch := cstr(t, "x86_64")
	name := cstr(t, "helper")

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := objectQuery(obj, arch, name, nil)
			if res == nil {
				return
			}
			results[i], _ = cabi.GoString(res)
			strFree(res)
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "main.c:42", r)
	}
}
