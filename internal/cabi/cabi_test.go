package cabi_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/objinfo-go/internal/boundary"
	"github.com/hsiuhsiu/objinfo-go/internal/cabi"
	"github.com/hsiuhsiu/objinfo-go/internal/cabi/cabitest"
)

type closer struct{ closed int }

func (c *closer) Close() error {
	c.closed++
	return nil
}

func TestHandleLifecycle(t *testing.T) {
	c := &closer{}
	h, err := cabi.NewHandle(c)
	require.NoError(t, err)
	require.NotNil(t, h)

	got, err := cabi.Borrow[*closer](h)
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = cabi.Borrow[string](h)
	assert.ErrorIs(t, err, cabi.ErrHandleType)

	require.NoError(t, cabi.FreeHandle(h))
	assert.Equal(t, 1, c.closed)
}

func TestHandlesAreIndependent(t *testing.T) {
	a, err := cabi.NewHandle("a")
	require.NoError(t, err)
	b, err := cabi.NewHandle("b")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	require.NoError(t, cabi.FreeHandle(a))
	v, err := cabi.Borrow[string](b)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	require.NoError(t, cabi.FreeHandle(b))
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("close failed") }

func TestFreeHandleReturnsCloseError(t *testing.T) {
	h, err := cabi.NewHandle(failingCloser{})
	require.NoError(t, err)
	assert.EqualError(t, cabi.FreeHandle(h), "close failed")
}

func TestBorrowInvalidCellPanics(t *testing.T) {
	cell := cabitest.NewRawCell(0)
	defer cabitest.FreeRawCell(cell)
	assert.Panics(t, func() { _, _ = cabi.Borrow[string](cell) })
}

func TestNullArguments(t *testing.T) {
	_, err := cabi.Borrow[string](nil)
	assert.ErrorIs(t, err, cabi.ErrNullArgument)
	assert.Equal(t, boundary.CodeInvalidArgument, boundary.Classify(err))

	_, err = cabi.GoString(nil)
	assert.ErrorIs(t, err, cabi.ErrNullArgument)

	_, err = cabi.BufferBytes(nil)
	assert.ErrorIs(t, err, cabi.ErrNullArgument)

	assert.Equal(t, boundary.CodeInternal, boundary.Classify(cabi.ErrHandleType))
	assert.Nil(t, cabi.Slot(nil))
}

func TestFreeNullIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.NoError(t, cabi.FreeHandle(nil))
		cabi.FreeString(nil)
		cabi.FreeBuffer(nil)
		cabitest.FreeSlot(nil)
		cabi.ClearSlot(nil)
		cabitest.FreeRawCell(nil)
	})
}

func TestStrings(t *testing.T) {
	a := cabi.NewString("main.c:10")
	b := cabi.NewString("main.c:10")
	require.NotNil(t, a)
	assert.NotEqual(t, a, b)

	cabi.FreeString(a)
	s, err := cabi.GoString(b)
	require.NoError(t, err)
	assert.Equal(t, "main.c:10", s)
	cabi.FreeString(b)

	empty := cabi.NewString("")
	require.NotNil(t, empty)
	s, err = cabi.GoString(empty)
	require.NoError(t, err)
	assert.Empty(t, s)
	cabi.FreeString(empty)
}

func TestBuffers(t *testing.T) {
	src := []byte{1, 2, 3, 0, 5}
	buf, err := cabi.NewBuffer(src)
	require.NoError(t, err)
	src[0] = 9

	got, err := cabi.BufferBytes(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0, 5}, got)
	cabi.FreeBuffer(buf)

	empty, err := cabi.NewBuffer(nil)
	require.NoError(t, err)
	require.NotNil(t, empty)
	got, err = cabi.BufferBytes(empty)
	require.NoError(t, err)
	assert.Empty(t, got)
	cabi.FreeBuffer(empty)
}

func TestSlot(t *testing.T) {
	p := cabitest.NewSlot()
	defer cabitest.FreeSlot(p)

	failed, code, msg := cabitest.ReadSlot(p)
	assert.False(t, failed)
	assert.Zero(t, code)
	assert.Empty(t, msg)

	cabi.Slot(p).Report(boundary.CodeIO, "read failed")
	failed, code, msg = cabitest.ReadSlot(p)
	assert.True(t, failed)
	assert.Equal(t, boundary.CodeIO, code)
	assert.Equal(t, "read failed", msg)

	cabi.ClearSlot(p)
	failed, code, msg = cabitest.ReadSlot(p)
	assert.False(t, failed)
	assert.Zero(t, code)
	assert.Empty(t, msg)
}

func TestSlotThroughRun(t *testing.T) {
	p := cabitest.NewSlot()
	defer cabitest.FreeSlot(p)

	boundary.Run(cabi.Slot(p), "op", func() (int, error) { panic("boom") })
	failed, code, msg := cabitest.ReadSlot(p)
	assert.True(t, failed)
	assert.Equal(t, boundary.CodeInternal, code)
	assert.Equal(t, "internal error in op", msg)
}
