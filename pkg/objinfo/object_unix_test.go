//go:build unix

package objinfo_test

import (
	"path/filepath"
	"testing"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/hsiuhsiu/objinfo-go/pkg/objinfo"
)

func TestOpenRejectsSpecialFiles(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "pipe")
	require.NoError(t, unix.Mkfifo(fifo, 0o600))

	for _, path := range []string{"/dev/zero", fifo} {
		for _, mmap := range []bool{false, true} {
			obj, err := objinfo.Open(path, objinfo.WithMmap(mmap))
			require.Error(t, err, path)
			assert.Nil(t, obj)
			assert.Equal(t, objinfo.CodeIO, platformerrors.GetCode(err), "error: %v", err)
			assert.Contains(t, err.Error(), "not a regular file")
		}
	}
}

func TestOpenDevZeroWithLimit(t *testing.T) {
	_, err := objinfo.Open("/dev/zero", objinfo.WithMaxSize(1<<20))
	require.Error(t, err)
	assert.Equal(t, objinfo.CodeIO, platformerrors.GetCode(err), "error: %v", err)
}
