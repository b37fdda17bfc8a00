//go:build linux || darwin || freebsd || netbsd || openbsd

package objinfo

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps path read-only. The returned release function unmaps it.
func mapFile(path string, size int64) ([]byte, func() error, error) {
	if size > math.MaxInt {
		return nil, nil, fmt.Errorf("file too large to map: %d bytes", size)
	}
	f, err := os.Open(path) // #nosec G304 -- the caller chooses which object to inspect
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
