package objinfo

import (
	"bytes"
	"context"
	"debug/dwarf"
	"debug/elf"
	"debug/macho"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hsiuhsiu/objinfo-go/internal/logging"
)

// Option configures Open.
type Option func(*options)

type options struct {
	cache   bool
	maxSize int64
	mmap    bool
	logger  logging.Logger
}

func defaultOptions() options {
	return options{
		cache:  true,
		logger: logging.Nop(),
	}
}

// WithCache toggles memoization of Query results on the returned Object.
func WithCache(enabled bool) Option {
	return func(o *options) { o.cache = enabled }
}

// WithMaxSize rejects objects larger than n bytes. Zero or negative disables
// the limit.
func WithMaxSize(n int64) Option {
	return func(o *options) { o.maxSize = n }
}

// WithMmap maps the file read-only instead of reading it into the heap. It is
// ignored on platforms without mmap.
func WithMmap(enabled bool) Option {
	return func(o *options) { o.mmap = enabled }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Object is a parsed object file: an ELF file, a thin Mach-O file or every
// slice of a universal Mach-O binary.
//
// Object is safe for concurrent use. Close must not race with other calls.
type Object struct {
	path    string
	data    []byte
	release func() error
	slices  []*slice
	logger  logging.Logger

	cache   bool
	mu      sync.RWMutex
	results map[queryKey]string

	closeOnce sync.Once
	closeErr  error
}

type queryKey struct {
	arch string
	name string
}

// slice is one architecture inside an object.
type slice struct {
	arch  string
	elf   *elf.File
	macho *macho.File
	raw   []byte

	dwarfOnce sync.Once
	dwarf     *dwarf.Data
	dwarfErr  error
}

// Open reads and parses the object file at path.
func Open(path string, opts ...Option) (*Object, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, newError(CodeIO, "open", "stat "+path, err)
	}
	if fi.IsDir() {
		return nil, newError(CodeIO, "open", path+" is a directory", nil)
	}
	// Devices and pipes report a meaningless size and may never hit EOF.
	if !fi.Mode().IsRegular() {
		return nil, newError(CodeIO, "open", path+" is not a regular file", nil)
	}
	if o.maxSize > 0 && fi.Size() > o.maxSize {
		return nil, tooLarge(path, fi.Size(), o.maxSize)
	}

	data, release, err := load(path, fi.Size(), o.mmap, o.maxSize)
	if err != nil {
		return nil, newError(CodeIO, "open", "read "+path, err)
	}
	// The file may have grown since the stat.
	if o.maxSize > 0 && int64(len(data)) > o.maxSize {
		if rerr := release(); rerr != nil {
			o.logger.Warn(context.Background(), "release object data", "path", path, "error", rerr)
		}
		return nil, tooLarge(path, int64(len(data)), o.maxSize)
	}

	slices, err := parse(data)
	if err != nil {
		if rerr := release(); rerr != nil {
			o.logger.Warn(context.Background(), "release object data", "path", path, "error", rerr)
		}
		return nil, err
	}

	obj := &Object{
		path:    path,
		data:    data,
		release: release,
		slices:  slices,
		logger:  o.logger.With("path", path),
		cache:   o.cache,
		results: make(map[queryKey]string),
	}
	obj.logger.Debug(context.Background(), "object opened",
		"size", len(data),
		"arches", strings.Join(obj.Arches(), ","),
		"mmap", o.mmap,
	)
	return obj, nil
}

func tooLarge(path string, size, limit int64) error {
	return newError(CodeMalformedObject, "open",
		fmt.Sprintf("%s is at least %d bytes, limit is %d", path, size, limit), nil)
}

// load returns the file contents. With a limit, at most limit+1 bytes are
// read so the caller can tell an oversized file from one that fits.
func load(path string, size int64, useMmap bool, limit int64) ([]byte, func() error, error) {
	if useMmap && size > 0 {
		return mapFile(path, size)
	}
	nop := func() error { return nil }
	if limit <= 0 {
		data, err := os.ReadFile(path) // #nosec G304 -- the caller chooses which object to inspect
		if err != nil {
			return nil, nil, err
		}
		return data, nop, nil
	}

	f, err := os.Open(path) // #nosec G304 -- the caller chooses which object to inspect
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, nil, err
	}
	return data, nop, nil
}

func parse(data []byte) ([]*slice, error) {
	if len(data) < 4 {
		return nil, newError(CodeMalformedObject, "open", fmt.Sprintf("file too small (%d bytes)", len(data)), nil)
	}

	if bytes.HasPrefix(data, []byte(elf.ELFMAG)) {
		f, err := elf.NewFile(bytes.NewReader(data))
		if err != nil {
			return nil, newError(CodeMalformedObject, "open", "parse ELF", err)
		}
		return []*slice{{arch: elfArch(f), elf: f, raw: data}}, nil
	}

	be := binary.BigEndian.Uint32(data)
	le := binary.LittleEndian.Uint32(data)
	switch {
	case be == macho.MagicFat:
		ff, err := macho.NewFatFile(bytes.NewReader(data))
		if err != nil {
			return nil, newError(CodeMalformedObject, "open", "parse universal Mach-O", err)
		}
		slices := make([]*slice, 0, len(ff.Arches))
		for _, a := range ff.Arches {
			end := uint64(a.Offset) + uint64(a.Size)
			if end > uint64(len(data)) {
				return nil, newError(CodeMalformedObject, "open",
					fmt.Sprintf("slice %s extends past end of file", a.Cpu), nil)
			}
			slices = append(slices, &slice{
				arch:  machoArch(a.Cpu),
				macho: a.File,
				raw:   data[a.Offset:end],
			})
		}
		return slices, nil
	case be == macho.Magic32, be == macho.Magic64, le == macho.Magic32, le == macho.Magic64:
		f, err := macho.NewFile(bytes.NewReader(data))
		if err != nil {
			return nil, newError(CodeMalformedObject, "open", "parse Mach-O", err)
		}
		return []*slice{{arch: machoArch(f.Cpu), macho: f, raw: data}}, nil
	}

	return nil, newError(CodeMalformedObject, "open", fmt.Sprintf("unrecognized object format (magic %#08x)", be), nil)
}

// Path returns the path the object was opened from.
func (o *Object) Path() string { return o.path }

// Arches returns the canonical architecture names in file order.
func (o *Object) Arches() []string {
	out := make([]string, len(o.slices))
	for i, s := range o.slices {
		out[i] = s.arch
	}
	return out
}

func (o *Object) slice(op, arch string) (*slice, error) {
	name, ok := NormalizeArch(arch)
	if !ok {
		return nil, newError(CodeUnsupportedArch, op, fmt.Sprintf("unknown architecture %q", arch), nil)
	}
	for _, s := range o.slices {
		if s.arch == name {
			return s, nil
		}
	}
	return nil, newError(CodeUnsupportedArch, op,
		fmt.Sprintf("architecture %q not present in object (available: %s)", arch, strings.Join(o.Arches(), ", ")), nil)
}

// Close releases the object's backing data. It is safe to call more than once.
func (o *Object) Close() error {
	if o == nil {
		return nil
	}
	o.closeOnce.Do(func() {
		if o.release != nil {
			o.closeErr = o.release()
		}
		o.logger.Debug(context.Background(), "object closed")
	})
	return o.closeErr
}
