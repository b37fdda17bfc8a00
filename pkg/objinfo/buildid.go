package objinfo

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/zeebo/xxh3"
)

const (
	ntGNUBuildID = 3
	lcUUID       = 0x1b
)

// BuildID returns the raw build identifier of the arch slice: the
// NT_GNU_BUILD_ID note of an ELF file or the LC_UUID of a Mach-O file.
func (o *Object) BuildID(arch string) ([]byte, error) {
	s, err := o.slice("build id", arch)
	if err != nil {
		return nil, err
	}
	return s.buildID()
}

// DebugID returns a stable identifier for the arch slice formatted as a UUID.
// It is derived from the build ID when there is one and from an xxh3-128
// digest of the slice contents otherwise.
func (o *Object) DebugID(arch string) (string, error) {
	s, err := o.slice("debug id", arch)
	if err != nil {
		return "", err
	}

	id, err := s.buildID()
	switch {
	case err == nil:
		return debugIDFromBuildID(id, s.elf != nil && s.elf.ByteOrder == binary.LittleEndian).String(), nil
	case platformerrors.GetCode(err) != CodeMissingSection:
		return "", err
	}

	sum := xxh3.Hash128(s.raw).Bytes()
	return uuid.UUID(sum).String(), nil
}

// debugIDFromBuildID truncates or zero-pads id to 16 bytes. GNU build IDs of
// little-endian objects get the first three UUID fields byte-swapped so the
// result matches the identifiers symbol servers use for ELF files.
func debugIDFromBuildID(id []byte, swap bool) uuid.UUID {
	var u uuid.UUID
	copy(u[:], id)
	if swap {
		binary.BigEndian.PutUint32(u[0:4], binary.LittleEndian.Uint32(u[0:4]))
		binary.BigEndian.PutUint16(u[4:6], binary.LittleEndian.Uint16(u[4:6]))
		binary.BigEndian.PutUint16(u[6:8], binary.LittleEndian.Uint16(u[6:8]))
	}
	return u
}

func (s *slice) buildID() ([]byte, error) {
	switch {
	case s.elf != nil:
		return elfBuildID(s.elf, s.arch)
	case s.macho != nil:
		return machoUUID(s.macho, s.arch)
	}
	return nil, newError(CodeMalformedObject, "build id", "slice has no parsed file", nil)
}

func elfBuildID(f *elf.File, arch string) ([]byte, error) {
	var notes []*elf.Section
	if sec := f.Section(".note.gnu.build-id"); sec != nil {
		notes = append(notes, sec)
	} else {
		for _, sec := range f.Sections {
			if sec.Type == elf.SHT_NOTE {
				notes = append(notes, sec)
			}
		}
	}

	for _, sec := range notes {
		data, err := sec.Data()
		if err != nil {
			return nil, newError(CodeMalformedObject, "build id", "read "+sec.Name, err)
		}
		if id := findNote(data, f.ByteOrder, "GNU", ntGNUBuildID); len(id) > 0 {
			return id, nil
		}
	}
	return nil, newError(CodeMissingSection, "build id", fmt.Sprintf("no GNU build-id note for %s", arch), nil)
}

// findNote walks an ELF note section and returns a copy of the descriptor of
// the first note with the given owner and type.
func findNote(data []byte, order binary.ByteOrder, owner string, typ uint32) []byte {
	for len(data) >= 12 {
		namesz := uint64(order.Uint32(data[0:4]))
		descsz := uint64(order.Uint32(data[4:8]))
		ntype := order.Uint32(data[8:12])
		data = data[12:]

		nameEnd := align4(namesz)
		if nameEnd > uint64(len(data)) {
			return nil
		}
		name := bytes.TrimRight(data[:namesz], "\x00")
		data = data[nameEnd:]

		if descsz > uint64(len(data)) {
			return nil
		}
		desc := data[:descsz]
		if descEnd := align4(descsz); descEnd <= uint64(len(data)) {
			data = data[descEnd:]
		} else {
			data = nil
		}

		if ntype == typ && string(name) == owner {
			return bytes.Clone(desc)
		}
	}
	return nil
}

func align4(n uint64) uint64 { return (n + 3) &^ 3 }

func machoUUID(f *macho.File, arch string) ([]byte, error) {
	for _, l := range f.Loads {
		raw := l.Raw()
		if len(raw) < 8 || f.ByteOrder.Uint32(raw[0:4]) != lcUUID {
			continue
		}
		if len(raw) < 24 {
			return nil, newError(CodeMalformedObject, "build id", "truncated LC_UUID command", nil)
		}
		return bytes.Clone(raw[8:24]), nil
	}
	return nil, newError(CodeMissingSection, "build id", fmt.Sprintf("no LC_UUID load command for %s", arch), nil)
}
