// Package objfixture writes small, hand-assembled object files for tests.
//
// The fixtures are just valid enough for debug/elf, debug/macho and
// debug/dwarf to parse them, which keeps tests hermetic: no compiler, no
// dependence on how the test binary itself was linked.
package objfixture

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Section is a raw ELF section.
type Section struct {
	Name string
	Type elf.SectionType
	Data []byte
}

// ELF describes a little-endian ELF64 executable.
type ELF struct {
	Machine  elf.Machine
	Sections []Section
}

// Bytes lays the file out as: header, section contents (8-byte aligned),
// section header table. There are no program headers.
func (e ELF) Bytes() []byte {
	order := binary.LittleEndian

	var shstr bytes.Buffer
	shstr.WriteByte(0)
	names := make([]uint32, len(e.Sections))
	for i, s := range e.Sections {
		names[i] = uint32(shstr.Len())
		shstr.WriteString(s.Name)
		shstr.WriteByte(0)
	}
	shstrName := uint32(shstr.Len())
	shstr.WriteString(".shstrtab")
	shstr.WriteByte(0)

	buf := make([]byte, 64)
	offsets := make([]uint64, len(e.Sections))
	for i, s := range e.Sections {
		buf = pad(buf, 8)
		offsets[i] = uint64(len(buf))
		buf = append(buf, s.Data...)
	}
	buf = pad(buf, 8)
	shstrOff := uint64(len(buf))
	buf = append(buf, shstr.Bytes()...)
	buf = pad(buf, 8)
	shoff := uint64(len(buf))

	sh := func(name uint32, typ elf.SectionType, off, size uint64) {
		var h [64]byte
		order.PutUint32(h[0:], name)
		order.PutUint32(h[4:], uint32(typ))
		order.PutUint64(h[24:], off)
		order.PutUint64(h[32:], size)
		order.PutUint64(h[48:], 1)
		buf = append(buf, h[:]...)
	}
	buf = append(buf, make([]byte, 64)...) // SHN_UNDEF
	for i, s := range e.Sections {
		typ := s.Type
		if typ == elf.SHT_NULL {
			typ = elf.SHT_PROGBITS
		}
		sh(names[i], typ, offsets[i], uint64(len(s.Data)))
	}
	sh(shstrName, elf.SHT_STRTAB, shstrOff, uint64(shstr.Len()))

	copy(buf[0:], elf.ELFMAG)
	buf[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	buf[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	buf[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	order.PutUint16(buf[16:], uint16(elf.ET_EXEC))
	order.PutUint16(buf[18:], uint16(e.Machine))
	order.PutUint32(buf[20:], uint32(elf.EV_CURRENT))
	order.PutUint64(buf[40:], shoff)
	order.PutUint16(buf[52:], 64)
	order.PutUint16(buf[54:], 56)
	order.PutUint16(buf[58:], 64)
	order.PutUint16(buf[60:], uint16(len(e.Sections)+2))
	order.PutUint16(buf[62:], uint16(len(e.Sections)+1))
	return buf
}

func pad(b []byte, align int) []byte {
	for len(b)%align != 0 {
		b = append(b, 0)
	}
	return b
}

// BuildIDNote returns a .note.gnu.build-id section carrying id.
func BuildIDNote(id []byte) Section {
	order := binary.LittleEndian
	var b []byte
	b = order.AppendUint32(b, 4)
	b = order.AppendUint32(b, uint32(len(id)))
	b = order.AppendUint32(b, 3) // NT_GNU_BUILD_ID
	b = append(b, 'G', 'N', 'U', 0)
	b = append(b, id...)
	b = pad(b, 4)
	return Section{Name: ".note.gnu.build-id", Type: elf.SHT_NOTE, Data: b}
}

// Func is a DW_TAG_subprogram in the generated debug info.
type Func struct {
	Name string
	// Line, when non-zero, emits DW_AT_decl_file (the unit's only file) and
	// DW_AT_decl_line.
	Line int
	// LowPC, when non-zero, emits DW_AT_low_pc and a line table sequence
	// mapping it to LowPCLine.
	LowPC     uint64
	LowPCLine int
}

const (
	abbrevUnit = iota + 1
	abbrevDecl
	abbrevBare
	abbrevLowPC
)

// DWARF returns .debug_abbrev, .debug_info and .debug_line sections for a
// single DWARF v4 compilation unit named file that contains funcs.
func DWARF(file string, funcs ...Func) []Section {
	return []Section{
		{Name: ".debug_abbrev", Data: abbrevTable()},
		{Name: ".debug_info", Data: infoUnit(file, funcs)},
		{Name: ".debug_line", Data: lineProgram(file, funcs)},
	}
}

func abbrevTable() []byte {
	return []byte{
		abbrevUnit, 0x11, 1, // DW_TAG_compile_unit, has children
		0x03, 0x08, // DW_AT_name, DW_FORM_string
		0x10, 0x17, // DW_AT_stmt_list, DW_FORM_sec_offset
		0, 0,

		abbrevDecl, 0x2e, 0, // DW_TAG_subprogram
		0x03, 0x08,
		0x3a, 0x0b, // DW_AT_decl_file, DW_FORM_data1
		0x3b, 0x0f, // DW_AT_decl_line, DW_FORM_udata
		0, 0,

		abbrevBare, 0x2e, 0,
		0x03, 0x08,
		0, 0,

		abbrevLowPC, 0x2e, 0,
		0x03, 0x08,
		0x11, 0x01, // DW_AT_low_pc, DW_FORM_addr
		0, 0,

		0,
	}
}

func infoUnit(file string, funcs []Func) []byte {
	order := binary.LittleEndian

	var dies []byte
	dies = append(dies, abbrevUnit)
	dies = cstring(dies, file)
	dies = order.AppendUint32(dies, 0)
	for _, f := range funcs {
		switch {
		case f.Line > 0:
			dies = append(dies, abbrevDecl)
			dies = cstring(dies, f.Name)
			dies = append(dies, 1)
			dies = uleb(dies, uint64(f.Line))
		case f.LowPC != 0:
			dies = append(dies, abbrevLowPC)
			dies = cstring(dies, f.Name)
			dies = order.AppendUint64(dies, f.LowPC)
		default:
			dies = append(dies, abbrevBare)
			dies = cstring(dies, f.Name)
		}
	}
	dies = append(dies, 0)

	var hdr []byte
	hdr = order.AppendUint16(hdr, 4) // version
	hdr = order.AppendUint32(hdr, 0) // abbrev offset
	hdr = append(hdr, 8)             // address size

	var out []byte
	out = order.AppendUint32(out, uint32(len(hdr)+len(dies)))
	out = append(out, hdr...)
	return append(out, dies...)
}

func lineProgram(file string, funcs []Func) []byte {
	order := binary.LittleEndian

	var header []byte
	header = append(header,
		1,    // minimum_instruction_length
		1,    // maximum_operations_per_instruction
		1,    // default_is_stmt
		0xfb, // line_base = -5
		14,   // line_range
		13,   // opcode_base
	)
	header = append(header, 0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1)
	header = append(header, 0) // no include_directories
	header = cstring(header, file)
	header = append(header, 0, 0, 0) // dir, mtime, length
	header = append(header, 0)       // end of file_names

	var program []byte
	for _, f := range funcs {
		if f.Line > 0 || f.LowPC == 0 {
			continue
		}
		program = append(program, 0, 9, 2) // DW_LNE_set_address
		program = order.AppendUint64(program, f.LowPC)
		program = append(program, 3) // DW_LNS_advance_line
		program = sleb(program, int64(f.LowPCLine-1))
		program = append(program, 1)     // DW_LNS_copy
		program = append(program, 2, 16) // DW_LNS_advance_pc
		program = append(program, 0, 1, 1)
	}
	if len(program) == 0 {
		program = append(program, 0, 1, 1) // DW_LNE_end_sequence
	}

	var unit []byte
	unit = order.AppendUint16(unit, 4)
	unit = order.AppendUint32(unit, uint32(len(header)))
	unit = append(unit, header...)
	unit = append(unit, program...)

	var out []byte
	out = order.AppendUint32(out, uint32(len(unit)))
	return append(out, unit...)
}

func cstring(b []byte, s string) []byte {
	b = append(b, s...)
	return append(b, 0)
}

func uleb(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}

func sleb(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0)
		if !done {
			c |= 0x80
		}
		b = append(b, c)
		if done {
			return b
		}
	}
}

// MachO describes a thin little-endian 64-bit Mach-O executable.
type MachO struct {
	Cpu macho.Cpu
	// UUID, when set, emits an LC_UUID load command.
	UUID []byte
	// Sections, when set, are emitted in a __DWARF segment. Names use the ELF
	// spelling (".debug_info") and are written as "__debug_info".
	Sections []Section
}

const (
	machoHeaderSize    = 32
	machoSegment64Size = 72
	machoSection64Size = 80
	machoUUIDSize      = 24
)

// Bytes encodes the Mach-O header, load commands and section contents.
func (m MachO) Bytes() []byte {
	order := binary.LittleEndian

	cmdsSize := 0
	if len(m.Sections) > 0 {
		cmdsSize += machoSegment64Size + machoSection64Size*len(m.Sections)
	}
	if m.UUID != nil {
		cmdsSize += machoUUIDSize
	}

	// Every load command size is a multiple of 8, so base is aligned.
	base := machoHeaderSize + cmdsSize
	var data []byte
	offsets := make([]uint32, len(m.Sections))
	for i, s := range m.Sections {
		data = pad(data, 8)
		offsets[i] = uint32(base + len(data))
		data = append(data, s.Data...)
	}

	var cmds []byte
	ncmds := uint32(0)
	if len(m.Sections) > 0 {
		cmds = order.AppendUint32(cmds, uint32(macho.LoadCmdSegment64))
		cmds = order.AppendUint32(cmds, uint32(machoSegment64Size+machoSection64Size*len(m.Sections)))
		cmds = append(cmds, name16("__DWARF")...)
		cmds = order.AppendUint64(cmds, 0)                 // vmaddr
		cmds = order.AppendUint64(cmds, uint64(len(data))) // vmsize
		cmds = order.AppendUint64(cmds, uint64(base))      // fileoff
		cmds = order.AppendUint64(cmds, uint64(len(data))) // filesize
		cmds = order.AppendUint32(cmds, 0)                 // maxprot
		cmds = order.AppendUint32(cmds, 0)                 // initprot
		cmds = order.AppendUint32(cmds, uint32(len(m.Sections)))
		cmds = order.AppendUint32(cmds, 0) // flags
		for i, s := range m.Sections {
			cmds = append(cmds, name16("__"+strings.TrimPrefix(s.Name, "."))...)
			cmds = append(cmds, name16("__DWARF")...)
			cmds = order.AppendUint64(cmds, 0) // addr
			cmds = order.AppendUint64(cmds, uint64(len(s.Data)))
			cmds = order.AppendUint32(cmds, offsets[i])
			// align, reloff, nreloc, flags, reserved1-3
			for range 7 {
				cmds = order.AppendUint32(cmds, 0)
			}
		}
		ncmds++
	}
	if m.UUID != nil {
		cmds = order.AppendUint32(cmds, 0x1b) // LC_UUID
		cmds = order.AppendUint32(cmds, machoUUIDSize)
		var u [16]byte
		copy(u[:], m.UUID)
		cmds = append(cmds, u[:]...)
		ncmds++
	}

	var out []byte
	out = order.AppendUint32(out, macho.Magic64)
	out = order.AppendUint32(out, uint32(m.Cpu))
	out = order.AppendUint32(out, 3) // CPU_SUBTYPE_ALL
	out = order.AppendUint32(out, uint32(macho.TypeExec))
	out = order.AppendUint32(out, ncmds)
	out = order.AppendUint32(out, uint32(len(cmds)))
	out = order.AppendUint32(out, 0) // flags
	out = order.AppendUint32(out, 0) // reserved
	out = append(out, cmds...)
	return append(out, data...)
}

func name16(s string) []byte {
	var b [16]byte
	copy(b[:], s)
	return b[:]
}

// Fat wraps thin Mach-O slices into a universal binary. Slices must have
// distinct CPUs.
func Fat(slices ...MachO) []byte {
	order := binary.BigEndian
	const align = 12 // 4096

	bodies := make([][]byte, len(slices))
	for i, s := range slices {
		bodies[i] = s.Bytes()
	}

	var out []byte
	out = order.AppendUint32(out, macho.MagicFat)
	out = order.AppendUint32(out, uint32(len(slices)))
	offset := uint32(1 << align)
	for i, s := range slices {
		out = order.AppendUint32(out, uint32(s.Cpu))
		out = order.AppendUint32(out, 3)
		out = order.AppendUint32(out, offset)
		out = order.AppendUint32(out, uint32(len(bodies[i])))
		out = order.AppendUint32(out, align)
		offset += uint32(len(bodies[i]))
		offset = (offset + (1 << align) - 1) &^ ((1 << align) - 1)
	}
	for _, b := range bodies {
		out = pad(out, 1<<align)
		out = append(out, b...)
	}
	return out
}

// Write stores data under name in a per-test temporary directory and returns
// the path.
func Write(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteELF is Write for an ELF description.
func WriteELF(t testing.TB, e ELF) string {
	t.Helper()
	return Write(t, "fixture.elf", e.Bytes())
}

// Standard returns an x86_64 ELF with a build ID and a compilation unit
// "main.c" holding:
//
//	main      declared at main.c:10
//	helper    declared at main.c:42
//	entry     no declaration, low_pc 0x1000 mapped to main.c:7
//	orphan    no location attributes at all
func Standard() ELF {
	secs := []Section{BuildIDNote(StandardBuildID)}
	secs = append(secs, StandardDWARF()...)
	return ELF{Machine: elf.EM_X86_64, Sections: secs}
}

// StandardDWARF returns the debug sections of Standard, for use in other
// containers.
func StandardDWARF() []Section {
	return DWARF("main.c",
		Func{Name: "main", Line: 10},
		Func{Name: "helper", Line: 42},
		Func{Name: "entry", LowPC: 0x1000, LowPCLine: 7},
		Func{Name: "orphan"},
	)
}

// StandardBuildID is the build ID carried by Standard.
var StandardBuildID = []byte{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	0x11, 0x12, 0x13, 0x14,
}
