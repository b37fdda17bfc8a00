package objinfo

import (
	"debug/elf"
	"debug/macho"
	"encoding/binary"
	"fmt"
	"strings"
)

// Canonical architecture names. Queries accept these and the aliases in
// archAliases.
const (
	ArchX86     = "x86"
	ArchX86_64  = "x86_64"
	ArchARM     = "arm"
	ArchARM64   = "arm64"
	ArchPPC     = "ppc"
	ArchPPC64   = "ppc64"
	ArchPPC64LE = "ppc64le"
	ArchMIPS    = "mips"
	ArchMIPS64  = "mips64"
	ArchRISCV64 = "riscv64"
	ArchS390X   = "s390x"
	ArchLoong64 = "loong64"
)

var archAliases = map[string]string{
	ArchX86: ArchX86,
	"i386":  ArchX86,
	"i686":  ArchX86,
	"386":   ArchX86,

	ArchX86_64: ArchX86_64,
	"amd64":    ArchX86_64,
	"x86-64":   ArchX86_64,

	ArchARM:  ArchARM,
	"armv7":  ArchARM,
	"armv7a": ArchARM,

	ArchARM64: ArchARM64,
	"aarch64": ArchARM64,

	ArchPPC:     ArchPPC,
	"powerpc":   ArchPPC,
	ArchPPC64:   ArchPPC64,
	"powerpc64": ArchPPC64,
	ArchPPC64LE: ArchPPC64LE,

	ArchMIPS:    ArchMIPS,
	ArchMIPS64:  ArchMIPS64,
	ArchRISCV64: ArchRISCV64,
	ArchS390X:   ArchS390X,

	ArchLoong64:   ArchLoong64,
	"loongarch64": ArchLoong64,
}

// NormalizeArch maps an architecture name or alias to its canonical form.
func NormalizeArch(name string) (string, bool) {
	canon, ok := archAliases[strings.ToLower(strings.TrimSpace(name))]
	return canon, ok
}

func elfArch(f *elf.File) string {
	is64 := f.Class == elf.ELFCLASS64
	switch f.Machine {
	case elf.EM_386:
		return ArchX86
	case elf.EM_X86_64:
		return ArchX86_64
	case elf.EM_ARM:
		return ArchARM
	case elf.EM_AARCH64:
		return ArchARM64
	case elf.EM_PPC:
		return ArchPPC
	case elf.EM_PPC64:
		if f.ByteOrder == binary.LittleEndian {
			return ArchPPC64LE
		}
		return ArchPPC64
	case elf.EM_MIPS:
		if is64 {
			return ArchMIPS64
		}
		return ArchMIPS
	case elf.EM_RISCV:
		if is64 {
			return ArchRISCV64
		}
	case elf.EM_S390:
		return ArchS390X
	case elf.EM_LOONGARCH:
		return ArchLoong64
	}
	return fmt.Sprintf("unknown(%s)", f.Machine)
}

func machoArch(cpu macho.Cpu) string {
	switch cpu {
	case macho.Cpu386:
		return ArchX86
	case macho.CpuAmd64:
		return ArchX86_64
	case macho.CpuArm:
		return ArchARM
	case macho.CpuArm64:
		return ArchARM64
	case macho.CpuPpc:
		return ArchPPC
	case macho.CpuPpc64:
		return ArchPPC64
	}
	return fmt.Sprintf("unknown(%s)", cpu)
}
