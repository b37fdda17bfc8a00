// Package objinfo reads object files and answers questions about their debug
// information.
//
// An Object is opened from a path and may hold several architecture slices
// (universal Mach-O binaries). Every query names the slice it targets:
//
//	obj, err := objinfo.Open("/usr/bin/ls", objinfo.WithMmap(true))
//	if err != nil {
//		return err
//	}
//	defer obj.Close()
//
//	loc, err := obj.Query("x86_64", "main")
//	// loc == "ls.c:1303"
//
// Failures carry a github.com/jmgilman/go/errors code. Branch on it rather
// than on the message:
//
//	if platformerrors.GetCode(err) == objinfo.CodeMissingSection {
//		// stripped binary
//	}
//
// Supported containers are ELF (32/64-bit, either byte order), thin Mach-O and
// universal Mach-O. DWARF versions 2 through 5 are read via debug/dwarf.
package objinfo
