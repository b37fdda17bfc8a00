package objinfo

import (
	"context"
	"debug/dwarf"
	"errors"
	"fmt"
)

// Query returns the source location, formatted as "file:line", of the
// function called name in the arch slice of the object. name is matched
// against DW_AT_name and DW_AT_linkage_name.
func (o *Object) Query(arch, name string) (string, error) {
	s, err := o.slice("query", arch)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", newError(CodeNotFound, "query", "empty function name", nil)
	}

	key := queryKey{arch: s.arch, name: name}
	if o.cache {
		o.mu.RLock()
		loc, ok := o.results[key]
		o.mu.RUnlock()
		if ok {
			return loc, nil
		}
	}

	loc, err := s.locate(name)
	if err != nil {
		o.logger.Debug(context.Background(), "query failed", "arch", s.arch, "name", name, "error", err)
		return "", err
	}

	if o.cache {
		o.mu.Lock()
		o.results[key] = loc
		o.mu.Unlock()
	}
	return loc, nil
}

func (s *slice) debugInfo() (*dwarf.Data, error) {
	s.dwarfOnce.Do(func() {
		s.dwarf, s.dwarfErr = s.loadDWARF()
	})
	return s.dwarf, s.dwarfErr
}

func (s *slice) loadDWARF() (*dwarf.Data, error) {
	const op = "load debug info"
	var (
		d   *dwarf.Data
		err error
	)
	switch {
	case s.elf != nil:
		if s.elf.Section(".debug_info") == nil && s.elf.Section(".zdebug_info") == nil {
			return nil, newError(CodeMissingSection, op, fmt.Sprintf("no .debug_info section for %s", s.arch), nil)
		}
		d, err = s.elf.DWARF()
	case s.macho != nil:
		if s.macho.Section("__debug_info") == nil && s.macho.Section("__zdebug_info") == nil {
			return nil, newError(CodeMissingSection, op, fmt.Sprintf("no __debug_info section for %s", s.arch), nil)
		}
		d, err = s.macho.DWARF()
	default:
		return nil, newError(CodeMalformedObject, op, "slice has no parsed file", nil)
	}
	if err != nil {
		return nil, newError(CodeMalformedDwarf, op, s.arch, err)
	}
	return d, nil
}

func (s *slice) locate(name string) (string, error) {
	d, err := s.debugInfo()
	if err != nil {
		return "", err
	}

	r := d.Reader()
	var cu *dwarf.Entry
	for {
		e, err := r.Next()
		if err != nil {
			return "", newError(CodeMalformedDwarf, "query", "read debug info entries", err)
		}
		if e == nil {
			break
		}
		switch e.Tag {
		case dwarf.TagCompileUnit, dwarf.TagPartialUnit:
			cu = e
			continue
		case dwarf.TagSubprogram:
		default:
			continue
		}
		if !matchesName(e, name) {
			continue
		}
		return s.location(d, cu, e, name)
	}

	return "", newError(CodeNotFound, "query", fmt.Sprintf("no function %q in %s debug info", name, s.arch), nil)
}

func matchesName(e *dwarf.Entry, name string) bool {
	if n, ok := e.Val(dwarf.AttrName).(string); ok && n == name {
		return true
	}
	if n, ok := e.Val(dwarf.AttrLinkageName).(string); ok && n == name {
		return true
	}
	return false
}

// location prefers the declaration coordinates and falls back to the line
// table row covering the function's entry address.
func (s *slice) location(d *dwarf.Data, cu, fn *dwarf.Entry, name string) (string, error) {
	if cu == nil {
		return "", newError(CodeMalformedDwarf, "query", fmt.Sprintf("function %q outside a compilation unit", name), nil)
	}
	lr, err := d.LineReader(cu)
	if err != nil {
		return "", newError(CodeMalformedDwarf, "query", "read line table", err)
	}
	if lr == nil {
		return "", newError(CodeMissingAttribute, "query", "compilation unit has no DW_AT_stmt_list", nil)
	}

	fileIdx, hasFile := fn.Val(dwarf.AttrDeclFile).(int64)
	line, hasLine := fn.Val(dwarf.AttrDeclLine).(int64)
	if hasFile && hasLine {
		files := lr.Files()
		if fileIdx < 0 || fileIdx >= int64(len(files)) || files[fileIdx] == nil {
			return "", newError(CodeMalformedDwarf, "query",
				fmt.Sprintf("DW_AT_decl_file %d of %q out of range (%d files)", fileIdx, name, len(files)), nil)
		}
		return fmt.Sprintf("%s:%d", files[fileIdx].Name, line), nil
	}

	if low, ok := fn.Val(dwarf.AttrLowpc).(uint64); ok {
		var entry dwarf.LineEntry
		if err := lr.SeekPC(low, &entry); err != nil {
			if errors.Is(err, dwarf.ErrUnknownPC) {
				return "", newError(CodeMissingAttribute, "query",
					fmt.Sprintf("no line table row for %q at %#x", name, low), nil)
			}
			return "", newError(CodeMalformedDwarf, "query", "seek line table", err)
		}
		if entry.File == nil {
			return "", newError(CodeMalformedDwarf, "query", fmt.Sprintf("line table row for %q has no file", name), nil)
		}
		return fmt.Sprintf("%s:%d", entry.File.Name, entry.Line), nil
	}

	return "", newError(CodeMissingAttribute, "query",
		fmt.Sprintf("function %q has neither DW_AT_decl_file nor DW_AT_low_pc", name), nil)
}
