package boundary

import (
	"errors"
	"io/fs"
	"os"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/hsiuhsiu/objinfo-go/pkg/objinfo"
)

// Coder lets an error carry its own boundary code. It takes precedence over
// the objinfo code table.
type Coder interface {
	BoundaryCode() Code
}

// platformCodes maps domain error codes to published codes.
var platformCodes = map[platformerrors.ErrorCode]Code{
	objinfo.CodeUnsupportedArch:  CodeUnsupportedArch,
	objinfo.CodeMissingSection:   CodeMissingSection,
	objinfo.CodeMissingAttribute: CodeMissingAttribute,
	objinfo.CodeMalformedObject:  CodeMalformedObject,
	objinfo.CodeIO:               CodeIO,
	objinfo.CodeMalformedDwarf:   CodeMalformedDwarf,
	objinfo.CodeNotFound:         CodeNotFound,
}

// Classify maps err to its published code. It is total: nil, unknown errors
// and unknown platform codes all map to CodeInternal.
func Classify(err error) Code {
	if err == nil {
		return CodeInternal
	}

	var c Coder
	if errors.As(err, &c) {
		if code := c.BoundaryCode(); code.Valid() {
			return code
		}
		return CodeInternal
	}

	if pc := platformerrors.GetCode(err); pc != platformerrors.CodeUnknown {
		if code, ok := platformCodes[pc]; ok {
			return code
		}
		return CodeInternal
	}

	var pathErr *fs.PathError
	switch {
	case errors.As(err, &pathErr),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, os.ErrDeadlineExceeded):
		return CodeIO
	}

	return CodeInternal
}
