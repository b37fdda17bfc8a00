package boundary

import "fmt"

// Code is the stable numeric classification written into the error
// descriptor. Values are part of the C ABI: never renumber or reuse one, only
// append.
type Code int32

const (
	// CodeInternal covers panics and any failure without a dedicated code.
	CodeInternal Code = 1

	// CodeUnsupportedArch means the requested architecture is unknown or not
	// present in the object.
	CodeUnsupportedArch Code = 2

	// CodeMissingSection means a section the operation needs is absent,
	// typically because the object was stripped.
	CodeMissingSection Code = 3

	// CodeMissingAttribute means a debug info entry lacks the attributes
	// needed to answer the query.
	CodeMissingAttribute Code = 4

	// CodeMalformedObject means the container format could not be parsed.
	CodeMalformedObject Code = 5

	// CodeIO means the file could not be read.
	CodeIO Code = 6

	// CodeMalformedDwarf means the debug info could not be decoded.
	CodeMalformedDwarf Code = 7

	// CodeNotFound means the requested symbol does not exist.
	CodeNotFound Code = 8

	// CodeInvalidArgument means the caller passed a null or otherwise
	// unusable argument.
	CodeInvalidArgument Code = 9
)

var codeNames = map[Code]string{
	CodeInternal:         "INTERNAL",
	CodeUnsupportedArch:  "UNSUPPORTED_ARCH",
	CodeMissingSection:   "MISSING_SECTION",
	CodeMissingAttribute: "MISSING_ATTRIBUTE",
	CodeMalformedObject:  "MALFORMED_OBJECT",
	CodeIO:               "IO",
	CodeMalformedDwarf:   "MALFORMED_DWARF",
	CodeNotFound:         "NOT_FOUND",
	CodeInvalidArgument:  "INVALID_ARGUMENT",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int32(c))
}

// Valid reports whether c is one of the published codes.
func (c Code) Valid() bool {
	_, ok := codeNames[c]
	return ok
}

// Codes returns every published code in ascending order.
func Codes() []Code {
	return []Code{
		CodeInternal,
		CodeUnsupportedArch,
		CodeMissingSection,
		CodeMissingAttribute,
		CodeMalformedObject,
		CodeIO,
		CodeMalformedDwarf,
		CodeNotFound,
		CodeInvalidArgument,
	}
}
