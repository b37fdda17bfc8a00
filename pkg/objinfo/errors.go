package objinfo

import platformerrors "github.com/jmgilman/go/errors"

// Error codes attached to every failure returned by this package. Branch on
// them with platformerrors.GetCode; the error text is for humans.
const (
	// CodeUnsupportedArch means the architecture is unknown or absent from
	// the object.
	CodeUnsupportedArch platformerrors.ErrorCode = "UNSUPPORTED_ARCH"

	// CodeMissingSection means a section the operation needs is absent,
	// typically because the object was stripped.
	CodeMissingSection platformerrors.ErrorCode = "MISSING_SECTION"

	// CodeMissingAttribute means a debug info entry lacks the attributes
	// needed to answer the query.
	CodeMissingAttribute platformerrors.ErrorCode = "MISSING_ATTRIBUTE"

	CodeMalformedObject platformerrors.ErrorCode = "MALFORMED_OBJECT"
	CodeIO              platformerrors.ErrorCode = "IO_FAILURE"
	CodeMalformedDwarf  platformerrors.ErrorCode = "MALFORMED_DWARF"

	// CodeNotFound is the platform code: no function has the requested name.
	CodeNotFound = platformerrors.CodeNotFound
)

// newError builds a coded error for op. A non-nil cause stays reachable
// through errors.Is and errors.As.
func newError(code platformerrors.ErrorCode, op, detail string, cause error) error {
	msg := op + ": " + detail
	if cause == nil {
		return platformerrors.New(code, msg)
	}
	return platformerrors.Wrap(cause, code, msg)
}
