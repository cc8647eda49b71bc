package ingest

import (
	"errors"
	"fmt"
)

// ErrUnsupportedVersion is returned for a module description of an unknown
// format version.
var ErrUnsupportedVersion = errors.New("unsupported module description version")

// DecodeError locates a problem in a module description. Pointer is the
// path of the offending element, e.g. "definitions[2].template.elems[0]".
type DecodeError struct {
	Path    string
	Pointer string
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Pointer == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Pointer, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Err }
