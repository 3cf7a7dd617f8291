package grammar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName           = errors.New("rule name is empty")
	ErrEmptyPattern        = errors.New("pattern is empty")
	ErrUnterminatedLiteral = errors.New("unterminated pattern literal")
	ErrUnknownFlag         = errors.New("unknown pattern flag")
	ErrLookbehindGroup     = errors.New("lookbehind rule needs a capturing group")
)

// CompileError reports the first rule of a definition that failed to compile.
// Path lists the names of the enclosing rules when the failure happened
// inside a nested definition.
type CompileError struct {
	Rule  string
	Path  []string
	Cause error
}

func (e *CompileError) Error() string {
	name := e.Rule
	if len(e.Path) > 0 {
		name = strings.Join(e.Path, "/") + "/" + e.Rule
	}
	return fmt.Sprintf("compiling rule %q: %v", name, e.Cause)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}
