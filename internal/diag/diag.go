// Package diag implements the compiler's single error-reporting policy:
// every error is fatal, printed as one "file:line:column: message" line,
// with no partial output and no recovery (spec §7).
package diag

import (
	"fmt"
	"os"

	"github.com/gmofishsauce/subc/internal/token"
)

// Diagnostic is a located compiler error. It implements error so it can
// flow through ordinary Go error returns all the way up to cmd/subc.
type Diagnostic struct {
	Pos     token.Position
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Message)
}

// Errorf builds a Diagnostic at pos.
func Errorf(pos token.Position, format string, args ...any) *Diagnostic {
	return &Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// At builds a Diagnostic anchored to a token's position.
func At(tok token.Token, format string, args ...any) *Diagnostic {
	return Errorf(tok.Pos, format, args...)
}

// Fatal prints err's message and exits non-zero. It is the only place in
// this repo that calls os.Exit outside of cmd/subc's main, matching §7's
// "fatal to the compilation" policy: there is no recoverable error path.
func Fatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
