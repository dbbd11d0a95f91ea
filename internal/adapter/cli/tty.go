package cli

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether the file descriptor is attached to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal reports whether stdout goes to a user's terminal
// rather than a pipe or a redirect. The run command checks this to
// choose between the human summary and plain artifact paths.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
