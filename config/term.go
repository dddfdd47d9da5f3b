package config

import (
	"io"
	"os"
)

// TerminalIO is where git's own output and autosync's messages go. Child
// processes inherit these streams directly.
type TerminalIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var DefaultTermIO = TerminalIO{
	Stdin:  os.Stdin,
	Stdout: os.Stdout,
	Stderr: os.Stderr,
}
