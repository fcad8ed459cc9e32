package tui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width cannot be detected.
const DefaultWidth = 100

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Width returns the column count of w, or DefaultWidth when w is not a terminal.
func Width(w io.Writer) int {
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}
