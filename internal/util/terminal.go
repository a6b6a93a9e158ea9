package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether fd is attached to a terminal. Progress
// spinners and log coloring key off this.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// GetTerminalWidth returns the current stdout width, or 80 when stdout is
// not a terminal
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return width
}
