// Package cli renders terminal output: themed status lines, highlighted
// parse trees, syntax error carets and a spinner for slow remote calls.
package cli

import (
	"os"

	"golang.org/x/term"
)

// ColorEnabled controls whether styled output is emitted.
// It defaults to true if stdout is a terminal and NO_COLOR is not set.
var ColorEnabled = initColorEnabled()

func initColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Success formats a message with a green check prefix.
func Success(msg string) string {
	return Colorize(RoleSuccess, "✓ "+msg)
}

// Error formats a message with a red cross prefix.
func Error(msg string) string {
	return Colorize(RoleError, "✗ "+msg)
}

// Warn formats a message with a yellow warning prefix.
func Warn(msg string) string {
	return Colorize(RoleWarn, "⚠ "+msg)
}

// Info formats a message with the theme's info color (no prefix).
func Info(msg string) string {
	return Colorize(RoleInfo, msg)
}
