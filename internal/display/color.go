// Package display renders fasting recommendations for the terminal using raw
// ANSI escape codes.
//
// It respects the NO_COLOR environment variable (https://no-color.org/) and
// detects whether stdout is a terminal. Colors are automatically disabled when
// output is piped or redirected, or when NO_COLOR is set.
package display

import (
	"fmt"
	"os"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
)

// ANSI escape codes for styling.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	fgGray = "\033[90m" // bright black = gray
)

// Style transforms a piece of text, typically by wrapping it in color codes.
type Style func(string) string

// enabled reports whether color output is active.
// It is set once at init time.
var enabled bool

func init() {
	enabled = shouldEnable()
}

// shouldEnable determines whether to use color output.
func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	// FORCE_COLOR is handy in tests and under tmux.
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the auto-detected color state.
// Useful for testing or when --json forces plain output.
func SetEnabled(b bool) {
	enabled = b
}

// Enabled reports whether color output is currently active.
func Enabled() bool {
	return enabled
}

// wrap applies an ANSI code around text, only when colors are enabled.
func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

// Bold returns text rendered in bold.
func Bold(text string) string { return wrap(bold, text) }

// Dim returns text rendered in dim/faint.
func Dim(text string) string { return wrap(dim, text) }

// Red returns text rendered in red. Used for forbidden days.
func Red(text string) string { return wrap(red, text) }

// Green returns text rendered in green.
func Green(text string) string { return wrap(green, text) }

// Yellow returns text rendered in yellow.
func Yellow(text string) string { return wrap(yellow, text) }

// Cyan returns text rendered in cyan.
func Cyan(text string) string { return wrap(cyan, text) }

// Gray returns text rendered in gray (bright black).
func Gray(text string) string { return wrap(fgGray, text) }

// Accent returns text rendered in the accent color (cyan + bold).
// Used for the "today" row.
func Accent(text string) string {
	if !enabled {
		return text
	}
	return bold + cyan + text + reset
}

// Boldf formats and bolds a string.
func Boldf(format string, a ...interface{}) string {
	return Bold(fmt.Sprintf(format, a...))
}

// StyleFor picks the color of a recommendation: red for forbidden days,
// bold cyan for Ramadhan, yellow when an obligation is due, green for a
// plain sunnah fast and gray when there is nothing to fast.
func StyleFor(rec fasting.Recommendation) Style {
	switch {
	case rec.IsForbidden:
		return Red
	case rec.Type == fasting.Ramadhan:
		return Accent
	case rec.IsQadha || rec.IsNadzar:
		return Yellow
	case rec.Type == fasting.None:
		return Gray
	default:
		return Green
	}
}

// Recommendation renders rec's label in its color.
func Recommendation(rec fasting.Recommendation) string {
	return StyleFor(rec)(rec.Label())
}
