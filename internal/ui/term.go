package ui

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// tone names what a piece of CLI output represents.
type tone int

const (
	toneHeader tone = iota
	toneMuted
	toneOK
	tonePrivate
	toneGroup
	toneAbsence
	tonePending
)

var tones = map[tone]*color.Color{
	toneHeader:  color.New(color.Bold),
	toneMuted:   color.New(color.FgWhite, color.Faint),
	toneOK:      color.New(color.FgGreen),
	tonePrivate: color.New(color.FgCyan, color.Bold),
	toneGroup:   color.New(color.FgMagenta),
	toneAbsence: color.New(color.FgRed),
	tonePending: color.New(color.FgYellow),
}

func paint(t tone, s string) string {
	return tones[t].Sprint(s)
}

// termWidth returns the width of stdout, then $COLUMNS, then 80.
func termWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	if width, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && width > 0 {
		return width
	}
	return 80
}

// SetColor turns colored output on or off. fatih/color already disables
// it for NO_COLOR and non-terminal output.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}
