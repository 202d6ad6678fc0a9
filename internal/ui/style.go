package ui

import (
	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// SetColor turns ANSI styling on or off for every helper in this package.
// fatih/color already disables itself when stdout is not a terminal.
func SetColor(enabled bool) {
	if !enabled {
		color.NoColor = true
	}
}

// CriticalMark returns the marker printed next to zero-slack activities.
func CriticalMark(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// Slack colors a slack value: red for negative, yellow for zero, dim otherwise.
func Slack(s string, slack int) string {
	switch {
	case slack < 0:
		return BoldRed(s)
	case slack == 0:
		return BoldYellow(s)
	default:
		return Dim(s)
	}
}

// YesNo renders a boolean as a colored yes/no cell.
func YesNo(b bool) string {
	if b {
		return Green("yes")
	}
	return Dim("no")
}
