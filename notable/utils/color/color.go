package color

import (
	"github.com/fatih/color"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgGreen)
	mutedColor   = color.New(color.FgHiBlack)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	summaryColor = color.New(color.FgHiYellow)
)

func ColorTitle(s string) string {
	return titleColor.Sprint(s)
}

func ColorInfo(s string) string {
	return infoColor.Sprint(s)
}

func ColorMuted(s string) string {
	return mutedColor.Sprint(s)
}

func ColorWarning(s string) string {
	return warningColor.Sprint(s)
}

func ColorError(s string) string {
	return errorColor.Sprint(s)
}

func ColorSummary(s string) string {
	return summaryColor.Sprint(s)
}

// Disable turns colors off, e.g. for --no-color or non-TTY output.
func Disable() {
	color.NoColor = true
}
