package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satindergrewal/affix/internal/preset"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#5F87FF") // Affix blue
	warnColor    = lipgloss.Color("#FFA500") // Orange
	mutedColor   = lipgloss.Color("#888888") // Gray
	textColor    = lipgloss.Color("#FFFFFF") // White
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000"))

	WarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Affix"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning to stderr.
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarnStyle.Render("Warning:"), message)
}

// PrintParams writes the silence parameters as aligned key-value lines.
func PrintParams(w io.Writer, p preset.Params) {
	skip := "(none)"
	if len(p.SkipSubpaths) > 0 {
		skip = strings.Join(p.SkipSubpaths, ", ")
	}
	printKV(w, "Pre-silence:", fmt.Sprintf("%d ms", p.PreSilenceMS))
	printKV(w, "Post-silence:", fmt.Sprintf("%d ms", p.PostSilenceMS))
	printKV(w, "Skip subpaths:", skip)
}

// PrintRejected reports dialog values that were reverted.
func PrintRejected(w io.Writer, rejected []preset.Rejected) {
	for _, r := range rejected {
		fmt.Fprintf(w, "%s %s=%d is out of range, kept %d\n",
			WarnStyle.Render("Reverted:"), r.Field, r.Value, r.Restored)
	}
}

func printKV(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Width(15).Render(key), ValueStyle.Render(value))
}
