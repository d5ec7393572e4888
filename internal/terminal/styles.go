package terminal

import "github.com/charmbracelet/lipgloss"

//nolint:gochecknoglobals // Read-only style palette.
var (
	primaryColor = lipgloss.Color("#0969DA")
	accentColor  = lipgloss.Color("#2DA44E")
	errorColor   = lipgloss.Color("#CF222E")
	dimColor     = lipgloss.Color("#6E7681")
	linkColor    = lipgloss.Color("#58A6FF")
	titleColor   = lipgloss.Color("#39D353")
	dateColor    = lipgloss.Color("#A371F7")
	sourceColor  = lipgloss.Color("#FFA657")

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(titleColor).
			Bold(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(sourceColor).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(dateColor).
			Italic(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(linkColor).
			Underline(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)
