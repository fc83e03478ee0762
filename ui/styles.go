package ui

import "github.com/charmbracelet/lipgloss"

// styles groups the lipgloss styles used by the composer.
type styles struct {
	Title      lipgloss.Style
	Label      lipgloss.Style
	Muted      lipgloss.Style
	Info       lipgloss.Style
	Success    lipgloss.Style
	Danger     lipgloss.Style
	Button     lipgloss.Style
	ButtonBusy lipgloss.Style
	Panel      lipgloss.Style
	Heading    lipgloss.Style
	Emphasis   lipgloss.Style
	Strong     lipgloss.Style
	Code       lipgloss.Style
	Quote      lipgloss.Style
	Link       lipgloss.Style
}

func defaultStyles() styles {
	const (
		accent  = "#BD93F9"
		text    = "#F8F8F2"
		muted   = "#6272A4"
		success = "#50FA7B"
		danger  = "#FF5555"
		info    = "#8BE9FD"
		code    = "#F1FA8C"
	)
	return styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		Label:      lipgloss.NewStyle().Foreground(lipgloss.Color(muted)).Width(10),
		Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color(muted)),
		Info:       lipgloss.NewStyle().Foreground(lipgloss.Color(info)),
		Success:    lipgloss.NewStyle().Foreground(lipgloss.Color(success)).Bold(true),
		Danger:     lipgloss.NewStyle().Foreground(lipgloss.Color(danger)).Bold(true),
		Button:     lipgloss.NewStyle().Foreground(lipgloss.Color(text)).Background(lipgloss.Color("#44475A")).Padding(0, 1),
		ButtonBusy: lipgloss.NewStyle().Foreground(lipgloss.Color(muted)).Background(lipgloss.Color("#282A36")).Padding(0, 1),
		Panel:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(muted)).Padding(0, 1),
		Heading:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		Emphasis:   lipgloss.NewStyle().Italic(true),
		Strong:     lipgloss.NewStyle().Bold(true),
		Code:       lipgloss.NewStyle().Foreground(lipgloss.Color(code)),
		Quote:      lipgloss.NewStyle().Foreground(lipgloss.Color(muted)).Italic(true),
		Link:       lipgloss.NewStyle().Foreground(lipgloss.Color(info)).Underline(true),
	}
}

// plainStyles renders without decoration.
func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{
		Title: s, Label: s.Width(10), Muted: s, Info: s, Success: s, Danger: s,
		Button: s, ButtonBusy: s, Panel: s, Heading: s, Emphasis: s, Strong: s,
		Code: s, Quote: s, Link: s,
	}
}
