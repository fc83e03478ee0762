package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"auto_wordpress_article_publisher/composer"
	"auto_wordpress_article_publisher/countdown"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	sections := []string{
		m.renderHeader(),
		m.renderField("Prompt", m.prompt.View(), m.focus == fieldPrompt),
	}
	if banner := m.renderBanner(); banner != "" {
		sections = append(sections, banner)
	}
	if m.snap.HasContent() {
		sections = append(sections,
			m.renderField("Title", m.title.View(), m.focus == fieldTitle),
			m.renderField("Category", m.category.View(), m.focus == fieldCategory),
			m.styles.Panel.Render(m.viewport.View()),
			m.renderPublish(),
		)
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	status := "backend: " + m.backend
	switch m.backend {
	case "connected":
		status = m.styles.Success.Render(status)
	case "disconnected", "signed out":
		status = m.styles.Danger.Render(status)
	default:
		status = m.styles.Muted.Render(status)
	}
	left := m.styles.Title.Render("WordPress Auto Publisher")
	if m.proxyURL != "" {
		left += m.styles.Muted.Render("  " + m.proxyURL)
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + status
}

func (m Model) renderField(label, input string, focused bool) string {
	l := m.styles.Label.Render(label)
	if focused {
		l = m.styles.Label.Foreground(lipgloss.Color("#FF79C6")).Render(label)
	}
	return l + " " + input
}

func (m Model) renderBanner() string {
	var parts []string
	if working := m.workingText(); working != "" {
		parts = append(parts, m.spinner.View()+" "+m.styles.Info.Render(working))
	} else if b := m.snap.Banner; b.Text != "" {
		switch b.Kind {
		case composer.BannerError:
			parts = append(parts, m.styles.Danger.Render(b.Text))
		case composer.BannerSuccess:
			parts = append(parts, m.styles.Success.Render(b.Text))
		default:
			parts = append(parts, m.styles.Info.Render(b.Text))
		}
	}
	if m.notice != "" {
		parts = append(parts, m.styles.Muted.Render(m.notice))
	}
	return strings.Join(parts, "\n")
}

func (m Model) workingText() string {
	switch {
	case m.snap.Busy[composer.ActionPublish]:
		return "Posting to WordPress..."
	case m.snap.Busy[composer.ActionGenerate]:
		return "Generating content..."
	case m.snap.Busy[composer.ActionRegenerateTitle]:
		return "Regenerating title..."
	case m.snap.Busy[composer.ActionRegenerateCategory]:
		return "Regenerating category..."
	}
	return ""
}

// renderPublish shows the publish button with the remaining seconds and a
// bar that drains toward the deadline.
func (m Model) renderPublish() string {
	cd := m.snap.Countdown
	label := "Post to WordPress"
	style := m.styles.Button
	switch {
	case m.snap.Busy[composer.ActionPublish] || cd.State == countdown.Firing:
		label = "Posting..."
		style = m.styles.ButtonBusy
	case cd.State == countdown.Armed:
		label = fmt.Sprintf("Post to WordPress (%ds)", cd.Remaining)
	}
	line := style.Render(label) + m.styles.Muted.Render("  ctrl+p to post now")
	if cd.State != countdown.Armed {
		return line
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.bar.ViewAs(cd.Progress), line)
}
