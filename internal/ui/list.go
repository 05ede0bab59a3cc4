package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const rowHeight = 3

func (m Model) renderContent() string {
	height := max(m.height-2, 1)
	var body string
	switch m.view {
	case ViewDetail:
		body = m.renderDetail()
	case ViewForm:
		body = m.renderForm()
	case ViewLogs:
		body = m.logs.View()
	default:
		body = m.renderList(height)
	}
	return lipgloss.NewStyle().Width(m.width).Height(height).MaxHeight(height).Render(body)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("postboard", styles.Logo)}
	parts = append(parts, bg.Render(fmt.Sprintf("%d posts", len(m.state.Posts)), styles.MutedText))
	if m.state.Collection.IsLoading {
		parts = append(parts, bg.Render(m.spinner.View()+" Loading", styles.WarningText))
	}
	if m.state.Collection.IsError {
		parts = append(parts, bg.Render(m.state.Collection.Error, styles.DangerText))
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	k := m.keys

	var help string
	switch {
	case m.view == ViewForm:
		help = helpLine(k.NextField, k.Submit, k.Back)
	case m.view == ViewDetail:
		help = helpLine(k.Edit, k.Delete, k.Back, k.ToggleTheme, k.Logs)
	case m.view == ViewLogs:
		help = helpLine(k.Refresh, k.Back)
	case m.errorShown():
		help = helpLine(k.GoHome, k.Quit)
	default:
		help = helpLine(k.Open, k.Add, k.Refresh, k.ToggleTheme, k.Logs, k.Quit)
	}
	if m.status != "" {
		help += "  " + m.status
	}
	return styles.Footer.Width(m.width).Render(help)
}

func (m Model) renderList(height int) string {
	styles := m.theme.Styles()
	posts := m.state.Posts

	switch {
	case m.errorShown():
		return m.renderErrorPanel()
	case m.state.Collection.IsLoading && len(posts) == 0:
		return m.spinner.View() + styles.MutedText.Render(" Loading posts...")
	case len(posts) == 0:
		return styles.MutedText.Render("No posts yet. Press a to write the first one.")
	}

	perPage := max(height/rowHeight, 1)
	start := 0
	if m.selected >= perPage {
		start = m.selected - perPage + 1
	}
	end := min(start+perPage, len(posts))

	width := max(m.width-2, 10)
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		p := posts[i]
		title := styles.Title.Render(truncate(p.Title, width-14))
		date := styles.MutedText.Render(p.HumanDate())
		gap := max(width-lipgloss.Width(title)-lipgloss.Width(date), 1)
		line := title + strings.Repeat(" ", gap) + date
		preview := styles.Text.Render(truncate(firstLine(p.Content), width))

		row := lipgloss.JoinVertical(lipgloss.Left, line, preview)
		if i == m.selected {
			row = styles.Selected.Width(width).Render(row)
		}
		rows = append(rows, " "+strings.ReplaceAll(row, "\n", "\n "))
	}
	return strings.Join(rows, "\n\n")
}

func (m Model) renderErrorPanel() string {
	styles := m.theme.Styles()
	body := styles.DangerText.Render(m.state.Collection.Error) + "\n\n" +
		styles.MutedText.Render("Press h to go home and try again.")
	panel := styles.ErrorPanel.Render(body)
	return lipgloss.Place(m.width, max(m.height-2, 1), lipgloss.Center, lipgloss.Center, panel)
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		return value[:i]
	}
	return value
}
