package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/postboard/internal/post"
)

// openDetail focuses p. The store mirrors it until the detail view closes.
func (m *Model) openDetail(p post.Post) {
	m.store.SetFocusedPost(&p)
	m.state = m.store.Snapshot()
	m.view = ViewDetail
	m.detail.GotoTop()
	m.refreshDetail()
}

func (m *Model) closeDetail() {
	m.store.SetFocusedPost(nil)
	m.state = m.store.Snapshot()
	m.view = ViewList
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focused := m.state.Focused.Post
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.closeDetail()
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		if focused == nil {
			return m, nil
		}
		m.openEditForm(*focused)
		cmd := m.form.focusCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		if focused == nil || m.actions == nil {
			return m, nil
		}
		m.actions.Delete(focused.ID)
		m.closeDetail()
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) refreshDetail() {
	if m.detail.Width <= 0 {
		return
	}
	p := m.state.Focused.Post
	if p == nil {
		m.detail.SetContent("")
		return
	}
	body := lipgloss.NewStyle().Width(m.detail.Width).Render(p.Content)
	m.detail.SetContent(body)
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	p := m.state.Focused.Post
	if p == nil {
		return styles.MutedText.Render("This post is no longer available. Press esc to go back.")
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(p.Title))
	b.WriteString("\n")
	meta := p.HumanDate()
	if updated := p.ParsedUpdatedAt(); !updated.IsZero() {
		meta += " · edited " + updated.Local().Format("Jan 2, 2006 15:04")
	}
	b.WriteString(styles.MutedText.Render(meta))
	b.WriteString("\n\n")
	b.WriteString(m.detail.View())

	if line := m.focusedStatusLine(); line != "" {
		b.WriteString("\n\n")
		b.WriteString(line)
	}
	return styles.FocusPanel.Width(max(m.width-2, 1)).Render(b.String())
}

// focusedStatusLine reports the last add/edit/delete request.
func (m Model) focusedStatusLine() string {
	styles := m.theme.Styles()
	status := m.state.Focused.Status
	switch {
	case status.IsLoading:
		return m.spinner.View() + styles.WarningText.Render(" Saving...")
	case status.IsError:
		return styles.DangerText.Render(status.Error)
	}
	return ""
}
