package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/postboard/internal/logtail"
)

const logTailLines = 400

type logLinesMsg struct {
	lines []string
	err   error
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Logs), key.Matches(msg, m.keys.Quit):
		m.view = m.prevView
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, readLogsCmd(m.logPath)
	}
	var cmd tea.Cmd
	m.logs, cmd = m.logs.Update(msg)
	return m, cmd
}

func (m *Model) setLogLines(msg logLinesMsg) {
	styles := m.theme.Styles()
	if msg.err != nil {
		m.logs.SetContent(styles.DangerText.Render("Could not read " + m.logPath + ": " + msg.err.Error()))
		return
	}
	if len(msg.lines) == 0 {
		m.logs.SetContent(styles.MutedText.Render("No log output yet."))
		return
	}

	rendered := make([]string, len(msg.lines))
	for i, line := range msg.lines {
		switch logtail.Level(line) {
		case "ERROR":
			rendered[i] = styles.DangerText.Render(line)
		case "WARN":
			rendered[i] = styles.WarningText.Render(line)
		case "DEBUG":
			rendered[i] = styles.MutedText.Render(line)
		default:
			rendered[i] = styles.Text.Render(line)
		}
	}
	m.logs.SetContent(strings.Join(rendered, "\n"))
	m.logs.GotoBottom()
}
