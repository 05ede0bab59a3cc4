package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/postboard/internal/post"
)

type formMode int

const (
	formAdd formMode = iota
	formEdit
)

const (
	fieldTitle = iota
	fieldContent
)

// form is the add/edit post screen.
type form struct {
	mode     formMode
	id       string
	title    textinput.Model
	content  textarea.Model
	field    int
	problems []string

	// submitted is set once an add was accepted; the form then closes as
	// soon as the post list differs from postsAtSubmit.
	submitted     bool
	postsAtSubmit []post.Post
}

func newForm(mode formMode, width, height int) form {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = post.MaxTitleLength * 2

	content := textarea.New()
	content.Placeholder = "What's on your mind?"
	content.CharLimit = post.MaxContentLength * 2
	content.ShowLineNumbers = false

	f := form{mode: mode, title: title, content: content}
	f.resize(width, height)
	return f
}

func (f *form) resize(width, height int) {
	f.title.Width = max(width-6, 10)
	f.content.SetWidth(max(width-4, 10))
	f.content.SetHeight(max(height-10, 3))
}

func (f *form) focusCmd() tea.Cmd {
	if f.field == fieldContent {
		f.title.Blur()
		return f.content.Focus()
	}
	f.content.Blur()
	return f.title.Focus()
}

func (f form) draft() post.Draft {
	return post.Draft{
		Title:   strings.TrimSpace(f.title.Value()),
		Content: strings.TrimSpace(f.content.Value()),
	}
}

func (f form) shouldClose(posts []post.Post) bool {
	return f.mode == formAdd && f.submitted && !slices.Equal(posts, f.postsAtSubmit)
}

func (m *Model) openAddForm() {
	m.form = newForm(formAdd, m.width, max(m.height-2, 1))
	m.view = ViewForm
}

func (m *Model) openEditForm(p post.Post) {
	m.form = newForm(formEdit, m.width, max(m.height-2, 1))
	m.form.id = p.ID
	m.form.title.SetValue(p.Title)
	m.form.content.SetValue(p.Content)
	m.view = ViewForm
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.leaveForm()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.form.field = (m.form.field + 1) % 2
		cmd := m.form.focusCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	}

	var cmd tea.Cmd
	if m.form.field == fieldTitle {
		m.form.title, cmd = m.form.title.Update(msg)
	} else {
		m.form.content, cmd = m.form.content.Update(msg)
	}
	return m, cmd
}

func (m *Model) leaveForm() {
	if m.form.mode == formEdit {
		m.view = ViewDetail
		m.refreshDetail()
		return
	}
	m.view = ViewList
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.actions == nil {
		return m, nil
	}
	d := m.form.draft()

	var err error
	if m.form.mode == formEdit {
		err = m.actions.SubmitEdit(post.Edit{ID: m.form.id, Title: d.Title, Content: d.Content})
	} else {
		err = m.actions.SubmitAdd(d)
	}

	var verr *post.ValidationError
	if errors.As(err, &verr) {
		m.form.problems = verr.Problems
		return m, nil
	}
	if err != nil {
		m.form.problems = []string{err.Error()}
		return m, nil
	}

	m.form.problems = nil
	if m.form.mode == formEdit {
		m.leaveForm()
		return m, nil
	}
	m.form.submitted = true
	m.form.postsAtSubmit = slices.Clone(m.state.Posts)
	return m, nil
}

func (m Model) renderForm() string {
	styles := m.theme.Styles()
	heading := "New post"
	if m.form.mode == formEdit {
		heading = "Edit post"
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(heading))
	b.WriteString("\n\n")
	b.WriteString(m.form.title.View())
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(counter(m.form.title.Value(), post.MaxTitleLength)))
	b.WriteString("\n\n")
	b.WriteString(m.form.content.View())
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(counter(m.form.content.Value(), post.MaxContentLength)))

	for _, problem := range m.form.problems {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render("• " + problem))
	}
	if m.form.submitted {
		if line := m.focusedStatusLine(); line != "" {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}

func counter(value string, limit int) string {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	return fmt.Sprintf("%d/%d", n, limit)
}
