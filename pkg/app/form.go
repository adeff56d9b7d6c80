package app

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kerbaras/novelist/pkg/app/styles"
	"github.com/kerbaras/novelist/pkg/data"
)

const (
	fieldStyle = iota
	fieldDescription
	fieldChapters
	fieldMinParagraphs
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Enter the desired writing style",
	"Enter a high-level description of the book",
	"Enter the number of chapters",
	"Enter the minimum number of paragraphs per chapter",
}

// FormModel collects a BookRequest from the operator.
type FormModel struct {
	inputs    [fieldCount]textinput.Model
	focused   int
	err       error
	submitted bool
	cancelled bool
}

// NewFormModel builds the form with any values already known filled in.
func NewFormModel(initial data.BookRequest) FormModel {
	var m FormModel
	placeholders := [fieldCount]string{"noir, literary, whimsical...", "what the book is about", "5", "3"}

	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 500
		ti.Width = 60
		m.inputs[i] = ti
	}
	m.inputs[fieldChapters].CharLimit = 4
	m.inputs[fieldMinParagraphs].CharLimit = 4

	m.inputs[fieldStyle].SetValue(initial.Style)
	m.inputs[fieldDescription].SetValue(initial.Description)
	if initial.Chapters > 0 {
		m.inputs[fieldChapters].SetValue(strconv.Itoa(initial.Chapters))
	}
	if initial.MinParagraphs > 0 {
		m.inputs[fieldMinParagraphs].SetValue(strconv.Itoa(initial.MinParagraphs))
	}

	m.focused = m.firstEmpty()
	m.inputs[m.focused].Focus()
	return m
}

func (m FormModel) firstEmpty() int {
	for i, in := range m.inputs {
		if strings.TrimSpace(in.Value()) == "" {
			return i
		}
	}
	return 0
}

func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab", "down":
			return m.focus(m.focused + 1), textinput.Blink
		case "shift+tab", "up":
			return m.focus(m.focused - 1), textinput.Blink
		case "enter":
			if m.focused < fieldCount-1 {
				return m.focus(m.focused + 1), textinput.Blink
			}
			if _, err := m.Request(); err != nil {
				m.err = err
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	m.err = nil
	return m, cmd
}

func (m FormModel) focus(i int) FormModel {
	if i < 0 {
		i = fieldCount - 1
	}
	if i >= fieldCount {
		i = 0
	}
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[m.focused].Focus()
	return m
}

// Request parses the current field values.
func (m FormModel) Request() (data.BookRequest, error) {
	req := data.BookRequest{
		Style:       strings.TrimSpace(m.inputs[fieldStyle].Value()),
		Description: strings.TrimSpace(m.inputs[fieldDescription].Value()),
	}
	var err error
	if req.Chapters, err = parseCount(m.inputs[fieldChapters].Value(), "number of chapters"); err != nil {
		return req, err
	}
	if req.MinParagraphs, err = parseCount(m.inputs[fieldMinParagraphs].Value(), "minimum paragraphs"); err != nil {
		return req, err
	}
	return req, req.Validate()
}

func parseCount(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &fieldError{name: name, value: s}
	}
	return n, nil
}

type fieldError struct {
	name  string
	value string
}

func (e *fieldError) Error() string {
	return e.name + " must be a whole number, got " + strconv.Quote(e.value)
}

func (m FormModel) Submitted() bool { return m.submitted }
func (m FormModel) Cancelled() bool { return m.cancelled }

func (m FormModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("📚 New book"))
	b.WriteString("\n")

	for i, in := range m.inputs {
		b.WriteString(styles.LabelStyle.Render(fieldLabels[i]))
		b.WriteString("\n")
		box := styles.InputStyle
		if i == m.focused {
			box = styles.FocusedInputStyle
		}
		b.WriteString(box.Render(in.View()))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(styles.StatusError.Render("✗ " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(styles.HelpStyle.Render("tab/↓ next • shift+tab/↑ previous • enter submit • esc cancel"))
	return b.String()
}
