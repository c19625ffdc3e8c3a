package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Field is one line of a Form.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	Default     string
	// Validate rejects a value; the error is shown and the field keeps focus.
	Validate func(string) error
}

// FormModel collects one value per field, in order.
type FormModel struct {
	title     string
	fields    []Field
	inputs    []textinput.Model
	focus     int
	err       error
	done      bool
	cancelled bool
	styles    Styles
}

// NewFormModel creates a form with the first field focused.
func NewFormModel(title string, fields []Field) FormModel {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.Placeholder
		in.Prompt = "> "
		in.CharLimit = 2000
		in.Width = 72
		in.SetValue(f.Default)
		if i == 0 {
			in.Focus()
		}
		inputs[i] = in
	}
	return FormModel{
		title:  title,
		fields: fields,
		inputs: inputs,
		styles: DefaultStyles(),
	}
}

func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submitField()
		case tea.KeyShiftTab, tea.KeyUp:
			if m.focus > 0 {
				m.setFocus(m.focus - 1)
			}
			return m, nil
		}
	}

	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) submitField() (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		m.done = true
		return m, tea.Quit
	}
	value := strings.TrimSpace(m.inputs[m.focus].Value())
	if v := m.fields[m.focus].Validate; v != nil {
		if err := v(value); err != nil {
			m.err = err
			return m, nil
		}
	}
	m.err = nil
	if m.focus == len(m.inputs)-1 {
		m.done = true
		m.inputs[m.focus].Blur()
		return m, tea.Quit
	}
	m.setFocus(m.focus + 1)
	return m, textinput.Blink
}

func (m *FormModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m FormModel) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.Title.Render(m.title))
		b.WriteString("\n")
	}
	for i, f := range m.fields {
		label := m.styles.Muted.Render(f.Label)
		if i == m.focus && !m.done {
			label = m.styles.Label.Render(f.Label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.Error.Render(m.err.Error()))
		b.WriteString("\n")
	}
	if !m.done {
		b.WriteString(m.styles.Muted.Render("enter: next  shift+tab: back  esc: cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

// Values returns the trimmed value of every field by key.
func (m FormModel) Values() map[string]string {
	out := make(map[string]string, len(m.fields))
	for i, f := range m.fields {
		out[f.Key] = strings.TrimSpace(m.inputs[i].Value())
	}
	return out
}

// Done reports whether every field was submitted.
func (m FormModel) Done() bool { return m.done }

// Cancelled reports whether the operator aborted.
func (m FormModel) Cancelled() bool { return m.cancelled }
