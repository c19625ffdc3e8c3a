package prompt

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ChoiceModel picks one option with the arrow keys or its number.
type ChoiceModel struct {
	title     string
	options   []string
	cursor    int
	chosen    int
	cancelled bool
	styles    Styles
}

// NewChoiceModel creates a menu with the first option highlighted.
func NewChoiceModel(title string, options []string) ChoiceModel {
	return ChoiceModel{title: title, options: options, chosen: -1, styles: DefaultStyles()}
}

func (m ChoiceModel) Init() tea.Cmd { return nil }

func (m ChoiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	default:
		var n int
		if _, err := fmt.Sscanf(key.String(), "%d", &n); err == nil && n >= 1 && n <= len(m.options) {
			m.cursor = n - 1
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ChoiceModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")
	for i, opt := range m.options {
		line := fmt.Sprintf("  %d. %s", i+1, opt)
		if i == m.cursor {
			line = m.styles.Cursor.Render(fmt.Sprintf("> %d. %s", i+1, opt))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Chosen returns the selected index, or -1.
func (m ChoiceModel) Chosen() int { return m.chosen }

// Cancelled reports whether the operator aborted.
func (m ChoiceModel) Cancelled() bool { return m.cancelled }
