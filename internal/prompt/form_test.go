package prompt

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m tea.Model, s string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(m tea.Model, k tea.KeyType) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: k})
}

func TestFormModel_CollectsFieldsInOrder(t *testing.T) {
	var m tea.Model = NewFormModel("Activity", []Field{
		{Key: "description", Label: "What did you do?"},
		{Key: "duration", Label: "Hours", Default: "3"},
	})

	m = typeText(m, "  Sorted donations ")
	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("expected blink command after advancing")
	}
	form := m.(FormModel)
	if form.Done() {
		t.Fatal("form should not be done after the first field")
	}
	if form.focus != 1 {
		t.Fatalf("expected focus on second field, got %d", form.focus)
	}

	m, _ = press(m, tea.KeyEnter)
	form = m.(FormModel)
	if !form.Done() {
		t.Fatal("expected form done after last field")
	}

	values := form.Values()
	if values["description"] != "Sorted donations" {
		t.Errorf("expected trimmed description, got %q", values["description"])
	}
	if values["duration"] != "3" {
		t.Errorf("expected default duration, got %q", values["duration"])
	}
}

func TestFormModel_ValidationKeepsFocus(t *testing.T) {
	required := func(s string) error {
		if s == "" {
			return errors.New("required")
		}
		return nil
	}
	var m tea.Model = NewFormModel("", []Field{{Key: "a", Label: "A", Validate: required}})

	m, _ = press(m, tea.KeyEnter)
	form := m.(FormModel)
	if form.Done() {
		t.Fatal("empty value should be rejected")
	}
	if !strings.Contains(form.View(), "required") {
		t.Error("expected validation error in view")
	}

	m = typeText(m, "ok")
	m, _ = press(m, tea.KeyEnter)
	if !m.(FormModel).Done() {
		t.Error("expected done after valid input")
	}
}

func TestFormModel_EscCancels(t *testing.T) {
	var m tea.Model = NewFormModel("", []Field{{Key: "a", Label: "A"}})
	m, cmd := press(m, tea.KeyEsc)
	if !m.(FormModel).Cancelled() {
		t.Error("expected cancelled")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestFormModel_ShiftTabGoesBack(t *testing.T) {
	var m tea.Model = NewFormModel("", []Field{{Key: "a", Label: "A"}, {Key: "b", Label: "B"}})
	m, _ = press(m, tea.KeyEnter)
	m, _ = press(m, tea.KeyShiftTab)
	if got := m.(FormModel).focus; got != 0 {
		t.Errorf("expected focus 0, got %d", got)
	}
}

func TestChoiceModel_ArrowsAndEnter(t *testing.T) {
	var m tea.Model = NewChoiceModel("Next?", []string{"Submit", "Edit", "Save and exit"})
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyEnter)
	if got := m.(ChoiceModel).Chosen(); got != 2 {
		t.Errorf("expected last option, got %d", got)
	}
}

func TestChoiceModel_NumberKey(t *testing.T) {
	var m tea.Model = NewChoiceModel("Next?", []string{"Submit", "Edit"})
	m = typeText(m, "2")
	if got := m.(ChoiceModel).Chosen(); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}

	m = NewChoiceModel("Next?", []string{"Submit", "Edit"})
	m = typeText(m, "7")
	if got := m.(ChoiceModel).Chosen(); got != -1 {
		t.Errorf("out of range number should be ignored, got %d", got)
	}
}

func TestChoiceModel_View(t *testing.T) {
	view := NewChoiceModel("Next?", []string{"Submit", "Edit"}).View()
	if !strings.Contains(view, "1. Submit") || !strings.Contains(view, "2. Edit") {
		t.Errorf("menu missing options:\n%s", view)
	}
}

func TestIsYes(t *testing.T) {
	for _, in := range []string{"yes", "YES", " Yes "} {
		if !IsYes(in) {
			t.Errorf("expected %q to confirm", in)
		}
	}
	for _, in := range []string{"", "no", "y", "yep"} {
		if IsYes(in) {
			t.Errorf("expected %q not to confirm", in)
		}
	}
}
