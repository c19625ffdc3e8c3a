// Package prompt holds the interactive terminal prompts: multi-field forms,
// menus, yes confirmations and "press Enter" pauses, built on bubbletea.
package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the operator aborts a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Prompter runs prompts against a terminal.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// New returns a Prompter on stdin and stdout.
func New() *Prompter {
	return &Prompter{in: os.Stdin, out: os.Stdout}
}

// NewWithIO returns a Prompter on the given streams.
func NewWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Interactive reports whether stdin and stdout are terminals.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func (p *Prompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return final, nil
}

// Form collects fields and returns their values by key.
func (p *Prompter) Form(ctx context.Context, title string, fields []Field) (map[string]string, error) {
	final, err := p.run(ctx, NewFormModel(title, fields))
	if err != nil {
		return nil, err
	}
	m := final.(FormModel)
	if m.Cancelled() || !m.Done() {
		return nil, ErrCancelled
	}
	return m.Values(), nil
}

// Ask collects a single value.
func (p *Prompter) Ask(ctx context.Context, label, placeholder string) (string, error) {
	values, err := p.Form(ctx, "", []Field{{Key: "v", Label: label, Placeholder: placeholder}})
	if err != nil {
		return "", err
	}
	return values["v"], nil
}

// Choose shows a numbered menu and returns the chosen index.
func (p *Prompter) Choose(ctx context.Context, title string, options []string) (int, error) {
	final, err := p.run(ctx, NewChoiceModel(title, options))
	if err != nil {
		return -1, err
	}
	m := final.(ChoiceModel)
	if m.Cancelled() || m.Chosen() < 0 {
		return -1, ErrCancelled
	}
	return m.Chosen(), nil
}

// Confirm asks question and reports whether the operator typed yes.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" (type 'yes' to confirm)", "yes")
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return false, nil
		}
		return false, err
	}
	return IsYes(answer), nil
}

// IsYes accepts only the full word, in any case.
func IsYes(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// WaitForEnter shows message and blocks until Enter.
func (p *Prompter) WaitForEnter(ctx context.Context, message string) error {
	_, err := p.Form(ctx, "", []Field{{Key: "enter", Label: message}})
	return err
}
