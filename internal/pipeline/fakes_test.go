package pipeline

import (
	"context"
	"errors"
	"sync"

	"casbot/internal/formdriver"
	"casbot/internal/prompt"
)

// openPage accepts every locator and leaves the login page on first click.
type openPage struct {
	mu    sync.Mutex
	stuck bool // login never leaves the login page
	url   string
	evals []string
	shots []string
}

type openElement struct{ page *openPage }

func (e openElement) Visible(context.Context) (bool, error) { return true, nil }

func (e openElement) Click(context.Context) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if !e.page.stuck {
		e.page.url = "https://school.managebac.com/student"
	}
	return nil
}

func (e openElement) Fill(context.Context, string) error { return nil }

func (e openElement) Eval(_ context.Context, js string) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.page.evals = append(e.page.evals, js)
	return nil
}

func (e openElement) PressEnter(context.Context) error { return nil }

func (p *openPage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	return nil
}

func (p *openPage) WaitLoad(context.Context) error { return nil }

func (p *openPage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *openPage) Find(context.Context, formdriver.Locator) (formdriver.Element, error) {
	return openElement{page: p}, nil
}

func (p *openPage) Screenshot(_ context.Context, path string) error {
	p.shots = append(p.shots, path)
	return nil
}

type fakeBrowser struct {
	page   *openPage
	opened int
	closed int
}

func (b *fakeBrowser) open(context.Context) (formdriver.Session, error) {
	b.opened++
	return b, nil
}

func (b *fakeBrowser) Page() formdriver.Page { return b.page }

func (b *fakeBrowser) Close() error {
	b.closed++
	return nil
}

// scriptedUI answers prompts from queues.
type scriptedUI struct {
	forms    []map[string]string
	choices  []int
	confirms []bool
	titles   []string
}

var errScriptExhausted = errors.New("script exhausted")

func (u *scriptedUI) Form(_ context.Context, title string, fields []prompt.Field) (map[string]string, error) {
	u.titles = append(u.titles, title)
	if len(u.forms) == 0 {
		return nil, errScriptExhausted
	}
	answers := u.forms[0]
	u.forms = u.forms[1:]
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		v, ok := answers[f.Key]
		if !ok {
			v = f.Default
		}
		if f.Validate != nil {
			if err := f.Validate(v); err != nil {
				return nil, err
			}
		}
		out[f.Key] = v
	}
	return out, nil
}

func (u *scriptedUI) Choose(_ context.Context, title string, _ []string) (int, error) {
	u.titles = append(u.titles, title)
	if len(u.choices) == 0 {
		return -1, errScriptExhausted
	}
	c := u.choices[0]
	u.choices = u.choices[1:]
	return c, nil
}

func (u *scriptedUI) Confirm(_ context.Context, question string) (bool, error) {
	u.titles = append(u.titles, question)
	if len(u.confirms) == 0 {
		return false, errScriptExhausted
	}
	c := u.confirms[0]
	u.confirms = u.confirms[1:]
	return c, nil
}
