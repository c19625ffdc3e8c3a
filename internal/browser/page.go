package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"casbot/internal/formdriver"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Page implements formdriver.Page over a rod page.
type Page struct {
	page    *rod.Page
	timeout time.Duration
	logger  *zap.Logger
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.logger.Debug("navigate", zap.String("url", url))
	return p.page.Context(ctx).Timeout(p.timeout).Navigate(url)
}

func (p *Page) WaitLoad(ctx context.Context) error {
	return p.page.Context(ctx).Timeout(p.timeout).WaitLoad()
}

func (p *Page) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Find looks loc up once, without rod's retry loop.
func (p *Page) Find(ctx context.Context, loc formdriver.Locator) (formdriver.Element, error) {
	pg := p.page.Context(ctx).Timeout(p.timeout)

	var (
		has bool
		el  *rod.Element
		err error
	)
	switch loc.Kind {
	case formdriver.KindCSS:
		has, el, err = pg.Has(loc.Selector)
	case formdriver.KindText:
		has, el, err = hasText(pg, loc.Selector, loc.Text, loc.Exact)
	case formdriver.KindRole:
		has, el, err = hasText(pg, roleScope(loc.Role), loc.Text, loc.Exact)
	default:
		return nil, fmt.Errorf("unknown locator kind %d", loc.Kind)
	}
	if err != nil || !has {
		return nil, err
	}
	return &Element{el: el, timeout: p.timeout}, nil
}

// Screenshot writes a viewport PNG to path.
func (p *Page) Screenshot(ctx context.Context, path string) error {
	data, err := p.page.Context(ctx).Timeout(p.timeout).Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Element implements formdriver.Element.
type Element struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *Element) with(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Timeout(e.timeout)
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.with(ctx).Visible()
}

func (e *Element) Click(ctx context.Context) error {
	el := e.with(ctx)
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Fill replaces the element's value with text.
func (e *Element) Fill(ctx context.Context, text string) error {
	el := e.with(ctx)
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (e *Element) Eval(ctx context.Context, js string) error {
	_, err := e.with(ctx).Eval(js)
	return err
}

func (e *Element) PressEnter(ctx context.Context) error {
	return e.with(ctx).Type(input.Enter)
}

// innermostJS returns the deepest element in scope whose text matches. A
// wrapper whose whole text equals a label's never wins over the label.
const innermostJS = `(scope, source, flags) => {
	const re = new RegExp(source, flags)
	const text = (e) => {
		switch (e.tagName) {
			case 'INPUT':
			case 'TEXTAREA':
				return e.value || e.placeholder || ''
			default:
				return e.innerText || e.textContent || ''
		}
	}
	const hits = Array.from(document.querySelectorAll(scope)).filter((e) => re.test(text(e)))
	return hits.find((e) => !hits.some((o) => o !== e && e.contains(o))) || null
}`

// hasText looks up the innermost text match once, without rod's retry loop.
func hasText(pg *rod.Page, scope, text string, exact bool) (bool, *rod.Element, error) {
	source, flags := textPattern(text, exact)
	el, err := pg.Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(innermostJS, scope, source, flags))
	if errors.Is(err, &rod.ElementNotFoundError{}) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, el.Sleeper(rod.DefaultSleeper), nil
}

// textPattern builds the JS regex source and flags matched against element
// text. Exact matches tolerate surrounding whitespace; substring matches
// ignore case.
func textPattern(text string, exact bool) (source, flags string) {
	quoted := regexp.QuoteMeta(text)
	if exact {
		return `^\s*` + quoted + `\s*$`, ""
	}
	return quoted, "i"
}

// roleScope maps a role onto the elements that can carry it.
func roleScope(role formdriver.Role) string {
	switch role {
	case formdriver.RoleLink:
		return `a, [role="link"]`
	case formdriver.RoleButton:
		return `button, input[type="submit"], input[type="button"], [role="button"]`
	default:
		return fmt.Sprintf(`[role=%q]`, string(role))
	}
}
