package formdriver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoMatch is returned when no candidate locates an interactable element.
var ErrNoMatch = errors.New("no candidate matched")

// Kind tags the lookup strategy of a Locator.
type Kind int

const (
	// KindCSS matches a CSS selector.
	KindCSS Kind = iota
	// KindText matches element text inside a CSS scope.
	KindText
	// KindRole matches a link or button by its visible name.
	KindRole
)

// Role is the element role for KindRole locators.
type Role string

const (
	RoleLink   Role = "link"
	RoleButton Role = "button"
)

// Locator is one way to find a logical field on the page.
type Locator struct {
	Kind     Kind
	Selector string // CSS selector, or the scope for KindText
	Text     string // text (KindText) or accessible name (KindRole)
	Exact    bool   // whole-text match instead of case-insensitive substring
	Role     Role
}

// CSS locates by selector.
func CSS(selector string) Locator {
	return Locator{Kind: KindCSS, Selector: selector}
}

// Text locates an element under scope whose text matches.
func Text(scope, text string, exact bool) Locator {
	return Locator{Kind: KindText, Selector: scope, Text: text, Exact: exact}
}

// ByRole locates a link or button by name, matched exactly.
func ByRole(role Role, name string) Locator {
	return Locator{Kind: KindRole, Role: role, Text: name, Exact: true}
}

func (l Locator) String() string {
	switch l.Kind {
	case KindText:
		mode := "contains"
		if l.Exact {
			mode = "exact"
		}
		return fmt.Sprintf("text(%s %s %q)", l.Selector, mode, l.Text)
	case KindRole:
		return fmt.Sprintf("role(%s %q)", l.Role, l.Text)
	default:
		return fmt.Sprintf("css(%s)", l.Selector)
	}
}

// Element is a located page element.
type Element interface {
	Visible(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
	// Eval runs a JS function with this bound to the element.
	Eval(ctx context.Context, js string) error
	PressEnter(ctx context.Context) error
}

// Page is the browser page the driver scripts.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitLoad(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	// Find returns the element matching loc without waiting, or nil. Text
	// and role locators resolve to the innermost match, never an ancestor
	// that merely contains the matching element.
	Find(ctx context.Context, loc Locator) (Element, error)
	Screenshot(ctx context.Context, path string) error
}

// Resolve tries candidates in order and returns the first one that finds a
// visible element. A candidate whose lookup errors is skipped, never fatal.
func Resolve(ctx context.Context, page Page, candidates []Locator, logger *zap.Logger) (Element, Locator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, Locator{}, err
		}
		el, err := page.Find(ctx, c)
		if err != nil {
			logger.Debug("candidate lookup failed", zap.Stringer("locator", c), zap.Error(err))
			continue
		}
		if el == nil {
			continue
		}
		visible, err := el.Visible(ctx)
		if err != nil || !visible {
			logger.Debug("candidate not interactable", zap.Stringer("locator", c), zap.Error(err))
			continue
		}
		return el, c, nil
	}
	return nil, Locator{}, fmt.Errorf("%w (%d tried)", ErrNoMatch, len(candidates))
}
