package formdriver

import (
	"context"
	"errors"
	"sync"
)

type fakeElement struct {
	hidden   bool
	clickErr error
	evalErr  error
	onClick  func()
	onEnter  func()

	clicks int
	enters int
	filled string
	evals  []string
}

func (e *fakeElement) Visible(context.Context) (bool, error) { return !e.hidden, nil }

func (e *fakeElement) Click(context.Context) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Fill(_ context.Context, text string) error {
	e.filled = text
	return nil
}

func (e *fakeElement) Eval(_ context.Context, js string) error {
	if e.evalErr != nil {
		return e.evalErr
	}
	e.evals = append(e.evals, js)
	return nil
}

func (e *fakeElement) PressEnter(context.Context) error {
	e.enters++
	if e.onEnter != nil {
		e.onEnter()
	}
	return nil
}

// fakePage resolves locators by their String form.
type fakePage struct {
	mu          sync.Mutex
	url         string
	elements    map[string]*fakeElement
	findErrs    map[string]error
	navigations []string
	lookups     []string
	screenshots []string
	shotErr     error
}

func newFakePage() *fakePage {
	return &fakePage{elements: map[string]*fakeElement{}, findErrs: map[string]error{}}
}

func (p *fakePage) add(loc Locator, el *fakeElement) *fakeElement {
	p.elements[loc.String()] = el
	return el
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	p.url = url
	return nil
}

func (p *fakePage) WaitLoad(context.Context) error { return nil }

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Find(_ context.Context, loc Locator) (Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := loc.String()
	p.lookups = append(p.lookups, key)
	if err := p.findErrs[key]; err != nil {
		return nil, err
	}
	el, ok := p.elements[key]
	if !ok {
		return nil, nil
	}
	return el, nil
}

func (p *fakePage) Screenshot(_ context.Context, path string) error {
	if p.shotErr != nil {
		return p.shotErr
	}
	p.screenshots = append(p.screenshots, path)
	return nil
}

type fakeSession struct {
	page   *fakePage
	closed int
}

func (s *fakeSession) Page() Page { return s.page }

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakePrompter struct {
	messages []string
	err      error
}

func (f *fakePrompter) WaitForEnter(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

var errBoom = errors.New("boom")

const (
	testBaseURL   = "https://school.managebac.com/login"
	testDashboard = "https://school.managebac.com/student"
)

// managebacPage is a page where every step has one working candidate.
type managebacPage struct {
	*fakePage
	username, password, loginBtn *fakeElement
	casLink, journal, editor     *fakeElement
	addEntry                     *fakeElement
	outcomes                     map[string]*fakeElement
}

func newManagebacPage() *managebacPage {
	p := &managebacPage{fakePage: newFakePage(), outcomes: map[string]*fakeElement{}}
	p.username = p.add(CSS(`input[type="email"]`), &fakeElement{})
	p.password = p.add(CSS(`input[type="password"]`), &fakeElement{})
	p.loginBtn = p.add(CSS(`button[type="submit"]`), &fakeElement{onClick: func() { p.url = testDashboard }})
	p.casLink = p.add(Text("a", "CAS", true), &fakeElement{onClick: func() { p.url = testDashboard + "/cas" }})
	p.journal = p.add(ByRole(RoleLink, "Journal"), &fakeElement{})
	p.editor = p.add(CSS(`div[contenteditable="true"]`), &fakeElement{})
	p.addEntry = p.add(ByRole(RoleButton, "Add Entry"), &fakeElement{})
	for _, code := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		p.outcomes[code] = p.add(OutcomeLocators(mustLabel(code))[0], &fakeElement{})
	}
	return p
}

func testOptions() Options {
	return Options{
		BaseURL:        testBaseURL,
		Username:       "student@example.com",
		Password:       "hunter2",
		ScreenshotPath: "/tmp/casbot/submission_screenshot.png",
	}
}
