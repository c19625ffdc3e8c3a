// Package formdriver submits a generated reflection through the ManageBac web
// form. Each logical field is found via an ordered list of locator candidates,
// and every step after login degrades to a logged skip instead of aborting.
package formdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"casbot/internal/cas"

	"go.uber.org/zap"
)

// ErrLoginFailed means the login page was still showing after submitting
// credentials. Once the browser is open it is the only fatal driver error;
// Runner rejects missing credentials before opening one.
var ErrLoginFailed = errors.New("login failed")

// State is a step of the submission state machine.
type State string

const (
	StateStart              State = "start"
	StateLoggedIn           State = "logged_in"
	StateOnTargetSection    State = "on_target_section"
	StateFormFilled         State = "form_filled"
	StateOutcomesSelected   State = "outcomes_selected"
	StateSubmitted          State = "submitted"
	StateScreenshotCaptured State = "screenshot_captured"
)

const pollInterval = 250 * time.Millisecond

// Prompter asks the operator to act in the visible browser.
type Prompter interface {
	WaitForEnter(ctx context.Context, message string) error
}

// Options configures a Driver.
type Options struct {
	BaseURL        string
	Username       string
	Password       string
	ReflectionsURL string

	ScreenshotPath string

	// SettleDelay is waited after navigations and major clicks.
	SettleDelay time.Duration
	// ClickDelay is waited after each outcome toggle.
	ClickDelay time.Duration
	// WaitTimeout bounds polling for the login form and the editor.
	// Zero means a single lookup.
	WaitTimeout time.Duration

	Selectors Selectors

	// Prompter is nil when running unattended.
	Prompter Prompter
}

// Report records how far a submission got.
type Report struct {
	State            State
	LoggedIn         bool
	Navigated        bool
	Filled           bool
	OutcomesSelected []string
	OutcomesSkipped  []string
	Submitted        bool
	Screenshot       string
	// Verified stays false: acceptance of the entry is never checked.
	Verified bool
	Errors   []string
}

func (r *Report) fail(step string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", step, err))
}

// Driver scripts one page through the submission flow.
type Driver struct {
	page   Page
	opts   Options
	logger *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a Driver over page. Empty selector lists fall back to the defaults.
func New(page Page, opts Options, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Selectors = withDefaults(opts.Selectors)
	return &Driver{
		page:   page,
		opts:   opts,
		logger: logger,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

func withDefaults(s Selectors) Selectors {
	def := DefaultSelectors()
	pick := func(l, d []Locator) []Locator {
		if len(l) == 0 {
			return d
		}
		return l
	}
	return Selectors{
		Username:    pick(s.Username, def.Username),
		Password:    pick(s.Password, def.Password),
		LoginSubmit: pick(s.LoginSubmit, def.LoginSubmit),
		SectionLink: pick(s.SectionLink, def.SectionLink),
		EntryOpen:   pick(s.EntryOpen, def.EntryOpen),
		Editor:      pick(s.Editor, def.Editor),
		EntrySubmit: pick(s.EntrySubmit, def.EntrySubmit),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit runs the whole flow for one reflection. Only ErrLoginFailed and
// context cancellation are returned as errors. Every later failure, including
// cancellation, lands in the report and the screenshot is still taken.
func (d *Driver) Submit(ctx context.Context, result cas.ReflectionResult) (Report, error) {
	report := Report{State: StateStart}

	if err := d.Login(ctx); err != nil {
		return report, err
	}
	report.State = StateLoggedIn
	report.LoggedIn = true

	if err := d.NavigateToSection(ctx); err != nil {
		report.fail("navigate", err)
		d.logger.Warn("could not reach the reflections section", zap.Error(err))
	} else {
		report.Navigated = true
		report.State = StateOnTargetSection
	}

	if ctx.Err() != nil {
		d.logger.Warn("cancelled before filling the reflection", zap.Error(ctx.Err()))
	} else if err := d.FillReflection(ctx, result.Reflection); err != nil {
		report.fail("fill", err)
		d.logger.Error("could not fill the reflection, skipping outcomes and submit", zap.Error(err))
	} else {
		report.Filled = true
		report.State = StateFormFilled

		report.OutcomesSelected, report.OutcomesSkipped = d.SelectOutcomes(ctx, result.LearningOutcomes)
		report.State = StateOutcomesSelected

		if err := d.SubmitEntry(ctx); err != nil {
			report.fail("submit", err)
			d.logger.Error("could not click Add Entry", zap.Error(err))
		} else {
			report.Submitted = true
			report.State = StateSubmitted
		}
	}

	if err := d.Capture(ctx); err != nil {
		report.fail("screenshot", err)
		d.logger.Warn("screenshot failed", zap.Error(err))
	} else {
		report.Screenshot = d.opts.ScreenshotPath
		report.State = StateScreenshotCaptured
	}

	if report.Submitted {
		d.logger.Warn("entry submitted but acceptance is not verified; check the screenshot",
			zap.String("screenshot", report.Screenshot))
	}
	return report, ctx.Err()
}

// Login fills the credential form and checks the URL left the login page.
func (d *Driver) Login(ctx context.Context) error {
	d.logger.Info("logging in", zap.String("url", d.opts.BaseURL))

	if err := d.page.Navigate(ctx, d.opts.BaseURL); err != nil {
		return fmt.Errorf("%w: navigate: %v", ErrLoginFailed, err)
	}
	if err := d.page.WaitLoad(ctx); err != nil {
		d.logger.Debug("wait load", zap.Error(err))
	}

	user, loc, err := d.waitFor(ctx, d.opts.Selectors.Username)
	if err != nil {
		return fmt.Errorf("%w: username field: %v", ErrLoginFailed, err)
	}
	d.logger.Debug("username field", zap.Stringer("locator", loc))
	if err := user.Fill(ctx, d.opts.Username); err != nil {
		return fmt.Errorf("%w: fill username: %v", ErrLoginFailed, err)
	}

	pass, loc, err := Resolve(ctx, d.page, d.opts.Selectors.Password, d.logger)
	if err != nil {
		return fmt.Errorf("%w: password field: %v", ErrLoginFailed, err)
	}
	d.logger.Debug("password field", zap.Stringer("locator", loc))
	if err := pass.Fill(ctx, d.opts.Password); err != nil {
		return fmt.Errorf("%w: fill password: %v", ErrLoginFailed, err)
	}

	if btn, loc, err := Resolve(ctx, d.page, d.opts.Selectors.LoginSubmit, d.logger); err == nil {
		d.logger.Debug("login button", zap.Stringer("locator", loc))
		if err := btn.Click(ctx); err != nil {
			return fmt.Errorf("%w: click login: %v", ErrLoginFailed, err)
		}
	} else {
		d.logger.Debug("no login button, pressing Enter")
		if err := pass.PressEnter(ctx); err != nil {
			return fmt.Errorf("%w: submit login: %v", ErrLoginFailed, err)
		}
	}

	if err := d.page.WaitLoad(ctx); err != nil {
		d.logger.Debug("wait load", zap.Error(err))
	}
	if err := d.sleep(ctx, d.opts.SettleDelay); err != nil {
		return err
	}

	url, err := d.page.URL(ctx)
	if err != nil {
		return fmt.Errorf("%w: read url: %v", ErrLoginFailed, err)
	}
	if onLoginPage(url) {
		return fmt.Errorf("%w: still on %s", ErrLoginFailed, url)
	}
	d.logger.Info("logged in")
	return nil
}

func onLoginPage(url string) bool {
	u := strings.ToLower(url)
	return strings.Contains(u, "login") || strings.Contains(u, "signin")
}

// NavigateToSection reaches the CAS reflections page: the CAS link, then the
// configured reflections URL, then the operator.
func (d *Driver) NavigateToSection(ctx context.Context) error {
	reached := false

	if link, loc, err := Resolve(ctx, d.page, d.opts.Selectors.SectionLink, d.logger); err == nil {
		d.logger.Debug("CAS link", zap.Stringer("locator", loc))
		if err := link.Click(ctx); err != nil {
			d.logger.Warn("CAS link click failed", zap.Error(err))
		} else {
			d.settle(ctx)
			reached = true
		}
	} else {
		d.logger.Warn("CAS link not found", zap.Error(err))
	}

	if d.opts.ReflectionsURL != "" {
		if err := d.page.Navigate(ctx, d.opts.ReflectionsURL); err != nil {
			d.logger.Warn("reflections URL navigation failed", zap.Error(err))
		} else {
			d.settle(ctx)
			reached = true
		}
	}
	if reached {
		return ctx.Err()
	}

	if d.opts.Prompter == nil {
		return errors.New("CAS section not found and no operator to navigate manually")
	}
	if err := d.opts.Prompter.WaitForEnter(ctx, "Navigate to the CAS reflections page in the browser, then press Enter"); err != nil {
		return fmt.Errorf("manual navigation: %w", err)
	}
	return nil
}

// FillReflection opens a new journal entry and injects text into its editor.
func (d *Driver) FillReflection(ctx context.Context, text string) error {
	if open, loc, err := Resolve(ctx, d.page, d.opts.Selectors.EntryOpen, d.logger); err == nil {
		d.logger.Debug("journal control", zap.Stringer("locator", loc))
		if err := open.Click(ctx); err != nil {
			d.logger.Warn("journal click failed", zap.Error(err))
		} else {
			d.settle(ctx)
		}
	} else {
		d.logger.Warn("journal control not found, looking for an editor on the current page", zap.Error(err))
	}

	editor, loc, err := d.waitFor(ctx, d.opts.Selectors.Editor)
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	d.logger.Debug("editor", zap.Stringer("locator", loc))

	if loc.Kind == KindCSS && loc.Selector == "textarea" {
		return editor.Fill(ctx, text)
	}
	if err := editor.Eval(ctx, editorScript(EscapeJSString(text))); err != nil {
		return fmt.Errorf("inject reflection: %w", err)
	}
	d.logger.Info("reflection entered", zap.Int("chars", len(text)))
	return nil
}

// SelectOutcomes toggles each outcome's label. Unknown and unmatched codes
// are skipped.
func (d *Driver) SelectOutcomes(ctx context.Context, codes []string) (selected, skipped []string) {
	for _, code := range codes {
		if ctx.Err() != nil {
			skipped = append(skipped, code)
			continue
		}
		label, ok := cas.OutcomeLabel(code)
		if !ok {
			d.logger.Warn("unknown learning outcome, skipping", zap.String("code", code))
			skipped = append(skipped, code)
			continue
		}
		el, loc, err := Resolve(ctx, d.page, OutcomeLocators(label), d.logger)
		if err != nil {
			d.logger.Warn("learning outcome not found", zap.String("code", code), zap.String("label", label))
			skipped = append(skipped, code)
			continue
		}
		if err := el.Click(ctx); err != nil {
			d.logger.Warn("learning outcome click failed", zap.String("code", code), zap.Error(err))
			skipped = append(skipped, code)
			continue
		}
		d.logger.Debug("learning outcome selected", zap.String("code", code), zap.Stringer("locator", loc))
		selected = append(selected, code)
		_ = d.sleep(ctx, d.opts.ClickDelay)
	}
	return selected, skipped
}

// SubmitEntry clicks Add Entry.
func (d *Driver) SubmitEntry(ctx context.Context) error {
	btn, loc, err := Resolve(ctx, d.page, d.opts.Selectors.EntrySubmit, d.logger)
	if err != nil {
		return err
	}
	d.logger.Debug("add entry", zap.Stringer("locator", loc))
	if err := btn.Click(ctx); err != nil {
		return err
	}
	d.settle(ctx)
	d.logger.Info("entry submitted")
	return nil
}

// Capture saves a screenshot of the current page. It runs even when ctx was
// cancelled so a failed run still leaves evidence.
func (d *Driver) Capture(ctx context.Context) error {
	if d.opts.ScreenshotPath == "" {
		return errors.New("no screenshot path configured")
	}
	if err := d.page.Screenshot(context.WithoutCancel(ctx), d.opts.ScreenshotPath); err != nil {
		return err
	}
	d.logger.Info("screenshot saved", zap.String("path", d.opts.ScreenshotPath))
	return nil
}

func (d *Driver) settle(ctx context.Context) {
	if err := d.page.WaitLoad(ctx); err != nil {
		d.logger.Debug("wait load", zap.Error(err))
	}
	_ = d.sleep(ctx, d.opts.SettleDelay)
}

// waitFor polls candidates until one resolves or WaitTimeout passes.
func (d *Driver) waitFor(ctx context.Context, candidates []Locator) (Element, Locator, error) {
	deadline := d.now().Add(d.opts.WaitTimeout)
	for {
		el, loc, err := Resolve(ctx, d.page, candidates, d.logger)
		if err == nil || ctx.Err() != nil || !d.now().Before(deadline) {
			return el, loc, err
		}
		if err := d.sleep(ctx, pollInterval); err != nil {
			return nil, Locator{}, err
		}
	}
}
