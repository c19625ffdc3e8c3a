//go:build integration

package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"casbot/internal/browser"
	"casbot/internal/cas"
	"casbot/internal/formdriver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Body     string
	Outcomes []string
}

// fakeManageBac serves a minimal login, CAS and journal flow.
type fakeManageBac struct {
	// wrapped renders each outcome as a div holding a checkbox and a
	// sibling label, so the div's text equals the label's.
	wrapped bool

	mu      sync.Mutex
	entries []entry
}

func (f *fakeManageBac) handler() http.Handler {
	mux := http.NewServeMux()
	page := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	}

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		page(w, `<form method="post" action="/session">
			<input type="email" name="email">
			<input type="password" name="password">
			<button type="submit">Sign in</button>
		</form>`)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("password") != "hunter2" {
			http.Redirect(w, r, "/login?error=1", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/student", http.StatusSeeOther)
	})
	mux.HandleFunc("/student", func(w http.ResponseWriter, r *http.Request) {
		page(w, `<nav><a href="/student/cas">CAS</a> <a href="/student/classes">Classes</a></nav>`)
	})
	mux.HandleFunc("/student/cas", func(w http.ResponseWriter, r *http.Request) {
		page(w, `<h1>Resala</h1><a href="/student/cas/journal">Journal</a>`)
	})
	mux.HandleFunc("/student/cas/journal", func(w http.ResponseWriter, r *http.Request) {
		var labels strings.Builder
		for _, code := range cas.KnownOutcomeCodes() {
			label, _ := cas.OutcomeLabel(code)
			if f.wrapped {
				fmt.Fprintf(&labels, `<div class="lo" style="width:1800px">`+
					`<input type="checkbox" id="lo%[1]s" name="lo" value="%[1]s"><label for="lo%[1]s">%[2]s</label></div>`, code, label)
				continue
			}
			fmt.Fprintf(&labels, `<label><input type="checkbox" name="lo" value="%s"> %s</label><br>`, code, label)
		}
		page(w, `<form method="post" action="/entries"
				onsubmit="document.getElementById('body').value = document.getElementById('editor').innerText">
			<div id="editor" contenteditable="true" style="min-height:100px"></div>
			<input type="hidden" id="body" name="body">
			`+labels.String()+`
			<button type="submit">Add Entry</button>
		</form>`)
	})
	mux.HandleFunc("/entries", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.entries = append(f.entries, entry{Body: r.FormValue("body"), Outcomes: r.Form["lo"]})
		f.mu.Unlock()
		http.Redirect(w, r, "/student/cas/journal?saved=1", http.StatusSeeOther)
	})
	return mux
}

func (f *fakeManageBac) saved() []entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entry(nil), f.entries...)
}

func launch(t *testing.T, ctx context.Context) *browser.Session {
	t.Helper()
	if _, ok := browser.Available(browser.Config{}); !ok {
		t.Skip("no Chromium available")
	}
	sess, err := browser.Launch(ctx, browser.Config{Headless: true, NavigationTimeout: 10 * time.Second}, nil)
	require.NoError(t, err, "Failed to start browser")
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestDriver_SubmitsJournalEntry_Integration(t *testing.T) {
	site := &fakeManageBac{}
	ts := httptest.NewServer(site.handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sess := launch(t, ctx)
	shot := filepath.Join(t.TempDir(), cas.ScreenshotFile)

	d := formdriver.New(sess.Page(), formdriver.Options{
		BaseURL:        ts.URL + "/login",
		Username:       "student@example.com",
		Password:       "hunter2",
		ScreenshotPath: shot,
		SettleDelay:    300 * time.Millisecond,
		WaitTimeout:    5 * time.Second,
	}, nil)

	report, err := d.Submit(ctx, cas.ReflectionResult{
		Success:          true,
		Reflection:       "We packed 40 food boxes.\nI said \"thank you\" to every volunteer.",
		LearningOutcomes: []string{"2", "5", "9"},
	})
	require.NoError(t, err)

	assert.True(t, report.Submitted)
	assert.Equal(t, []string{"2", "5"}, report.OutcomesSelected)
	assert.Equal(t, []string{"9"}, report.OutcomesSkipped)

	require.Eventually(t, func() bool { return len(site.saved()) == 1 }, 5*time.Second, 100*time.Millisecond)
	got := site.saved()[0]
	assert.Contains(t, got.Body, "We packed 40 food boxes.")
	assert.Contains(t, got.Body, `"thank you"`)
	assert.ElementsMatch(t, []string{"2", "5"}, got.Outcomes)

	info, err := os.Stat(shot)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestDriver_TogglesWrappedOutcomeLabels_Integration(t *testing.T) {
	site := &fakeManageBac{wrapped: true}
	ts := httptest.NewServer(site.handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sess := launch(t, ctx)
	d := formdriver.New(sess.Page(), formdriver.Options{
		BaseURL:        ts.URL + "/login",
		Username:       "student@example.com",
		Password:       "hunter2",
		ScreenshotPath: filepath.Join(t.TempDir(), cas.ScreenshotFile),
		SettleDelay:    300 * time.Millisecond,
		WaitTimeout:    5 * time.Second,
	}, nil)

	report, err := d.Submit(ctx, cas.ReflectionResult{
		Success:          true,
		Reflection:       "Sorted winter clothes.",
		LearningOutcomes: []string{"1", "6"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "6"}, report.OutcomesSelected)

	require.Eventually(t, func() bool { return len(site.saved()) == 1 }, 5*time.Second, 100*time.Millisecond)
	assert.ElementsMatch(t, []string{"1", "6"}, site.saved()[0].Outcomes)
}

func TestDriver_WrongPasswordFailsLogin_Integration(t *testing.T) {
	site := &fakeManageBac{}
	ts := httptest.NewServer(site.handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sess := launch(t, ctx)
	d := formdriver.New(sess.Page(), formdriver.Options{
		BaseURL:  ts.URL + "/login",
		Username: "student@example.com",
		Password: "wrong",
	}, nil)

	_, err := d.Submit(ctx, cas.ReflectionResult{Success: true, Reflection: "x"})
	assert.ErrorIs(t, err, formdriver.ErrLoginFailed)
	assert.Empty(t, site.saved())
}
