// Package browser runs the Chromium session the form driver scripts, using
// go-rod over the DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"casbot/internal/config"
	"casbot/internal/formdriver"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config holds browser configuration.
type Config struct {
	Bin               string
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

// FromConfig maps the application config onto browser settings.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Bin:               cfg.Browser.Bin,
		Headless:          cfg.Browser.Headless,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		NavigationTimeout: cfg.GetNavigationTimeout(),
	}
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

// GetNavigationTimeout returns the per-call timeout.
func (c Config) GetNavigationTimeout() time.Duration {
	if c.NavigationTimeout == 0 {
		return 30 * time.Second
	}
	return c.NavigationTimeout
}

// Session owns one launched Chromium and the single page the driver uses.
type Session struct {
	cfg      Config
	logger   *zap.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *Page

	closeOnce sync.Once
	closeErr  error
}

// Launch starts Chromium, connects, and opens an incognito page sized to the
// configured viewport.
func Launch(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		if cfg.Bin == "" {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		// Fall back to rod's browser discovery when the configured binary fails.
		logger.Warn("configured browser failed to launch, trying default", zap.String("bin", cfg.Bin), zap.Error(err))
		l = launcher.New().Headless(cfg.Headless)
		alt, altErr := l.Launch()
		if altErr != nil {
			return nil, fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
		}
		controlURL = alt
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	s := &Session{cfg: cfg, logger: logger, launcher: l, browser: b}

	page, err := s.newPage()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.page = page

	logger.Info("browser started", zap.Bool("headless", cfg.Headless))
	return s, nil
}

func (s *Session) newPage() (*Page, error) {
	incognito, err := s.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	p, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.GetViewportWidth(),
		Height:            s.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(p); err != nil {
		s.logger.Warn("failed to set viewport", zap.Error(err))
	}

	return &Page{page: p, timeout: s.cfg.GetNavigationTimeout(), logger: s.logger}, nil
}

// Page returns the session's page.
func (s *Session) Page() formdriver.Page {
	return s.page
}

// Close closes the browser and removes its profile. Safe to call twice.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.launcher != nil {
			s.launcher.Cleanup()
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Info("browser closed")
	})
	return s.closeErr
}

// Opener adapts Launch to formdriver.Opener.
func Opener(cfg Config, logger *zap.Logger) formdriver.Opener {
	return func(ctx context.Context) (formdriver.Session, error) {
		s, err := Launch(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Available reports the Chromium binary rod would launch, if one is found.
func Available(cfg Config) (string, bool) {
	if cfg.Bin != "" {
		return cfg.Bin, true
	}
	return launcher.LookPath()
}
