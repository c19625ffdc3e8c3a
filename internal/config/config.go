package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration errors are fatal: callers abort before touching the network or browser.
var (
	ErrMissingAPIKey      = errors.New("gemini API key not configured (set GEMINI_API_KEY)")
	ErrMissingCredentials = errors.New("missing ManageBac credentials (set MANAGEBAC_URL, MANAGEBAC_USERNAME, MANAGEBAC_PASSWORD)")
)

// Config holds all casbot configuration.
type Config struct {
	// Scratch directory for stage handoff files, the run record and the ledger
	ScratchDir string `yaml:"scratch_dir"`

	// TrainingDataPath holds "Text training" and "Photos training"
	TrainingDataPath string `yaml:"training_data_path"`

	Schedule  ScheduleConfig  `yaml:"schedule"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	ManageBac ManageBacConfig `yaml:"managebac"`
	Browser   BrowserConfig   `yaml:"browser"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ScheduleConfig configures the due check.
type ScheduleConfig struct {
	Interval string `yaml:"interval"` // e.g. "96h"
}

// GeminiConfig configures the generative model client.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// ManageBacConfig configures the target site.
type ManageBacConfig struct {
	URL            string `yaml:"url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"-"`
	ReflectionsURL string `yaml:"reflections_url"` // direct journal page, used when link navigation fails
}

// BrowserConfig configures the Chromium session.
type BrowserConfig struct {
	Headless          bool   `yaml:"headless"`
	Bin               string `yaml:"bin"`
	ViewportWidth     int    `yaml:"viewport_width"`
	ViewportHeight    int    `yaml:"viewport_height"`
	NavigationTimeout string `yaml:"navigation_timeout"`
	SettleDelay       string `yaml:"settle_delay"`
	CloseGrace        string `yaml:"close_grace"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file, relative to the scratch dir
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ScratchDir:       ".tmp",
		TrainingDataPath: "Resala CAS Project trainng",

		Schedule: ScheduleConfig{
			Interval: "96h",
		},

		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "120s",
		},

		Browser: BrowserConfig{
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: "30s",
			SettleDelay:       "2s",
			CloseGrace:        "5s",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, then .env, then the environment.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file. The password is never written.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.Gemini.Model = model
	}

	if url := os.Getenv("MANAGEBAC_URL"); url != "" {
		c.ManageBac.URL = url
	}
	if user := os.Getenv("MANAGEBAC_USERNAME"); user != "" {
		c.ManageBac.Username = user
	}
	if pass := os.Getenv("MANAGEBAC_PASSWORD"); pass != "" {
		c.ManageBac.Password = pass
	}
	if url := os.Getenv("MANAGEBAC_REFLECTIONS_URL"); url != "" {
		c.ManageBac.ReflectionsURL = url
	}

	if path := os.Getenv("TRAINING_DATA_PATH"); path != "" {
		c.TrainingDataPath = path
	}
	if dir := os.Getenv("CASBOT_SCRATCH_DIR"); dir != "" {
		c.ScratchDir = dir
	}
	if interval := os.Getenv("CASBOT_INTERVAL"); interval != "" {
		c.Schedule.Interval = interval
	}

	if IsCI() {
		c.Browser.Headless = true
	}
}

// IsCI reports whether the process runs under a CI runner, which has no display.
func IsCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}

// ValidateGemini checks what the generative stages need.
func (c *Config) ValidateGemini() error {
	if isPlaceholder(c.Gemini.APIKey) {
		return ErrMissingAPIKey
	}
	return nil
}

// ValidateManageBac checks what the form driver needs.
func (c *Config) ValidateManageBac() error {
	if isPlaceholder(c.ManageBac.URL) || isPlaceholder(c.ManageBac.Username) || isPlaceholder(c.ManageBac.Password) {
		return ErrMissingCredentials
	}
	return nil
}

// isPlaceholder treats unset values and the "your_..." template values as missing.
func isPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "your_")
}

// ScratchPath joins name onto the scratch directory.
func (c *Config) ScratchPath(name string) string {
	return filepath.Join(c.ScratchDir, name)
}

// GetInterval returns the scheduling interval.
func (c *Config) GetInterval() time.Duration {
	return parseDuration(c.Schedule.Interval, 96*time.Hour)
}

// GetGeminiTimeout returns the per-request model timeout.
func (c *Config) GetGeminiTimeout() time.Duration {
	return parseDuration(c.Gemini.Timeout, 120*time.Second)
}

// GetNavigationTimeout returns the per-call browser timeout.
func (c *Config) GetNavigationTimeout() time.Duration {
	return parseDuration(c.Browser.NavigationTimeout, 30*time.Second)
}

// GetSettleDelay returns the fixed wait after navigations and clicks.
func (c *Config) GetSettleDelay() time.Duration {
	return parseDuration(c.Browser.SettleDelay, 2*time.Second)
}

// GetCloseGrace returns the delay before the browser is closed.
func (c *Config) GetCloseGrace() time.Duration {
	return parseDuration(c.Browser.CloseGrace, 5*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
