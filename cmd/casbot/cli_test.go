package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"casbot/internal/config"

	"github.com/spf13/cobra"
)

func TestRootCommands(t *testing.T) {
	want := []string{"check", "idea", "reflect", "analyze", "submit", "workflow", "status", "history", "setup"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestCheckFlags(t *testing.T) {
	for _, flag := range []string{"force", "interval", "headless"} {
		if checkCmd.Flags().Lookup(flag) == nil {
			t.Errorf("check is missing --%s", flag)
		}
	}
	if submitCmd.Flags().Lookup("auto") == nil || reflectCmd.Flags().Lookup("auto") == nil {
		t.Error("submit and reflect need --auto")
	}
}

func TestAnalyzeRequiresArgs(t *testing.T) {
	if err := analyzeCmd.Args(&cobra.Command{}, nil); err == nil {
		t.Error("analyze should require at least one path")
	}
}

func TestExpandImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(t.TempDir(), "c.webp")
	if err := os.WriteFile(single, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := expandImages([]string{dir, single})
	if err != nil {
		t.Fatalf("expandImages failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "b.png"), single}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], paths[i])
		}
	}

	if _, err := expandImages([]string{t.TempDir()}); err == nil {
		t.Error("expected error for a folder without images")
	}
	if _, err := expandImages([]string{filepath.Join(dir, "missing.png")}); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestSetupChecks(t *testing.T) {
	root := t.TempDir()
	c := config.DefaultConfig()
	c.ScratchDir = filepath.Join(root, ".tmp")
	c.TrainingDataPath = filepath.Join(root, "training")

	byName := func(results []checkResult) map[string]checkResult {
		m := make(map[string]checkResult)
		for _, r := range results {
			m[r.name] = r
		}
		return m
	}

	got := byName(setupChecks(c))
	if !errors.Is(got["Gemini API key"].err, config.ErrMissingAPIKey) {
		t.Errorf("expected missing API key, got %v", got["Gemini API key"].err)
	}
	if !errors.Is(got["ManageBac credentials"].err, config.ErrMissingCredentials) {
		t.Errorf("expected missing credentials, got %v", got["ManageBac credentials"].err)
	}
	if got["Text training"].err == nil {
		t.Error("expected missing training text to fail")
	}
	if !got["Photos training"].optional {
		t.Error("photos should be optional")
	}
	if got["Scratch directory"].err != nil {
		t.Errorf("scratch dir should be writable: %v", got["Scratch directory"].err)
	}

	text := filepath.Join(c.TrainingDataPath, "Text training")
	if err := os.MkdirAll(text, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(text, "Reflection 1.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	c.Gemini.APIKey = "key"
	c.ManageBac = config.ManageBacConfig{URL: "https://x.managebac.com", Username: "u", Password: "p"}

	got = byName(setupChecks(c))
	for _, name := range []string{"Gemini API key", "ManageBac credentials", "Text training"} {
		if got[name].err != nil {
			t.Errorf("%s: unexpected error %v", name, got[name].err)
		}
	}
	if got["Text training"].detail != "1 files" {
		t.Errorf("unexpected detail %q", got["Text training"].detail)
	}
}
