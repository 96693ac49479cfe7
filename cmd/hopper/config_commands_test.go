package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hopper/internal/config"
	"hopper/internal/logging"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output %q does not contain %q", haystack, needle)
	}
}

func TestConfigSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "--config", path, "config", "set", config.KeySourcePath, "/mnt/card")
	if err != nil {
		t.Fatalf("config set: %v", err)
	}
	requireContains(t, out, "Set source_path = /mnt/card")

	cfg := config.Load(path, logging.NewNop())
	if got := cfg.SourcePath(); got != "/mnt/card" {
		t.Fatalf("reloaded source_path = %q", got)
	}
}

func TestConfigSetPreservesUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("custom_note = \"keep me\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, "--config", path, "config", "set", config.KeyYearFormat, "%y"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	cfg := config.Load(path, logging.NewNop())
	if got := cfg.GetString("custom_note"); got != "keep me" {
		t.Fatalf("custom_note = %q after save", got)
	}
	if got := cfg.YearFormat(); got != "%y" {
		t.Fatalf("year_format = %q after save", got)
	}
}

func TestConfigShowListsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Config path: "+path)
	requireContains(t, out, "session_format")
	requireContains(t, out, "Session_{month_name}")
}

func TestConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Fatalf("config path output = %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote configuration to "+target)

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second init must refuse to clobber the file.
	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config file")
	}

	if _, _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
