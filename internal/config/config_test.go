package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"hopper/internal/logging"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	store := Load(path, logging.NewNop())

	if got := store.YearFormat(); got != "%Y" {
		t.Fatalf("year format = %q, want %%Y", got)
	}
	if got := store.SessionFormat(); got != "Session_{month_name}" {
		t.Fatalf("session format = %q", got)
	}
	if got := store.GetString(KeyFileExtensions); got != ".RAF, .JPG" {
		t.Fatalf("extensions = %q", got)
	}
}

func TestLoadParseFailureDegradesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not = [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := Load(path, logging.NewNop())
	if got := store.MonthFormat(); got != "%Y-%m_%B" {
		t.Fatalf("month format = %q, want default", got)
	}
}

func TestRoundTripPreservesUnknownKeysAndBackfillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "destination_volume_label = \"PHOTO_VAULT\"\ncustom_note = \"kept\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store := Load(path, logging.NewNop())
	if got := store.DestinationVolumeLabel(); got != "PHOTO_VAULT" {
		t.Fatalf("label = %q", got)
	}
	// Keys never set retain defaults.
	if got := store.YearFormat(); got != "%Y" {
		t.Fatalf("year format = %q", got)
	}

	store.Set(KeySourcePath, "/cards/fuji")
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded := Load(path, logging.NewNop())
	if got := reloaded.GetString("custom_note"); got != "kept" {
		t.Fatalf("unknown key lost on round trip: %q", got)
	}
	if got := reloaded.SourcePath(); got != "/cards/fuji" {
		t.Fatalf("source path = %q", got)
	}
	if got := reloaded.DestinationVolumeLabel(); got != "PHOTO_VAULT" {
		t.Fatalf("label after round trip = %q", got)
	}
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "config.toml")
	store := Load(path, logging.NewNop())
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestExtensionsNormalization(t *testing.T) {
	store := Load(filepath.Join(t.TempDir(), "c.toml"), logging.NewNop())
	store.Set(KeyFileExtensions, " .raf, JPG ,, .Cr2 ")

	got := store.Extensions()
	want := []string{".RAF", ".JPG", ".CR2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("extensions = %v, want %v", got, want)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/photos")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "photos") {
		t.Fatalf("expand = %q", got)
	}
}
