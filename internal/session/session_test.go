package session

import (
	"os"
	"path/filepath"
	"testing"

	"hopper/internal/logging"
	"hopper/internal/pathplan"
	"hopper/internal/testsupport"
)

var segments = pathplan.Segments{
	Year:    "2024",
	Month:   "2024-03_March",
	Session: "Session_March",
}

func TestCreateBasicSession(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator("", logging.NewNop())

	folder, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}

	wantPath := filepath.Join(root, "2024", "2024-03_March", "Session_March")
	if folder.Path != wantPath {
		t.Fatalf("path = %q, want %q", folder.Path, wantPath)
	}
	if folder.Reused || folder.FromTemplate {
		t.Fatalf("fresh basic session flagged reused=%v template=%v", folder.Reused, folder.FromTemplate)
	}

	if info, err := os.Stat(folder.CapturePath); err != nil || !info.IsDir() {
		t.Fatalf("capture folder missing: %v", err)
	}
	marker, err := os.ReadFile(folder.MarkerPath)
	if err != nil {
		t.Fatalf("marker missing: %v", err)
	}
	if len(marker) != 0 {
		t.Fatalf("placeholder marker should be empty, got %d bytes", len(marker))
	}
}

func TestReuseIsIdempotentAndNeverTouchesMarker(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator("", logging.NewNop())

	first, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	// Simulate Capture One having written real session state.
	if err := os.WriteFile(first.MarkerPath, []byte("catalog state"), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if second.Path != first.Path {
		t.Fatalf("paths differ: %q vs %q", second.Path, first.Path)
	}
	if !second.Reused {
		t.Fatal("expected second call to reuse the session")
	}

	content, err := os.ReadFile(first.MarkerPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "catalog state" {
		t.Fatalf("marker content changed: %q", content)
	}
}

func TestReuseRecreatesMissingCaptureFolder(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator("", logging.NewNop())

	folder, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(folder.CapturePath); err != nil {
		t.Fatal(err)
	}

	again, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(again.CapturePath); err != nil || !info.IsDir() {
		t.Fatalf("capture folder not recreated: %v", err)
	}
}

func buildTemplate(t *testing.T) string {
	t.Helper()
	template := filepath.Join(t.TempDir(), "CO_Template")
	if err := os.MkdirAll(filepath.Join(template, "Settings"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(template, "Template.cosessiondb"), []byte("seeded"), 0o644); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, filepath.Join(template, "Settings", "prefs.xml"), 64)
	return template
}

func TestCreateFromTemplate(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(buildTemplate(t), logging.NewNop())

	folder, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if !folder.FromTemplate {
		t.Fatal("expected session to be cloned from template")
	}

	// Template marker renamed to the canonical session name.
	content, err := os.ReadFile(folder.MarkerPath)
	if err != nil {
		t.Fatalf("canonical marker missing: %v", err)
	}
	if string(content) != "seeded" {
		t.Fatalf("marker content = %q, want template content", content)
	}
	if _, err := os.Stat(filepath.Join(folder.Path, "Template.cosessiondb")); !os.IsNotExist(err) {
		t.Fatal("template marker name should be gone after rename")
	}
	if _, err := os.Stat(filepath.Join(folder.Path, "Settings", "prefs.xml")); err != nil {
		t.Fatalf("template payload missing: %v", err)
	}
	if info, err := os.Stat(folder.CapturePath); err != nil || !info.IsDir() {
		t.Fatalf("capture folder missing: %v", err)
	}
}

func TestTemplateReuseDoesNotReclone(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(buildTemplate(t), logging.NewNop())

	first, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(first.MarkerPath, []byte("user edits"), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Reused || second.FromTemplate {
		t.Fatalf("expected plain reuse, got reused=%v template=%v", second.Reused, second.FromTemplate)
	}
	content, err := os.ReadFile(first.MarkerPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "user edits" {
		t.Fatalf("re-clone overwrote marker: %q", content)
	}
}

func TestCloneFailureFallsBackToBasic(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(buildTemplate(t), logging.NewNop())

	// A session directory that already exists without a marker makes the
	// template clone fail; the locator must still deliver a usable session.
	existing := filepath.Join(root, "2024", "2024-03_March", "Session_March")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatal(err)
	}

	folder, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if folder.FromTemplate {
		t.Fatal("failed clone must not be flagged as cloned")
	}
	if info, err := os.Stat(folder.CapturePath); err != nil || !info.IsDir() {
		t.Fatalf("capture folder missing after fallback: %v", err)
	}
	marker, err := os.ReadFile(folder.MarkerPath)
	if err != nil {
		t.Fatalf("placeholder marker missing after fallback: %v", err)
	}
	if len(marker) != 0 {
		t.Fatalf("fallback marker should be empty, got %d bytes", len(marker))
	}
	if _, err := os.Stat(filepath.Join(folder.Path, "Settings")); !os.IsNotExist(err) {
		t.Fatal("fallback must not leave template payload behind")
	}
}

func TestMissingTemplateFallsBackToBasic(t *testing.T) {
	root := t.TempDir()
	locator := NewLocator(filepath.Join(t.TempDir(), "gone"), logging.NewNop())

	folder, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if folder.FromTemplate {
		t.Fatal("missing template must not be flagged as cloned")
	}
	if _, err := os.Stat(folder.MarkerPath); err != nil {
		t.Fatalf("placeholder marker missing: %v", err)
	}
}

func TestTemplateWithoutMarkerGetsPlaceholder(t *testing.T) {
	template := filepath.Join(t.TempDir(), "bare")
	if err := os.MkdirAll(filepath.Join(template, "Output"), 0o755); err != nil {
		t.Fatal(err)
	}

	root := t.TempDir()
	locator := NewLocator(template, logging.NewNop())
	folder, err := locator.LocateOrCreate(root, segments)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(folder.MarkerPath); err != nil {
		t.Fatalf("placeholder marker missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(folder.Path, "Output")); err != nil {
		t.Fatalf("template subfolder missing: %v", err)
	}
}
