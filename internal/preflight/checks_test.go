package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckReadableDirectory(t *testing.T) {
	dir := t.TempDir()
	if res := CheckReadableDirectory("src", dir); !res.Passed {
		t.Fatalf("expected pass for temp dir: %+v", res)
	}
}

func TestCheckDirectoryMissing(t *testing.T) {
	res := CheckReadableDirectory("src", filepath.Join(t.TempDir(), "missing"))
	if res.Passed {
		t.Fatalf("expected failure: %+v", res)
	}
}

func TestCheckDirectoryNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := CheckWritableDirectory("dst", file); res.Passed {
		t.Fatalf("expected failure for regular file: %+v", res)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	if res := CheckFreeSpace("space", t.TempDir(), 1); !res.Passed {
		t.Fatalf("expected pass for tiny minimum: %+v", res)
	}
}

func TestForIngest(t *testing.T) {
	results := ForIngest(t.TempDir(), t.TempDir())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, res := range results {
		if !res.Passed {
			t.Errorf("check %q failed: %s", res.Name, res.Detail)
		}
	}
}
