// Package session locates or creates Capture One session folders in the
// destination tree. A session is a directory bundling a Capture intake
// subfolder and a .cosessiondb marker file; the marker's presence (not its
// content) is what makes a session count as initialized.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hopper/internal/fileutil"
	"hopper/internal/logging"
	"hopper/internal/pathplan"
)

const (
	// MarkerExtension names session database marker files.
	MarkerExtension = ".cosessiondb"
	// CaptureDirName is the fixed intake subfolder inside a session.
	CaptureDirName = "Capture"
)

// Folder describes a located or newly created session folder.
type Folder struct {
	Path         string
	CapturePath  string
	MarkerPath   string
	Reused       bool
	FromTemplate bool
}

// Locator finds or creates session folders, optionally seeding new ones from
// a template tree.
type Locator struct {
	templatePath string
	logger       *slog.Logger
}

// NewLocator returns a locator. templatePath may be empty; a configured but
// missing template degrades to the basic empty structure.
func NewLocator(templatePath string, logger *slog.Logger) *Locator {
	return &Locator{
		templatePath: strings.TrimSpace(templatePath),
		logger:       logging.NewComponentLogger(logger, "session"),
	}
}

// LocateOrCreate returns the session folder for root/year/month/session,
// creating it if needed. An existing marker file means the session is reused
// as-is: the marker is never rewritten and the template is never re-cloned.
func (l *Locator) LocateOrCreate(root string, seg pathplan.Segments) (Folder, error) {
	folder := Folder{
		Path: filepath.Join(root, seg.Year, seg.Month, seg.Session),
	}
	folder.CapturePath = filepath.Join(folder.Path, CaptureDirName)
	folder.MarkerPath = filepath.Join(folder.Path, seg.Session+MarkerExtension)

	if _, err := os.Stat(folder.MarkerPath); err == nil {
		folder.Reused = true
		if err := os.MkdirAll(folder.CapturePath, 0o755); err != nil {
			return Folder{}, fmt.Errorf("ensure capture folder: %w", err)
		}
		return folder, nil
	}

	if l.templatePath == "" {
		return folder, l.createBasic(folder)
	}
	if _, err := os.Stat(l.templatePath); err != nil {
		l.logger.Debug("template path missing, creating basic session",
			logging.String("template", l.templatePath))
		return folder, l.createBasic(folder)
	}

	if err := l.createFromTemplate(&folder); err != nil {
		// Template cloning is best-effort; a failed clone falls back to the
		// basic structure rather than failing the candidate.
		l.logger.Warn("clone session template failed, falling back to basic structure",
			logging.String("template", l.templatePath),
			logging.String("session", folder.Path),
			logging.Error(err))
		return folder, l.createBasic(folder)
	}
	folder.FromTemplate = true
	return folder, nil
}

// createBasic builds the minimal session: a Capture folder and an empty
// placeholder marker. The marker is only written when absent.
func (l *Locator) createBasic(folder Folder) error {
	if err := os.MkdirAll(folder.CapturePath, 0o755); err != nil {
		return fmt.Errorf("create capture folder: %w", err)
	}
	if _, err := os.Stat(folder.MarkerPath); os.IsNotExist(err) {
		if err := os.WriteFile(folder.MarkerPath, nil, 0o644); err != nil {
			return fmt.Errorf("create session marker: %w", err)
		}
	}
	return nil
}

// createFromTemplate clones the template tree to the session path and renames
// the first marker file found inside it to the canonical session name.
func (l *Locator) createFromTemplate(folder *Folder) error {
	if err := os.MkdirAll(filepath.Dir(folder.Path), 0o755); err != nil {
		return fmt.Errorf("create session parent: %w", err)
	}
	if err := fileutil.CopyTree(l.templatePath, folder.Path); err != nil {
		return err
	}

	entries, err := os.ReadDir(folder.Path)
	if err != nil {
		return fmt.Errorf("scan cloned session: %w", err)
	}
	renamed := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), MarkerExtension) {
			continue
		}
		source := filepath.Join(folder.Path, entry.Name())
		if source != folder.MarkerPath {
			if err := os.Rename(source, folder.MarkerPath); err != nil {
				return fmt.Errorf("rename session marker: %w", err)
			}
		}
		renamed = true
		break
	}
	if !renamed {
		if err := os.WriteFile(folder.MarkerPath, nil, 0o644); err != nil {
			return fmt.Errorf("create session marker: %w", err)
		}
	}

	if err := os.MkdirAll(folder.CapturePath, 0o755); err != nil {
		return fmt.Errorf("ensure capture folder: %w", err)
	}
	return nil
}
