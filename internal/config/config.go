package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"hopper/internal/logging"
)

// Setting keys. The first eight mirror the ingest contract; the rest are
// ambient tool settings.
const (
	KeySourcePath             = "source_path"
	KeyDestinationVolume      = "destination_volume"
	KeyDestinationVolumeLabel = "destination_volume_label"
	KeyTemplatePath           = "template_path"
	KeyYearFormat             = "year_format"
	KeyMonthFormat            = "month_format"
	KeySessionFormat          = "session_format"
	KeyFileExtensions         = "file_extensions"
	KeyLogLevel               = "log_level"
	KeyLogFormat              = "log_format"
	KeyStateDir               = "state_dir"
)

// Defaults returns the built-in settings mapping.
func Defaults() map[string]any {
	return map[string]any{
		KeySourcePath:             "",
		KeyDestinationVolume:      "",
		KeyDestinationVolumeLabel: "",
		KeyTemplatePath:           "",
		KeyYearFormat:             "%Y",
		KeyMonthFormat:            "%Y-%m_%B",
		KeySessionFormat:          "Session_{month_name}",
		KeyFileExtensions:         ".RAF, .JPG",
		KeyLogLevel:               "info",
		KeyLogFormat:              "console",
		KeyStateDir:               "~/.local/share/hopper",
	}
}

// Store holds the flat settings mapping for one run. Values loaded from disk
// are merged over Defaults; keys the tool does not know are kept as-is so a
// save round-trips them.
type Store struct {
	path   string
	values map[string]any
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	return ExpandPath("~/.config/hopper/config.toml")
}

// Load reads the settings file at path (or the default location when path is
// empty). A missing file or a parse failure degrades to the defaults: the
// condition is logged and never surfaced to the caller.
func Load(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			logger.Warn("resolve default config path", logging.Error(err))
			return &Store{path: "hopper.toml", values: Defaults()}
		}
		resolved = defaultPath
	} else if expanded, err := ExpandPath(resolved); err == nil {
		resolved = expanded
	}

	store := &Store{path: resolved, values: Defaults()}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("read config, using defaults", logging.String("path", resolved), logging.Error(err))
		}
		return store
	}

	loaded := map[string]any{}
	if err := toml.Unmarshal(raw, &loaded); err != nil {
		logger.Warn("parse config, using defaults", logging.String("path", resolved), logging.Error(err))
		return store
	}
	for key, value := range loaded {
		store.values[key] = value
	}
	return store
}

// Save serializes the mapping back to the store's path with stable key
// ordering.
func (s *Store) Save() error {
	encoded, err := toml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Path returns the file location backing this store.
func (s *Store) Path() string { return s.path }

// Keys returns all setting names in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// GetString returns the setting as a string, or "" when absent or non-string.
func (s *Store) GetString(key string) string {
	value, ok := s.values[key]
	if !ok {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return fmt.Sprint(value)
	}
	return str
}

// Set stores a value under key. Unknown keys are accepted and preserved.
func (s *Store) Set(key string, value any) {
	s.values[key] = value
}

func (s *Store) SourcePath() string { return strings.TrimSpace(s.GetString(KeySourcePath)) }

func (s *Store) DestinationVolumeLabel() string {
	return strings.TrimSpace(s.GetString(KeyDestinationVolumeLabel))
}

func (s *Store) TemplatePath() string { return strings.TrimSpace(s.GetString(KeyTemplatePath)) }

func (s *Store) YearFormat() string { return s.GetString(KeyYearFormat) }

func (s *Store) MonthFormat() string { return s.GetString(KeyMonthFormat) }

func (s *Store) SessionFormat() string { return s.GetString(KeySessionFormat) }

func (s *Store) LogLevel() string { return s.GetString(KeyLogLevel) }

func (s *Store) LogFormat() string { return s.GetString(KeyLogFormat) }

// StateDir returns the expanded state directory for locks and the history
// database.
func (s *Store) StateDir() string {
	dir := strings.TrimSpace(s.GetString(KeyStateDir))
	if dir == "" {
		dir = Defaults()[KeyStateDir].(string)
	}
	expanded, err := ExpandPath(dir)
	if err != nil {
		return dir
	}
	return expanded
}

// Extensions parses the comma-separated allowlist into normalized
// upper-cased suffixes (".RAF"). Empty entries are dropped.
func (s *Store) Extensions() []string {
	parts := strings.Split(s.GetString(KeyFileExtensions), ",")
	exts := make([]string, 0, len(parts))
	for _, part := range parts {
		ext := strings.ToUpper(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

// ExpandPath resolves a leading ~ and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
