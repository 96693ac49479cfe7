// Package exifdate resolves the capture date of a photo: an embedded EXIF
// timestamp when a reader capability is available, otherwise the file's
// modification time.
package exifdate

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"hopper/internal/logging"
)

// TimestampReader is the optional capability that extracts an embedded
// original-capture timestamp from a file.
type TimestampReader interface {
	CaptureTime(path string) (time.Time, error)
}

// Extractor resolves capture dates with a filesystem fallback. A nil reader
// means the embedded-timestamp capability is absent and the fallback is used
// directly.
type Extractor struct {
	reader TimestampReader
	logger *slog.Logger
}

func NewExtractor(reader TimestampReader, logger *slog.Logger) *Extractor {
	return &Extractor{
		reader: reader,
		logger: logging.NewComponentLogger(logger, "exifdate"),
	}
}

// Extract returns the capture date for path. Reader failures are a silent
// degrade to the modification time; only a file that cannot be stat'd either
// is an error.
func (e *Extractor) Extract(path string) (time.Time, error) {
	if e.reader != nil {
		captured, err := e.reader.CaptureTime(path)
		if err == nil {
			return captured, nil
		}
		e.logger.Debug("embedded timestamp unavailable, falling back to mtime",
			logging.String("file", path), logging.Error(err))
	}

	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("determine capture date for %s: %w", path, err)
	}
	return info.ModTime(), nil
}
