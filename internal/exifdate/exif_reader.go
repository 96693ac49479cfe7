package exifdate

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifTimeLayout is the colon-delimited timestamp format EXIF uses for
// DateTimeOriginal, e.g. "2024:03:15 10:30:00".
const exifTimeLayout = "2006:01:02 15:04:05"

// EXIFReader reads the DateTimeOriginal tag from image files.
type EXIFReader struct{}

func (EXIFReader) CaptureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	meta, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode exif: %w", err)
	}

	tag, err := meta.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, fmt.Errorf("read DateTimeOriginal: %w", err)
	}
	value, err := tag.StringVal()
	if err != nil {
		return time.Time{}, fmt.Errorf("read DateTimeOriginal value: %w", err)
	}

	captured, err := time.ParseInLocation(exifTimeLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse DateTimeOriginal %q: %w", value, err)
	}
	return captured, nil
}
