// Package pathplan turns a capture date into the year/month/session path
// segments of the destination tree.
package pathplan

import (
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// monthNameToken is the single substitution token the session pattern
// supports; it expands to the full month name.
const monthNameToken = "{month_name}"

// Patterns holds the user-configured strftime patterns for the year and
// month folders plus the literal session-name template.
type Patterns struct {
	YearFormat    string
	MonthFormat   string
	SessionFormat string
}

// Segments are the destination path components derived from one capture
// date: root/Year/Month/Session.
type Segments struct {
	Year    string
	Month   string
	Session string
}

// Build applies the configured patterns to a capture date. It is a pure
// function: the same (date, patterns) pair always yields the same segments.
// Segments are not validated against filesystem rules; a pattern producing
// illegal characters surfaces later as a per-file failure.
func Build(captured time.Time, p Patterns) Segments {
	return Segments{
		Year:    strftime.Format(p.YearFormat, captured),
		Month:   strftime.Format(p.MonthFormat, captured),
		Session: strings.ReplaceAll(p.SessionFormat, monthNameToken, captured.Month().String()),
	}
}
