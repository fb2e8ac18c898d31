package util

import (
	"strings"
	"time"
)

// FormatTimeTpl formats t using a template with placeholders.
//
// Supported placeholders:
// - YYYY: 4-digit year
// - YY: 2-digit year
// - MM: 2-digit month (01-12)
// - DD: 2-digit day (01-31)
// - hh: 2-digit hour (00-23)
// - mm: 2-digit minute (00-59)
// - ss: 2-digit second (00-59)
//
// Returns an empty string for the zero time.
//
// Example:
//
//	t := time.Date(2023, 11, 10, 0, 0, 0, 0, time.UTC)
//	FormatTimeTpl(t, "YYYY.MM.DD")       // "2023.11.10"
//	FormatTimeTpl(t, "DD/MM/YYYY")       // "10/11/2023"
//	FormatTimeTpl(t, "YYYY-MM-DD hh:mm") // "2023-11-10 00:00"
func FormatTimeTpl(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	// YYYY before YY so the longer token wins.
	r := strings.NewReplacer(
		"YYYY", "2006",
		"YY", "06",
		"MM", "01",
		"DD", "02",
		"hh", "15",
		"mm", "04",
		"ss", "05",
	)
	return t.Format(r.Replace(tpl))
}
