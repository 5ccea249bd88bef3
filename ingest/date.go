package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/teranos/globi/errors"
)

// restrictedYear is the placeholder year Arctos publishes for withheld dates.
const restrictedYear = 8888

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// symbiotaFix drops everything from the first "-00", so that Symbiota
// style partial dates such as 1999-03-00 parse as 1999-03.
func symbiotaFix(s string) string {
	if i := strings.Index(s, "-00"); i > 0 {
		return s[:i]
	}
	return s
}

// ParseEventDate parses an ISO 8601 date or date-time, interpreted as UTC
// when no zone is given. Of an interval "start/end" the start is used.
func ParseEventDate(s string) (time.Time, error) {
	value := symbiotaFix(strings.TrimSpace(s))
	if start, _, ok := strings.Cut(value, "/"); ok {
		value = start
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.NewMalformedField("invalid date string [%s]", s)
}

// eventDate parses raw and reports data quality problems. Restricted and
// future dates are kept; an unparseable date is dropped.
func eventDate(raw string, now time.Time) (*time.Time, []string) {
	if raw == "" {
		return nil, nil
	}
	t, err := ParseEventDate(raw)
	if err != nil {
		return nil, []string{fmt.Sprintf("invalid date string [%s]", raw)}
	}
	printed := t.Format(time.RFC3339)
	switch {
	case t.Year() == restrictedYear:
		return &t, []string{fmt.Sprintf("date [%s] appears to be restricted, see http://handbook.arctosdb.org/documentation/dates.html#restricted-data", printed)}
	case t.After(now):
		return &t, []string{fmt.Sprintf("date [%s] is in the future", printed)}
	}
	return &t, nil
}
