package taxon

import (
	"strings"

	"github.com/teranos/globi/errors"
)

// Status is the resolution outcome carried by a Taxon. Only RESOLVED taxa
// are reachable through the name and id indexes.
type Status string

const (
	StatusResolved       Status = "RESOLVED"
	StatusNoName         Status = "NO_NAME"
	StatusNoMatch        Status = "NO_MATCH"
	StatusAmbiguousMatch Status = "AMBIGUOUS_MATCH"
)

// IsSentinel reports whether s marks a placeholder taxon.
func (s Status) IsSentinel() bool {
	return s != StatusResolved
}

// ParseStatus parses a stored status; blank means RESOLVED.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case "":
		return StatusResolved, nil
	case StatusResolved, StatusNoName, StatusNoMatch, StatusAmbiguousMatch:
		return st, nil
	default:
		return "", errors.Newf("unknown taxon status %q", s)
	}
}

// legacyPlaceholders are the magic strings older datasets put into name or
// id fields instead of leaving them blank.
var legacyPlaceholders = map[string]Status{
	"no name":         StatusNoName,
	"no match":        StatusNoMatch,
	"ambiguous match": StatusAmbiguousMatch,
}

// PlaceholderStatus reports whether value is a legacy placeholder such as
// "no:match" or "NO_NAME", and which status it stands for.
func PlaceholderStatus(value string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(value))
	norm = strings.NewReplacer(":", " ", "_", " ").Replace(norm)
	st, ok := legacyPlaceholders[norm]
	return st, ok
}
