package study

import (
	"strings"

	"github.com/teranos/globi/errors"
)

// DOIResolverPrefix is prepended to a DOI to form a study externalId.
const DOIResolverPrefix = "https://doi.org/"

var doiPrefixes = []string{
	"doi:",
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
}

// ParseDOI returns the canonical "10.x/y" form of s. It accepts bare DOIs
// and the doi: and resolver URL prefixes.
func ParseDOI(s string) (string, error) {
	doi := strings.TrimSpace(s)
	lower := strings.ToLower(doi)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			doi = strings.TrimSpace(doi[len(p):])
			break
		}
	}
	prefix, suffix, ok := strings.Cut(doi, "/")
	if !ok || !strings.HasPrefix(prefix, "10.") || len(prefix) < 4 || suffix == "" {
		return "", errors.NewMalformedField("malformed doi [%s]", s)
	}
	return doi, nil
}

// ExternalIDForDOI renders the resolver URL of a canonical DOI.
func ExternalIDForDOI(doi string) string {
	if doi == "" {
		return ""
	}
	return DOIResolverPrefix + doi
}

// IsURL reports whether s looks like an http(s) URL.
func IsURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
