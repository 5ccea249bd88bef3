package taxon

import "strings"

// HomonymPredicate reports whether candidate, an existing taxon sharing the
// looked-up name or id, is a different concept than input.
type HomonymPredicate func(candidate, input Taxon) bool

// DefaultHomonymRanks are compared by RankConflict when none are configured.
var DefaultHomonymRanks = []string{"kingdom", "phylum", "class", "order", "family", "genus"}

// RankConflict flags a homonym when any of ranks is named in both taxa with
// different values. Ranks known on only one side never conflict, so a bare
// name still matches a fully classified taxon. When the two taxa share no
// named rank, their paths are compared with AncestorConflict instead.
func RankConflict(ranks ...string) HomonymPredicate {
	if len(ranks) == 0 {
		ranks = DefaultHomonymRanks
	}
	return func(candidate, input Taxon) bool {
		have, want := candidate.RankNames(), input.RankNames()
		compared := false
		for _, rank := range ranks {
			a, b := have[rank], want[rank]
			if a == "" || b == "" {
				continue
			}
			if !strings.EqualFold(a, b) {
				return true
			}
			compared = true
		}
		if compared {
			return false
		}
		return AncestorConflict(candidate, input)
	}
}

// AncestorConflict flags a homonym when both paths list ancestors and none
// of them is shared. A path without ancestors never conflicts.
func AncestorConflict(candidate, input Taxon) bool {
	have, want := candidate.ancestors(), input.ancestors()
	if len(have) == 0 || len(want) == 0 {
		return false
	}
	for name := range have {
		if want[name] {
			return false
		}
	}
	return true
}

// NeverHomonym treats every candidate as compatible.
func NeverHomonym(Taxon, Taxon) bool { return false }
