// Package study resolves reference ids to canonical Study nodes, enriching
// new studies with a DOI and citation from an external resolver.
package study

import (
	"fmt"

	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/record"
)

// Node property keys.
const (
	PropTitle          = "title"
	PropSourceCitation = "sourceCitation"
	PropDOI            = "doi"
	PropCitation       = "citation"
	PropExternalID     = "externalId"
)

// Study is the publication or dataset a record was drawn from. ReferenceID
// is its identity and is stored as the title.
type Study struct {
	ReferenceID    string
	SourceCitation string
	DOI            string
	Citation       string
	ExternalID     string
}

// FromRecord builds the study reference of r. A DOI that does not parse is
// dropped with a warning.
func FromRecord(r record.Record) (Study, []string) {
	var warnings []string
	s := Study{
		ReferenceID:    r.Get(record.ReferenceID),
		SourceCitation: r.Get(record.StudySourceCitation),
		Citation:       r.Get(record.ReferenceCitation),
	}
	if raw := r.Get(record.ReferenceDOI); raw != "" {
		doi, err := ParseDOI(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("found malformed doi [%s]", raw))
		} else {
			s.DOI = doi
		}
	}
	if s.DOI == "" {
		s.ExternalID = r.Get(record.ReferenceURL)
	}
	return s, warnings
}

// FromNode reads a study back from node properties.
func FromNode(n *graph.Node) Study {
	return Study{
		ReferenceID:    n.Props.String(PropTitle),
		SourceCitation: n.Props.String(PropSourceCitation),
		DOI:            n.Props.String(PropDOI),
		Citation:       n.Props.String(PropCitation),
		ExternalID:     n.Props.String(PropExternalID),
	}
}

// Props renders the node properties, omitting blank fields.
func (s Study) Props() graph.Props {
	props := graph.Props{PropTitle: s.ReferenceID}
	for k, v := range map[string]string{
		PropSourceCitation: s.SourceCitation,
		PropDOI:            s.DOI,
		PropCitation:       s.Citation,
		PropExternalID:     s.ExternalID,
	} {
		if v != "" {
			props[k] = v
		}
	}
	return props
}
