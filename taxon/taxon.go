package taxon

import (
	"strings"

	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/record"
)

// Ranks with structured properties on Taxon nodes, highest first.
var Ranks = []string{"kingdom", "phylum", "class", "order", "family", "genus", "species"}

// Node property keys.
const (
	PropName      = "name"
	PropExternal  = "externalId"
	PropPath      = "path"
	PropPathIDs   = "pathIds"
	PropPathNames = "pathNames"
	PropStatus    = "status"
	PropVerbatim  = "verbatim"
)

const pathSeparator = " | "

// Taxon is a classification as supplied by a record or stored on a node.
type Taxon struct {
	Name       string
	ExternalID string
	Path       []string
	PathIDs    []string
	PathNames  []string
	Status     Status
}

// FromRecord reads the taxon of one side of r.
func FromRecord(r record.Record, side record.Side) Taxon {
	k := side.Keys()
	return Taxon{
		Name:       r.Get(k.TaxonName),
		ExternalID: r.Get(k.TaxonID),
		Path:       r.Path(k.TaxonPath),
		PathIDs:    r.Path(k.TaxonPathIDs),
		PathNames:  r.Path(k.TaxonPathNames),
		Status:     StatusResolved,
	}
}

// FromNode reads a taxon back from its node properties.
func FromNode(n *graph.Node) Taxon {
	status, err := ParseStatus(n.Props.String(PropStatus))
	if err != nil {
		status = StatusNoMatch
	}
	return Taxon{
		Name:       n.Props.String(PropName),
		ExternalID: n.Props.String(PropExternal),
		Path:       splitPath(n.Props.String(PropPath)),
		PathIDs:    splitPath(n.Props.String(PropPathIDs)),
		PathNames:  splitPath(n.Props.String(PropPathNames)),
		Status:     status,
	}
}

// IsBlank reports whether neither a name nor an id is known.
func (t Taxon) IsBlank() bool {
	return t.Name == "" && t.ExternalID == ""
}

// RankNames maps rank to name, pairing Path with PathNames.
func (t Taxon) RankNames() map[string]string {
	return zipRanks(t.PathNames, t.Path)
}

// RankIDs maps rank to id, pairing PathIDs with PathNames.
func (t Taxon) RankIDs() map[string]string {
	return zipRanks(t.PathNames, t.PathIDs)
}

// ancestors returns the lower-cased path elements above t itself. The last
// element is taken to be t unless it names something else.
func (t Taxon) ancestors() map[string]bool {
	path := t.Path
	if n := len(path); n > 0 && (t.Name == "" || strings.EqualFold(path[n-1], t.Name)) {
		path = path[:n-1]
	}
	out := make(map[string]bool, len(path))
	for _, p := range path {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out[p] = true
		}
	}
	return out
}

// Props renders the node properties of t, including <rank>Name and <rank>Id
// for the ranks in Ranks.
func (t Taxon) Props() graph.Props {
	props := graph.Props{PropStatus: string(t.Status)}
	setNotBlank(props, PropName, t.Name)
	setNotBlank(props, PropExternal, t.ExternalID)
	setNotBlank(props, PropPath, joinPath(t.Path))
	setNotBlank(props, PropPathIDs, joinPath(t.PathIDs))
	setNotBlank(props, PropPathNames, joinPath(t.PathNames))

	if t.Status == StatusResolved {
		names, ids := t.RankNames(), t.RankIDs()
		for _, rank := range Ranks {
			setNotBlank(props, rank+"Name", names[rank])
			setNotBlank(props, rank+"Id", ids[rank])
		}
	}
	return props
}

// normalized moves legacy placeholder values out of the name and id fields
// and into the status.
func (t Taxon) normalized() Taxon {
	t.Name = strings.TrimSpace(t.Name)
	t.ExternalID = strings.TrimSpace(t.ExternalID)
	if t.Status == "" {
		t.Status = StatusResolved
	}
	if st, ok := PlaceholderStatus(t.Name); ok {
		t.Name = ""
		t.Status = st
	}
	if st, ok := PlaceholderStatus(t.ExternalID); ok {
		t.ExternalID = ""
		if t.Status == StatusResolved {
			t.Status = st
		}
	}
	if !t.IsBlank() {
		t.Status = StatusResolved
	} else if t.Status == StatusResolved {
		t.Status = StatusNoName
	}
	return t
}

func zipRanks(ranks, values []string) map[string]string {
	out := make(map[string]string)
	for i, rank := range ranks {
		if i >= len(values) {
			break
		}
		rank = strings.ToLower(strings.TrimSpace(rank))
		if rank != "" && values[i] != "" {
			out[rank] = values[i]
		}
	}
	return out
}

func joinPath(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, pathSeparator)
}

func splitPath(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func setNotBlank(props graph.Props, key, value string) {
	if value != "" {
		props[key] = value
	}
}
