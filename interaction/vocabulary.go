// Package interaction holds the controlled vocabulary of interaction types.
//
// Each type has a forward label and names its inverse. Only one edge is
// stored per observed interaction; readers pick the forward or inverse label
// depending on which endpoint they traverse from.
package interaction

import (
	"bytes"
	_ "embed"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
)

//go:embed types.toml
var embeddedTypes []byte

// OBOPrefix is the IRI namespace of Relation Ontology terms.
const OBOPrefix = "http://purl.obolibrary.org/obo/"

// Edge property keys carried by interaction edges.
const (
	PropIRI     = "iri"
	PropLabel   = "label"
	PropInverse = "inverseLabel"
	PropCount   = "count"
)

// Type is one interaction type.
type Type struct {
	Name    string `toml:"name"`
	IRI     string `toml:"iri"`
	Label   string `toml:"label"`
	Inverse string `toml:"inverse"`
}

// CURIE renders the IRI in prefix form, e.g. RO:0002470.
func (t Type) CURIE() string {
	local := strings.TrimPrefix(t.IRI, OBOPrefix)
	return strings.Replace(local, "_", ":", 1)
}

// Symmetric reports whether the type is its own inverse.
func (t Type) Symmetric() bool {
	return t.Inverse == t.Name
}

// Vocabulary indexes the known types by name and identifier.
type Vocabulary struct {
	types  []Type
	byName map[string]int
	byID   map[string]int
}

type vocabularyFile struct {
	Types []Type `toml:"type"`
}

var (
	defaultOnce sync.Once
	defaultVoc  *Vocabulary
)

// Default returns the embedded vocabulary.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(embeddedTypes)
		if err != nil {
			panic(errors.Wrap(err, "embedded interaction vocabulary"))
		}
		defaultVoc = v
	})
	return defaultVoc
}

// Parse decodes a TOML vocabulary and checks that every inverse resolves
// and points back.
func Parse(data []byte) (*Vocabulary, error) {
	var file vocabularyFile
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode vocabulary")
	}

	v := &Vocabulary{
		types:  file.Types,
		byName: make(map[string]int, len(file.Types)),
		byID:   make(map[string]int, 2*len(file.Types)),
	}
	for i, t := range v.types {
		if t.Name == "" || t.IRI == "" || t.Label == "" {
			return nil, errors.Newf("type #%d: name, iri and label are required", i)
		}
		if _, dup := v.byName[t.Name]; dup {
			return nil, errors.Newf("duplicate type %s", t.Name)
		}
		v.byName[t.Name] = i
		v.byID[t.IRI] = i
		v.byID[t.CURIE()] = i
	}
	for _, t := range v.types {
		inv, ok := v.byName[t.Inverse]
		if !ok {
			return nil, errors.Newf("type %s: unknown inverse %q", t.Name, t.Inverse)
		}
		if back := v.types[inv].Inverse; back != t.Name {
			return nil, errors.Newf("type %s: inverse %s points back to %s", t.Name, t.Inverse, back)
		}
	}
	return v, nil
}

// Lookup resolves a full IRI, a CURIE (RO:0002470) or a type name.
func (v *Vocabulary) Lookup(id string) (Type, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Type{}, false
	}
	if i, ok := v.byID[id]; ok {
		return v.types[i], true
	}
	if i, ok := v.byName[strings.ToUpper(id)]; ok {
		return v.types[i], true
	}
	return Type{}, false
}

// ByName returns the type with the exact name.
func (v *Vocabulary) ByName(name string) (Type, bool) {
	i, ok := v.byName[name]
	if !ok {
		return Type{}, false
	}
	return v.types[i], true
}

// InverseOf returns the paired inverse type.
func (v *Vocabulary) InverseOf(t Type) Type {
	inv, _ := v.ByName(t.Inverse)
	return inv
}

// Names lists every type name, sorted. Used to select interaction edges
// among all edge types.
func (v *Vocabulary) Names() []string {
	names := make([]string, 0, len(v.types))
	for _, t := range v.types {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Types returns the types in file order.
func (v *Vocabulary) Types() []Type {
	return append([]Type(nil), v.types...)
}

// EdgeProps are the properties stored on an interaction edge of type t.
func (v *Vocabulary) EdgeProps(t Type) graph.Props {
	return graph.Props{
		PropIRI:     t.IRI,
		PropLabel:   t.Label,
		PropInverse: v.InverseOf(t).Label,
	}
}

// LabelFrom returns the label of e as read from nodeID: the forward label
// from the start node, the inverse label from the end node.
func (v *Vocabulary) LabelFrom(e *graph.Edge, nodeID int64) string {
	t, ok := v.ByName(e.Type)
	if !ok {
		return ""
	}
	if e.Start == nodeID {
		return t.Label
	}
	return v.InverseOf(t).Label
}
