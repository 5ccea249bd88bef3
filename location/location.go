// Package location resolves collection locations to canonical Location nodes.
//
// A location with coordinates is identified by its exact (latitude,
// longitude, altitude) tuple; an absent altitude is its own key. Locations
// known only by locality are identified by locality id, or by name when no
// id is given.
package location

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/record"
)

// Node property keys.
const (
	PropLatitude   = "latitude"
	PropLongitude  = "longitude"
	PropAltitude   = "altitude"
	PropLocalityID = "localityId"
	PropLocality   = "locality"
	PropFootprint  = "footprintWKT"

	PropEnvExternalID = "externalId"
	PropEnvName       = "name"
)

// ErrInvalidCoordinates is returned for latitudes outside [-90, 90] or
// longitudes outside [-180, 180].
var ErrInvalidCoordinates = errors.Mark(errors.New("invalid coordinates"), errors.ErrMalformedField)

// Location is a place as described by a record.
type Location struct {
	Latitude     *float64
	Longitude    *float64
	Altitude     *float64
	LocalityID   string
	Locality     string
	FootprintWKT string
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if !l.HasCoordinates() {
		return nil
	}
	lat, lon := *l.Latitude, *l.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return errors.Wrapf(ErrInvalidCoordinates, "lat [%v] lon [%v]", lat, lon)
	}
	return nil
}

// Key is the identity of the location, or "" when it has none.
func (l Location) Key() string {
	if l.HasCoordinates() {
		alt := "null"
		if l.Altitude != nil {
			alt = formatFloat(*l.Altitude)
		}
		return fmt.Sprintf("%s,%s,%s", formatFloat(*l.Latitude), formatFloat(*l.Longitude), alt)
	}
	if l.LocalityID != "" {
		return "localityId:" + l.LocalityID
	}
	if l.Locality != "" {
		return "locality:" + l.Locality
	}
	return ""
}

// Props renders the node properties.
func (l Location) Props() graph.Props {
	props := graph.Props{}
	if l.HasCoordinates() {
		props[PropLatitude] = *l.Latitude
		props[PropLongitude] = *l.Longitude
	}
	if l.Altitude != nil {
		props[PropAltitude] = *l.Altitude
	}
	for k, v := range l.backfillable() {
		if v != "" {
			props[k] = v
		}
	}
	return props
}

func (l Location) backfillable() map[string]string {
	return map[string]string{
		PropLocalityID: l.LocalityID,
		PropLocality:   l.Locality,
		PropFootprint:  l.FootprintWKT,
	}
}

// FromNode reads a location back from node properties.
func FromNode(n *graph.Node) Location {
	var l Location
	if v, ok := n.Props.Float(PropLatitude); ok {
		l.Latitude = &v
	}
	if v, ok := n.Props.Float(PropLongitude); ok {
		l.Longitude = &v
	}
	if v, ok := n.Props.Float(PropAltitude); ok {
		l.Altitude = &v
	}
	l.LocalityID = n.Props.String(PropLocalityID)
	l.Locality = n.Props.String(PropLocality)
	l.FootprintWKT = n.Props.String(PropFootprint)
	return l
}

// Environment is a habitat term attached to a location.
type Environment struct {
	ExternalID string
	Name       string
}

// Key is the identity of the environment.
func (e Environment) Key() string {
	if e.ExternalID != "" {
		return e.ExternalID
	}
	return e.Name
}

// GeoNamesService looks up the centroid of a locality id.
type GeoNamesService interface {
	FindLatLng(ctx context.Context, localityID string) (lat, lon float64, err error)
}

// FromRecord extracts the location of r. Coordinates come from the record
// when present and valid, otherwise from geo (which may be nil) by locality
// id. Problems are returned as warnings; the location is nil when the record
// names no place at all.
func FromRecord(ctx context.Context, r record.Record, geo GeoNamesService) (*Location, []string) {
	var warnings []string
	loc := &Location{
		LocalityID:   r.First(record.LocalityIDKeys...),
		Locality:     r.First(record.LocalityNameKeys...),
		FootprintWKT: r.Get(record.FootprintWKT),
	}

	latRaw, lonRaw := r.First(record.LatitudeKeys...), r.First(record.LongitudeKeys...)
	if latRaw != "" && lonRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		candidate := Location{Latitude: &lat, Longitude: &lon}
		switch {
		case latErr != nil || lonErr != nil:
			warnings = append(warnings, fmt.Sprintf("found invalid location: [failed to parse lat/lng [%s,%s]]", latRaw, lonRaw))
		case candidate.Validate() != nil:
			warnings = append(warnings, fmt.Sprintf("found invalid location: [%s]", candidate.Validate().Error()))
		default:
			loc.Latitude, loc.Longitude = &lat, &lon
		}
	}

	if !loc.HasCoordinates() && loc.LocalityID != "" && geo != nil {
		lat, lon, err := geo.FindLatLng(ctx, loc.LocalityID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to lookup [%s] because of: [%s]", loc.LocalityID, err.Error()))
		} else {
			loc.Latitude, loc.Longitude = &lat, &lon
		}
	}

	if loc.HasCoordinates() {
		if raw := r.Get(record.Altitude); raw != "" {
			if alt, err := strconv.ParseFloat(raw, 64); err == nil {
				loc.Altitude = &alt
			} else {
				warnings = append(warnings, fmt.Sprintf("found invalid altitude [%s]", raw))
			}
		}
	}

	if loc.Key() == "" {
		return nil, warnings
	}
	return loc, warnings
}

// EnvironmentsFromRecord returns the habitat term of r, if any.
func EnvironmentsFromRecord(r record.Record) []Environment {
	env := Environment{ExternalID: r.Get(record.HabitatID), Name: r.Get(record.HabitatName)}
	if env.Key() == "" {
		return nil
	}
	return []Environment{env}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
