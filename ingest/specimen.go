package ingest

import (
	"time"

	"github.com/teranos/globi/graph"
	"github.com/teranos/globi/record"
)

// Specimen property keys.
const (
	PropExternalID         = "externalId"
	PropBasisOfRecordID    = "basisOfRecordId"
	PropBasisOfRecordName  = "basisOfRecordName"
	PropLifeStageID        = "lifeStageId"
	PropLifeStageName      = "lifeStageName"
	PropSexID              = "sexId"
	PropSexName            = "sexName"
	PropBodyPartID         = "bodyPartId"
	PropBodyPartName       = "bodyPartName"
	PropEventDate          = "eventDate"
	PropEventDateUnixEpoch = "eventDateUnixEpoch"
	PropImportRunID        = "importRunId"
)

// specimenProps collects the optional attributes of one record side. Each
// attribute is set independently of the others.
func specimenProps(r record.Record, side record.Side, date *time.Time, runID string) graph.Props {
	k := side.Keys()
	props := graph.Props{}
	set := func(key, value string) {
		if value != "" {
			props[key] = value
		}
	}
	set(PropExternalID, r.Get(k.OccurrenceID))
	set(PropBasisOfRecordID, r.Get(record.BasisOfRecordID))
	set(PropBasisOfRecordName, r.Get(record.BasisOfRecordName))
	set(PropLifeStageID, r.Get(k.LifeStageID))
	set(PropLifeStageName, r.Get(k.LifeStageName))
	set(PropSexID, r.Get(k.SexID))
	set(PropSexName, r.Get(k.SexName))
	set(PropBodyPartID, r.Get(k.BodyPartID))
	set(PropBodyPartName, r.Get(k.BodyPartName))
	set(PropImportRunID, runID)
	if date != nil {
		props[PropEventDate] = date.UTC().Format(time.RFC3339)
		props[PropEventDateUnixEpoch] = date.UnixMilli()
	}
	return props
}
