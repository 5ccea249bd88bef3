package record

// Field names of an interaction record. These follow the tab-separated
// interaction exchange format; Darwin Core terms are accepted as alternates
// where noted.
const (
	SourceTaxonName      = "sourceTaxonName"
	SourceTaxonID        = "sourceTaxonId"
	SourceTaxonPath      = "sourceTaxonPath"
	SourceTaxonPathIDs   = "sourceTaxonPathIds"
	SourceTaxonPathNames = "sourceTaxonPathNames"
	SourceOccurrenceID   = "sourceOccurrenceId"
	SourceLifeStageID    = "sourceLifeStageId"
	SourceLifeStageName  = "sourceLifeStageName"
	SourceSexID          = "sourceSexId"
	SourceSexName        = "sourceSexName"
	SourceBodyPartID     = "sourceBodyPartId"
	SourceBodyPartName   = "sourceBodyPartName"

	TargetTaxonName      = "targetTaxonName"
	TargetTaxonID        = "targetTaxonId"
	TargetTaxonPath      = "targetTaxonPath"
	TargetTaxonPathIDs   = "targetTaxonPathIds"
	TargetTaxonPathNames = "targetTaxonPathNames"
	TargetOccurrenceID   = "targetOccurrenceId"
	TargetLifeStageID    = "targetLifeStageId"
	TargetLifeStageName  = "targetLifeStageName"
	TargetSexID          = "targetSexId"
	TargetSexName        = "targetSexName"
	TargetBodyPartID     = "targetBodyPartId"
	TargetBodyPartName   = "targetBodyPartName"

	InteractionTypeID   = "interactionTypeId"
	InteractionTypeName = "interactionTypeName"
	ArgumentTypeID      = "argumentTypeId"

	ReferenceID         = "referenceId"
	ReferenceCitation   = "referenceCitation"
	ReferenceDOI        = "referenceDoi"
	ReferenceURL        = "referenceUrl"
	StudySourceCitation = "studySourceCitation"

	BasisOfRecordID   = "basisOfRecordId"
	BasisOfRecordName = "basisOfRecordName"

	LocalityID       = "localityId"
	LocalityName     = "localityName"
	DecimalLatitude  = "decimalLatitude"
	DecimalLongitude = "decimalLongitude"
	Altitude         = "altitude"
	FootprintWKT     = "footprintWKT"
	HabitatID        = "habitatId"
	HabitatName      = "habitatName"
	EventDate        = "eventDate"
)

// Darwin Core term IRIs.
const (
	DwCPrefix           = "http://rs.tdwg.org/dwc/terms/"
	DwCLocationID       = DwCPrefix + "locationID"
	DwCLocality         = DwCPrefix + "locality"
	DwCVerbatimLocality = DwCPrefix + "verbatimLocality"
	DwCDecimalLatitude  = DwCPrefix + "decimalLatitude"
	DwCDecimalLongitude = DwCPrefix + "decimalLongitude"
	DwCEventDate        = DwCPrefix + "eventDate"
)

// Alternate keys, in preference order.
var (
	LatitudeKeys     = []string{DecimalLatitude, DwCDecimalLatitude}
	LongitudeKeys    = []string{DecimalLongitude, DwCDecimalLongitude}
	LocalityIDKeys   = []string{LocalityID, DwCLocationID}
	LocalityNameKeys = []string{LocalityName, DwCLocality, DwCVerbatimLocality}
	EventDateKeys    = []string{DwCEventDate, EventDate}
)

// Refutes is the argumentTypeId value marking a refuting observation.
const Refutes = "refutes"

// Side selects the source or target half of a record.
type Side int

const (
	SideSource Side = iota
	SideTarget
)

func (s Side) String() string {
	if s == SideTarget {
		return "target"
	}
	return "source"
}

// SideKeys are the per-side field names.
type SideKeys struct {
	TaxonName, TaxonID, TaxonPath, TaxonPathIDs, TaxonPathNames string
	OccurrenceID                                                string
	LifeStageID, LifeStageName                                  string
	SexID, SexName                                              string
	BodyPartID, BodyPartName                                    string
}

// Keys returns the field names for side s.
func (s Side) Keys() SideKeys {
	if s == SideTarget {
		return SideKeys{
			TaxonName: TargetTaxonName, TaxonID: TargetTaxonID,
			TaxonPath: TargetTaxonPath, TaxonPathIDs: TargetTaxonPathIDs, TaxonPathNames: TargetTaxonPathNames,
			OccurrenceID: TargetOccurrenceID,
			LifeStageID:  TargetLifeStageID, LifeStageName: TargetLifeStageName,
			SexID: TargetSexID, SexName: TargetSexName,
			BodyPartID: TargetBodyPartID, BodyPartName: TargetBodyPartName,
		}
	}
	return SideKeys{
		TaxonName: SourceTaxonName, TaxonID: SourceTaxonID,
		TaxonPath: SourceTaxonPath, TaxonPathIDs: SourceTaxonPathIDs, TaxonPathNames: SourceTaxonPathNames,
		OccurrenceID: SourceOccurrenceID,
		LifeStageID:  SourceLifeStageID, LifeStageName: SourceLifeStageName,
		SexID: SourceSexID, SexName: SourceSexName,
		BodyPartID: SourceBodyPartID, BodyPartName: SourceBodyPartName,
	}
}
