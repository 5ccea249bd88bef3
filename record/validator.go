package record

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/teranos/globi/interaction"
	"github.com/teranos/globi/logger"
)

// Validation failure reasons. Stable values, used as metric labels.
const (
	ReasonSourceTaxonMissing     = "source_taxon_missing"
	ReasonTargetTaxonMissing     = "target_taxon_missing"
	ReasonInteractionTypeMissing = "interaction_type_missing"
	ReasonInteractionTypeNoID    = "interaction_type_name_without_id"
	ReasonInteractionUnsupported = "interaction_type_unsupported"
	ReasonReferenceMissing       = "reference_id_missing"
)

// Warning is one data-quality finding about a record.
type Warning struct {
	Reason  string
	Field   string
	Message string
}

func (w Warning) String() string {
	return w.Message
}

// Validator checks records for the fields ingestion cannot do without.
type Validator struct {
	vocab  *interaction.Vocabulary
	logger *zap.SugaredLogger
}

// NewValidator creates a Validator. A nil vocab selects interaction.Default().
func NewValidator(vocab *interaction.Vocabulary, log *zap.SugaredLogger) *Validator {
	if vocab == nil {
		vocab = interaction.Default()
	}
	return &Validator{vocab: vocab, logger: logger.OrNop(log).Named("record.validator")}
}

type rule func(Record) *Warning

// Validate reports whether r can be ingested. Rules run in order and stop
// at the first failure, so an invalid record yields exactly one warning,
// which is also logged with the record content.
func (v *Validator) Validate(r Record) (bool, []Warning) {
	rules := []rule{
		v.hasSourceTaxon,
		v.hasTargetTaxon,
		v.hasInteractionType,
		v.hasReferenceID,
	}
	for _, check := range rules {
		if w := check(r); w != nil {
			v.logger.Warnw(w.Message,
				logger.FieldField, w.Field,
				logger.FieldRecord, r.Context(),
			)
			return false, []Warning{*w}
		}
	}
	return true, nil
}

// InteractionType resolves the record's interaction type id.
func (v *Validator) InteractionType(r Record) (interaction.Type, bool) {
	return v.vocab.Lookup(r.Get(InteractionTypeID))
}

func (v *Validator) hasSourceTaxon(r Record) *Warning {
	if r.Has(SourceTaxonName) || r.Has(SourceTaxonID) {
		return nil
	}
	return &Warning{Reason: ReasonSourceTaxonMissing, Field: SourceTaxonName, Message: "source taxon name missing"}
}

func (v *Validator) hasTargetTaxon(r Record) *Warning {
	if r.Has(TargetTaxonName) || r.Has(TargetTaxonID) {
		return nil
	}
	return &Warning{Reason: ReasonTargetTaxonMissing, Field: TargetTaxonName, Message: "target taxon name missing"}
}

func (v *Validator) hasInteractionType(r Record) *Warning {
	id := r.Get(InteractionTypeID)
	if id == "" {
		if name := r.Get(InteractionTypeName); name != "" {
			return &Warning{
				Reason:  ReasonInteractionTypeNoID,
				Field:   InteractionTypeID,
				Message: fmt.Sprintf("found interaction type name [%s], but no interaction type id", name),
			}
		}
		return &Warning{Reason: ReasonInteractionTypeMissing, Field: InteractionTypeID, Message: "missing interaction type"}
	}
	if _, ok := v.vocab.Lookup(id); !ok {
		return &Warning{
			Reason:  ReasonInteractionUnsupported,
			Field:   InteractionTypeID,
			Message: fmt.Sprintf("found unsupported interaction type id [%s]", id),
		}
	}
	return nil
}

func (v *Validator) hasReferenceID(r Record) *Warning {
	if r.Has(ReferenceID) {
		return nil
	}
	return &Warning{Reason: ReasonReferenceMissing, Field: ReferenceID, Message: fmt.Sprintf("missing [%s]", ReferenceID)}
}
