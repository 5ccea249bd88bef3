package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging.
// Use these constants instead of raw strings so log queries stay stable.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Records
	FieldRecord      = "record"
	FieldField       = "field"
	FieldReferenceID = "reference_id"
	FieldTaxonName   = "taxon_name"
	FieldTaxonID     = "taxon_id"
	FieldLocalityID  = "locality_id"
	FieldNodeID      = "node_id"
	FieldDOI         = "doi"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldRate       = "rate"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount     = "count"
	FieldBatchSize = "batch_size"
	FieldTotal     = "total"

	// Files and paths
	FieldPath = "path"
)

type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds an ingestion run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns base with fields extracted from context.
func LoggerFromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named child of the global logger.
//
// Example:
//
//	resolver := taxon.NewResolver(store, logger.ComponentLogger("taxon.resolver"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
