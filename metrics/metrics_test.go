package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Record(OutcomeIngested)
	m.Record(OutcomeIngested)
	m.Record(OutcomeSkipped)
	m.ValidationFailure("missing_reference")
	m.ExternalCall("geonames", "error")
	m.EntityCreated("Taxon")
	m.SummaryEdges(3)
	m.AggregateDuration(2 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues(OutcomeIngested)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailuresTotal.WithLabelValues("missing_reference")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalCallsTotal.WithLabelValues("geonames", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntitiesCreatedTotal.WithLabelValues("Taxon")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SummaryEdgesTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AggregateDurationSeconds))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Record(OutcomeFailed)
		m.ExternalCall("crossref", "ok")
		m.SummaryEdges(1)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, m.Registry())
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Record(OutcomeIngested)

	path := filepath.Join(t.TempDir(), "globi.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `globi_records_total{outcome="ingested"} 1`)
}
