package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()

	r.RecordRowsWritten("daily_indicators", 390)
	r.RecordRowsWritten("daily_indicators", 10)
	r.RecordSymbols("indicators", "processed", 3)
	r.RecordSymbols("indicators", "skipped", 1)
	r.RecordError("indicator_write")

	assert.Equal(t, 400.0, testutil.ToFloat64(r.rowsWritten.WithLabelValues("daily_indicators")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.symbols.WithLabelValues("indicators", "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.symbols.WithLabelValues("indicators", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("indicator_write")))
}

func TestRecorderPrivateRegistry(t *testing.T) {
	a := New()
	b := New()
	a.RecordError("x")

	// Each recorder owns its registry: no cross-talk, no global pollution.
	assert.Equal(t, 0.0, testutil.ToFloat64(b.errorsTotal.WithLabelValues("x")))

	families, err := a.registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "twstock_feature_errors_total")
}
