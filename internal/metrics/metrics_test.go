package metrics_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/medscore/internal/metrics"
	"github.com/mind-engage/medscore/internal/reftable"
	"github.com/mind-engage/medscore/internal/scoring"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveScore(scoring.Result{Score: 10})
	m.ObserveError(scoring.ErrInvalidAge)
	m.ObserveRequest(metrics.OutcomeBadRequest)
	m.ObserveTable(nil)
	m.ObserveReload(nil, errors.New("boom"))
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, metrics.Outcome(nil))
	assert.Equal(t, metrics.OutcomeInvalid, metrics.Outcome(fmt.Errorf("x: %w", scoring.ErrInvalidAge)))
	assert.Equal(t, metrics.OutcomeUnavailable, metrics.Outcome(scoring.ErrTableUnavailable))
	assert.Equal(t, metrics.OutcomeError, metrics.Outcome(errors.New("other")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()

	tbl := reftable.FromEntries("t", reftable.KeepLast, []reftable.Entry{
		{Description: "Flu", RAF: 0.1},
		{Description: "Gout", RAF: 0.3},
		{Description: "", RAF: 0.3},
	})
	m.ObserveTable(tbl)
	m.ObserveScore(scoring.Result{Score: 40, Matched: []string{"flu"}, Unmatched: []string{"x", "y"}})
	m.ObserveError(scoring.ErrInvalidAge)
	m.ObserveReload(tbl, nil)
	m.ObserveReload(nil, errors.New("bad file"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	for _, want := range []string{
		`medscore_reference_conditions_loaded 2`,
		`medscore_reference_rows_skipped 1`,
		`medscore_score_requests_total{outcome="ok"} 1`,
		`medscore_score_requests_total{outcome="invalid"} 1`,
		`medscore_condition_lookups_total{result="matched"} 1`,
		`medscore_condition_lookups_total{result="unmatched"} 2`,
		`medscore_reference_reloads_total{result="ok"} 1`,
		`medscore_reference_reloads_total{result="error"} 1`,
		`medscore_score_count 1`,
	} {
		assert.Contains(t, out, want)
	}
	n, err := testutil.GatherAndCount(m.Registry(), "medscore_score")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
