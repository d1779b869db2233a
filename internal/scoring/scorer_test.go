package scoring_test

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/medscore/internal/reftable"
	"github.com/mind-engage/medscore/internal/scoring"
)

const fixture = `description,raf
Diabetes,0.30
Cancer,0.85
Essential hypertension,0.12
Heart failure,0.45
Type 2 diabetes mellitus with hyperglycemia,0.38
Type 2 diabetes mellitus without complications,0.35
Type 1 diabetes mellitus with ketoacidosis,0.40
Type 1 diabetes mellitus without complications,0.95
Zero risk finding,0
`

func newHolder(t *testing.T) *reftable.Holder {
	t.Helper()
	tbl, err := reftable.ReadCSV(strings.NewReader(fixture), reftable.DefaultLayout(), "fixture")
	require.NoError(t, err)
	return reftable.NewHolder(tbl)
}

func newScorer(t *testing.T, opts ...scoring.Option) *scoring.Scorer {
	t.Helper()
	s, err := scoring.NewScorer(newHolder(t), opts...)
	require.NoError(t, err)
	return s
}

func TestScoreRegressionFixture(t *testing.T) {
	s := newScorer(t)

	res, err := s.Score(45, []string{"diabetes", "cancer"})
	require.NoError(t, err)
	assert.Equal(t, 95.0, res.Score)
	assert.Equal(t, 15.0, res.AgeScore)
	assert.Equal(t, 80.0, res.ConditionScore, "85 is capped at 80")
	assert.InDelta(t, 0.85, res.MaxRAF, 1e-9)
	assert.Equal(t, []string{"diabetes", "cancer"}, res.Matched)
	assert.Empty(t, res.Unmatched)
}

func TestScoreUsesHighestRAF(t *testing.T) {
	s := newScorer(t)

	res, err := s.Score(50, []string{"Essential hypertension", "Heart failure", "diabetes"})
	require.NoError(t, err)
	assert.Equal(t, 45.0, res.ConditionScore)
	assert.Equal(t, 60.0, res.Score)
}

func TestScoreNoConditions(t *testing.T) {
	s := newScorer(t)

	for _, conds := range [][]string{nil, {}, {"nonexistent_condition_xyz"}, {"", "   "}} {
		res, err := s.Score(62, conds)
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.ConditionScore)
		assert.Equal(t, 18.0, res.Score)
	}

	res, err := s.Score(62, []string{"nonexistent_condition_xyz", "diabetes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nonexistent_condition_xyz"}, res.Unmatched)
	assert.Equal(t, 48.0, res.Score)
}

func TestScoreZeroRAFMatchStillCounts(t *testing.T) {
	s := newScorer(t)

	res, err := s.Score(20, []string{"zero risk finding"})
	require.NoError(t, err)
	assert.Equal(t, []string{"zero risk finding"}, res.Matched)
	assert.Equal(t, 5.0, res.Score)
}

func TestScoreCaseInsensitive(t *testing.T) {
	s := newScorer(t)

	var scores []float64
	for _, name := range []string{"Diabetes", "diabetes", " diabetes ", "DIABETES"} {
		res, err := s.Score(30, []string{name})
		require.NoError(t, err)
		scores = append(scores, res.Score)
	}
	for _, sc := range scores {
		assert.Equal(t, 40.0, sc)
	}
}

func TestScoreDuplicatesAllowed(t *testing.T) {
	s := newScorer(t)

	res, err := s.Score(10, []string{"diabetes", "diabetes", "Diabetes"})
	require.NoError(t, err)
	assert.Equal(t, 35.0, res.Score)
	assert.Len(t, res.Matched, 3)
}

func TestScoreInvalidAge(t *testing.T) {
	s := newScorer(t, scoring.WithMaxAge(120))

	for _, age := range []int{-1, -100, 121} {
		_, err := s.Score(age, nil)
		require.ErrorIs(t, err, scoring.ErrInvalidAge, "age %d", age)
	}
	_, err := s.Score(120, nil)
	require.NoError(t, err)
	_, err = s.Score(0, nil)
	require.NoError(t, err)
}

func TestScoreWithoutTable(t *testing.T) {
	s, err := scoring.NewScorer(reftable.NewHolder(nil))
	require.NoError(t, err)

	_, err = s.Score(40, []string{"diabetes"})
	require.ErrorIs(t, err, scoring.ErrTableUnavailable)
}

func TestScoreContainsMode(t *testing.T) {
	s := newScorer(t, scoring.WithMatchMode(scoring.MatchContains, 3))

	// "type 1 diabetes ... without complications" (0.95) is the 5th entry
	// containing "diabetes" and falls outside the first three matches.
	res, err := s.Score(45, []string{"diabetes"})
	require.NoError(t, err)
	assert.InDelta(t, 0.38, res.MaxRAF, 1e-9)
	assert.Equal(t, 53.0, res.Score)

	res, err = s.Score(45, []string{"type 1 diabetes"})
	require.NoError(t, err)
	assert.Equal(t, 95.0, res.Score)
}

func TestScoreRounding(t *testing.T) {
	tbl := reftable.FromEntries("r", reftable.KeepLast, []reftable.Entry{
		{Description: "a", RAF: 0.123456},
		{Description: "b", RAF: 0.56789},
	})
	s, err := scoring.NewScorer(reftable.NewHolder(tbl))
	require.NoError(t, err)

	res, err := s.Score(40, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 22.3, res.Score)

	res, err = s.Score(40, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, 66.8, res.Score)
}

func TestNewScorerRejectsBadOptions(t *testing.T) {
	h := newHolder(t)

	_, err := scoring.NewScorer(nil)
	assert.Error(t, err)
	_, err = scoring.NewScorer(h, scoring.WithMatchMode("fuzzy", 0))
	assert.Error(t, err)
	_, err = scoring.NewScorer(h, scoring.WithMaxAge(-1))
	assert.Error(t, err)
	_, err = scoring.NewScorer(h, scoring.WithAgeRules(scoring.AgeRules{Otherwise: 25}))
	assert.Error(t, err)
}

func TestScoreBoundsAndIdempotence(t *testing.T) {
	s := newScorer(t)
	names := []string{"diabetes", "cancer", "heart failure", "essential hypertension",
		"zero risk finding", "unknown", "", "CANCER "}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		age := rng.Intn(scoring.DefaultMaxAge + 1)
		conds := make([]string, rng.Intn(6))
		for j := range conds {
			conds[j] = names[rng.Intn(len(names))]
		}

		a, err := s.Score(age, conds)
		require.NoError(t, err)
		b, err := s.Score(age, conds)
		require.NoError(t, err)
		require.Equal(t, a, b)

		require.GreaterOrEqual(t, a.AgeScore, scoring.MinAgeScore)
		require.LessOrEqual(t, a.AgeScore, scoring.MaxAgeScore)
		require.GreaterOrEqual(t, a.ConditionScore, 0.0)
		require.LessOrEqual(t, a.ConditionScore, scoring.MaxConditionScore)
		require.GreaterOrEqual(t, a.Score, 5.0)
		require.LessOrEqual(t, a.Score, 100.0)
	}
}

func TestScoreConcurrentWithSwap(t *testing.T) {
	h := newHolder(t)
	s, err := scoring.NewScorer(h)
	require.NoError(t, err)

	next := reftable.FromEntries("next", reftable.KeepLast, []reftable.Entry{{Description: "Diabetes", RAF: 0.5}})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				res, err := s.Score(45, []string{"diabetes"})
				assert.NoError(t, err)
				assert.Contains(t, []float64{45.0, 65.0}, res.Score)
			}
		}()
	}
	h.Swap(next)
	wg.Wait()
}
