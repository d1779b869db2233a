package scoring

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/medscore/internal/reftable"
)

var (
	ErrInvalidAge       = errors.New("invalid age")
	ErrTableUnavailable = errors.New("reference table not loaded")
)

const (
	DefaultMaxAge        = 150
	DefaultContainsLimit = 3
)

// MatchMode controls how a condition name is resolved against the table.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"    // normalized name equals the entry name
	MatchContains MatchMode = "contains" // entry name contains the normalized name
)

// TableSource hands out the table to score against. *reftable.Holder
// satisfies it.
type TableSource interface {
	Current() *reftable.Table
}

// Result is the outcome of scoring one request.
type Result struct {
	Score          float64  `json:"score"`
	AgeScore       float64  `json:"age_score"`
	ConditionScore float64  `json:"condition_score"`
	MaxRAF         float64  `json:"max_raf"`
	Matched        []string `json:"matched"`
	Unmatched      []string `json:"unmatched"`
}

type Option func(*options)

type options struct {
	ages          AgeRules
	maxAge        int
	mode          MatchMode
	containsLimit int
}

func WithAgeRules(r AgeRules) Option { return func(o *options) { o.ages = r } }
func WithMaxAge(n int) Option        { return func(o *options) { o.maxAge = n } }

// WithMatchMode selects the match mode. limit caps the entries taken per
// condition in contains mode; <= 0 keeps the default.
func WithMatchMode(m MatchMode, limit int) Option {
	return func(o *options) {
		o.mode = m
		if limit > 0 {
			o.containsLimit = limit
		}
	}
}

// Scorer computes risk scores. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	src  TableSource
	opts options
}

var (
	hundred      = decimal.NewFromInt(100)
	maxCondition = decimal.NewFromFloat(MaxConditionScore)
)

func NewScorer(src TableSource, opts ...Option) (*Scorer, error) {
	o := options{
		ages:          DefaultAgeRules(),
		maxAge:        DefaultMaxAge,
		mode:          MatchExact,
		containsLimit: DefaultContainsLimit,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if src == nil {
		return nil, errors.New("scoring: table source required")
	}
	if err := o.ages.Validate(); err != nil {
		return nil, err
	}
	if o.maxAge < 0 {
		return nil, fmt.Errorf("scoring: max age %d is negative", o.maxAge)
	}
	switch o.mode {
	case MatchExact, MatchContains:
	default:
		return nil, fmt.Errorf("scoring: unknown match mode %q", o.mode)
	}
	return &Scorer{src: src, opts: o}, nil
}

// Score computes age score + condition score for one patient.
// The condition score is min(80, 100 × highest matched RAF), or 0 when no
// condition matches. The total is rounded to one decimal place.
func (s *Scorer) Score(age int, conditions []string) (Result, error) {
	if age < 0 || age > s.opts.maxAge {
		return Result{}, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidAge, age, s.opts.maxAge)
	}
	t := s.src.Current()
	if t == nil {
		return Result{}, ErrTableUnavailable
	}

	res := Result{
		AgeScore:  s.opts.ages.Score(age),
		Matched:   []string{},
		Unmatched: []string{},
	}

	var best float64
	found := false
	for _, c := range conditions {
		rafs := s.lookup(t, c)
		if len(rafs) == 0 {
			res.Unmatched = append(res.Unmatched, c)
			continue
		}
		res.Matched = append(res.Matched, c)
		for _, r := range rafs {
			if !found || r > best {
				best, found = r, true
			}
		}
	}

	cond := decimal.Zero
	if found {
		cond = decimal.Min(decimal.NewFromFloat(best).Mul(hundred), maxCondition)
		res.MaxRAF = best
	}
	res.ConditionScore = cond.Round(1).InexactFloat64()
	res.Score = decimal.NewFromFloat(res.AgeScore).Add(cond).Round(1).InexactFloat64()
	return res, nil
}

func (s *Scorer) lookup(t *reftable.Table, name string) []float64 {
	if reftable.Normalize(name) == "" {
		return nil
	}
	if s.opts.mode == MatchContains {
		entries := t.Search(name, s.opts.containsLimit)
		out := make([]float64, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.RAF)
		}
		return out
	}
	if raf, ok := t.Lookup(name); ok {
		return []float64{raf}
	}
	return nil
}
