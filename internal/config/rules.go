package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/medscore/internal/reftable"
	"github.com/mind-engage/medscore/internal/scoring"
)

// Rules is the optional YAML rules file. Fields left out keep their
// defaults.
//
//	layout:
//	  preset: icd10cm        # or describe columns below
//	  name:  {header: description}
//	  value: {header: raf}
//	  kind: raf              # raf|hcc
//	  duplicates: last       # last|max
//	age:
//	  steps: [{below: 30, points: 5}, {below: 45, points: 10}]
//	  otherwise: 20
//	max_age: 150
//	match: {mode: exact, limit: 3}
type Rules struct {
	Layout LayoutRules      `yaml:"layout"`
	Age    scoring.AgeRules `yaml:"age"`
	MaxAge int              `yaml:"max_age"`
	Match  MatchRules       `yaml:"match"`
}

type LayoutRules struct {
	Preset          string `yaml:"preset"` // default|icd10cm
	reftable.Layout `yaml:",inline"`
}

type MatchRules struct {
	Mode  scoring.MatchMode `yaml:"mode"`
	Limit int               `yaml:"limit"`
}

func DefaultRules() Rules {
	return Rules{
		Layout: LayoutRules{Layout: reftable.DefaultLayout()},
		Age:    scoring.DefaultAgeRules(),
		MaxAge: scoring.DefaultMaxAge,
		Match:  MatchRules{Mode: scoring.MatchExact, Limit: scoring.DefaultContainsLimit},
	}
}

// LoadRules reads path on top of DefaultRules. An empty path returns the
// defaults.
func LoadRules(path string) (Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	return ParseRules(b)
}

// ParseRules decodes YAML rules on top of DefaultRules and validates them.
func ParseRules(b []byte) (Rules, error) {
	// decode the preset first so column overrides apply on top of it
	var head struct {
		Layout struct {
			Preset string `yaml:"preset"`
		} `yaml:"layout"`
	}
	if err := yaml.Unmarshal(b, &head); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}

	r := DefaultRules()
	switch head.Layout.Preset {
	case "", "default":
	case "icd10cm":
		r.Layout.Layout = reftable.ICD10CMLayout()
	default:
		return Rules{}, fmt.Errorf("parse rules: unknown layout preset %q", head.Layout.Preset)
	}

	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (r Rules) Validate() error {
	if err := r.Layout.Validate(); err != nil {
		return err
	}
	if err := r.Age.Validate(); err != nil {
		return err
	}
	if r.MaxAge < 0 {
		return fmt.Errorf("rules: max_age %d is negative", r.MaxAge)
	}
	switch r.Match.Mode {
	case scoring.MatchExact, scoring.MatchContains:
	default:
		return fmt.Errorf("rules: unknown match mode %q", r.Match.Mode)
	}
	return nil
}

// ScorerOptions turns the rules into scoring options.
func (r Rules) ScorerOptions() []scoring.Option {
	return []scoring.Option{
		scoring.WithAgeRules(r.Age),
		scoring.WithMaxAge(r.MaxAge),
		scoring.WithMatchMode(r.Match.Mode, r.Match.Limit),
	}
}
