package scoring

import (
	"errors"
	"fmt"
)

const (
	MinAgeScore       = 5.0
	MaxAgeScore       = 20.0
	MaxConditionScore = 80.0
)

// AgeStep awards Points to ages strictly below Below.
type AgeStep struct {
	Below  int     `yaml:"below" json:"below"`
	Points float64 `yaml:"points" json:"points"`
}

// AgeRules is a step function from age to points. Steps are checked in
// order; ages past the last step get Otherwise.
type AgeRules struct {
	Steps     []AgeStep `yaml:"steps" json:"steps"`
	Otherwise float64   `yaml:"otherwise" json:"otherwise"`
}

// DefaultAgeRules: <30 -> 5, <45 -> 10, <60 -> 15, <75 -> 18, otherwise 20.
func DefaultAgeRules() AgeRules {
	return AgeRules{
		Steps: []AgeStep{
			{Below: 30, Points: 5},
			{Below: 45, Points: 10},
			{Below: 60, Points: 15},
			{Below: 75, Points: 18},
		},
		Otherwise: 20,
	}
}

// Validate checks that the rules are a non-decreasing step function with
// every value inside [MinAgeScore, MaxAgeScore].
func (r AgeRules) Validate() error {
	inRange := func(p float64) bool { return p >= MinAgeScore && p <= MaxAgeScore }
	prevBelow, prevPoints := 0, MinAgeScore
	for i, s := range r.Steps {
		if s.Below <= prevBelow {
			return fmt.Errorf("age rules: step %d: bound %d must be greater than %d", i, s.Below, prevBelow)
		}
		if !inRange(s.Points) {
			return fmt.Errorf("age rules: step %d: points %v outside [%v, %v]", i, s.Points, MinAgeScore, MaxAgeScore)
		}
		if s.Points < prevPoints {
			return fmt.Errorf("age rules: step %d: points %v decrease from %v", i, s.Points, prevPoints)
		}
		prevBelow, prevPoints = s.Below, s.Points
	}
	if !inRange(r.Otherwise) {
		return fmt.Errorf("age rules: otherwise %v outside [%v, %v]", r.Otherwise, MinAgeScore, MaxAgeScore)
	}
	if r.Otherwise < prevPoints {
		return errors.New("age rules: otherwise must not be lower than the last step")
	}
	return nil
}

// Score returns the points for age. age is assumed to be validated.
func (r AgeRules) Score(age int) float64 {
	for _, s := range r.Steps {
		if age < s.Below {
			return s.Points
		}
	}
	return r.Otherwise
}
