package reftable

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ValueKind says how the value column is interpreted.
type ValueKind string

const (
	ValueRAF ValueKind = "raf" // numeric RAF
	ValueHCC ValueKind = "hcc" // HCC v28 category, mapped through HCCToRAF
)

// Column identifies a column by header name or, when Header is empty, by
// zero-based index.
type Column struct {
	Header string `yaml:"header,omitempty" json:"header,omitempty"`
	Index  int    `yaml:"index,omitempty" json:"index,omitempty"`
}

// UnmarshalYAML accepts a mapping ({header: x} or {index: n}), a bare
// header name, or a bare index. The decoded column always replaces c.
func (c *Column) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		if i, err := strconv.Atoi(n.Value); err == nil {
			*c = Column{Index: i}
			return nil
		}
		*c = Column{Header: n.Value}
		return nil
	}
	type plain Column
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*c = Column(p)
	return nil
}

func (c Column) String() string {
	if c.Header != "" {
		return strconv.Quote(c.Header)
	}
	return "#" + strconv.Itoa(c.Index)
}

// Layout describes where the condition name and value live in a CSV source.
type Layout struct {
	Name       Column          `yaml:"name"`
	Value      Column          `yaml:"value"`
	NoHeader   bool            `yaml:"no_header,omitempty"`
	Kind       ValueKind       `yaml:"kind,omitempty"`
	Percent    bool            `yaml:"percent,omitempty"`
	Duplicates DuplicatePolicy `yaml:"duplicates,omitempty"`
	Delimiter  string          `yaml:"delimiter,omitempty"`
	MinFields  int             `yaml:"min_fields,omitempty"` // rows with fewer fields are skipped
}

// DefaultLayout expects a header with "description" and "raf" columns.
func DefaultLayout() Layout {
	return Layout{
		Name:       Column{Header: "description"},
		Value:      Column{Header: "raf"},
		Kind:       ValueRAF,
		Duplicates: KeepLast,
	}
}

// ICD10CMLayout reads the CMS "Midyear Final ICD-10-CM Mappings" export:
// description in the second column and the v28 HCC category in the seventh.
func ICD10CMLayout() Layout {
	return Layout{
		Name:       Column{Index: 1},
		Value:      Column{Index: 6},
		Kind:       ValueHCC,
		Duplicates: KeepLast,
		MinFields:  8,
	}
}

func (l Layout) withDefaults() Layout {
	if l.Kind == "" {
		l.Kind = ValueRAF
	}
	if l.Duplicates == "" {
		l.Duplicates = KeepLast
	}
	return l
}

func (l Layout) Validate() error {
	l = l.withDefaults()
	switch l.Kind {
	case ValueRAF, ValueHCC:
	default:
		return fmt.Errorf("layout: unknown value kind %q", l.Kind)
	}
	switch l.Duplicates {
	case KeepLast, KeepMax:
	default:
		return fmt.Errorf("layout: unknown duplicate policy %q", l.Duplicates)
	}
	if l.MinFields < 0 {
		return fmt.Errorf("layout: negative min_fields %d", l.MinFields)
	}
	if l.Delimiter != "" && utf8.RuneCountInString(l.Delimiter) != 1 {
		return fmt.Errorf("layout: delimiter must be a single character, got %q", l.Delimiter)
	}
	for _, c := range []Column{l.Name, l.Value} {
		if c.Index < 0 {
			return fmt.Errorf("layout: negative column index %d", c.Index)
		}
		if l.NoHeader && c.Header != "" {
			return errors.New("layout: header names require a header row")
		}
	}
	return nil
}

func (l Layout) comma() rune {
	if l.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(l.Delimiter)
	return r
}

// resolve turns the layout's columns into indexes, using header when the
// layout refers to columns by name.
func (l Layout) resolve(header []string) (name, value int, err error) {
	idx := func(c Column) (int, error) {
		if c.Header == "" {
			return c.Index, nil
		}
		want := strings.ToLower(strings.TrimSpace(c.Header))
		for i, h := range header {
			if strings.ToLower(strings.TrimSpace(h)) == want {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: %s", ErrColumnNotFound, c)
	}
	if name, err = idx(l.Name); err != nil {
		return 0, 0, err
	}
	if value, err = idx(l.Value); err != nil {
		return 0, 0, err
	}
	return name, value, nil
}

// parseRow extracts a (description, RAF) pair from a record. ok is false
// for rows that should be skipped.
func (l Layout) parseRow(rec []string, nameIdx, valueIdx int) (desc string, raf float64, ok bool) {
	if len(rec) < l.MinFields || nameIdx >= len(rec) || valueIdx >= len(rec) {
		return "", 0, false
	}
	desc = strings.TrimSpace(rec[nameIdx])
	if desc == "" {
		return "", 0, false
	}
	cell := strings.TrimSpace(rec[valueIdx])

	// a blank HCC cell is a condition without a category, not a missing field
	if l.Kind == ValueHCC {
		return desc, HCCToRAF(cell), true
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(cell, "%"), 64)
	if err != nil {
		return "", 0, false
	}
	if l.Percent {
		v /= 100
	}
	if !validEntry(desc, v) {
		return "", 0, false
	}
	return desc, v, true
}

func validEntry(desc string, raf float64) bool {
	if strings.TrimSpace(desc) == "" {
		return false
	}
	return raf >= 0 && !math.IsNaN(raf) && !math.IsInf(raf, 0)
}
