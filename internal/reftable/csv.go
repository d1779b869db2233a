package reftable

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads the reference table from the file at path.
// A missing file returns an error wrapping ErrSourceMissing and a file
// without a single usable row returns one wrapping ErrEmptyTable; both are
// fatal for startup. Individual bad rows are skipped and counted.
func LoadCSV(path string, layout Layout) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("reftable: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, layout, path)
}

// ReadCSV builds a table from CSV data. source is only used for Stats and
// error messages.
func ReadCSV(r io.Reader, layout Layout, source string) (*Table, error) {
	layout = layout.withDefaults()
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = layout.comma()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	nameIdx, valueIdx := layout.Name.Index, layout.Value.Index
	if !layout.NoHeader {
		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEmptyTable, source)
		}
		if err != nil {
			return nil, fmt.Errorf("reftable: read header of %s: %w", source, err)
		}
		if nameIdx, valueIdx, err = layout.resolve(header); err != nil {
			return nil, fmt.Errorf("reftable: %s: %w", source, err)
		}
	}

	b := newBuilder(layout.Duplicates, source)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		b.row()
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("reftable: read %s: %w", source, err)
			}
			b.skip()
			slog.Debug("skipping unparsable row", "source", source, "line", pe.Line, "error", pe.Err)
			continue
		}
		desc, raf, ok := layout.parseRow(rec, nameIdx, valueIdx)
		if !ok {
			b.skip()
			line, _ := cr.FieldPos(0)
			slog.Debug("skipping malformed row", "source", source, "line", line)
			continue
		}
		b.add(desc, raf)
	}

	t := b.build()
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: %s (%d rows read)", ErrEmptyTable, source, t.stats.Rows)
	}
	slog.Info("reference table loaded",
		"source", source,
		"loaded", t.stats.Loaded,
		"skipped", t.stats.Skipped,
		"duplicates", t.stats.Duplicates)
	return t, nil
}
