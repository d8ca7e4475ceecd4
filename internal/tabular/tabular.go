// Package tabular reads the comma-separated exports that accompany the
// conversation documents (plot GUIDs, localized strings, audio mappings).
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmpty is returned when a file holds no rows.
var ErrEmpty = errors.New("no rows")

// Each reads the CSV file at path and calls fn for every non-empty row with
// its trimmed columns. Rows that cannot be tokenized are skipped. The row
// count passed to fn starts at 1.
func Each(path string, fn func(row int, cols []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening csv file: %w", err)
	}
	defer f.Close()

	return Read(f, fn)
}

// Read is Each over an arbitrary reader.
func Read(r io.Reader, fn func(row int, cols []string)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue // Skip malformed rows
			}
			return fmt.Errorf("reading csv: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		cols := make([]string, len(rec))
		for i, c := range rec {
			cols[i] = strings.TrimSpace(c)
		}
		rows++
		fn(rows, cols)
	}

	if rows == 0 {
		return ErrEmpty
	}
	return nil
}
