// Package text resolves localized string ids (TLK ids) to display text.
package text

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/f3rmion/dlgview/internal/tabular"
)

// Gender selects gendered placeholder replacements.
type Gender int

const (
	Male Gender = iota
	Female
)

func (g Gender) String() string {
	if g == Female {
		return "female"
	}
	return "male"
}

// ParseGender parses "male"/"m" or "female"/"f", case-insensitively.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return Male, fmt.Errorf("invalid gender %q (want male or female)", s)
}

// Lookup resolves a TLK id to display text.
type Lookup interface {
	Text(id int32) string
}

// Missing is the id sentinel for "no text".
const Missing = "-1"

// NotFound renders the fallback for an id that is not in the table.
func NotFound(id int32) string {
	return fmt.Sprintf("[TLK %d - Not Found]", id)
}

// IsValidlyEmpty reports whether a player-facing string counts as empty:
// the empty string, a [[placeholder]], or a not-found fallback.
func IsValidlyEmpty(s string) bool {
	return s == "" || strings.Contains(s, "[[") || strings.HasSuffix(s, "Found]")
}

// Table is an in-memory string table.
type Table struct {
	strings map[int32]string
	gender  Gender
}

// NewTable returns an empty table.
func NewTable(gender Gender) *Table {
	return &Table{strings: make(map[int32]string), gender: gender}
}

// Add stores raw text for id.
func (t *Table) Add(id int32, raw string) {
	t.strings[id] = raw
}

// Len returns the number of stored strings.
func (t *Table) Len() int {
	return len(t.strings)
}

// Gender returns the gender used for placeholders.
func (t *Table) Gender() Gender {
	return t.gender
}

// SetGender changes the gender used for placeholders.
func (t *Table) SetGender(g Gender) {
	t.gender = g
}

// Raw returns the unprocessed text for id.
func (t *Table) Raw(id int32) (string, bool) {
	s, ok := t.strings[id]
	return s, ok
}

// Text implements Lookup.
//
// The id -1 (also written as its unsigned form) yields "-1" and other
// non-positive ids yield "". Known ids yield processed markup and unknown
// ids yield the NotFound fallback.
func (t *Table) Text(id int32) string {
	if id == -1 {
		return Missing
	}
	if id <= 0 {
		return ""
	}
	raw, ok := t.strings[id]
	if !ok {
		return NotFound(id)
	}
	if raw == "" {
		return ""
	}
	return Process(raw, t.gender)
}

// LoadCSV adds the rows of a TableTalk export (id, text). Rows with a
// non-positive id or empty text are skipped.
func (t *Table) LoadCSV(path string) error {
	before := t.Len()
	err := tabular.Each(path, func(_ int, cols []string) {
		id, text, ok := parseRow(cols)
		if ok {
			t.Add(id, text)
		}
	})
	if err != nil {
		return fmt.Errorf("loading strings: %w", err)
	}
	slog.Info("loaded strings", "count", t.Len()-before, "path", path)
	return nil
}

func parseRow(cols []string) (int32, string, bool) {
	if len(cols) < 2 || cols[0] == "" || cols[1] == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(cols[0], 10, 32)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return int32(id), cols[1], true
}
