package plot

import (
	"fmt"
	"log/slog"

	"github.com/f3rmion/dlgview/internal/tabular"
)

// Database maps plot names to GUIDs and back.
type Database struct {
	byName map[string]string
	byGUID map[string]string
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{
		byName: make(map[string]string),
		byGUID: make(map[string]string),
	}
}

// LoadFile replaces the database contents with the rows of a plots.csv
// export (plot name, GUID). Rows missing either column are skipped.
func (d *Database) LoadFile(path string) error {
	d.Clear()

	err := tabular.Each(path, func(_ int, cols []string) {
		if len(cols) < 2 || cols[0] == "" || cols[1] == "" {
			return
		}
		d.byName[cols[0]] = cols[1]
		d.byGUID[cols[1]] = cols[0]
	})
	if err != nil {
		return fmt.Errorf("loading plots: %w", err)
	}

	slog.Info("loaded plots", "count", len(d.byName), "path", path)
	return nil
}

// GUID returns the GUID for a plot name, or "".
func (d *Database) GUID(plot string) string {
	return d.byName[plot]
}

// Plot returns the plot name for a GUID, or "".
func (d *Database) Plot(guid string) string {
	return d.byGUID[guid]
}

// HasPlot reports whether the plot name is known.
func (d *Database) HasPlot(plot string) bool {
	_, ok := d.byName[plot]
	return ok
}

// HasGUID reports whether the GUID is known.
func (d *Database) HasGUID(guid string) bool {
	_, ok := d.byGUID[guid]
	return ok
}

// Len returns the number of plots.
func (d *Database) Len() int {
	return len(d.byName)
}

// Clear empties the database.
func (d *Database) Clear() {
	clear(d.byName)
	clear(d.byGUID)
}
