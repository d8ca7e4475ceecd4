// Package audio maps dialog lines to voice-over files on disk. It resolves
// paths only; nothing here plays sound.
package audio

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/f3rmion/dlgview/internal/tabular"
	"github.com/f3rmion/dlgview/internal/text"
)

// Info is the audio mapping for one dialog id.
type Info struct {
	DialogID   int32  `json:"dialog_id"`
	MaleFile   string `json:"male_file,omitempty"`
	FemaleFile string `json:"female_file,omitempty"`
	SoundBank  string `json:"sound_bank,omitempty"`
}

// File returns the file name for gender, or "".
func (i Info) File(g text.Gender) string {
	if g == text.Female {
		return i.FemaleFile
	}
	return i.MaleFile
}

// Mapper holds the dialog.csv mappings.
type Mapper struct {
	entries map[int32]*Info
}

// NewMapper returns an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{entries: make(map[int32]*Info)}
}

// LoadFile replaces the mappings with the rows of dialog.csv
// (dialog id, m|f, audio file id, sound bank).
func (m *Mapper) LoadFile(path string) error {
	m.Clear()

	err := tabular.Each(path, func(_ int, cols []string) {
		if len(cols) < 4 {
			return
		}
		id, err := strconv.ParseInt(cols[0], 10, 32)
		if err != nil || id <= 0 || cols[2] == "" {
			return
		}

		info, ok := m.entries[int32(id)]
		if !ok {
			info = &Info{DialogID: int32(id), SoundBank: cols[3]}
			m.entries[int32(id)] = info
		}
		switch strings.ToLower(cols[1]) {
		case "m":
			info.MaleFile = cols[2] + ".wav"
		case "f":
			info.FemaleFile = cols[2] + ".wav"
		}
	})
	if err != nil {
		return fmt.Errorf("loading audio mappings: %w", err)
	}

	slog.Info("loaded audio mappings", "count", len(m.entries), "path", path)
	return nil
}

// Info returns the mapping for a dialog id.
func (m *Mapper) Info(id int32) (Info, bool) {
	info, ok := m.entries[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// Has reports whether id has a mapping.
func (m *Mapper) Has(id int32) bool {
	_, ok := m.entries[id]
	return ok
}

// File returns the mapped file name for id and gender, or "".
func (m *Mapper) File(id int32, g text.Gender) string {
	info, ok := m.entries[id]
	if !ok {
		return ""
	}
	return info.File(g)
}

// FilePath joins the mapped file name onto dir, or returns "".
func (m *Mapper) FilePath(id int32, g text.Gender, dir string) string {
	f := m.File(id, g)
	if f == "" {
		return ""
	}
	return filepath.Join(dir, f)
}

// Len returns the number of mapped dialog ids.
func (m *Mapper) Len() int {
	return len(m.entries)
}

// Clear removes every mapping.
func (m *Mapper) Clear() {
	clear(m.entries)
}

// FileID derives the hashed audio file id for a line: FNV-1a 32 over the
// lowercase string "{id}_m" or "{id}_f".
func FileID(id int32, g text.Gender) uint32 {
	suffix := "m"
	if g == text.Female {
		suffix = "f"
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(fmt.Sprintf("%d_%s", id, suffix))))
	return h.Sum32()
}

// Path builds "{dir}/{fileID}.wav".
func Path(dir string, fileID uint32) string {
	return filepath.Join(dir, fmt.Sprintf("%d.wav", fileID))
}

// Resolve finds the audio file for a line: the dialog.csv mapping when the
// file exists, else the hashed name when that exists.
func (m *Mapper) Resolve(dir string, id int32, g text.Gender) (string, bool) {
	if p := m.FilePath(id, g, dir); p != "" && exists(p) {
		return p, true
	}
	p := Path(dir, FileID(id, g))
	if exists(p) {
		slog.Debug("audio resolved by hash", "tlk", id, "path", p)
		return p, true
	}
	return "", false
}

func exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
