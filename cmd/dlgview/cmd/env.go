package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/f3rmion/dlgview/internal/audio"
	"github.com/f3rmion/dlgview/internal/config"
	"github.com/f3rmion/dlgview/internal/plot"
	"github.com/f3rmion/dlgview/internal/session"
	"github.com/f3rmion/dlgview/internal/text"
	"github.com/f3rmion/dlgview/internal/tui/views"
)

// environment is the game data a command works against.
type environment struct {
	cfg    *config.Config
	lookup *text.Table
	plots  *plot.Database
	audio  views.AudioSource
	cache  *session.Cache
}

// loadEnvironment loads every data file the config names. Missing optional
// files are logged and skipped.
func loadEnvironment(cfg *config.Config) (*environment, error) {
	lookup, err := loadStrings(cfg)
	if err != nil {
		return nil, err
	}

	plots := plot.NewDatabase()
	if p := cfg.DataPath(cfg.PlotsCSV); exists(p) {
		if err := plots.LoadFile(p); err != nil {
			slog.Warn("plot database unavailable", "path", p, "error", err)
		}
	}

	src := views.AudioSource{Dir: cfg.DataPath(cfg.AudioDir), Gender: cfg.Gender()}
	if p := cfg.DataPath(cfg.DialogCSV); exists(p) {
		m := audio.NewMapper()
		if err := m.LoadFile(p); err != nil {
			slog.Warn("audio mappings unavailable", "path", p, "error", err)
		} else {
			src.Mapper = m
		}
	}

	cache, err := session.NewCache(cfg.CacheSize, ownerDir(cfg))
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, lookup: lookup, plots: plots, audio: src, cache: cache}, nil
}

// ownerDir returns the creature template directory, or "" when it is
// missing.
func ownerDir(cfg *config.Config) string {
	dir := cfg.DataPath(cfg.UTCDir)
	if !exists(dir) {
		return ""
	}
	return dir
}

// loadStrings prefers the sqlite string table and falls back to the CSV
// export. With neither, every line reads as not found.
func loadStrings(cfg *config.Config) (*text.Table, error) {
	if exists(cfg.TlkDB) {
		store, err := text.OpenStore(cfg.TlkDB)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		t, err := store.Table(cfg.Gender())
		if err != nil {
			return nil, fmt.Errorf("loading string table: %w", err)
		}
		slog.Info("loaded strings", "count", t.Len(), "path", cfg.TlkDB)
		return t, nil
	}

	t := text.NewTable(cfg.Gender())
	if p := cfg.DataPath(cfg.TableTalkCSV); exists(p) {
		if err := t.LoadCSV(p); err != nil {
			return nil, err
		}
		return t, nil
	}
	slog.Warn("no string table found; run import-tlk", "tlk_db", cfg.TlkDB)
	return t, nil
}

func (e *environment) newSession() *session.Session {
	s := session.New(e.lookup, e.cfg.WheelRadius)
	s.ID = uuid.NewString()
	return s
}

// openConversation loads path into a fresh session.
func (e *environment) openConversation(path string) (*session.Session, error) {
	conv, err := e.cache.Load(path)
	if err != nil {
		return nil, err
	}
	s := e.newSession()
	s.Load(conv)
	return s, nil
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
