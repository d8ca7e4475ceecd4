package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/f3rmion/dlgview/internal/config"
	"github.com/f3rmion/dlgview/internal/server"
	"github.com/f3rmion/dlgview/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve wheel sessions over HTTP and websocket",
	Long: `Start an HTTP server exposing conversation sessions as JSON.

Routes:
  POST   /v1/sessions              open a session {"path": "..."}
  GET    /v1/sessions/{id}         selection, options and plot flags
  GET    /v1/sessions/{id}/tree    display tree
  GET    /v1/sessions/{id}/options options at ?node=N or the selection
  POST   /v1/sessions/{id}/choose  {"node": N, "option": i}
  POST   /v1/sessions/{id}/reset   clear plot state
  GET    /v1/sessions/{id}/ws      websocket stream of the session
  GET    /healthz, /metrics

Changes to config.yaml are picked up while running: the wheel radius and
player gender apply to open sessions.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default server.addr from the config)")
	serveCmd.Flags().String("root", "", "directory conversation paths are confined to (default data_dir)")
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := prepare()
	if err != nil {
		return err
	}
	cfg := env.cfg

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	root, _ := cmd.Flags().GetString("root")
	if root == "" {
		root = cfg.DataDir
	}

	handler := server.New(server.Config{
		Cache:  env.cache,
		Lookup: env.lookup,
		Radius: cfg.WheelRadius,
		Root:   root,
	})

	// ── Hot reload ────────────────────────────────────────────────────────────
	if stop := watchConfig(handler, env.cache, cfg); stop != nil {
		defer stop()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr, "root", root)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-quit:
	}
	slog.Info("shutting down…", "sessions", handler.Sessions())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	slog.Info("goodbye")
	return nil
}

// watchConfig applies config.yaml edits to the handler and the
// conversation cache. It returns nil when there is no file to watch.
func watchConfig(handler *server.Handler, cache *session.Cache, current *config.Config) (stop func()) {
	path := filepath.Join(getConfigDir(), config.FileName)
	if !exists(path) {
		slog.Info("no config file; hot reload disabled", "path", path)
		return nil
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		slog.Warn("config watcher unavailable (hot reload disabled)", "err", err)
		return nil
	}

	gender := current.Gender()
	loader.OnChange(func(next *config.Config) {
		applyOverrides(next)
		handler.SetRadius(next.WheelRadius)
		cache.SetOwnerDir(ownerDir(next))

		if next.Gender() == gender && next.TlkDB == current.TlkDB {
			return
		}
		lookup, err := loadStrings(next)
		if err != nil {
			slog.Warn("hot reload skipped: strings failed to load", "err", err)
			return
		}
		handler.SetLookup(lookup)
		gender = next.Gender()
		current = next
		slog.Info("string table reloaded", "gender", gender, "strings", lookup.Len())
	})

	stop, err = loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot reload disabled)", "err", err)
		return nil
	}
	return stop
}
