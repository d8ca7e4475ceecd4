package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/f3rmion/dlgview/internal/logging"
	"github.com/f3rmion/dlgview/internal/text"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <string-id>...",
	Short: "Look up localized strings by id",
	Long: `Look up strings in the sqlite string table and display their raw
markup and the text shown for the configured player gender.

Example:
  dlgview lookup 6090301 6090302`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().String("db", "", "database path (default tlk_db from the config)")
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ids := make([]int32, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid string id %q", a)
		}
		ids = append(ids, int32(id))
	}

	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.TlkDB
	}
	if !exists(dbPath) {
		return fmt.Errorf("string table not found: %s\nRun 'dlgview import-tlk' first", dbPath)
	}
	store, err := text.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return lookupStrings(cmd.OutOrStdout(), store, ids, cfg.Gender())
}

func lookupStrings(w io.Writer, store *text.Store, ids []int32, g text.Gender) error {
	for _, id := range ids {
		raw, ok, err := store.Get(id)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "%d: %s\n", id, text.NotFound(id))
			continue
		}
		fmt.Fprintf(w, "%d: %s\n", id, text.Process(raw, g))
		if raw != text.Process(raw, g) {
			fmt.Fprintf(w, "    raw: %s\n", raw)
		}
	}
	return nil
}
