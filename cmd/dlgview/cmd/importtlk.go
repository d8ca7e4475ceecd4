package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/f3rmion/dlgview/internal/logging"
	"github.com/f3rmion/dlgview/internal/text"
)

var importTLKCmd = &cobra.Command{
	Use:   "import-tlk [TableTalk.csv]",
	Short: "Build the sqlite string table from a TableTalk export",
	Long: `Read a TableTalk CSV export (id, text) and store it in a sqlite
database so later runs load strings without parsing the CSV. Existing
strings in the database are replaced.

Without an argument the table_talk_csv path from the config is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImportTLK,
}

func init() {
	rootCmd.AddCommand(importTLKCmd)
	importTLKCmd.Flags().String("db", "", "database path (default tlk_db from the config)")
}

func runImportTLK(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	src := cfg.DataPath(cfg.TableTalkCSV)
	if len(args) == 1 {
		src = args[0]
	}
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.TlkDB
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	store, err := text.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportCSV(src)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d strings from %s\n\n", n, src)
	fmt.Fprint(cmd.OutOrStdout(), store.Summary())
	return nil
}
