package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/f3rmion/dlgview/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	Long: `Create the config directory and write config.yaml with the default
settings. Edit data_dir to point at the extracted game data, then run
'dlgview import-tlk' once to build the string table.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "overwrite an existing config.yaml")
	initCmd.Flags().String("data-dir", "", "data directory to record in the config")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	path, err := writeDefaultConfig(getConfigDir(), dataDir, force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n\n", path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Point data_dir at the extracted game data")
	fmt.Fprintln(out, "  2. Run 'dlgview import-tlk' to build the string table")
	fmt.Fprintln(out, "  3. Run 'dlgview' and open a conversation")
	return nil
}

func writeDefaultConfig(dir, dataDir string, force bool) (string, error) {
	path := filepath.Join(dir, config.FileName)
	if exists(path) && !force {
		return "", fmt.Errorf("config file already exists: %s\nUse --force to overwrite", path)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	cfg := config.Default()
	if dataDir != "" {
		abs, err := filepath.Abs(dataDir)
		if err != nil {
			return "", fmt.Errorf("resolving data directory: %w", err)
		}
		cfg.DataDir = abs
		cfg.TlkDB = filepath.Join(abs, "tlk.db")
	}
	if err := config.Save(path, cfg); err != nil {
		return "", err
	}
	return path, nil
}
