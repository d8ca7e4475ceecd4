// Package cmd contains all CLI commands for dlgview.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/f3rmion/dlgview/internal/config"
	"github.com/f3rmion/dlgview/internal/logging"
	"github.com/f3rmion/dlgview/internal/tui"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dlgview",
	Short: "Browse branching game dialog and its response wheels",
	Long: `dlgview reads conversation files exported as labeled-struct XML and
shows them as a speaker-classified tree. At any line it resolves which
player responses are currently available under the plot state and lays
them out on a six-slot response wheel.

Running 'dlgview' without arguments launches the interactive TUI.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI("")
	},
}

var viewCmd = &cobra.Command{
	Use:   "view <file.xml>",
	Short: "Open a conversation in the TUI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config directory (default is $HOME/.config/dlgview)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(viewCmd)
}

// initConfig reads in .env and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Warning: reading .env:", err)
	}

	if cfgFile != "" {
		viper.Set("config_dir", cfgFile)
	} else {
		dir, err := config.GetConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}
		viper.Set("config_dir", dir)
	}

	viper.SetEnvPrefix("DLGVIEW")
	viper.AutomaticEnv()
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	return viper.GetString("config_dir")
}

// loadConfig reads config.yaml from the config directory and applies
// environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigDir())
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies DLGVIEW_* environment values and --verbose onto cfg.
func applyOverrides(cfg *config.Config) {
	if v := viper.GetString("data_dir"); v != "" {
		cfg.DataDir = v
	}
	if v := viper.GetString("tlk_db"); v != "" {
		cfg.TlkDB = v
	}
	if v := viper.GetString("player_gender"); v != "" {
		cfg.PlayerGender = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.Log.Level = v
	}
	if v := viper.GetString("log_format"); v != "" {
		cfg.Log.Format = v
	}
	if viper.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
}

// runTUI launches the interactive viewer, optionally opening path.
func runTUI(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, closer, err := logging.SetupFile(cfg.Log.Level, cfg.Log.Format, filepath.Join(getConfigDir(), "dlgview.log"))
	if err != nil {
		// Logging is not worth failing the TUI over.
		slog.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format, io.Discard))
	} else {
		defer closer.Close()
	}

	env, err := loadEnvironment(cfg)
	if err != nil {
		return err
	}

	deps := tui.Deps{
		Session: env.newSession(),
		Cache:   env.cache,
		Audio:   env.audio,
		Plots:   env.plots,
		DataDir: cfg.DataDir,
	}
	app := tui.NewApp(deps)
	if path != "" {
		app = tui.NewAppWithFile(deps, path)
	}

	if err := tui.Run(app); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
