package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/f3rmion/dlgview/internal/dialog"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.xml>",
	Short: "Summarize or export a parsed conversation",
	Long: `Print a summary of a conversation: owner, entry points, line and link
counts. With --yaml the full parsed graph is written as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().Bool("yaml", false, "export the parsed graph as YAML")
}

func runDump(cmd *cobra.Command, args []string) error {
	asYAML, _ := cmd.Flags().GetBool("yaml")

	env, err := prepare()
	if err != nil {
		return err
	}
	conv, err := env.cache.Load(args[0])
	if err != nil {
		return err
	}
	return dump(cmd.OutOrStdout(), conv, asYAML)
}

func dump(w io.Writer, conv *dialog.Conversation, asYAML bool) error {
	if !asYAML {
		_, err := io.WriteString(w, conv.Summary())
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(conv); err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}
	return enc.Close()
}
