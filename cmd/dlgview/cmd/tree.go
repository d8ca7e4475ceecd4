package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/f3rmion/dlgview/internal/logging"
	"github.com/f3rmion/dlgview/internal/resolve"
)

var treeCmd = &cobra.Command{
	Use:   "tree <file.xml>",
	Short: "Print the speaker-classified dialog tree",
	Long: `Print a conversation as a tree of lines. Each line shows its node
index, resolved speaker, condition/action indicator and spoken text;
player lines also show their paraphrase. Lines reached a second time are
printed as references to the first occurrence.

Example:
  dlgview tree data/DLG/gatekeeper.xml --depth 3`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Int("depth", 0, "maximum depth to print (0 for all)")
	treeCmd.Flags().Bool("no-color", false, "disable colors")
	treeCmd.Flags().Int("width", 100, "wrap spoken text at this many columns")
	treeCmd.Flags().Bool("issues", false, "list integrity issues after the tree")
}

// prepare loads config and data for a non-interactive command, logging to
// stderr.
func prepare() (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return loadEnvironment(cfg)
}

func runTree(cmd *cobra.Command, args []string) error {
	depth, _ := cmd.Flags().GetInt("depth")
	noColor, _ := cmd.Flags().GetBool("no-color")
	width, _ := cmd.Flags().GetInt("width")
	showIssues, _ := cmd.Flags().GetBool("issues")

	env, err := prepare()
	if err != nil {
		return err
	}
	s, err := env.openConversation(args[0])
	if err != nil {
		return err
	}

	t := s.Tree()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  owner %s  %d lines, %d references\n\n",
		t.Conversation, ownerOrUnknown(t.OwnerTag), t.Len(), t.References())
	printTree(out, t, treeOptions{depth: depth, color: !noColor, width: width})

	if len(t.Issues) > 0 {
		fmt.Fprintf(out, "\n%d integrity issues\n", len(t.Issues))
		if showIssues {
			for _, is := range t.Issues {
				fmt.Fprintf(out, "  %s\n", is)
			}
		}
	}
	return nil
}

type treeOptions struct {
	depth int
	color bool
	width int
}

func printTree(w io.Writer, t *resolve.Tree, opts treeOptions) {
	t.Walk(func(it *resolve.Item, depth int) bool {
		pad := strings.Repeat("  ", depth)
		label := it.Label()
		if opts.color {
			label = lipgloss.NewStyle().Foreground(lipgloss.Color(it.Role.Color())).Bold(true).Render(label)
		}
		ind := ""
		if s := it.Indicator(); s != "" {
			ind = " [" + s + "]"
		}

		head := fmt.Sprintf("%s[%d]%s %s: ", pad, it.NodeIndex, ind, label)
		body := it.SpokenText
		if opts.width > 0 {
			cont := "\n" + pad + "    "
			body = strings.ReplaceAll(wordwrap.String(body, max(opts.width-len(pad)-4, 20)), "\n", cont)
		}
		fmt.Fprintln(w, head+body)
		if it.ParaphraseText != "" {
			fmt.Fprintf(w, "%s    (%s)\n", pad, it.ParaphraseText)
		}

		return opts.depth <= 0 || depth+1 < opts.depth
	})
}

func ownerOrUnknown(tag string) string {
	if tag == "" {
		return "(unknown)"
	}
	return tag
}
