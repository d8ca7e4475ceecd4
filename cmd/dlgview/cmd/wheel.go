package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/f3rmion/dlgview/internal/plot"
	"github.com/f3rmion/dlgview/internal/resolve"
	"github.com/f3rmion/dlgview/internal/tui/views"
)

var wheelCmd = &cobra.Command{
	Use:   "wheel <file.xml>",
	Short: "Print the response wheel at a line",
	Long: `Resolve the player responses available after a line under a given
plot state and print them with their labels, clock slots and positions.

Example:
  dlgview wheel data/DLG/gatekeeper.xml --node 0
  dlgview wheel data/DLG/gatekeeper.xml --node 4 --set plt_gate:2=1`,
	Args: cobra.ExactArgs(1),
	RunE: runWheel,
}

func init() {
	rootCmd.AddCommand(wheelCmd)
	wheelCmd.Flags().Int32("node", -1, "line to resolve (default the first line)")
	wheelCmd.Flags().StringArray("set", nil, "plot flag assignment plot:flag=value (repeatable)")
	wheelCmd.Flags().Bool("draw", true, "draw the wheel")
}

func runWheel(cmd *cobra.Command, args []string) error {
	node, _ := cmd.Flags().GetInt32("node")
	sets, _ := cmd.Flags().GetStringArray("set")
	draw, _ := cmd.Flags().GetBool("draw")

	flags := make([]plot.Flag, 0, len(sets))
	for _, s := range sets {
		f, err := plot.ParseAssignment(s)
		if err != nil {
			return err
		}
		flags = append(flags, f)
	}

	env, err := prepare()
	if err != nil {
		return err
	}
	s, err := env.openConversation(args[0])
	if err != nil {
		return err
	}
	for _, f := range flags {
		s.SetFlag(f.Plot, f.Index, f.Value)
	}
	if node >= 0 {
		if err := s.Select(node); err != nil {
			return err
		}
	}

	opts, err := s.Options()
	if err != nil {
		return err
	}
	printWheel(cmd.OutOrStdout(), s.Selected(), opts, draw)
	return nil
}

func printWheel(w io.Writer, node int32, opts []resolve.Option, draw bool) {
	if len(opts) == 0 {
		fmt.Fprintf(w, "node %d: no player choices\n", node)
		return
	}

	fmt.Fprintf(w, "node %d: %d options\n", node, len(opts))
	for i, o := range opts {
		if o.Placed {
			fmt.Fprintf(w, "  %d. %s  at (%.1f, %.1f)\n", i+1, o, o.Position.X, o.Position.Y)
		} else {
			fmt.Fprintf(w, "  %d. %s  (unplaced)\n", i+1, o)
		}
	}
	if draw {
		fmt.Fprintln(w)
		fmt.Fprintln(w, views.RenderWheel(opts, 72, 13))
	}
}
