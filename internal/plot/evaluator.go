package plot

import (
	"log/slog"

	"github.com/f3rmion/dlgview/internal/dialog"
)

// Evaluate reports whether a plot condition holds.
//
// An empty reference or one without a specific flag always holds. With the
// implicit comparison (255) the flag only has to be set. For any other
// comparison byte the flag must be non-zero: the format carries no
// expected value to compare against.
func Evaluate(ref dialog.PlotReference, state Reader) bool {
	if !ref.IsSet() {
		return true
	}
	if ref.FlagIndex < 0 {
		return true
	}
	if ref.Comparison == 255 {
		return state.Has(ref.PlotName, ref.FlagIndex)
	}
	return state.Get(ref.PlotName, ref.FlagIndex) != 0
}

// EvaluateNode evaluates the node's own condition.
func EvaluateNode(node *dialog.Node, state Reader) bool {
	return Evaluate(node.Condition, state)
}

// Link condition flag values with a known meaning.
const (
	linkFlagsTwo = 2
	linkFlagsSix = 6
)

// EvaluateLink reports whether a link is visible. The condition bitfield is
// not decoded: the unconditional marker and the common values 2 and 6
// hold, and every other value is treated as holding as well.
func EvaluateLink(link dialog.Link, state Reader) bool {
	switch link.ConditionFlags {
	case dialog.NoCondition, linkFlagsTwo, linkFlagsSix:
		return true
	default:
		return true
	}
}

// Apply executes a plot action by setting its flag to 1. References without
// a plot name or flag are ignored. The comparison byte does not select a
// different value.
func Apply(ref dialog.PlotReference, state Writer) {
	if !ref.IsSet() || ref.FlagIndex < 0 {
		return
	}
	state.Set(ref.PlotName, ref.FlagIndex, 1)
	slog.Info("plot action applied", "plot", ref.PlotName, "flag", ref.FlagIndex)
}

// ApplyNode executes the node's action.
func ApplyNode(node *dialog.Node, state Writer) {
	Apply(node.Action, state)
}
