// Package session coordinates one viewing of a conversation: the parsed
// graph, its display tree, the plot state and the selected line.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/metrics"
	"github.com/f3rmion/dlgview/internal/plot"
	"github.com/f3rmion/dlgview/internal/resolve"
	"github.com/f3rmion/dlgview/internal/text"
)

var (
	// ErrNoConversation is returned by operations that need a loaded conversation.
	ErrNoConversation = errors.New("no conversation loaded")
	// ErrOptionNotFound is returned when a choice does not match a wheel option.
	ErrOptionNotFound = errors.New("option not found")
)

// Session is safe for concurrent use; every method holds the session lock
// for the duration of the call.
type Session struct {
	ID string

	mu       sync.Mutex
	lookup   text.Lookup
	resolver *resolve.TreeResolver
	radius   float64
	conv     *dialog.Conversation
	tree     *resolve.Tree
	state    *plot.State
	selected int32
}

// New returns an empty session reading line text from lookup.
func New(lookup text.Lookup, radius float64) *Session {
	if radius <= 0 {
		radius = resolve.DefaultRadius
	}
	return &Session{
		lookup:   lookup,
		resolver: resolve.NewTreeResolver(lookup),
		radius:   radius,
		state:    plot.NewState(),
		selected: -1,
	}
}

// Load replaces the current conversation. Plot state is cleared and the
// first root line is selected.
func (s *Session) Load(conv *dialog.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conv = conv
	s.state.Reset()
	s.rebuild()
	s.selectFirst()
}

func (s *Session) rebuild() {
	t := s.resolver.Build(s.conv)
	s.tree = t

	metrics.TreesBuilt.Inc()
	metrics.TreeItems.Observe(float64(t.Len()))
	metrics.ReferenceItems.Add(float64(t.References()))
	for _, is := range t.Issues {
		metrics.IntegrityIssues.WithLabelValues(string(is.Kind)).Inc()
	}
}

func (s *Session) selectFirst() {
	s.selected = -1
	if s.tree != nil && len(s.tree.Roots) > 0 {
		s.selected = s.tree.Roots[0].NodeIndex
	}
}

// SetLookup swaps the text source and rebuilds the tree, keeping plot state
// and selection.
func (s *Session) SetLookup(lookup text.Lookup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookup = lookup
	s.resolver = resolve.NewTreeResolver(lookup)
	if s.conv != nil {
		s.rebuild()
	}
}

// SetRadius changes the wheel radius used by Options.
func (s *Session) SetRadius(r float64) {
	if r <= 0 {
		return
	}
	s.mu.Lock()
	s.radius = r
	s.mu.Unlock()
}

// Conversation returns the loaded conversation or nil.
func (s *Session) Conversation() *dialog.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// Tree returns the display tree of the loaded conversation or nil. The TUI
// toggles expansion on the returned items.
func (s *Session) Tree() *resolve.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Selected returns the selected node index, -1 when nothing is selected.
func (s *Session) Selected() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select makes node the current line.
func (s *Session) Select(node int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return ErrNoConversation
	}
	if _, err := s.conv.Node(node); err != nil {
		return err
	}
	s.selected = node
	return nil
}

// Options resolves the response wheel at the selected node.
func (s *Session) Options() ([]resolve.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options()
}

// OptionsAt resolves the wheel at node without moving the selection.
func (s *Session) OptionsAt(node int32) ([]resolve.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return nil, ErrNoConversation
	}
	if _, err := s.conv.Node(node); err != nil {
		return nil, err
	}
	return s.optionsAt(node), nil
}

func (s *Session) options() ([]resolve.Option, error) {
	if s.conv == nil {
		return nil, ErrNoConversation
	}
	return s.optionsAt(s.selected), nil
}

func (s *Session) optionsAt(index int32) []resolve.Option {
	node := s.conv.FindNode(index)
	if node == nil {
		return nil
	}
	opts := resolve.Options(node, s.state, s.lookup, s.radius)
	metrics.OptionsResolved.Observe(float64(len(opts)))
	return opts
}

// Choose picks the i-th wheel option at the selected node. The current
// node's action is applied, then the selection moves to the option's
// target, or to the target's first child when the target has no text of
// its own. It returns the newly selected node.
func (s *Session) Choose(i int) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts, err := s.options()
	if err != nil {
		return -1, err
	}
	if i < 0 || i >= len(opts) {
		return -1, fmt.Errorf("option %d at node %d: %w", i, s.selected, ErrOptionNotFound)
	}
	return s.choose(opts[i]), nil
}

// ChooseTarget is like Choose but picks the option linking to target.
func (s *Session) ChooseTarget(target int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts, err := s.options()
	if err != nil {
		return -1, err
	}
	i := resolve.FindOption(opts, target)
	if i < 0 {
		return -1, fmt.Errorf("option to node %d at node %d: %w", target, s.selected, ErrOptionNotFound)
	}
	return s.choose(opts[i]), nil
}

func (s *Session) choose(opt resolve.Option) int32 {
	plot.ApplyNode(s.conv.FindNode(s.selected), s.state)
	metrics.ChoicesApplied.Inc()

	target := opt.Link.TargetNodeIndex
	next := target
	if it := s.tree.FindFirstOccurrence(target); it != nil {
		if text.IsValidlyEmpty(it.SpokenText) && len(it.Children) > 0 {
			next = it.Children[0].NodeIndex
		}
		s.tree.Reveal(it)
	}

	slog.Debug("option chosen", "from", s.selected, "target", target, "selected", next)
	s.selected = next
	return next
}

// SetFlag writes a plot flag directly.
func (s *Session) SetFlag(plotName string, flag, value int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Set(plotName, flag, value)
}

// Flags returns the stored plot flags in order.
func (s *Session) Flags() []plot.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Flags()
}

// Reset clears plot state and returns to the first line.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
	s.selectFirst()
}

// ConditionHolds evaluates node's condition against the current plot
// state. Nodes without a condition always hold. The tree is never filtered
// by it; the result is only reported.
func (s *Session) ConditionHolds(node int32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return false, ErrNoConversation
	}
	n, err := s.conv.Node(node)
	if err != nil {
		return false, err
	}
	return plot.EvaluateNode(n, s.state), nil
}

// PlotCheck describes a node's condition or action.
type PlotCheck struct {
	Plot  string `json:"plot"`
	Flag  int32  `json:"flag"`
	Op    string `json:"op"`
	Holds *bool  `json:"holds,omitempty"`
}

// NodePlot is the condition and action attached to one node. Either is nil
// when the node has none.
type NodePlot struct {
	Node      int32      `json:"node"`
	Condition *PlotCheck `json:"condition,omitempty"`
	Action    *PlotCheck `json:"action,omitempty"`
}

// PlotAt describes the condition and action of node, evaluating the
// condition against the current plot state.
func (s *Session) PlotAt(node int32) (NodePlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv == nil {
		return NodePlot{}, ErrNoConversation
	}
	if _, err := s.conv.Node(node); err != nil {
		return NodePlot{}, err
	}
	return s.plotAt(node), nil
}

func (s *Session) plotAt(index int32) NodePlot {
	np := NodePlot{Node: index}
	n := s.conv.FindNode(index)
	if n == nil {
		return np
	}
	if n.Condition.IsSet() {
		holds := plot.EvaluateNode(n, s.state)
		np.Condition = &PlotCheck{
			Plot:  n.Condition.PlotName,
			Flag:  n.Condition.FlagIndex,
			Op:    n.Condition.OpDescription(),
			Holds: &holds,
		}
	}
	if n.Action.IsSet() {
		np.Action = &PlotCheck{
			Plot: n.Action.PlotName,
			Flag: n.Action.FlagIndex,
			Op:   n.Action.OpDescription(),
		}
	}
	return np
}

// Snapshot is the JSON view of a session.
type Snapshot struct {
	ID           string           `json:"id"`
	Conversation string           `json:"conversation"`
	Selected     int32            `json:"selected"`
	Plot         NodePlot         `json:"plot"`
	Options      []resolve.Option `json:"options"`
	Flags        []plot.Flag      `json:"flags"`
}

// Snapshot captures the selection, its options and the plot state.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts, err := s.options()
	if err != nil {
		return Snapshot{}, err
	}
	if opts == nil {
		opts = []resolve.Option{}
	}
	return Snapshot{
		ID:           s.ID,
		Conversation: s.conv.Name,
		Selected:     s.selected,
		Plot:         s.plotAt(s.selected),
		Options:      opts,
		Flags:        s.state.Flags(),
	}, nil
}
