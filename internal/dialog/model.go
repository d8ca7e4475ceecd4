// Package dialog defines the conversation graph model and parses it from
// labeled-struct conversation documents.
package dialog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNodeNotFound is returned when a node index does not resolve.
var ErrNodeNotFound = errors.New("node not found")

// NoCondition is the link condition_flags value meaning "unconditional".
const NoCondition uint32 = 0xFFFFFFFF

// ResponseType is the tone a player response is presented with.
type ResponseType uint8

const (
	Neutral ResponseType = iota
	Aggressive
	Diplomatic
	Humorous
	Bonus
	Follower
	Choice1
	Choice2
	Choice3
	Choice4
	Choice5
	Investigate

	// AutoContinue marks links that are not player choices.
	AutoContinue ResponseType = 255
)

var responseTypeNames = map[ResponseType]string{
	Neutral:      "Neutral",
	Aggressive:   "Aggressive",
	Diplomatic:   "Diplomatic",
	Humorous:     "Humorous",
	Bonus:        "Bonus",
	Follower:     "Follower",
	Choice1:      "Choice 1",
	Choice2:      "Choice 2",
	Choice3:      "Choice 3",
	Choice4:      "Choice 4",
	Choice5:      "Choice 5",
	Investigate:  "Investigate",
	AutoContinue: "Auto Continue",
}

func (t ResponseType) String() string {
	if s, ok := responseTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// PlotReference points at one flag of a named plot. It is attached to a
// node as its condition or its action.
type PlotReference struct {
	PlotName   string `json:"plot_name" yaml:"plot_name"`
	FlagIndex  int32  `json:"flag_index" yaml:"flag_index"`
	Comparison uint8  `json:"comparison" yaml:"comparison"`
}

// NoPlot returns the empty reference: no plot, flag -1, implicit comparison.
func NoPlot() PlotReference {
	return PlotReference{FlagIndex: -1, Comparison: 255}
}

// IsSet reports whether the reference names a plot.
func (p PlotReference) IsSet() bool {
	return p.PlotName != ""
}

// OpDescription renders the comparison byte for display.
func (p PlotReference) OpDescription() string {
	switch p.Comparison {
	case 255:
		return "True (implicitly)"
	case 1:
		return "True (explicitly)"
	case 0:
		return "False (explicitly)"
	default:
		return fmt.Sprintf("%d (unknown)", p.Comparison)
	}
}

// KnownComparison reports whether the comparison byte is one of 0, 1 or 255.
func (p PlotReference) KnownComparison() bool {
	return p.Comparison == 0 || p.Comparison == 1 || p.Comparison == 255
}

// Link is a directed edge from a node to the node at TargetNodeIndex.
type Link struct {
	TargetNodeIndex int32        `json:"target" yaml:"target"`
	TextRef         int32        `json:"text_ref" yaml:"text_ref"`
	ResponseType    ResponseType `json:"response_type" yaml:"response_type"`
	IconOverride    uint8        `json:"icon_override" yaml:"icon_override"`
	ConditionFlags  uint32       `json:"condition_flags" yaml:"condition_flags"`
	PreviewText     string       `json:"preview_text,omitempty" yaml:"preview_text,omitempty"`
}

// NewLink returns a link with the format's defaults.
func NewLink() Link {
	return Link{
		TargetNodeIndex: -1,
		TextRef:         -1,
		ResponseType:    AutoContinue,
		IconOverride:    255,
	}
}

// Unconditional reports whether the link carries the "no condition" flags.
func (l Link) Unconditional() bool {
	return l.ConditionFlags == NoCondition
}

// EntryLink is a root edge marking a valid conversation start.
type EntryLink struct {
	TargetNodeIndex int32  `json:"target" yaml:"target"`
	TextRef         int32  `json:"text_ref" yaml:"text_ref"`
	IconOverride    uint8  `json:"icon_override" yaml:"icon_override"`
	ConditionFlags  uint32 `json:"condition_flags" yaml:"condition_flags"`
}

// NewEntryLink returns an entry link with the format's defaults.
func NewEntryLink() EntryLink {
	return EntryLink{TargetNodeIndex: -1, TextRef: -1, IconOverride: 255}
}

// Node is one line of dialog.
type Node struct {
	NodeIndex int32         `json:"index" yaml:"index"`
	SpeakerID int32         `json:"speaker" yaml:"speaker"`
	TextRef   int32         `json:"text_ref" yaml:"text_ref"`
	Condition PlotReference `json:"condition" yaml:"condition"`
	Action    PlotReference `json:"action" yaml:"action"`
	Links     []Link        `json:"links" yaml:"links"`
}

// NewNode returns a node with the format's defaults.
func NewNode() Node {
	return Node{
		NodeIndex: -1,
		SpeakerID: -1,
		TextRef:   -1,
		Condition: NoPlot(),
		Action:    NoPlot(),
	}
}

// Conversation is the parsed dialog graph of one document. Links refer to
// nodes by index, so cycles need no special handling here.
type Conversation struct {
	Name       string      `json:"name" yaml:"name"`
	OwnerTag   string      `json:"owner_tag" yaml:"owner_tag"`
	EntryLinks []EntryLink `json:"entry_links" yaml:"entry_links"`
	Nodes      []Node      `json:"nodes" yaml:"nodes"`
}

// FindNode returns the node with the given index, or nil.
func (c *Conversation) FindNode(index int32) *Node {
	if c == nil {
		return nil
	}
	// Indices are positional, so try the direct slot first.
	if index >= 0 && int(index) < len(c.Nodes) && c.Nodes[index].NodeIndex == index {
		return &c.Nodes[index]
	}
	for i := range c.Nodes {
		if c.Nodes[i].NodeIndex == index {
			return &c.Nodes[i]
		}
	}
	return nil
}

// Node is like FindNode but returns ErrNodeNotFound for unknown indices.
func (c *Conversation) Node(index int32) (*Node, error) {
	n := c.FindNode(index)
	if n == nil {
		return nil, fmt.Errorf("node %d: %w", index, ErrNodeNotFound)
	}
	return n, nil
}

// LinkCount returns the total number of outgoing links over all nodes.
func (c *Conversation) LinkCount() int {
	total := 0
	for _, n := range c.Nodes {
		total += len(n.Links)
	}
	return total
}

// Summary returns a short human-readable description of the conversation.
func (c *Conversation) Summary() string {
	var sb strings.Builder

	owner := c.OwnerTag
	if owner == "" {
		owner = "(unknown)"
	}

	sb.WriteString(fmt.Sprintf("Conversation: %s\n", c.Name))
	sb.WriteString(fmt.Sprintf("  Owner: %s\n", owner))
	sb.WriteString(fmt.Sprintf("  Entry links: %d\n", len(c.EntryLinks)))
	for _, e := range c.EntryLinks {
		sb.WriteString(fmt.Sprintf("    - node %d (text %d)\n", e.TargetNodeIndex, e.TextRef))
	}
	sb.WriteString(fmt.Sprintf("  Lines: %d\n", len(c.Nodes)))
	sb.WriteString(fmt.Sprintf("  Links: %d\n", c.LinkCount()))

	conditions, actions := 0, 0
	for _, n := range c.Nodes {
		if n.Condition.IsSet() {
			conditions++
		}
		if n.Action.IsSet() {
			actions++
		}
	}
	sb.WriteString(fmt.Sprintf("  Conditions: %d\n", conditions))
	sb.WriteString(fmt.Sprintf("  Actions: %d\n", actions))

	return sb.String()
}
