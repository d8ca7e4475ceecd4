// Package resolve turns a parsed conversation into what a viewer shows: a
// display tree with classified speakers, and the response wheel for a node.
package resolve

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/text"
)

// Placeholder texts for lines that have nothing to say.
const (
	ContinueText = "[[CONTINUE]]"
	EndText      = "[[END DIALOG]]"
)

// Role is the speaker classification of a display line.
type Role int

const (
	RolePlayer Role = iota
	RoleOwner
	RoleHenchman
	RoleOtherNPC
	RoleReference
)

var roleNames = [...]string{"player", "owner", "henchman", "npc", "reference"}

// Text and colour per role share one table so they cannot disagree.
var roleColors = [...]string{"#4C80FF", "#FF4C4C", "#80FF80", "#FF80FF", "#999999"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// Color returns the display colour as "#RRGGBB".
func (r Role) Color() string {
	if r < 0 || int(r) >= len(roleColors) {
		return "#FFFFFF"
	}
	return roleColors[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Item is one line in the display tree. Parent is a navigation aid only;
// the tree is owned top-down through Children.
type Item struct {
	NodeIndex       int32   `json:"node"`
	Parent          *Item   `json:"-"`
	Children        []*Item `json:"children,omitempty"`
	SpeakerID       int32   `json:"speaker"`
	TextRef         int32   `json:"text_ref"`
	ParaphraseRef   int32   `json:"paraphrase_ref"`
	HasCondition    bool    `json:"has_condition"`
	HasAction       bool    `json:"has_action"`
	LinkCount       int     `json:"link_count"`
	Reference       bool    `json:"reference"`
	ReferencedNode  int32   `json:"referenced_node"`
	NPCTurn         bool    `json:"npc_turn"`
	ResolvedSpeaker string  `json:"resolved_speaker,omitempty"`
	SpokenText      string  `json:"spoken"`
	ParaphraseText  string  `json:"paraphrase,omitempty"`
	Role            Role    `json:"role"`
	Expanded        bool    `json:"-"`
}

// Indicator returns "CA", "C", "A" or "" for condition/action presence.
func (it *Item) Indicator() string {
	switch {
	case it.HasCondition && it.HasAction:
		return "CA"
	case it.HasCondition:
		return "C"
	case it.HasAction:
		return "A"
	}
	return ""
}

// IsAmbient reports whether the line has displayable text but no links.
func (it *Item) IsAmbient() bool {
	return !text.IsValidlyEmpty(it.SpokenText) && it.LinkCount == 0
}

// IsHenchman reports whether a companion name was resolved for the line.
// Composite party shapes ("[Party: ...]") do not name a speaker.
func (it *Item) IsHenchman() bool {
	return it.ResolvedSpeaker != "" && !strings.HasPrefix(it.ResolvedSpeaker, "[Party:")
}

// Label is the speaker column text.
func (it *Item) Label() string {
	switch it.Role {
	case RoleReference:
		return "REFERENCE"
	case RolePlayer:
		return "PLAYER"
	case RoleOwner:
		return "OWNER"
	case RoleHenchman:
		return it.ResolvedSpeaker
	}
	return fmt.Sprintf("Speaker %d", it.SpeakerID)
}

func (it *Item) classify() Role {
	switch {
	case it.Reference:
		return RoleReference
	case it.IsAmbient():
		return RoleOwner
	case IsKnownPlayer(it.SpeakerID):
		return RolePlayer
	case strings.Contains(it.SpokenText, ContinueText), strings.Contains(it.SpokenText, EndText):
		return RoleOwner
	case it.IsHenchman():
		return RoleHenchman
	case it.ResolvedSpeaker != "":
		// A party shape, not an individual companion.
		return RoleOwner
	case it.SpeakerID == SpeakerContextual:
		return RoleOwner
	}
	return RoleOtherNPC
}

// IssueKind names a data-integrity problem found while building a tree.
type IssueKind string

const (
	IssueAmbientWithoutOwner IssueKind = "ambient_without_owner"
	IssueParaphraseOnNPC     IssueKind = "paraphrase_on_npc_turn"
	IssueMissingParaphrase   IssueKind = "player_line_without_paraphrase"
	IssueUnknownComparison   IssueKind = "unknown_comparison"
)

// Issue is a recoverable integrity problem tied to a node.
type Issue struct {
	Kind      IssueKind `json:"kind"`
	NodeIndex int32     `json:"node"`
	Message   string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("node %d: %s: %s", i.NodeIndex, i.Kind, i.Message)
}

// Tree is the display forest of one conversation.
type Tree struct {
	Conversation string  `json:"conversation"`
	OwnerTag     string  `json:"owner_tag"`
	OwnerSpeaker int32   `json:"owner_speaker"`
	Roots        []*Item `json:"roots"`
	Issues       []Issue `json:"issues,omitempty"`

	firsts map[int32]*Item
	refs   int
}

func (t *Tree) addIssue(kind IssueKind, node int32, format string, args ...any) {
	issue := Issue{Kind: kind, NodeIndex: node, Message: fmt.Sprintf(format, args...)}
	t.Issues = append(t.Issues, issue)
	slog.Debug("integrity issue", "conversation", t.Conversation, "node", node, "kind", kind, "msg", issue.Message)
}

// Len returns the number of items in the tree.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(*Item, int) bool { n++; return true })
	return n
}

// References returns the number of reference items.
func (t *Tree) References() int {
	return t.refs
}

// Walk visits items depth-first. Returning false from fn skips the item's
// children.
func (t *Tree) Walk(fn func(it *Item, depth int) bool) {
	var walk func(items []*Item, depth int)
	walk = func(items []*Item, depth int) {
		for _, it := range items {
			if fn(it, depth) {
				walk(it.Children, depth+1)
			}
		}
	}
	walk(t.Roots, 0)
}

// Row is one visible line of a flattened tree.
type Row struct {
	Item  *Item
	Depth int
}

// Rows flattens the tree, descending only into expanded items unless all
// is set.
func (t *Tree) Rows(all bool) []Row {
	var rows []Row
	t.Walk(func(it *Item, depth int) bool {
		rows = append(rows, Row{Item: it, Depth: depth})
		return all || it.Expanded
	})
	return rows
}

// FindFirstOccurrence returns the expanded (non-reference) item for a node.
func (t *Tree) FindFirstOccurrence(index int32) *Item {
	return t.firsts[index]
}

// Reveal expands every ancestor of it.
func (t *Tree) Reveal(it *Item) {
	for p := it.Parent; p != nil; p = p.Parent {
		p.Expanded = true
	}
}

// ExpandAll expands every item.
func (t *Tree) ExpandAll() {
	t.Walk(func(it *Item, _ int) bool { it.Expanded = true; return true })
}

// CollapseAll collapses every item.
func (t *Tree) CollapseAll() {
	t.Walk(func(it *Item, _ int) bool { it.Expanded = false; return true })
}

// SetBranch expands or collapses an item and all of its descendants.
func SetBranch(it *Item, expanded bool) {
	if it == nil {
		return
	}
	it.Expanded = expanded
	for _, c := range it.Children {
		SetBranch(c, expanded)
	}
}

// TreeResolver builds display trees. It remembers which player speaker ids
// it has reported so repeated builds log each id once.
type TreeResolver struct {
	text        text.Lookup
	seenPlayers map[int32]struct{}
}

// NewTreeResolver returns a resolver that reads line text from lookup.
func NewTreeResolver(lookup text.Lookup) *TreeResolver {
	return &TreeResolver{text: lookup, seenPlayers: make(map[int32]struct{})}
}

// Build expands conv from each entry link. Every node is expanded once per
// build; later visits become terminal reference items, so cycles terminate.
// Links to unknown nodes produce no item.
func (r *TreeResolver) Build(conv *dialog.Conversation) *Tree {
	t := &Tree{OwnerSpeaker: -1, firsts: make(map[int32]*Item)}
	if conv == nil {
		return t
	}
	t.Conversation = conv.Name
	t.OwnerTag = conv.OwnerTag
	t.OwnerSpeaker = DetectOwner(conv)

	for _, entry := range conv.EntryLinks {
		// Entries are invisible: their children become the roots. The
		// invisible parent is a player turn so roots are NPC turns.
		entryRoot := &Item{NodeIndex: -1, ReferencedNode: -1}
		r.expand(t, conv, entry.TargetNodeIndex, entryRoot)
		for _, c := range entryRoot.Children {
			c.Parent = nil
			t.Roots = append(t.Roots, c)
		}
	}

	r.checkPlayerLines(t)

	if len(t.Issues) > 0 {
		counts := make(map[IssueKind]int)
		for _, is := range t.Issues {
			counts[is.Kind]++
		}
		slog.Warn("conversation has integrity issues", "conversation", conv.Name, "issues", len(t.Issues), "kinds", counts)
	}
	slog.Debug("built tree", "conversation", conv.Name, "roots", len(t.Roots), "references", t.refs)
	return t
}

func (r *TreeResolver) expand(t *Tree, conv *dialog.Conversation, index int32, parent *Item) {
	node := conv.FindNode(index)
	if node == nil {
		slog.Debug("link target not found", "conversation", conv.Name, "node", index)
		return
	}

	it := &Item{
		NodeIndex:      index,
		Parent:         parent,
		SpeakerID:      node.SpeakerID,
		TextRef:        node.TextRef,
		ParaphraseRef:  -1,
		HasCondition:   node.Condition.IsSet(),
		HasAction:      node.Action.IsSet(),
		LinkCount:      len(node.Links),
		ReferencedNode: -1,
		NPCTurn:        !parent.NPCTurn,
	}
	it.ResolvedSpeaker = partySpeaker(conv, node, parent)

	if first, ok := t.firsts[index]; ok {
		it.Reference = true
		it.ReferencedNode = index
		it.SpokenText = "→ " + first.SpokenText
		it.ParaphraseText = first.ParaphraseText
		it.Role = RoleReference
		parent.Children = append(parent.Children, it)
		t.refs++
		return
	}

	t.firsts[index] = it
	it.SpokenText = spokenText(r.text.Text(node.TextRef), node)
	it.Role = it.classify()
	r.checkNode(t, it, node)
	parent.Children = append(parent.Children, it)

	for _, link := range node.Links {
		before := len(it.Children)
		r.expand(t, conv, link.TargetNodeIndex, it)
		if len(it.Children) == before {
			continue
		}

		child := it.Children[len(it.Children)-1]
		if child.Reference {
			continue
		}
		child.ParaphraseRef = link.TextRef

		para := r.text.Text(link.TextRef)
		if !Displayable(para) {
			continue
		}
		if child.NPCTurn {
			t.addIssue(IssueParaphraseOnNPC, child.NodeIndex, "paraphrase %q on an NPC turn", para)
		}
		child.ParaphraseText = fmt.Sprintf("[TLK %d] %s", link.TextRef, para)
	}
}

func (r *TreeResolver) checkNode(t *Tree, it *Item, node *dialog.Node) {
	if it.Role == RolePlayer {
		if _, seen := r.seenPlayers[it.SpeakerID]; !seen {
			r.seenPlayers[it.SpeakerID] = struct{}{}
			slog.Debug("player speaker id", "speaker", it.SpeakerID)
		}
	}
	if it.IsAmbient() && t.OwnerTag == "" {
		t.addIssue(IssueAmbientWithoutOwner, it.NodeIndex, "ambient line (speaker %d, text %d) in a conversation with no owner", it.SpeakerID, it.TextRef)
	}
	if node.Condition.IsSet() && !node.Condition.KnownComparison() {
		t.addIssue(IssueUnknownComparison, it.NodeIndex, "condition %s:%d has comparison %d", node.Condition.PlotName, node.Condition.FlagIndex, node.Condition.Comparison)
	}
	if node.Action.IsSet() && !node.Action.KnownComparison() {
		t.addIssue(IssueUnknownComparison, it.NodeIndex, "action %s:%d has comparison %d", node.Action.PlotName, node.Action.FlagIndex, node.Action.Comparison)
	}
}

// checkPlayerLines runs after paraphrases are attached.
func (r *TreeResolver) checkPlayerLines(t *Tree) {
	t.Walk(func(it *Item, _ int) bool {
		if it.Role == RolePlayer && !it.NPCTurn &&
			!text.IsValidlyEmpty(it.SpokenText) && text.IsValidlyEmpty(it.ParaphraseText) {
			t.addIssue(IssueMissingParaphrase, it.NodeIndex, "player line has spoken text but no paraphrase")
		}
		return true
	})
}

// Displayable reports whether looked-up text has something to show. The
// "-1" sentinel for absent text counts as nothing.
func Displayable(s string) bool {
	return s != text.Missing && !text.IsValidlyEmpty(s)
}

func isNotFound(s string) bool {
	return strings.HasPrefix(s, "[TLK ") && strings.HasSuffix(s, " - Not Found]")
}

func spokenText(raw string, node *dialog.Node) string {
	if raw == "" || raw == text.Missing || isNotFound(raw) {
		if len(node.Links) == 0 {
			return EndText
		}
		return ContinueText
	}
	return fmt.Sprintf("[TLK %d] %s", node.TextRef, raw)
}

func partySpeaker(conv *dialog.Conversation, node *dialog.Node, parent *Item) string {
	if isPartyCondition(node.Condition) {
		name := PartyMember(node.Condition.FlagIndex)
		slog.Debug("speaker resolved from party condition",
			"node", node.NodeIndex, "speaker", node.SpeakerID, "name", name, "flag", node.Condition.FlagIndex)
		return name
	}
	if node.SpeakerID != SpeakerContextual || parent == nil {
		return ""
	}
	pn := conv.FindNode(parent.NodeIndex)
	if pn == nil || !isPartyCondition(pn.Condition) {
		return ""
	}
	name := PartyMember(pn.Condition.FlagIndex)
	slog.Debug("speaker resolved from parent party condition",
		"node", node.NodeIndex, "name", name, "flag", pn.Condition.FlagIndex)
	return name
}

func isPartyCondition(ref dialog.PlotReference) bool {
	return ref.IsSet() && strings.Contains(strings.ToLower(ref.PlotName), "party")
}

// DetectOwner returns the most frequent speaker id among lines not spoken
// by a known player id, or -1. Ties go to the id reached first.
func DetectOwner(conv *dialog.Conversation) int32 {
	if conv == nil {
		return -1
	}
	counts := make(map[int32]int)
	var order []int32
	for _, n := range conv.Nodes {
		if IsKnownPlayer(n.SpeakerID) {
			continue
		}
		if _, ok := counts[n.SpeakerID]; !ok {
			order = append(order, n.SpeakerID)
		}
		counts[n.SpeakerID]++
	}

	owner, best := int32(-1), 0
	for _, id := range order {
		if counts[id] > best {
			owner, best = id, counts[id]
		}
	}
	if owner != -1 {
		slog.Debug("detected owner speaker", "conversation", conv.Name, "speaker", owner, "lines", best)
	}
	return owner
}
