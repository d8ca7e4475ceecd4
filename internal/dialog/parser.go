package dialog

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/f3rmion/dlgview/internal/gff"
)

// ErrNoConversation is returned when a document lacks the CONV struct.
var ErrNoConversation = errors.New("document has no CONV struct")

// Field labels of the conversation format.
const (
	labelEntryList = "30001"
	labelLineList  = "30002"

	labelLinkTarget    = "30100"
	labelLinkText      = "30101"
	labelLinkResponse  = "30300"
	labelLinkIcon      = "30301"
	labelLinkCondition = "30303"

	labelLineSpeaker   = "30200"
	labelLineText      = "30201"
	labelLineCondition = "30202"
	labelLineAction    = "30203"
	labelLineLinks     = "30204"

	labelPlotName       = "30400"
	labelPlotFlag       = "30401"
	labelPlotComparison = "30402"
)

const (
	structConv = "CONV"
	structLine = "LINE"
	structLink = "LINK"
)

// ParseFile parses the conversation document at path. The conversation is
// named after the file's base name without extension.
func ParseFile(path string) (*Conversation, error) {
	root, err := gff.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing conversation %s: %w", path, err)
	}
	conv, err := FromDocument(root, NameFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("parsing conversation %s: %w", path, err)
	}
	return conv, nil
}

// Parse parses a conversation document from r.
func Parse(r io.Reader, name string) (*Conversation, error) {
	root, err := gff.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing conversation: %w", err)
	}
	return FromDocument(root, name)
}

// NameFromPath returns the conversation name for a document path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FromDocument materializes a Conversation from a parsed document root.
// Node indices are assigned sequentially over LINE structs in document
// order; nothing in the data overrides them.
func FromDocument(root *gff.Node, name string) (*Conversation, error) {
	if root == nil {
		return nil, ErrNoConversation
	}

	var convNode *gff.Node
	for _, c := range root.Children {
		if c.IsStruct(structConv) {
			convNode = c
			break
		}
	}
	if convNode == nil {
		return nil, ErrNoConversation
	}

	conv := &Conversation{Name: name}

	for _, s := range gff.FindChildByLabel(convNode, labelEntryList).Structs(structLink) {
		conv.EntryLinks = append(conv.EntryLinks, parseEntryLink(s))
	}

	var index int32
	for _, s := range gff.FindChildByLabel(convNode, labelLineList).Structs(structLine) {
		node := parseLine(s)
		node.NodeIndex = index
		index++
		conv.Nodes = append(conv.Nodes, node)
	}

	return conv, nil
}

func parseEntryLink(s *gff.Node) EntryLink {
	e := NewEntryLink()
	if n := gff.FindChildByLabel(s, labelLinkTarget); n != nil {
		e.TargetNodeIndex = int32(gff.ReadUint16(n, 0))
	}
	if n := gff.FindChildByLabel(s, labelLinkText); n != nil {
		e.TextRef = gff.ReadTLK(n)
	}
	if n := gff.FindChildByLabel(s, labelLinkIcon); n != nil {
		e.IconOverride = gff.ReadUint8(n, 255)
	}
	if n := gff.FindChildByLabel(s, labelLinkCondition); n != nil {
		e.ConditionFlags = gff.ReadUint32(n, 0)
	}
	return e
}

func parseLine(s *gff.Node) Node {
	node := NewNode()
	if n := gff.FindChildByLabel(s, labelLineSpeaker); n != nil {
		node.SpeakerID = int32(gff.ReadUint16(n, 0))
	}
	if n := gff.FindChildByLabel(s, labelLineText); n != nil {
		node.TextRef = gff.ReadTLK(n)
	}
	if n := gff.FindChildByLabel(s, labelLineCondition); n != nil {
		node.Condition = parsePlotReference(n)
	}
	if n := gff.FindChildByLabel(s, labelLineAction); n != nil {
		node.Action = parsePlotReference(n)
	}
	for _, l := range gff.FindChildByLabel(s, labelLineLinks).Structs(structLink) {
		node.Links = append(node.Links, parseLink(l))
	}
	return node
}

func parseLink(s *gff.Node) Link {
	link := NewLink()
	if n := gff.FindChildByLabel(s, labelLinkTarget); n != nil {
		link.TargetNodeIndex = int32(gff.ReadUint16(n, 0))
	}
	if n := gff.FindChildByLabel(s, labelLinkText); n != nil {
		link.TextRef = gff.ReadTLK(n)
	}
	if n := gff.FindChildByLabel(s, labelLinkResponse); n != nil {
		link.ResponseType = ResponseType(gff.ReadUint8(n, 255))
	}
	if n := gff.FindChildByLabel(s, labelLinkIcon); n != nil {
		link.IconOverride = gff.ReadUint8(n, 255)
	}
	if n := gff.FindChildByLabel(s, labelLinkCondition); n != nil {
		link.ConditionFlags = gff.ReadUint32(n, 0)
	}
	return link
}

func parsePlotReference(s *gff.Node) PlotReference {
	ref := NoPlot()
	ref.PlotName = gff.ReadString(gff.FindChildByLabel(s, labelPlotName), "")
	ref.FlagIndex = gff.ReadInt32(gff.FindChildByLabel(s, labelPlotFlag), -1)
	ref.Comparison = gff.ReadUint8(gff.FindChildByLabel(s, labelPlotComparison), 255)
	return ref
}
