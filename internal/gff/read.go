package gff

import (
	"strconv"
)

// Tags used by the exporter for localized string references.
const (
	tagTLKString = "tlkstring"
	tagUint32    = "uint32"
)

// FindChildByLabel returns the first direct child of parent whose label
// attribute equals label, regardless of tag. It returns nil when parent is
// nil or no child matches.
func FindChildByLabel(parent *Node, label string) *Node {
	if parent == nil {
		return nil
	}
	for _, c := range parent.Children {
		if c.Label() == label {
			return c
		}
	}
	return nil
}

// FindChildByTag returns the first direct child of parent with the given tag.
func FindChildByTag(parent *Node, tag string) *Node {
	if parent == nil {
		return nil
	}
	for _, c := range parent.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// integer parses the node's text as a decimal integer. Values that only fit
// an unsigned 64-bit integer are accepted and reinterpreted.
func integer(n *Node) (int64, bool) {
	if n == nil || n.Content == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(n.Content, 10, 64); err == nil {
		return v, true
	}
	if u, err := strconv.ParseUint(n.Content, 10, 64); err == nil {
		return int64(u), true
	}
	return 0, false
}

// ReadUint8 reads n as an 8-bit unsigned value, wrapping on overflow.
func ReadUint8(n *Node, def uint8) uint8 {
	v, ok := integer(n)
	if !ok {
		return def
	}
	return uint8(v)
}

// ReadUint16 reads n as a 16-bit unsigned value, wrapping on overflow.
func ReadUint16(n *Node, def uint16) uint16 {
	v, ok := integer(n)
	if !ok {
		return def
	}
	return uint16(v)
}

// ReadUint32 reads n as a 32-bit unsigned value, wrapping on overflow.
func ReadUint32(n *Node, def uint32) uint32 {
	v, ok := integer(n)
	if !ok {
		return def
	}
	return uint32(v)
}

// ReadInt32 reads n as a 32-bit signed value, wrapping on overflow, so
// "4294967295" reads as -1.
func ReadInt32(n *Node, def int32) int32 {
	v, ok := integer(n)
	if !ok {
		return def
	}
	return int32(v)
}

// ReadString returns the trimmed text of n, or def when n is nil or empty.
func ReadString(n *Node, def string) string {
	if n == nil || n.Content == "" {
		return def
	}
	return n.Content
}

// ReadTLK unwraps a localized string reference. The reference is a
// tlkstring element holding a uint32 child; anything else yields -1.
func ReadTLK(n *Node) int32 {
	if n == nil || n.Tag != tagTLKString {
		return -1
	}
	return ReadInt32(FindChildByTag(n, tagUint32), -1)
}
