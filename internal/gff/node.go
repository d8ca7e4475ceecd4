// Package gff reads the labeled-struct XML documents produced by dumping
// generic game resource files (conversations, creature templates).
//
// The documents are schema-free: every field is an element whose "label"
// attribute carries a numeric field code and whose text carries the value.
// Readers in this package never fail on missing or malformed fields; they
// fall back to the caller's default instead.
package gff

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyDocument is returned when a document contains no root element.
var ErrEmptyDocument = errors.New("document has no root element")

// Node is a single element of a labeled-struct document.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Content  string
	Children []*Node
}

// Attr returns the named attribute, or "" if n is nil or lacks it.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Label returns the field code carried in the "label" attribute.
func (n *Node) Label() string {
	return n.Attr("label")
}

// IsStruct reports whether n is a struct element with the given name.
func (n *Node) IsStruct(name string) bool {
	return n != nil && n.Tag == "struct" && n.Attr("name") == name
}

// Structs returns the direct struct children of n with the given name,
// in document order.
func (n *Node) Structs(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.IsStruct(name) {
			out = append(out, c)
		}
	}
	return out
}

// Parse reads an XML document and returns its root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("decoding xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Content += string(t)
			}
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	trimContent(root)
	return root, nil
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func trimContent(n *Node) {
	n.Content = strings.TrimSpace(n.Content)
	for _, c := range n.Children {
		trimContent(c)
	}
}
