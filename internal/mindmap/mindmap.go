// Package mindmap holds the mind-map tree model and the parser that
// recovers trees from raw LLM output.
package mindmap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MindMap is one node of a hierarchical mind map. A node exclusively owns
// its children; ids are unique across a tree and child order is meaningful.
// Trees are treated as immutable once handed to a caller: refinement builds
// a new tree rather than mutating the seed.
type MindMap struct {
	Label    string     `json:"label"`
	Node     int        `json:"node"`
	Summary  string     `json:"summary"`
	Keywords []string   `json:"keywords"`
	Children []*MindMap `json:"children"`
}

// Row is one flattened node, used by tabular consumers.
type Row struct {
	Node     int      `json:"node"`
	Label    string   `json:"label"`
	Summary  string   `json:"summary"`
	Parent   int      `json:"parent"` // 0 for the root
	Keywords []string `json:"keywords"`
}

// Count returns the number of nodes in the tree.
func (m *MindMap) Count() int {
	n := 1
	for _, c := range m.Children {
		n += c.Count()
	}
	return n
}

// Walk visits every node in preorder; parent is nil for the root.
func (m *MindMap) Walk(fn func(node, parent *MindMap)) {
	m.walk(nil, fn)
}

func (m *MindMap) walk(parent *MindMap, fn func(node, parent *MindMap)) {
	fn(m, parent)
	for _, c := range m.Children {
		c.walk(m, fn)
	}
}

// Rows flattens the tree to one row per node in preorder. The root's parent
// id is 0.
func (m *MindMap) Rows() []Row {
	var rows []Row
	m.Walk(func(node, parent *MindMap) {
		parentID := 0
		if parent != nil {
			parentID = parent.Node
		}
		rows = append(rows, Row{
			Node:     node.Node,
			Label:    node.Label,
			Summary:  node.Summary,
			Parent:   parentID,
			Keywords: node.Keywords,
		})
	})
	return rows
}

// LabelSummaries returns a label -> summary map over the whole tree.
func (m *MindMap) LabelSummaries() map[string]string {
	out := map[string]string{}
	m.Walk(func(node, _ *MindMap) {
		out[node.Label] = node.Summary
	})
	return out
}

// TerminalLabelSummaries returns label -> summary for leaf nodes only.
func (m *MindMap) TerminalLabelSummaries() map[string]string {
	out := map[string]string{}
	m.Walk(func(node, _ *MindMap) {
		if len(node.Children) == 0 {
			out[node.Label] = node.Summary
		}
	})
	return out
}

// LeafParents maps each leaf label to its parent's label.
func (m *MindMap) LeafParents() map[string]string {
	out := map[string]string{}
	m.Walk(func(node, parent *MindMap) {
		if parent != nil && len(node.Children) == 0 {
			out[node.Label] = parent.Label
		}
	})
	return out
}

// ToJSON serializes the tree. The output round-trips through Parse.
func (m *MindMap) ToJSON() (string, error) {
	b, err := json.MarshalIndent(m.toSerializable(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal mind map: %w", err)
	}
	return string(b), nil
}

// toSerializable normalizes nil slices so serialized trees always carry
// keywords and children fields.
func (m *MindMap) toSerializable() *MindMap {
	out := &MindMap{
		Label:    m.Label,
		Node:     m.Node,
		Summary:  m.Summary,
		Keywords: m.Keywords,
		Children: []*MindMap{},
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	for _, c := range m.Children {
		out.Children = append(out.Children, c.toSerializable())
	}
	return out
}

// String renders the tree as ASCII branches.
func (m *MindMap) String() string {
	var b strings.Builder
	m.render(&b, "")
	return b.String()
}

func (m *MindMap) render(b *strings.Builder, prefix string) {
	b.WriteString(m.Label)
	b.WriteString("\n")
	for i, c := range m.Children {
		last := i == len(m.Children)-1
		branch, childPrefix := "├── ", prefix+"│   "
		if last {
			branch, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix + branch)
		c.render(b, childPrefix)
	}
}

// Clone returns a deep copy. Refinement seeds are cloned before any
// normalization so callers keep a valid reference to the prior tree.
func (m *MindMap) Clone() *MindMap {
	out := &MindMap{
		Label:   m.Label,
		Node:    m.Node,
		Summary: m.Summary,
	}
	if m.Keywords != nil {
		out.Keywords = append([]string{}, m.Keywords...)
	}
	for _, c := range m.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return out
}
