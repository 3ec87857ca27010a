package jast

import (
	"fmt"
	"strings"
)

// Change is one recorded structural edit. A change is applied exactly
// once; applying it twice is an internal error.
type Change interface {
	Apply(root Node)
	Describe() string
}

type changeBase struct {
	applied bool
}

func (c *changeBase) markApplied(self Change) {
	if c.applied {
		panic("jast: change applied twice: " + self.Describe())
	}
	c.applied = true
}

// AddNode inserts Node into a statement list at Index, or appends it when
// Index is -1.
type AddNode struct {
	changeBase
	Parent Node
	List   *[]Stmt
	Node   Stmt
	Index  int
}

// NewAddNode validates and records an insertion. It panics if n is already
// in the list or the index is out of range.
func NewAddNode(parent Node, list *[]Stmt, index int, n Stmt) *AddNode {
	if n == nil {
		panic("jast: AddNode with nil node")
	}
	if indexOf(*list, n) >= 0 {
		panic(fmt.Sprintf("jast: node %s already present in %T", Summary(n), parent))
	}
	if index < -1 || index > len(*list) {
		panic(fmt.Sprintf("jast: AddNode index %d out of range [0,%d]", index, len(*list)))
	}
	return &AddNode{Parent: parent, List: list, Node: n, Index: index}
}

func (c *AddNode) Apply(Node) {
	c.markApplied(c)
	if indexOf(*c.List, c.Node) >= 0 {
		panic(fmt.Sprintf("jast: node %s already present in %T", Summary(c.Node), c.Parent))
	}
	if c.Index == -1 || c.Index == len(*c.List) {
		*c.List = append(*c.List, c.Node)
		return
	}
	if c.Index > len(*c.List) {
		panic(fmt.Sprintf("jast: AddNode index %d out of range [0,%d]", c.Index, len(*c.List)))
	}
	l := append(*c.List, nil)
	copy(l[c.Index+1:], l[c.Index:])
	l[c.Index] = c.Node
	*c.List = l
}

func (c *AddNode) Describe() string {
	if c.Index == -1 {
		return fmt.Sprintf("append %s to %T", Summary(c.Node), c.Parent)
	}
	return fmt.Sprintf("insert %s into %T at %d", Summary(c.Node), c.Parent, c.Index)
}

// RemoveNode removes a statement. Inside a statement list the statement is
// deleted; in a single-statement slot it becomes an empty block.
type RemoveNode struct {
	changeBase
	Node Node
}

func (c *RemoveNode) Apply(root Node) {
	c.markApplied(c)
	found := false
	Apply(root, func(cur *Cursor) bool {
		if found {
			return false
		}
		if cur.Node() != c.Node {
			return true
		}
		found = true
		switch {
		case cur.Index() >= 0:
			cur.Delete()
		case isStmt(c.Node):
			cur.Replace(&Block{})
		default:
			panic(fmt.Sprintf("jast: cannot remove expression %s", Summary(c.Node)))
		}
		return false
	}, nil)
	if !found {
		panic("jast: node to remove not found: " + Summary(c.Node))
	}
}

func (c *RemoveNode) Describe() string {
	return "remove " + Summary(c.Node)
}

// ReplaceNode swaps Old for New wherever Old occurs under the root.
type ReplaceNode struct {
	changeBase
	Old Node
	New Node
}

func (c *ReplaceNode) Apply(root Node) {
	c.markApplied(c)
	found := false
	Apply(root, func(cur *Cursor) bool {
		if found {
			return false
		}
		if cur.Node() != c.Old {
			return true
		}
		found = true
		cur.Replace(c.New)
		return false
	}, nil)
	if !found {
		panic("jast: node to replace not found: " + Summary(c.Old))
	}
}

func (c *ReplaceNode) Describe() string {
	return fmt.Sprintf("replace %s with %s", Summary(c.Old), Summary(c.New))
}

// ChangeList batches changes recorded during a traversal so they can be
// applied after the traversal finishes.
type ChangeList struct {
	desc    string
	changes []Change
}

// NewChangeList creates an empty change list with a description used in
// diagnostics.
func NewChangeList(desc string) *ChangeList {
	return &ChangeList{desc: desc}
}

// AddChange records c.
func (l *ChangeList) AddChange(c Change) {
	l.changes = append(l.changes, c)
}

// Add records an insertion; see NewAddNode.
func (l *ChangeList) Add(parent Node, list *[]Stmt, index int, n Stmt) {
	l.AddChange(NewAddNode(parent, list, index, n))
}

// Remove records the removal of n.
func (l *ChangeList) Remove(n Node) {
	l.AddChange(&RemoveNode{Node: n})
}

// Replace records the replacement of old by n.
func (l *ChangeList) Replace(old, n Node) {
	if old == n {
		panic("jast: replacing a node with itself")
	}
	l.AddChange(&ReplaceNode{Old: old, New: n})
}

// AddAll appends every change of other.
func (l *ChangeList) AddAll(other *ChangeList) {
	l.changes = append(l.changes, other.changes...)
}

// Empty reports whether no change was recorded.
func (l *ChangeList) Empty() bool {
	return len(l.changes) == 0
}

// Len returns the number of recorded changes.
func (l *ChangeList) Len() int {
	return len(l.changes)
}

// Changes returns the recorded changes in order.
func (l *ChangeList) Changes() []Change {
	return l.changes
}

// Apply applies every change in record order against root.
func (l *ChangeList) Apply(root Node) {
	for _, c := range l.changes {
		c.Apply(root)
	}
}

// Describe renders the list for logs, one change per line.
func (l *ChangeList) Describe() string {
	var sb strings.Builder
	sb.WriteString(l.desc)
	sb.WriteString(":")
	for _, c := range l.changes {
		sb.WriteString("\n  ")
		sb.WriteString(c.Describe())
	}
	return sb.String()
}

func indexOf(list []Stmt, n Stmt) int {
	for i, s := range list {
		if s == n {
			return i
		}
	}
	return -1
}

func isStmt(n Node) bool {
	_, ok := n.(Stmt)
	return ok
}
