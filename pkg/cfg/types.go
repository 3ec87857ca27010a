// Package cfg builds control flow graphs over jast method bodies.
//
// A graph has one node per executed code point (statements, reads, writes,
// conditions, calls, jumps) plus entry and exit sentinels. Nodes keep a
// backlink to the AST node they came from so analyses can map facts back
// onto the tree.
package cfg

import (
	"fmt"

	"github.com/l3aro/go-gflow/pkg/jast"
)

// NodeKind classifies a CFG node.
type NodeKind string

const (
	KindEntry       NodeKind = "ENTRY"     // Method entry sentinel
	KindExit        NodeKind = "EXIT"      // Method exit sentinel
	KindBlock       NodeKind = "BLOCK"     // Start of a block statement
	KindStatement   NodeKind = "STMT"      // Start of any other statement
	KindRead        NodeKind = "READ"      // Read of a local
	KindWrite       NodeKind = "WRITE"     // Assignment or initialization of a local
	KindReadWrite   NodeKind = "READWRITE" // Compound assignment, ++ or --
	KindConditional NodeKind = "COND"      // Two-way branch (if, loops, ?:, &&, ||)
	KindCase        NodeKind = "CASE"      // One switch label test
	KindCall        NodeKind = "CALL"      // Method call or instance creation
	KindThrow       NodeKind = "THROW"     // throw statement
	KindGoto        NodeKind = "GOTO"      // break, continue or return
	KindTry         NodeKind = "TRY"       // Entry of a protected region
	KindEnd         NodeKind = "END"       // End of a finally block
)

// EdgeRole labels an edge.
type EdgeRole string

const (
	RoleNormal    EdgeRole = ""
	RoleThen      EdgeRole = "THEN"
	RoleElse      EdgeRole = "ELSE"
	RoleException EdgeRole = "E"
)

// Node is one code point.
type Node struct {
	ID     int
	Kind   NodeKind
	AST    jast.Node      // Statement or expression this node stands for
	Var    *jast.Variable // Variable read or written, for READ/WRITE/READWRITE
	Value  jast.Expr      // Value assigned by a WRITE, nil when unknown
	Cond   jast.Expr      // Tested expression of COND and CASE nodes
	Parent *Node          // Node of the enclosing statement
	Scope  *Scope         // Innermost lexical scope around the node
	In     []*Edge
	Out    []*Edge
}

// Edge is a directed control transfer.
type Edge struct {
	From *Node
	To   *Node
	Role EdgeRole
}

// Graph is the CFG of one method body.
type Graph struct {
	Method *jast.Method
	Nodes  []*Node
	Edges  []*Edge
	Entry  *Node
	Exit   *Node
}

// Succs returns the nodes reachable over one out edge, in edge order.
func (n *Node) Succs() []*Node {
	out := make([]*Node, len(n.Out))
	for i, e := range n.Out {
		out[i] = e.To
	}
	return out
}

// Preds returns the nodes with an edge into n.
func (n *Node) Preds() []*Node {
	in := make([]*Node, len(n.In))
	for i, e := range n.In {
		in[i] = e.From
	}
	return in
}

// IsStatement reports whether n is the first node of a statement.
func (n *Node) IsStatement() bool {
	return n.Kind == KindBlock || n.Kind == KindStatement
}

// Scope is a lexical scope of a method: the method itself, a block, a for
// statement, a switch body or a catch clause. Vars lists the locals declared
// directly in it.
type Scope struct {
	Parent *Scope
	Vars   []*jast.Variable
}

// Declares reports whether v is visible in s or an enclosing scope. A nil
// scope puts no restriction on v.
func (s *Scope) Declares(v *jast.Variable) bool {
	if s == nil {
		return true
	}
	for ; s != nil; s = s.Parent {
		for _, d := range s.Vars {
			if d == v {
				return true
			}
		}
	}
	return false
}

// Clone copies n without its edges or graph identity. The AST backlink,
// variable, parent and scope are preserved.
func (n *Node) Clone() *Node {
	c := *n
	c.ID = -1
	c.In = nil
	c.Out = nil
	return &c
}

// String returns the debug form of n, such as WRITE(i, 1) or COND (b).
func (n *Node) String() string {
	switch n.Kind {
	case KindRead:
		return fmt.Sprintf("READ(%s)", n.Var.Name)
	case KindWrite:
		if n.Value == nil {
			return fmt.Sprintf("WRITE(%s)", n.Var.Name)
		}
		return fmt.Sprintf("WRITE(%s, %s)", n.Var.Name, jast.ToSource(n.Value))
	case KindReadWrite:
		return fmt.Sprintf("READWRITE(%s)", n.Var.Name)
	case KindConditional:
		return fmt.Sprintf("COND (%s)", jast.ToSource(n.Cond))
	case KindCase:
		return fmt.Sprintf("CASE (%s)", jast.ToSource(n.Cond))
	case KindCall:
		switch call := n.AST.(type) {
		case *jast.MethodCall:
			return fmt.Sprintf("CALL(%s)", call.Name)
		case *jast.NewInstance:
			return fmt.Sprintf("CALL(new %s)", call.Class)
		}
	case KindGoto:
		switch n.AST.(type) {
		case *jast.BreakStatement:
			return "BREAK"
		case *jast.ContinueStatement:
			return "CONTINUE"
		case *jast.ReturnStatement:
			return "RETURN"
		}
	}
	return string(n.Kind)
}

func (e *Edge) String() string {
	if e.Role == RoleNormal {
		return fmt.Sprintf("%d -> %d", e.From.ID, e.To.ID)
	}
	return fmt.Sprintf("%d -%s-> %d", e.From.ID, e.Role, e.To.ID)
}

// NodeInfo is the JSON form of a node.
type NodeInfo struct {
	ID     int      `json:"id"`
	Kind   NodeKind `json:"kind"`
	Label  string   `json:"label"`
	Source string   `json:"source,omitempty"`
	Parent int      `json:"parent"`
}

// EdgeInfo is the JSON form of an edge.
type EdgeInfo struct {
	SourceID int      `json:"source_id"`
	TargetID int      `json:"target_id"`
	Role     EdgeRole `json:"role,omitempty"`
}

// Info is a serializable summary of a graph.
type Info struct {
	MethodName           string     `json:"method_name"`
	Nodes                []NodeInfo `json:"nodes"`
	Edges                []EdgeInfo `json:"edges"`
	EntryID              int        `json:"entry_id"`
	ExitID               int        `json:"exit_id"`
	CyclomaticComplexity int        `json:"cyclomatic_complexity"`
}

// NewInfo summarizes g. Cyclomatic complexity is E - N + 2 over the nodes
// reachable from entry.
func NewInfo(g *Graph) *Info {
	info := &Info{
		MethodName: g.Method.Name,
		EntryID:    g.Entry.ID,
		ExitID:     g.Exit.ID,
	}
	for _, n := range g.Nodes {
		ni := NodeInfo{ID: n.ID, Kind: n.Kind, Label: n.String(), Parent: -1}
		if n.Parent != nil {
			ni.Parent = n.Parent.ID
		}
		if n.IsStatement() {
			ni.Source = jast.Summary(n.AST)
		}
		info.Nodes = append(info.Nodes, ni)
	}
	for _, e := range g.Edges {
		info.Edges = append(info.Edges, EdgeInfo{SourceID: e.From.ID, TargetID: e.To.ID, Role: e.Role})
	}

	reachable := g.Reachable()
	nodes, edges := 0, 0
	for _, n := range g.Nodes {
		if !reachable[n] {
			continue
		}
		nodes++
		edges += len(n.Out)
	}
	info.CyclomaticComplexity = edges - nodes + 2
	return info
}

// Reachable returns the set of nodes reachable from entry.
func (g *Graph) Reachable() map[*Node]bool {
	seen := map[*Node]bool{g.Entry: true}
	stack := []*Node{g.Entry}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range n.Succs() {
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return seen
}
