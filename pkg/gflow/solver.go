package gflow

import (
	"fmt"

	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// DefaultMaxSteps bounds the number of node visits of a single solve.
const DefaultMaxSteps = 1_000_000

type solveOptions struct {
	maxSteps int
}

// SolveOption configures Solve and SolveIntegrated.
type SolveOption func(*solveOptions)

// WithMaxSteps caps the number of node visits. Exceeding the cap means the
// lattice does not converge, which is a bug, so the solver panics.
func WithMaxSteps(n int) SolveOption {
	return func(o *solveOptions) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

type solution[A Assumption[A]] struct {
	g       *cfg.Graph
	forward bool
	initial A
	edges   AssumptionMap[A]
}

func (s *solution[A]) start() *cfg.Node {
	if s.forward {
		return s.g.Entry
	}
	return s.g.Exit
}

func (s *solution[A]) inEdges(n *cfg.Node) []*cfg.Edge {
	if s.forward {
		return n.In
	}
	return n.Out
}

func (s *solution[A]) outEdges(n *cfg.Node) []*cfg.Edge {
	if s.forward {
		return n.Out
	}
	return n.In
}

func (s *solution[A]) next(e *cfg.Edge) *cfg.Node {
	if s.forward {
		return e.To
	}
	return e.From
}

func (s *solution[A]) In(n *cfg.Node) A {
	var in A
	if n == s.start() {
		in = s.initial
	}
	for _, e := range s.inEdges(n) {
		in = Join(in, s.edges[e])
	}
	return in
}

func (s *solution[A]) Edge(e *cfg.Edge) A {
	return s.edges[e]
}

// Solve runs a to a fixed point over g and returns the per-edge
// assumptions.
func Solve[A Assumption[A]](g *cfg.Graph, a Analysis[A], forward bool, opts ...SolveOption) AssumptionMap[A] {
	return solve(g, a, forward, opts).edges
}

func solve[A Assumption[A]](g *cfg.Graph, a Analysis[A], forward bool, opts []SolveOption) *solution[A] {
	if g == nil || g.Entry == nil || g.Exit == nil {
		panic("gflow: solve on an incomplete graph")
	}
	o := solveOptions{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&o)
	}

	s := &solution[A]{
		g:       g,
		forward: forward,
		initial: a.Initial(g),
		edges:   make(AssumptionMap[A], len(g.Edges)),
	}
	ff := a.FlowFunction()

	// Every node is visited at least once, in an order that follows the
	// flow direction, so nodes unreachable from the start still get
	// their bottom outputs.
	w := newWorklist(len(g.Nodes))
	if forward {
		for _, n := range g.Nodes {
			w.push(n)
		}
	} else {
		for i := len(g.Nodes) - 1; i >= 0; i-- {
			w.push(g.Nodes[i])
		}
	}

	steps := 0
	for !w.empty() {
		steps++
		if steps > o.maxSteps {
			panic(fmt.Sprintf("gflow: no fixed point for %s after %d steps", methodName(g), o.maxSteps))
		}
		n := w.pop()
		out := ff.Interpret(n, s.In(n))
		for _, e := range s.outEdges(n) {
			if out.Equal(s.edges[e]) {
				continue
			}
			s.edges[e] = out
			w.push(s.next(e))
		}
	}
	return s
}

// SolveIntegrated solves a, then asks it for a rewrite of every node and
// applies the collected changes to the method body. It reports whether the
// AST changed.
func SolveIntegrated[A Assumption[A]](g *cfg.Graph, a IntegratedAnalysis[A], forward bool, opts ...SolveOption) (AssumptionMap[A], bool) {
	s := solve(g, a, forward, opts)
	cl := jast.NewChangeList(fmt.Sprintf("%T on %s", a, methodName(g)))
	for _, n := range g.Nodes {
		if t := a.Transform(n, s); t != nil {
			t(cl)
		}
	}
	if cl.Empty() {
		return s.edges, false
	}
	cl.Apply(g.Method.Body)
	return s.edges, true
}

// In returns the solved in-assumption of n for a map produced by Solve.
func In[A Assumption[A]](g *cfg.Graph, a Analysis[A], edges AssumptionMap[A], forward bool, n *cfg.Node) A {
	s := &solution[A]{g: g, forward: forward, initial: a.Initial(g), edges: edges}
	return s.In(n)
}

func methodName(g *cfg.Graph) string {
	if g.Method == nil {
		return "<anonymous>"
	}
	return g.Method.Name
}

// worklist is a FIFO queue without duplicates.
type worklist struct {
	queue  []*cfg.Node
	queued map[*cfg.Node]bool
}

func newWorklist(size int) *worklist {
	return &worklist{
		queue:  make([]*cfg.Node, 0, size),
		queued: make(map[*cfg.Node]bool, size),
	}
}

func (w *worklist) push(n *cfg.Node) {
	if w.queued[n] {
		return
	}
	w.queued[n] = true
	w.queue = append(w.queue, n)
}

func (w *worklist) pop() *cfg.Node {
	n := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, n)
	return n
}

func (w *worklist) empty() bool {
	return len(w.queue) == 0
}
