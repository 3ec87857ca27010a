package gflow

import (
	"github.com/l3aro/go-gflow/pkg/cfg"
)

// PrintAssumptions renders g like cfg.Print with every edge target
// followed by the assumption stored on that edge:
//
//	3: WRITE(i, 1) -> [4 {i = 1}]
func PrintAssumptions[A Assumption[A]](g *cfg.Graph, edges AssumptionMap[A]) string {
	return cfg.PrintAnnotated(g, func(e *cfg.Edge) string {
		return Format(edges[e])
	})
}
