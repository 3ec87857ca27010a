// Package optimizer drives the dataflow analyses over programs and cleans
// up the code they leave behind.
//
// A DataflowOptimizer pass over one method builds a fresh CFG, runs the
// combined forward analysis (unreachable code, constants, copies), builds
// another CFG and runs backward liveness. When either solve rewrote the
// body, DeadCodeElimination tidies it. Driver repeats this until nothing
// changes.
package optimizer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/l3aro/go-gflow/internal/config"
	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/gflow"
	"github.com/l3aro/go-gflow/pkg/gflow/constants"
	"github.com/l3aro/go-gflow/pkg/gflow/copyprop"
	"github.com/l3aro/go-gflow/pkg/gflow/liveness"
	"github.com/l3aro/go-gflow/pkg/gflow/unreachable"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// DataflowOptimizer runs the analyses of pkg/gflow and applies their
// rewrites.
type DataflowOptimizer struct {
	settings
	cleanup *DeadCodeElimination
}

// NewDataflowOptimizer creates an optimizer. All analyses and dead code
// elimination are enabled unless options say otherwise.
func NewDataflowOptimizer(opts ...Option) *DataflowOptimizer {
	s := newSettings(opts)
	return &DataflowOptimizer{
		settings: s,
		cleanup:  &DeadCodeElimination{settings: s},
	}
}

// Exec optimizes every method with a body. It reports whether any method
// changed and stops early when ctx is done.
func (o *DataflowOptimizer) Exec(ctx context.Context, prog *jast.Program) (bool, error) {
	changed := false
	for _, m := range prog.Methods {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		if m.Body == nil {
			continue
		}
		if o.ExecMethod(ctx, prog, m) {
			changed = true
		}
	}
	return changed, nil
}

// ExecMethod optimizes a single method and reports whether it changed. A
// method without a body violates the caller's contract and panics.
func (o *DataflowOptimizer) ExecMethod(ctx context.Context, prog *jast.Program, m *jast.Method) bool {
	if m.Body == nil {
		panic("optimizer: method " + m.Name + " has no body")
	}

	ctx, span := startMethodSpan(ctx, "DataflowOptimizer.ExecMethod", m)
	defer span.End()
	start := time.Now()

	forwardChanged := false
	if forward := o.forward(); forward != nil {
		g := cfg.Build(prog, m)
		_, forwardChanged = gflow.SolveIntegrated[*gflow.CombinedAssumption](g, forward, true, gflow.WithMaxSteps(o.maxSteps))
		span.AddEvent("forward_solved", trace.WithAttributes(
			attribute.Int("cfg.nodes", len(g.Nodes)),
			attribute.Bool("changed", forwardChanged),
		))
	}

	backwardChanged := false
	if o.analyses[config.AnalysisLiveness] {
		g := cfg.Build(prog, m)
		_, backwardChanged = gflow.SolveIntegrated[*liveness.Assumption](g, liveness.New(), false, gflow.WithMaxSteps(o.maxSteps))
		span.AddEvent("backward_solved", trace.WithAttributes(
			attribute.Int("cfg.nodes", len(g.Nodes)),
			attribute.Bool("changed", backwardChanged),
		))
	}

	changed := forwardChanged || backwardChanged
	if changed && o.dce {
		o.cleanup.ExecMethod(ctx, m)
	}

	span.SetAttributes(attribute.Bool("method.changed", changed))
	recordPass(ctx, "dataflow", time.Since(start), changed)
	o.logger.Debug("dataflow pass",
		"method", m.Name,
		"forward_changed", forwardChanged,
		"backward_changed", backwardChanged,
	)
	return changed
}

// forward assembles the combined forward analysis from the enabled
// components, or returns nil when none is enabled.
func (o *DataflowOptimizer) forward() *gflow.CombinedIntegratedAnalysis {
	var components []gflow.Component
	if o.analyses[config.AnalysisUnreachable] {
		components = append(components, gflow.Integrate[*unreachable.Assumption](config.AnalysisUnreachable, unreachable.New()))
	}
	if o.analyses[config.AnalysisConstants] {
		components = append(components, gflow.Integrate[*constants.Assumption](config.AnalysisConstants, constants.New()))
	}
	if o.analyses[config.AnalysisCopy] {
		components = append(components, gflow.Integrate[*copyprop.Assumption](config.AnalysisCopy, copyprop.New()))
	}
	if len(components) == 0 {
		return nil
	}
	return gflow.NewCombined(components...)
}
