package optimizer

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/l3aro/go-gflow/pkg/jast"
)

// InternalError reports an optimizer invariant violation while processing
// one method. The program may be partially rewritten and must not be used.
type InternalError struct {
	Method string
	Value  any
	Stack  []byte
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal optimizer error in %s: %v", e.Method, e.Value)
}

// Stats summarizes a Driver.Run.
type Stats struct {
	Iterations     int      `json:"iterations"`
	Converged      bool     `json:"converged"`
	Methods        int      `json:"methods"`
	ChangedMethods []string `json:"changed_methods,omitempty"`
}

// Changed reports whether any method was rewritten.
func (s Stats) Changed() bool {
	return len(s.ChangedMethods) > 0
}

// Driver repeats the dataflow optimizer and dead code elimination over a
// program until a round changes nothing or the iteration limit is reached.
type Driver struct {
	settings
	dataflow *DataflowOptimizer
	cleanup  *DeadCodeElimination
}

// NewDriver creates a driver; options apply to every pass it runs.
func NewDriver(opts ...Option) *Driver {
	s := newSettings(opts)
	return &Driver{
		settings: s,
		dataflow: &DataflowOptimizer{settings: s, cleanup: &DeadCodeElimination{settings: s}},
		cleanup:  &DeadCodeElimination{settings: s},
	}
}

// Run optimizes prog in place. A panic inside a pass is returned as an
// *InternalError naming the method; cancellation returns ctx.Err().
func (d *Driver) Run(ctx context.Context, prog *jast.Program) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Driver.Run",
		trace.WithAttributes(attribute.Int("program.methods", len(prog.Methods))),
	)
	defer span.End()

	var stats Stats
	changed := make(map[*jast.Method]bool)
	for _, m := range prog.Methods {
		if m.Body != nil {
			stats.Methods++
		}
	}

	for stats.Iterations < d.maxIterations {
		stats.Iterations++
		roundChanged, err := d.round(ctx, prog, changed)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return d.finish(stats, prog, changed), err
		}
		if !roundChanged {
			stats.Converged = true
			break
		}
	}

	stats = d.finish(stats, prog, changed)
	span.SetAttributes(
		attribute.Int("driver.iterations", stats.Iterations),
		attribute.Bool("driver.converged", stats.Converged),
	)
	recordRun(ctx, stats.Iterations, stats.Converged)
	if !stats.Converged {
		d.logger.Warn("optimizer did not converge", "iterations", stats.Iterations)
	}
	return stats, nil
}

func (d *Driver) round(ctx context.Context, prog *jast.Program, changed map[*jast.Method]bool) (bool, error) {
	dirty := false
	for _, m := range prog.Methods {
		if err := ctx.Err(); err != nil {
			return dirty, err
		}
		if m.Body == nil {
			continue
		}
		c, err := d.method(ctx, prog, m)
		if err != nil {
			return dirty, err
		}
		if c {
			changed[m] = true
			dirty = true
		}
	}
	return dirty, nil
}

// method runs the passes over m. When the dataflow pass changes nothing,
// dead code elimination still runs on its own to fold constants the
// source spelled out literally.
func (d *Driver) method(ctx context.Context, prog *jast.Program, m *jast.Method) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InternalError{Method: qualifiedName(m), Value: r, Stack: debug.Stack()}
		}
	}()

	changed = d.dataflow.ExecMethod(ctx, prog, m)
	if !changed && d.dce {
		changed = d.cleanup.ExecMethod(ctx, m)
	}
	return changed, nil
}

func (d *Driver) finish(stats Stats, prog *jast.Program, changed map[*jast.Method]bool) Stats {
	stats.ChangedMethods = nil
	for _, m := range prog.Methods {
		if changed[m] {
			stats.ChangedMethods = append(stats.ChangedMethods, qualifiedName(m))
		}
	}
	return stats
}

func qualifiedName(m *jast.Method) string {
	if m.Class == "" {
		return m.Name
	}
	return m.Class + "." + m.Name
}
