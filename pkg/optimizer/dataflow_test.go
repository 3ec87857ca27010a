package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-gflow/internal/config"
	"github.com/l3aro/go-gflow/pkg/gflow"
	"github.com/l3aro/go-gflow/pkg/jast"
)

func TestDataflowOptimizerExecMethod(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		returnType  string
		params      string
		body        string
		want        string
		wantChanged bool
	}{
		{
			name:        "constants propagate and fold",
			returnType:  "int",
			body:        "int i = 1; int j = i; return j + 1;",
			want:        "{\n  return 2;\n}",
			wantChanged: true,
		},
		{
			name:        "copies propagate",
			returnType:  "int",
			params:      "int p",
			body:        "int j = p; return j;",
			want:        "{\n  return p;\n}",
			wantChanged: true,
		},
		{
			name:       "block local original is not propagated out of its block",
			returnType: "int",
			body:       "int j; { int i = bar(); j = i; } return j + j;",
			want:       "{\n  int j;\n  {\n    int i = bar();\n    j = i;\n  }\n  return j + j;\n}",
		},
		{
			name:        "copy of a copy falls back to the visible variable",
			returnType:  "int",
			params:      "int p",
			body:        "int j; { int i = p + 1; j = i; } int k = j; return k;",
			want:        "{\n  int j;\n  {\n    int i = p + 1;\n    j = i;\n  }\n  return j;\n}",
			wantChanged: true,
		},
		{
			name:        "without cleanup",
			opts:        []Option{WithDeadCodeElimination(false)},
			returnType:  "int",
			body:        "int i = 1; int j = i; return j + 1;",
			want:        "{\n  int i;\n  int j;\n  return 1 + 1;\n}",
			wantChanged: true,
		},
		{
			name:       "liveness only",
			opts:       []Option{WithAnalyses(config.AnalysisLiveness)},
			returnType: "int",
			body:       "int i = 1; int j = i; return j + 1;",
			want:       "{\n  int i = 1;\n  int j = i;\n  return j + 1;\n}",
		},
		{
			name:       "nothing enabled",
			opts:       []Option{WithAnalyses()},
			returnType: "int",
			body:       "int i = 1; return i;",
			want:       "{\n  int i = 1;\n  return i;\n}",
		},
		{
			name:       "already optimal",
			returnType: "int",
			params:     "int p",
			body:       "return p + 1;",
			want:       "{\n  return p + 1;\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, m := parseSnippet(t, tt.returnType, tt.params, tt.body)
			changed := NewDataflowOptimizer(tt.opts...).ExecMethod(context.Background(), prog, m)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, jast.ToSource(m.Body))
		})
	}
}

func TestDataflowOptimizerNilBodyPanics(t *testing.T) {
	prog := jast.NewProgram()
	m := &jast.Method{Name: "external", ReturnType: jast.TypeVoid}
	prog.AddMethod(m)

	assert.Panics(t, func() {
		NewDataflowOptimizer().ExecMethod(context.Background(), prog, m)
	})
}

func TestDataflowOptimizerExec(t *testing.T) {
	prog, m := parseSnippet(t, "int", "int p", "int j = p; return j;")
	prog.AddMethod(&jast.Method{Name: "external", ReturnType: jast.TypeInt})

	changed, err := NewDataflowOptimizer().Exec(context.Background(), prog)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "{\n  return p;\n}", jast.ToSource(m.Body))

	changed, err = NewDataflowOptimizer().Exec(context.Background(), prog)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDataflowOptimizerExecCanceled(t *testing.T) {
	prog, m := parseSnippet(t, "int", "", "int i = 1; return i;")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	changed, err := NewDataflowOptimizer().Exec(ctx, prog)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, changed)
	assert.Equal(t, "{\n  int i = 1;\n  return i;\n}", jast.ToSource(m.Body))
}

func TestSettings(t *testing.T) {
	s := newSettings(nil)
	assert.Equal(t, gflow.DefaultMaxSteps, s.maxSteps)
	assert.Equal(t, DefaultMaxIterations, s.maxIterations)
	assert.True(t, s.dce)
	for _, name := range config.KnownAnalyses {
		assert.True(t, s.analyses[name], name)
	}

	s = newSettings([]Option{WithMaxSteps(0), WithMaxIterations(-1), WithLogger(nil)})
	assert.Equal(t, gflow.DefaultMaxSteps, s.maxSteps)
	assert.Equal(t, DefaultMaxIterations, s.maxIterations)
	assert.NotNil(t, s.logger)

	cfg := config.DefaultConfig()
	cfg.Solver.MaxSteps = 500
	cfg.Optimizer.MaxIterations = 3
	cfg.Optimizer.Analyses = []string{config.AnalysisCopy}
	cfg.Optimizer.DeadCodeElimination = false

	s = newSettings(FromConfig(cfg))
	assert.Equal(t, 500, s.maxSteps)
	assert.Equal(t, 3, s.maxIterations)
	assert.False(t, s.dce)
	assert.Equal(t, map[string]bool{config.AnalysisCopy: true}, s.analyses)
}

func TestForwardComponents(t *testing.T) {
	assert.Nil(t, NewDataflowOptimizer(WithAnalyses(config.AnalysisLiveness)).forward())
	assert.NotNil(t, NewDataflowOptimizer(WithAnalyses(config.AnalysisConstants)).forward())
	assert.NotNil(t, NewDataflowOptimizer().forward())
}
