package optimizer

import (
	"github.com/l3aro/go-gflow/internal/config"
	"github.com/l3aro/go-gflow/internal/log"
	"github.com/l3aro/go-gflow/pkg/gflow"
)

// DefaultMaxIterations bounds Driver.Run when no limit is configured.
const DefaultMaxIterations = 10

// settings is shared by every pass in this package.
type settings struct {
	logger        log.Logger
	maxSteps      int
	maxIterations int
	analyses      map[string]bool
	dce           bool
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:        log.Nop(),
		maxSteps:      gflow.DefaultMaxSteps,
		maxIterations: DefaultMaxIterations,
		analyses:      make(map[string]bool),
		dce:           true,
	}
	for _, name := range config.KnownAnalyses {
		s.analyses[name] = true
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures the optimizer passes.
type Option func(*settings)

// WithLogger sets the logger passes report to. The default discards.
func WithLogger(l log.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxSteps caps node visits per solve.
func WithMaxSteps(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithMaxIterations caps the rounds Driver.Run performs.
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithAnalyses enables exactly the named analyses; see
// config.KnownAnalyses.
func WithAnalyses(names ...string) Option {
	return func(s *settings) {
		s.analyses = make(map[string]bool, len(names))
		for _, name := range names {
			s.analyses[name] = true
		}
	}
}

// WithDeadCodeElimination switches the cleanup pass on or off.
func WithDeadCodeElimination(enabled bool) Option {
	return func(s *settings) {
		s.dce = enabled
	}
}

// FromConfig translates the optimizer and solver sections of cfg.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithMaxSteps(cfg.Solver.MaxSteps),
		WithMaxIterations(cfg.Optimizer.MaxIterations),
		WithAnalyses(cfg.Optimizer.Analyses...),
		WithDeadCodeElimination(cfg.Optimizer.DeadCodeElimination),
	}
}
