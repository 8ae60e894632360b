package matter

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProjectTol     = 1e-10
	DefaultProjectTarget  = 1e-12
	DefaultProjectMaxIter = 10
)

// ProjectOptions controls the constraint projection solvers.
//
// Tol is the weighted-residual norm the solver drives the state to.
// TargetTol is a cheaper early-exit threshold at or below Tol: a state
// already within TargetTol is left untouched so an already-converged
// trajectory is not disturbed. MaxIterations caps the position-level
// Newton loop, the only otherwise-unbounded loop in this package.
type ProjectOptions struct {
	Tol           float64 `yaml:"tol"`
	TargetTol     float64 `yaml:"target_tol"`
	MaxIterations int     `yaml:"max_iterations"`

	// QWeights and UWeights are optional diagonal weights on the
	// correction itself (state space, not error space); nil means the
	// plain minimum-norm correction.
	QWeights Vector `yaml:"q_weights"`
	UWeights Vector `yaml:"u_weights"`

	// Logger, when set, receives per-iteration residuals at debug level.
	Logger *slog.Logger `yaml:"-"`
}

func DefaultProjectOptions() ProjectOptions {
	return ProjectOptions{
		Tol:           DefaultProjectTol,
		TargetTol:     DefaultProjectTarget,
		MaxIterations: DefaultProjectMaxIter,
	}
}

// LoadProjectOptions reads options from a YAML file over the defaults.
func LoadProjectOptions(path string) (ProjectOptions, error) {
	opts := DefaultProjectOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("matter: parse %s: %w", path, err)
	}
	if err := opts.validate("LoadProjectOptions"); err != nil {
		return opts, err
	}
	return opts, nil
}

func (o ProjectOptions) validate(op string) error {
	if o.TargetTol < 0 || o.Tol < o.TargetTol {
		return &DomainError{Op: op, Detail: fmt.Sprintf("need tol >= target_tol >= 0, got tol=%g target_tol=%g", o.Tol, o.TargetTol)}
	}
	if o.MaxIterations < 1 {
		return &DomainError{Op: op, Detail: fmt.Sprintf("max_iterations must be at least 1, got %d", o.MaxIterations)}
	}
	for _, w := range [2]Vector{o.QWeights, o.UWeights} {
		for i, wi := range w {
			if wi <= 0 {
				return &DomainError{Op: op, Detail: fmt.Sprintf("state weight %d is %g, must be positive", i, wi)}
			}
		}
	}
	return nil
}
