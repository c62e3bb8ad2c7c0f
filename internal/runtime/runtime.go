// Package runtime defines the adapter contract between the core and a
// language runtime, plus the built-in Python and shell adapters.
//
// An adapter owns a subordinate interpreter and presents a blocking
// interface: one expression in, complete captured output back. All
// calls are serialized by the runner; adapters need not be
// thread-safe.
package runtime

import (
	"fmt"
	"time"

	"github.com/gar1t/groktest/internal/domain"
)

// Runtime is the narrow, language-agnostic contract the core dispatches
// tests through.
type Runtime interface {
	// Start spawns the underlying interpreter process.
	Start(config map[string]any) error
	// IsAvailable reports true after a successful Start and false
	// after Stop or a spawn failure.
	IsAvailable() bool
	// InitForTests applies runtime-specific initialization (e.g. a
	// preamble script). Called once after Start, before any test.
	InitForTests(config map[string]any) error
	// ExecTestExpr evaluates one test expression and returns its
	// captured output and exit status.
	ExecTestExpr(test domain.Test, options map[string]any) (domain.TestOutput, error)
	// HandleTestMatch binds named parse-match captures into the
	// runtime's variable scope.
	HandleTestMatch(vars map[string]any) error
	// Stop releases the interpreter process. Idempotent; called on
	// every termination path.
	Stop(timeout time.Duration) error
}

// StopTimeout is the default grace period for Stop.
const StopTimeout = 5 * time.Second

type factory func() Runtime

var registry = map[string]factory{
	"python": func() Runtime { return &PythonRuntime{} },
	"shell":  func() Runtime { return &ShellRuntime{} },
}

// Register installs a runtime factory under a key, replacing any
// existing registration.
func Register(name string, fn func() Runtime) {
	registry[name] = fn
}

// Init creates, starts and initializes the runtime registered under
// name.
func Init(name string, config map[string]any) (Runtime, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRuntimeNotSupported, name)
	}
	rt := fn()
	if err := rt.Start(config); err != nil {
		return nil, domain.NewError("runtime", "", 0, fmt.Sprintf("failed to start %s runtime", name), err)
	}
	if err := rt.InitForTests(config); err != nil {
		_ = rt.Stop(StopTimeout)
		return nil, domain.NewError("runtime", "", 0, fmt.Sprintf("failed to initialize %s runtime", name), err)
	}
	return rt, nil
}
