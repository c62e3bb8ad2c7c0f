package runner

import (
	"time"

	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/runtime"
)

// fakeRuntime is a scripted runtime for runner tests: expressions map
// to canned outputs, and every contract call is recorded.
type fakeRuntime struct {
	// outputs maps an expression to its canned output. Expressions
	// not scripted produce empty output.
	outputs map[string]domain.TestOutput
	// exec, when set, computes outputs instead of the outputs map.
	exec func(test domain.Test) domain.TestOutput

	started bool
	stopped bool
	inited  bool
	execed  []string
	bound   []map[string]any
}

var _ runtime.Runtime = (*fakeRuntime)(nil)

func (r *fakeRuntime) Start(config map[string]any) error {
	r.started = true
	return nil
}

func (r *fakeRuntime) IsAvailable() bool {
	return r.started && !r.stopped
}

func (r *fakeRuntime) InitForTests(config map[string]any) error {
	r.inited = true
	return nil
}

func (r *fakeRuntime) ExecTestExpr(test domain.Test, options map[string]any) (domain.TestOutput, error) {
	r.execed = append(r.execed, test.Expr)
	if r.exec != nil {
		return r.exec(test), nil
	}
	out, ok := r.outputs[test.Expr]
	if !ok {
		return domain.TestOutput{}, nil
	}
	return out, nil
}

func (r *fakeRuntime) HandleTestMatch(vars map[string]any) error {
	r.bound = append(r.bound, vars)
	return nil
}

func (r *fakeRuntime) Stop(timeout time.Duration) error {
	r.stopped = true
	return nil
}

// installFake routes runtime creation to fn for the duration of a
// test. The returned func restores the real initializer.
func installFake(fn func(name string, config map[string]any) (runtime.Runtime, error)) func() {
	saved := initRuntime
	initRuntime = fn
	return func() { initRuntime = saved }
}
