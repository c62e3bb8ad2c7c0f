package runtime

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/gar1t/groktest/internal/domain"
)

// ShellRuntime evaluates test expressions with a POSIX shell. Each
// expression runs in its own subprocess, but tests share a persistent
// temporary working directory and an environment that accumulates
// bound variables, so state carries across tests the way it does in a
// shell session.
type ShellRuntime struct {
	dir   string
	shell string
	init  string
	vars  map[string]string
}

func (r *ShellRuntime) Start(config map[string]any) error {
	dir, err := os.MkdirTemp("", "groktest-shell-")
	if err != nil {
		return err
	}
	r.dir = dir
	r.shell = shellExe(config)
	r.vars = map[string]string{}
	return nil
}

func shellExe(config map[string]any) string {
	if sh, ok := config["shell"].(map[string]any); ok {
		if exe, ok := sh["exe"].(string); ok && exe != "" {
			return exe
		}
	}
	return "/bin/bash"
}

func (r *ShellRuntime) IsAvailable() bool {
	return r.dir != ""
}

// InitForTests runs the configured shell.init commands in the test
// directory before any test.
func (r *ShellRuntime) InitForTests(config map[string]any) error {
	sh, ok := config["shell"].(map[string]any)
	if !ok {
		return nil
	}
	switch val := sh["init"].(type) {
	case nil:
		return nil
	case string:
		r.init = val
	case []any:
		var lines []string
		for _, item := range val {
			lines = append(lines, fmt.Sprint(item))
		}
		r.init = strings.Join(lines, "\n")
	default:
		log.Warnf("shell init must be a string or list of strings (got %T)", val)
		return nil
	}
	if r.init == "" {
		return nil
	}
	out, err := r.run(r.init, nil)
	if err != nil {
		return domain.NewError("runtime", "", 0, "shell init failed", fmt.Errorf("%v: %s", err, out))
	}
	return nil
}

func (r *ShellRuntime) ExecTestExpr(test domain.Test, options map[string]any) (domain.TestOutput, error) {
	if r.dir == "" {
		return domain.TestOutput{}, domain.NewError("runtime", test.Filename, test.Line, "shell runtime not started", nil)
	}
	out, err := r.run(test.Expr, options)
	if err == nil {
		return domain.TestOutput{Code: 0, Output: out}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return domain.TestOutput{
			Code:       1,
			Output:     out,
			ShortError: fmt.Sprintf("exit status %d", exitErr.ExitCode()),
		}, nil
	}
	return domain.TestOutput{}, domain.NewError("runtime", test.Filename, test.Line, "shell exec failed", err)
}

func (r *ShellRuntime) run(expr string, options map[string]any) (string, error) {
	cmd := exec.Command(r.shell, "-c", expr)
	cmd.Dir = r.dir
	cmd.Env = r.env()
	var raw []byte
	var err error
	if options != nil && options["stderr"] == false {
		raw, err = cmd.Output()
	} else {
		raw, err = cmd.CombinedOutput()
	}
	return string(raw), err
}

func (r *ShellRuntime) env() []string {
	env := os.Environ()
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env = append(env, name+"="+r.vars[name])
	}
	return env
}

// HandleTestMatch exports bound variables into the environment of
// subsequent tests.
func (r *ShellRuntime) HandleTestMatch(vars map[string]any) error {
	for name, val := range vars {
		r.vars[name] = fmt.Sprint(val)
	}
	return nil
}

func (r *ShellRuntime) Stop(timeout time.Duration) error {
	if r.dir == "" {
		return nil
	}
	dir := r.dir
	r.dir = ""
	return os.RemoveAll(dir)
}
