package runtime

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gar1t/groktest/internal/domain"
)

var log = logrus.WithField("pkg", "runtime")

//go:embed bootstrap.py
var pythonBootstrap []byte

// PythonRuntime evaluates test expressions in a long-lived python3
// subprocess. Requests and responses are JSON values framed one per
// line on the child's standard streams, so embedded newlines in
// expressions and output survive transport.
type PythonRuntime struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	script string // temp file holding the bootstrap
}

type pythonResponse struct {
	Code       int    `json:"code"`
	Output     string `json:"output"`
	ShortError string `json:"short-error"`
}

func (r *PythonRuntime) Start(config map[string]any) error {
	script, err := writeBootstrap()
	if err != nil {
		return err
	}
	args := []string{script}
	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		args = append(args, "--debug")
	}
	cmd := exec.Command(pythonExe(config), args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		os.Remove(script)
		return err
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	r.cmd = cmd
	r.stdin = stdin
	r.stdout = scanner
	r.script = script
	return nil
}

func pythonExe(config map[string]any) string {
	if py, ok := config["python"].(map[string]any); ok {
		if exe, ok := py["exe"].(string); ok && exe != "" {
			return exe
		}
	}
	return "python3"
}

func writeBootstrap() (string, error) {
	f, err := os.CreateTemp("", "groktest-python-*.py")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(pythonBootstrap); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), f.Close()
}

func (r *PythonRuntime) IsAvailable() bool {
	return r.cmd != nil
}

// InitForTests evaluates the configured python.init preamble in the
// runtime's global scope.
func (r *PythonRuntime) InitForTests(config map[string]any) error {
	expr := initExpr(config)
	if expr == "" {
		return nil
	}
	resp, err := r.roundTrip(map[string]any{"type": "init", "expr": expr})
	if err != nil {
		return err
	}
	return expectAck(resp)
}

func initExpr(config map[string]any) string {
	py, ok := config["python"].(map[string]any)
	if !ok {
		return ""
	}
	switch val := py["init"].(type) {
	case string:
		return val
	case []any:
		var lines []string
		for _, item := range val {
			lines = append(lines, fmt.Sprint(item))
		}
		return joinLines(lines)
	case nil:
		return ""
	default:
		log.Warnf("python init must be a string or list of strings (got %T)", val)
		return ""
	}
}

func joinLines(lines []string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

func (r *PythonRuntime) ExecTestExpr(test domain.Test, options map[string]any) (domain.TestOutput, error) {
	raw, err := r.roundTrip(map[string]any{
		"type":     "test",
		"expr":     test.Expr,
		"filename": test.Filename,
		"line":     test.Line,
		"options":  options,
	})
	if err != nil {
		return domain.TestOutput{}, err
	}
	var resp pythonResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.TestOutput{}, domain.NewError("runtime", test.Filename, test.Line, "invalid runtime response", err)
	}
	return domain.TestOutput{
		Code:       resp.Code,
		Output:     resp.Output,
		ShortError: resp.ShortError,
	}, nil
}

func (r *PythonRuntime) HandleTestMatch(vars map[string]any) error {
	if len(vars) == 0 {
		return nil
	}
	resp, err := r.roundTrip(map[string]any{"type": "vars", "vars": vars})
	if err != nil {
		return err
	}
	return expectAck(resp)
}

// roundTrip writes one JSON request line and reads one JSON response
// line.
func (r *PythonRuntime) roundTrip(req map[string]any) (json.RawMessage, error) {
	if r.cmd == nil {
		return nil, domain.NewError("runtime", "", 0, "python runtime not started", nil)
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := r.stdin.Write(append(encoded, '\n')); err != nil {
		return nil, domain.NewError("runtime", "", 0, "python runtime write failed", err)
	}
	if !r.stdout.Scan() {
		err := r.stdout.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, domain.NewError("runtime", "", 0, "python runtime closed unexpectedly", err)
	}
	return json.RawMessage(r.stdout.Text()), nil
}

func expectAck(raw json.RawMessage) error {
	var resp string
	if err := json.Unmarshal(raw, &resp); err != nil || resp != "ack" {
		return domain.NewError("runtime", "", 0, fmt.Sprintf("unexpected runtime response %s", raw), nil)
	}
	return nil
}

// Stop closes the runtime: an empty request line asks the child to
// exit; if it doesn't within the timeout it is killed.
func (r *PythonRuntime) Stop(timeout time.Duration) error {
	if r.cmd == nil {
		return nil
	}
	cmd := r.cmd
	r.cmd = nil
	defer func() {
		if r.script != "" {
			os.Remove(r.script)
			r.script = ""
		}
	}()
	fmt.Fprintln(r.stdin)
	r.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		log.Debugf("python runtime did not exit in %s, killing", timeout)
		_ = cmd.Process.Kill()
		<-done
		return nil
	}
}
