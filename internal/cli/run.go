package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gar1t/groktest/internal/config"
	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/report"
	"github.com/gar1t/groktest/internal/runner"
	"github.com/gar1t/groktest/internal/scanner"
	"github.com/gar1t/groktest/internal/session"
)

var log = logrus.WithField("pkg", "cli")

const defaultConcurrency = 8

// fileResult is the outcome of testing one document: buffered output
// so concurrent files don't interleave, plus the summary or error.
type fileResult struct {
	filename string
	output   bytes.Buffer
	summary  domain.Summary
	err      error
	done     chan struct{}
}

func run(cmd *cobra.Command, args []string) error {
	store := session.Default()
	paths, err := resolvePaths(args, store)
	if err != nil {
		return err
	}

	cliCfg := map[string]any{}
	if flagFailFast {
		cliCfg["fail-fast"] = true
	}
	if flagShowSkipped {
		cliCfg["show-skipped"] = true
	}

	projectCfg, files, err := resolveFiles(paths)
	if err != nil {
		return err
	}

	if flagPreview {
		return preview(files)
	}

	results := testFiles(cmd.Context(), files, projectCfg, cliCfg)

	var summary domain.Summary
	runErrors := false
	for _, res := range results {
		fmt.Printf("Testing %s\n", relpath(res.filename))
		<-res.done
		if out := res.output.String(); out != "" {
			fmt.Print(out)
		}
		if res.err != nil {
			if !handleFileError(res.filename, res.err) {
				runErrors = true
			}
			continue
		}
		summary.Add(res.summary)
	}

	reporter := report.New(os.Stdout)
	code := reporter.PrintSummary(summary, flagShowSkipped)
	if runErrors && code == 0 {
		code = 1
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// resolvePaths applies --last: it either substitutes the saved paths
// or saves the given ones for next time.
func resolvePaths(args []string, store *session.Store) ([]string, error) {
	if flagLast {
		rec, err := store.Load()
		if err != nil {
			return nil, err
		}
		if len(rec.Paths) == 0 {
			return nil, &exitError{code: 2, msg: "Run at least one test before using --last"}
		}
		return rec.Paths, nil
	}
	if err := store.Save(session.Record{Paths: args}); err != nil {
		log.Warnf("error saving last run: %v", err)
	}
	return args, nil
}

// resolveFiles interprets the positional arguments: a project argument
// selects files through the project's include/exclude patterns, plain
// arguments are test files themselves.
func resolveFiles(paths []string) (map[string]any, []string, error) {
	if len(paths) == 0 {
		return nil, nil, nil
	}
	projectPath := config.ProjectCandidate(paths[0])
	if projectPath == "" {
		return nil, paths, nil
	}
	if len(paths) > 1 {
		return nil, nil, &exitError{
			code: 2,
			msg: fmt.Sprintf(
				"extra arguments '%s' to project path not currently supported",
				paths[1]),
		}
	}
	cfg, err := config.LoadProject(projectPath)
	if err != nil {
		log.Debugf("error loading project config from %s: %v", projectPath, err)
		return nil, paths, nil
	}
	if cfg == nil {
		return nil, paths, nil
	}
	files, err := projectFiles(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, files, nil
}

func projectFiles(cfg map[string]any) ([]string, error) {
	include := config.Strings(cfg["include"])
	if len(include) == 0 {
		return nil, &exitError{
			code: 2,
			msg:  fmt.Sprintf("Missing 'include' in 'tool.groktest' section in %s", config.Src(cfg)),
		}
	}
	exclude := config.Strings(cfg["exclude"])
	basepath := filepath.Dir(config.Src(cfg))
	return scanner.Scan(basepath, include, exclude)
}

// testFiles runs each document through the runner on a bounded worker
// pool. Each document owns its own runtime process; output buffers per
// file and is printed whole, in input order.
func testFiles(
	ctx context.Context,
	files []string,
	projectCfg, cliCfg map[string]any,
) []*fileResult {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)

	results := make([]*fileResult, len(files))
	for i, filename := range files {
		results[i] = &fileResult{filename: filename, done: make(chan struct{})}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency())
	for _, res := range results {
		g.Go(func() error {
			defer close(res.done)
			if err := ctx.Err(); err != nil {
				res.err = err
				return nil
			}
			base := baseConfig(res.filename, projectCfg, cliCfg)
			res.summary, res.err = runner.TestFile(res.filename, base, &res.output)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		stop()
	}()
	return results
}

// baseConfig merges the config layers below front matter for one file.
// Without an explicit project, project config is discovered from the
// file's ancestor directories.
func baseConfig(filename string, projectCfg, cliCfg map[string]any) map[string]any {
	if projectCfg == nil {
		projectCfg = config.FindProject(filename)
	}
	merged := config.DeepMerge(map[string]any{}, projectCfg)
	return config.DeepMerge(merged, cliCfg)
}

func concurrency() int {
	if flagConcurrency > 0 {
		return flagConcurrency
	}
	return min(defaultConcurrency, runtime.NumCPU())
}

// handleFileError reports a per-file error. Returns true when the
// error is benign (the file is skipped), false when it should force a
// failing exit.
func handleFileError(filename string, err error) bool {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warnf("%s does not exist, skipping", filename)
		return true
	case isDirError(err):
		log.Warnf("%s is a directory, skipping", filename)
		return true
	case errors.Is(err, domain.ErrTestTypeNotSupported):
		log.Warnf("test type for %s is not supported, skipping: %v", filename, err)
		return true
	case errors.Is(err, context.Canceled):
		log.Warnf("interrupted before testing %s", filename)
		return false
	default:
		log.Errorf("error testing %s: %v", filename, err)
		return false
	}
}

func isDirError(err error) bool {
	return errors.Is(err, syscall.EISDIR)
}

func relpath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}
	return rel
}
