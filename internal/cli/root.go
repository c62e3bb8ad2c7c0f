// Package cli implements the groktest command surface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the released version string.
const Version = "0.3.0"

var (
	flagPreview     bool
	flagLast        bool
	flagFailFast    bool
	flagConcurrency int
	flagShowSkipped bool
	flagDebug       bool
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

var rootCmd = &cobra.Command{
	Use:   "groktest [PROJECT [SUITE]] | [FILE...]",
	Short: "Run tests embedded in documentation",
	Long: `Groktest runs the examples in plain-text documents: prompt-prefixed
expressions are evaluated in a language runtime and their output is
checked against the expected output that follows them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logrus.WarnLevel
		if flagDebug {
			level = logrus.DebugLevel
		}
		logrus.SetLevel(level)
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args)
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("Groktest %s\n", Version))
	rootCmd.Flags().BoolVar(&flagPreview, "preview", false, "show tests without running them")
	rootCmd.Flags().BoolVar(&flagLast, "last", false, "re-run last tests")
	rootCmd.Flags().BoolVarP(&flagFailFast, "fail-fast", "f", false, "stop on the first error for a file")
	rootCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "C", 0, "max number of concurrent test files")
	rootCmd.Flags().BoolVar(&flagShowSkipped, "show-skipped", false, "show skipped tests in output")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "show debug info")
}

// Execute runs the CLI and returns the process exit code: 0 all tests
// passed, 1 at least one test failed, 2 no tests were run, 3 on
// unexpected errors.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.msg != "" {
			fmt.Fprintln(os.Stderr, exit.msg)
		}
		return exit.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 3
}
