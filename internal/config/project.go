package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/frontmatter"
)

var log = logrus.WithField("pkg", "config")

// projectFiles are the project config candidates looked for in each
// ancestor directory, in order.
var projectFiles = []string{"pyproject.toml", "Grokfile.toml"}

// LoadProject reads project config from a TOML file. For
// pyproject.toml the `[tool.groktest]` table is returned; Grokfile.toml
// is the config itself. A missing groktest table yields nil. The
// result records the source path under the synthetic __src__ key.
func LoadProject(filename string) (map[string]any, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := toml.Unmarshal(raw, &data); err != nil {
		return nil, domain.NewError("config", filename, 0, "failed to parse project file",
			fmt.Errorf("%w: %v", domain.ErrProjectDecode, err))
	}
	log.Debugf("using project config in %s", filename)
	cfg := data
	if filepath.Base(filename) == "pyproject.toml" {
		tool, ok := nestedMap(data, "tool", "groktest")
		if !ok {
			return nil, nil
		}
		cfg = tool
	}
	cfg[frontmatter.SrcKey] = filename
	return cfg, nil
}

// FindProject walks upward from the directory of path looking for a
// project file with groktest config. Decode errors are reported once
// and stop the walk.
func FindProject(path string) map[string]any {
	for dir := range parents(path) {
		for _, name := range projectFiles {
			candidate := filepath.Join(dir, name)
			cfg, err := LoadProject(candidate)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				log.Warnf("error loading project config from %s: %v", candidate, err)
				return nil
			}
			if cfg != nil {
				return cfg
			}
		}
	}
	return nil
}

// ProjectCandidate resolves a CLI PROJECT argument to a project file
// path: the argument itself when it is a TOML file, otherwise a known
// project file inside the argument directory.
func ProjectCandidate(arg string) string {
	candidates := []string{arg}
	for _, name := range projectFiles {
		candidates = append(candidates, filepath.Join(arg, name))
	}
	for _, path := range candidates {
		if !strings.EqualFold(filepath.Ext(path), ".toml") {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func parents(path string) func(func(string) bool) {
	return func(yield func(string) bool) {
		last := ""
		dir := filepath.Dir(path)
		for dir != last {
			if !yield(dir) {
				return
			}
			last = dir
			dir = filepath.Dir(dir)
		}
	}
}
