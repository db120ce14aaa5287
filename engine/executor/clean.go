package executor

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pyworkflow/dispatch/pkg/logger"
	"github.com/spf13/afero"
)

// protectedDirs are never descended into or removed by the cleaner.
var protectedDirs = []string{".git", ".venv", "venv", "node_modules"}

// Cleaner removes cache directories and build artifacts that match
// doublestar patterns relative to the root of fs.
type Cleaner struct {
	fs       afero.Fs
	patterns []string
}

// NewCleaner returns a cleaner over fs. Use afero.NewBasePathFs to root an
// OS filesystem at the project directory.
func NewCleaner(fs afero.Fs, patterns []string) *Cleaner {
	return &Cleaner{fs: fs, patterns: append([]string(nil), patterns...)}
}

// Clean removes every match and returns the removed paths in sorted order.
func (c *Cleaner) Clean(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx)
	matches, err := c.match()
	if err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := c.fs.RemoveAll(m); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", m, err)
		}
		log.Debug("Removed path", "path", m)
		removed = append(removed, m)
	}
	return removed, nil
}

func (c *Cleaner) match() ([]string, error) {
	fsys := afero.NewIOFS(c.fs)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range c.patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid clean pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand clean pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if isProtected(m) {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return pruneNested(out), nil
}

func isProtected(p string) bool {
	for _, part := range strings.Split(path.Clean(p), "/") {
		for _, dir := range protectedDirs {
			if part == dir {
				return true
			}
		}
	}
	return false
}

// pruneNested drops paths whose parent is already being removed. Input must
// be sorted.
func pruneNested(sorted []string) []string {
	out := sorted[:0:0]
	for _, p := range sorted {
		if len(out) > 0 && strings.HasPrefix(p, out[len(out)-1]+"/") {
			continue
		}
		out = append(out, p)
	}
	return out
}
