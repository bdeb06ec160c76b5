package dupes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// Collection is the set of regular files found under a root.
type Collection struct {
	// Root is the absolute, cleaned root directory.
	Root string
	// Paths are absolute file paths, sorted.
	Paths []string
	// Skipped lists directories that could not be listed.
	Skipped []Skip
}

// collector gathers paths from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu      sync.Mutex
	paths   []string
	skipped []Skip
}

func (c *collector) add(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paths = append(c.paths, path)
}

func (c *collector) addSkip(skip Skip) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.skipped = append(c.skipped, skip)
}

func (c *collector) count() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return int64(len(c.paths))
}

// finalize sorts the collected paths so results do not depend on walk scheduling.
func (c *collector) finalize(root string) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()

	slices.Sort(c.paths)
	slices.SortFunc(c.skipped, func(a, b Skip) int { return strings.Compare(a.Path, b.Path) })

	return &Collection{Root: root, Paths: c.paths, Skipped: c.skipped}
}

// ResolveRoot returns the absolute form of path after checking that it is an
// existing directory.
func ResolveRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", ErrPathNotFound, path)
	case err != nil:
		return "", fmt.Errorf("accessing path %q: %w", path, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %q", ErrNotADirectory, path)
	}

	return abs, nil
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// matchPattern returns the first exclusion regex matching path, if any.
func matchPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// extensionFilter decides by suffix whether a file is collected.
type extensionFilter struct {
	include []string
	exclude []string
}

func newExtensionFilter(extensions []string) extensionFilter {
	var f extensionFilter

	for _, e := range extensions { //nolint:varnamelen // e is standard for element in range
		e = strings.Trim(e, "'\"")

		if rest, ok := strings.CutPrefix(e, "!"); ok {
			f.exclude = append(f.exclude, rest)
		} else if e != "" {
			f.include = append(f.include, e)
		}
	}

	return f
}

// allows reports whether path passes the filter. Excludes win over includes.
func (f extensionFilter) allows(path string) bool {
	for _, ext := range f.exclude {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for _, ext := range f.include {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// compileExcludes compiles the exclusion patterns of a filter.
func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		regexes = append(regexes, re)
	}

	return regexes, nil
}

// Collect returns every regular file under root that passes filter.
// Symlinks are neither followed nor reported.
func Collect(ctx context.Context, root string, filter Filter, log logrus.FieldLogger) (*Collection, error) {
	abs, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = discard()
	}

	return collectWithProgress(ctx, abs, Options{Filter: filter}, log, nil)
}

// walk traverses root in parallel and feeds c. root must be absolute and clean.
//
//nolint:gocognit // Walk callback keeps all filtering in one place.
func walk(ctx context.Context, root string, filter Filter, log logrus.FieldLogger, c *collector) error {
	if filter.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	excludes, err := compileExcludes(filter.Excludes)
	if err != nil {
		return err
	}

	extensions := newExtensionFilter(filter.Extensions)

	log.WithFields(logrus.Fields{
		"root":     root,
		"include":  extensions.include,
		"exclude":  extensions.exclude,
		"patterns": filter.Excludes,
		"depth":    filter.Depth,
	}).Debug("collecting files")

	conf := &fastwalk.Config{
		Follow: false,
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).WithField("path", path).Debug("skipping unreadable entry")
			c.addSkip(Skip{Path: path, Kind: KindTraversal, Err: err})

			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if path == root {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			log.WithField("path", path).Debug("skipping symlink")

			return nil
		}

		if filter.Depth > 0 && calculateDepth(path, root) > filter.Depth {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if re := matchPattern(path, excludes); re != nil {
			log.WithFields(logrus.Fields{"path": path, "pattern": re.String()}).Debug("excluding")

			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if !extensions.allows(path) {
			return nil
		}

		c.add(path)

		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	// A cancellation that lands after the last callback still discards the walk.
	return ctx.Err()
}

// startProgressReporter invokes progress.Scanned on each tick until ctx is done.
func startProgressReporter(ctx context.Context, c *collector, progress Progress, interval time.Duration) {
	if progress == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				progress.Scanned(c.count())
			case <-ctx.Done():
				return
			}
		}
	}()
}
