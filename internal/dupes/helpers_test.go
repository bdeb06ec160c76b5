package dupes

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// denyFs refuses to open or stat the listed paths.
type denyFs struct {
	afero.Fs

	open map[string]bool
	stat map[string]bool
}

func (d denyFs) Open(name string) (afero.File, error) {
	if d.open[name] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}

	return d.Fs.Open(name)
}

func (d denyFs) Stat(name string) (fs.FileInfo, error) {
	if d.stat[name] {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrPermission}
	}

	return d.Fs.Stat(name)
}

// writeTree creates files relative to root with the given contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

// writeMem creates files in an in-memory filesystem.
func writeMem(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()

	for path, content := range files {
		if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}

		if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// duplicateFixture lays out two duplicate sets, a unique file of the same
// size and an empty file, and returns the absolute root.
func duplicateFixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"dir1/test1":           "This is test1",
		"dir1/dir2/test1x":     "This is test1",
		"dir1/dir2/dir3/test2": "This is test2",
		"dir4/test2x":          "This is test2",
		"dir5/test2xx":         "This is test2",
		"dir5/dir6/test3":      "This is test3",
	})
	writeTree(t, root, map[string]string{"dir5/dir6/emptyfile.txt": ""})

	return root
}

// abs joins slash-separated relative paths onto root.
func abs(root string, rels ...string) []string {
	paths := make([]string, 0, len(rels))
	for _, rel := range rels {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(rel)))
	}

	slices.Sort(paths)

	return paths
}

// membership renders groups in a form independent of group order.
func membership(groups []Group) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		paths := slices.Clone(g.Paths)
		slices.Sort(paths)
		keys = append(keys, strings.Join(paths, "|"))
	}

	slices.Sort(keys)

	return keys
}

// groupsOf builds the expected membership from path lists.
func groupsOf(lists ...[]string) []string {
	groups := make([]Group, 0, len(lists))
	for _, l := range lists {
		groups = append(groups, Group{Paths: l})
	}

	return membership(groups)
}
