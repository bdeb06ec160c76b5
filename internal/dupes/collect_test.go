package dupes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestCollect_NestedFilesAbsoluteAndSorted(t *testing.T) {
	root := duplicateFixture(t)

	collection, err := Collect(context.Background(), root, Filter{}, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	want := abs(root,
		"dir1/test1",
		"dir1/dir2/test1x",
		"dir1/dir2/dir3/test2",
		"dir4/test2x",
		"dir5/test2xx",
		"dir5/dir6/test3",
		"dir5/dir6/emptyfile.txt",
	)

	if !slices.Equal(collection.Paths, want) {
		t.Errorf("paths = %v\nwant %v", collection.Paths, want)
	}

	for _, p := range collection.Paths {
		if !filepath.IsAbs(p) {
			t.Errorf("path %q is not absolute", p)
		}
	}

	if collection.Root != root {
		t.Errorf("root = %q, want %q", collection.Root, root)
	}
}

func TestCollect_RelativeRootYieldsAbsolutePaths(t *testing.T) {
	root := duplicateFixture(t)
	t.Chdir(filepath.Join(root, "dir1"))

	collection, err := Collect(context.Background(), "./dir2/../dir2", Filter{}, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	want := abs(root, "dir1/dir2/test1x", "dir1/dir2/dir3/test2")

	// t.TempDir may live behind a symlink (macOS), so compare by resolved path.
	got := make([]string, 0, len(collection.Paths))
	for _, p := range collection.Paths {
		if !filepath.IsAbs(p) {
			t.Fatalf("path %q is not absolute", p)
		}

		resolved, err := filepath.EvalSymlinks(p)
		if err != nil {
			t.Fatal(err)
		}

		got = append(got, resolved)
	}

	for i, w := range want {
		resolved, err := filepath.EvalSymlinks(w)
		if err != nil {
			t.Fatal(err)
		}

		want[i] = resolved
	}

	if !slices.Equal(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
}

func TestCollect_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"real/file": "content"})

	if err := os.Symlink(filepath.Join(root, "real", "file"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	collection, err := Collect(context.Background(), root, Filter{}, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if want := abs(root, "real/file"); !slices.Equal(collection.Paths, want) {
		t.Errorf("paths = %v, want %v", collection.Paths, want)
	}
}

func TestCollect_UnlistableDirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok/f":     "same",
		"locked/g": "same",
		"z/h":      "same",
	})

	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	collection, err := Collect(context.Background(), root, Filter{}, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if want := abs(root, "ok/f", "z/h"); !slices.Equal(collection.Paths, want) {
		t.Errorf("paths = %v, want %v", collection.Paths, want)
	}

	if len(collection.Skipped) != 1 {
		t.Fatalf("expected one skip, got %v", collection.Skipped)
	}

	if s := collection.Skipped[0]; s.Path != locked || s.Kind != KindTraversal {
		t.Errorf("skip = %+v, want traversal skip of %s", s, locked)
	}

	report, err := Run(context.Background(), Options{Path: root}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if want := groupsOf(abs(root, "ok/f", "z/h")); !slices.Equal(membership(report.Groups), want) {
		t.Errorf("groups = %v, want %v", membership(report.Groups), want)
	}
}

func TestCollect_RootErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"file": "x"})

	_, err := Collect(context.Background(), filepath.Join(root, "missing"), Filter{}, nil)
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("missing root: got %v, want ErrPathNotFound", err)
	}

	_, err = Collect(context.Background(), filepath.Join(root, "file"), Filter{}, nil)
	if !errors.Is(err, ErrNotADirectory) {
		t.Errorf("file root: got %v, want ErrNotADirectory", err)
	}
}

func TestCollect_Filters(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":             "1",
		"b.log":             "2",
		"skip/c.txt":        "3",
		"deep/er/d.txt":     "4",
		"deep/e_test.txt":   "5",
		"deep/er/est/f.txt": "6",
	})

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "extension include",
			filter: Filter{Extensions: []string{".log"}},
			want:   abs(root, "b.log"),
		},
		{
			name:   "extension exclude",
			filter: Filter{Extensions: []string{"!_test.txt", "!.log"}},
			want:   abs(root, "a.txt", "skip/c.txt", "deep/er/d.txt", "deep/er/est/f.txt"),
		},
		{
			name:   "regex exclude prunes directory",
			filter: Filter{Excludes: []string{`/skip$`, `/deep/er/est`}},
			want:   abs(root, "a.txt", "b.log", "deep/er/d.txt", "deep/e_test.txt"),
		},
		{
			name:   "depth",
			filter: Filter{Depth: 2},
			want:   abs(root, "a.txt", "b.log", "skip/c.txt", "deep/e_test.txt"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collection, err := Collect(context.Background(), root, tt.filter, nil)
			if err != nil {
				t.Fatalf("Collect failed: %v", err)
			}

			if !slices.Equal(collection.Paths, tt.want) {
				t.Errorf("paths = %v\nwant %v", collection.Paths, tt.want)
			}
		})
	}
}

func TestCollect_InvalidFilter(t *testing.T) {
	root := t.TempDir()

	if _, err := Collect(context.Background(), root, Filter{Excludes: []string{"("}}, nil); err == nil {
		t.Error("expected error for invalid regex")
	}

	if _, err := Collect(context.Background(), root, Filter{Depth: -1}, nil); err == nil {
		t.Error("expected error for negative depth")
	}
}

func TestCollect_Cancelled(t *testing.T) {
	root := duplicateFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collection, err := Collect(ctx, root, Filter{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if collection != nil {
		t.Errorf("expected no collection, got %v", collection)
	}
}

func TestCalculateDepth(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "r")

	cases := map[string]int{
		root:                          0,
		filepath.Join(root, "a"):      1,
		filepath.Join(root, "a", "b"): 2,
	}

	for path, want := range cases {
		if got := calculateDepth(path, root); got != want {
			t.Errorf("calculateDepth(%q) = %d, want %d", path, got, want)
		}
	}
}
