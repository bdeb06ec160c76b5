package dupes

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Strategy selects how files of equal size are checked for equal content.
type Strategy string

const (
	// StrategyDigest groups files by a whole-content digest.
	StrategyDigest Strategy = "digest"
	// StrategyCompare groups files by pairwise byte comparison.
	StrategyCompare Strategy = "compare"
)

// Strategies lists the accepted strategies.
//
//nolint:gochecknoglobals // Lookup table
var Strategies = []Strategy{StrategyDigest, StrategyCompare}

// Bucket holds files that share the same byte length.
type Bucket struct {
	// Size is the common size in bytes. Always positive.
	Size int64
	// Paths are the member files, sorted.
	Paths []string
}

// Group is a set of at least two files with identical content.
type Group struct {
	// Size is the size of each member in bytes.
	Size int64
	// Digest is the hex content digest, empty when grouped by direct comparison.
	Digest string
	// Paths are the absolute member paths, sorted.
	Paths []string
}

// Reclaimable returns the bytes that would be freed by keeping a single copy.
func (g Group) Reclaimable() int64 {
	return g.Size * int64(len(g.Paths)-1)
}

// Skip records a file or directory left out of the result because of an error.
type Skip struct {
	Path string
	Kind Kind
	Err  error
}

// Report is the result of a duplicate scan.
type Report struct {
	// Root is the absolute directory that was scanned.
	Root string
	// Groups are the duplicate groups, largest files first.
	Groups []Group
	// Files is the number of regular files collected.
	Files int
	// Candidates is the number of files that shared their size with another file.
	Candidates int
	// Skipped lists entries excluded because of per-file errors.
	Skipped []Skip
	// Elapsed is the total time taken.
	Elapsed time.Duration
}

// Paths returns the groups as plain lists of paths.
func (r *Report) Paths() [][]string {
	paths := make([][]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		paths = append(paths, g.Paths)
	}

	return paths
}

// Duplicates returns the number of redundant copies across all groups.
func (r *Report) Duplicates() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Paths) - 1
	}

	return n
}

// Reclaimable returns the bytes held by redundant copies across all groups.
func (r *Report) Reclaimable() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.Reclaimable()
	}

	return total
}

// Options configures a duplicate scan.
type Options struct {
	// Path is the directory to scan.
	Path string
	// Filter restricts which files are collected.
	Filter Filter
	// MinSize is the minimum file size in bytes. Empty files are always ignored.
	MinSize int64
	// Strategy selects the content comparison.
	Strategy Strategy
	// Algorithm is the digest used by StrategyDigest.
	Algorithm Algorithm
	// Verify re-checks digest groups byte by byte.
	Verify bool
	// Workers is the number of buckets classified concurrently.
	Workers int
	// ProgressInterval controls the cadence of scan progress updates.
	ProgressInterval time.Duration
	// Fs answers size and content queries. Defaults to the OS filesystem.
	Fs afero.Fs
	// Logger receives diagnostics. Nil discards them.
	Logger logrus.FieldLogger
}

// Filter restricts the files picked up during collection.
type Filter struct {
	// Extensions to include (empty = all). A '!' prefix excludes instead.
	Extensions []string
	// Excludes contains regex patterns matched against slash-separated paths.
	Excludes []string
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
}

// Progress receives updates while a scan runs. All methods may be called
// from multiple goroutines.
type Progress interface {
	// Scanned reports the number of files collected so far.
	Scanned(files int64)
	// Classifying announces the number of candidate files about to be compared.
	Classifying(candidates int)
	// Classified reports that n more candidate files have been compared.
	Classified(n int)
}
