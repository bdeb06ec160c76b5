package dupes

import (
	"cmp"
	"errors"
	"slices"

	"github.com/spf13/afero"
)

var errNotRegular = errors.New("not a regular file")

// Partition buckets paths by size. Empty files, files smaller than minSize
// and sizes held by a single file are dropped. Files that cannot be sized
// are returned as skips. Buckets are ordered by size, largest first, and
// their paths keep the input order.
func Partition(fsys afero.Fs, paths []string, minSize int64) ([]Bucket, []Skip) {
	bySize := make(map[int64][]string)

	var skipped []Skip

	for _, path := range paths {
		info, err := fsys.Stat(path)
		if err == nil && !info.Mode().IsRegular() {
			err = errNotRegular
		}

		if err != nil {
			skipped = append(skipped, Skip{Path: path, Kind: KindUnreadable, Err: err})

			continue
		}

		size := info.Size()
		if size == 0 || size < minSize {
			continue
		}

		bySize[size] = append(bySize[size], path)
	}

	buckets := make([]Bucket, 0, len(bySize))

	for size, members := range bySize {
		if len(members) < 2 { //nolint:mnd // A duplicate needs two files
			continue
		}

		buckets = append(buckets, Bucket{Size: size, Paths: members})
	}

	slices.SortFunc(buckets, func(a, b Bucket) int {
		return cmp.Compare(b.Size, a.Size)
	})

	return buckets, skipped
}
