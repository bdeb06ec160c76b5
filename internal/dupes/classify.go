package dupes

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/afero"
)

// Classification is the outcome of checking one bucket.
type Classification struct {
	// Groups are the duplicate groups found in the bucket.
	Groups []Group
	// Skipped lists members that could not be read.
	Skipped []Skip
}

// Classifier splits a bucket of equally sized files into groups of identical
// content. Unreadable members are reported as skips, never grouped. The
// error return is reserved for cancellation and misconfiguration.
type Classifier interface {
	Classify(ctx context.Context, bucket Bucket) (Classification, error)
}

// NewClassifier returns the classifier selected by opt.
func NewClassifier(opt Options) (Classifier, error) {
	fsys := opt.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	switch opt.Strategy {
	case StrategyDigest, "":
		if _, err := NewHash(opt.Algorithm); err != nil {
			return nil, err
		}

		return DigestClassifier{Fs: fsys, Algorithm: opt.Algorithm, Verify: opt.Verify}, nil
	case StrategyCompare:
		return CompareClassifier{Fs: fsys}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q: must be one of %v", opt.Strategy, Strategies)
	}
}

// DigestClassifier groups files by whole-content digest. Two files with the
// same digest are taken to be identical unless Verify is set, in which case
// each digest group is re-checked byte by byte.
type DigestClassifier struct {
	Fs        afero.Fs
	Algorithm Algorithm
	Verify    bool
}

// Classify implements Classifier.
func (d DigestClassifier) Classify(ctx context.Context, bucket Bucket) (Classification, error) {
	var (
		result   Classification
		order    []string
		byDigest = make(map[string][]string)
	)

	for _, path := range bucket.Paths {
		sum, err := Digest(ctx, d.Fs, path, d.Algorithm)
		if err != nil {
			skip, ok := skipOf(err)
			if !ok {
				return Classification{}, err
			}

			result.Skipped = append(result.Skipped, skip)

			continue
		}

		if _, seen := byDigest[sum]; !seen {
			order = append(order, sum)
		}

		byDigest[sum] = append(byDigest[sum], path)
	}

	for _, sum := range order {
		members := byDigest[sum]
		if len(members) < 2 { //nolint:mnd // A duplicate needs two files
			continue
		}

		if !d.Verify {
			slices.Sort(members)
			result.Groups = append(result.Groups, Group{Size: bucket.Size, Digest: sum, Paths: members})

			continue
		}

		verified, err := compareGroups(ctx, d.Fs, bucket.Size, members)
		if err != nil {
			return Classification{}, err
		}

		for _, g := range verified.Groups {
			g.Digest = sum
			result.Groups = append(result.Groups, g)
		}

		result.Skipped = append(result.Skipped, verified.Skipped...)
	}

	return result, nil
}

// CompareClassifier groups files by comparing their bytes pairwise. It costs
// O(k²) comparisons for a bucket of k files but cannot confuse two files.
type CompareClassifier struct {
	Fs afero.Fs
}

// Classify implements Classifier.
func (c CompareClassifier) Classify(ctx context.Context, bucket Bucket) (Classification, error) {
	return compareGroups(ctx, c.Fs, bucket.Size, bucket.Paths)
}

// compareGroups takes each file not yet grouped as an anchor and compares it
// with every later file not yet grouped. A file that fails to read is never
// compared again. If the anchor itself fails, the files it matched so far
// stay free and are tried against the next anchor.
//
//nolint:gocognit // Pairwise bookkeeping
func compareGroups(ctx context.Context, fsys afero.Fs, size int64, members []string) (Classification, error) {
	var result Classification

	paths := slices.Clone(members)
	slices.Sort(paths)

	assigned := make([]bool, len(paths))
	failed := make([]bool, len(paths))

	fail := func(i int, err error) error {
		skip, ok := skipOf(err)
		if !ok {
			return err
		}

		failed[i] = true
		result.Skipped = append(result.Skipped, skip)

		return nil
	}

	for i := range paths {
		if assigned[i] || failed[i] {
			continue
		}

		group := []int{i}

		for j := i + 1; j < len(paths) && !failed[i]; j++ {
			if assigned[j] || failed[j] {
				continue
			}

			equal, err := Equal(ctx, fsys, paths[i], paths[j])
			if err != nil {
				culprit := j

				var fe *FileError
				if errors.As(err, &fe) && fe.Path == paths[i] {
					culprit = i
				}

				if err := fail(culprit, err); err != nil {
					return Classification{}, err
				}

				continue
			}

			if equal {
				group = append(group, j)
			}
		}

		if failed[i] || len(group) < 2 { //nolint:mnd // A duplicate needs two files
			continue
		}

		g := Group{Size: size, Paths: make([]string, 0, len(group))}

		for _, k := range group {
			assigned[k] = true
			g.Paths = append(g.Paths, paths[k])
		}

		result.Groups = append(result.Groups, g)
	}

	return result, nil
}
