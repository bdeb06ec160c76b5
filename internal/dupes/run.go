package dupes

import (
	"cmp"
	"context"
	"io"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// discard returns a logger that drops everything.
func discard() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// Run scans opt.Path for files with identical content.
//
// Files are collected, bucketed by size, and only buckets holding two or more
// files are checked for content, opt.Workers buckets at a time. Per-file errors
// exclude the file and are listed in Report.Skipped. Invalid options and an
// invalid root fail before any work begins.
//
// The scan can be cancelled via ctx, in which case no report is returned.
// Progress updates are sent to progress if it is not nil.
func Run(ctx context.Context, opt Options, progress Progress) (*Report, error) {
	log := opt.Logger
	if log == nil {
		log = discard()
	}

	if opt.Fs == nil {
		opt.Fs = afero.NewOsFs()
	}

	if opt.Workers <= 0 {
		opt.Workers = runtime.NumCPU()
	}

	classifier, err := NewClassifier(opt)
	if err != nil {
		return nil, err
	}

	root, err := ResolveRoot(opt.Path)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	collection, err := collectWithProgress(ctx, root, opt, log, progress)
	if err != nil {
		return nil, err
	}

	buckets, skipped := Partition(opt.Fs, collection.Paths, opt.MinSize)

	candidates := 0
	for _, b := range buckets {
		candidates += len(b.Paths)
	}

	log.WithFields(logrus.Fields{
		"files":      len(collection.Paths),
		"buckets":    len(buckets),
		"candidates": candidates,
		"strategy":   opt.Strategy,
	}).Debug("partitioned by size")

	if progress != nil {
		progress.Classifying(candidates)
	}

	results, err := classifyAll(ctx, classifier, buckets, opt.Workers, progress)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Root:       root,
		Files:      len(collection.Paths),
		Candidates: candidates,
		Skipped:    append(collection.Skipped, skipped...),
	}

	for _, r := range results {
		report.Groups = append(report.Groups, r.Groups...)
		report.Skipped = append(report.Skipped, r.Skipped...)
	}

	sortGroups(report.Groups)

	for _, s := range report.Skipped {
		log.WithError(s.Err).WithFields(logrus.Fields{"path": s.Path, "kind": s.Kind}).Debug("skipped")
	}

	if len(report.Skipped) > 0 {
		log.Warnf("skipped %d unreadable entries (use --debug for details)", len(report.Skipped))
	}

	report.Elapsed = time.Since(start)

	return report, nil
}

// collectWithProgress walks root while reporting the running file count.
// progress may be nil.
func collectWithProgress(
	ctx context.Context,
	root string,
	opt Options,
	log logrus.FieldLogger,
	progress Progress,
) (*Collection, error) {
	c := &collector{}

	// Child context to ensure progress reporter cleanup
	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	startProgressReporter(walkCtx, c, progress, opt.ProgressInterval)

	if err := walk(ctx, root, opt.Filter, log, c); err != nil {
		return nil, err
	}

	cancel()

	// Final count, so short walks that finish before the first tick still report.
	if progress != nil {
		progress.Scanned(c.count())
	}

	return c.finalize(root), nil
}

// classifyAll fans buckets out to a pool of workers. Each worker writes to the
// result slot of the bucket it owns; results are read only after all workers
// are done.
func classifyAll(
	ctx context.Context,
	classifier Classifier,
	buckets []Bucket,
	workers int,
	progress Progress,
) ([]Classification, error) {
	results := make([]Classification, len(buckets))
	errs := make([]error, len(buckets))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)

	var wg sync.WaitGroup

	for range min(workers, len(buckets)) {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				results[i], errs[i] = classifier.Classify(ctx, buckets[i])
				if errs[i] != nil {
					cancel()

					continue
				}

				if progress != nil {
					progress.Classified(len(buckets[i].Paths))
				}
			}
		}()
	}

feed:
	for i := range buckets {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// The parent context may have been cancelled between the last job and here.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// sortGroups orders groups by file size, largest first, then by first path.
func sortGroups(groups []Group) {
	slices.SortFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}

		return strings.Compare(a.Paths[0], b.Paths[0])
	})
}
