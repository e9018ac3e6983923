// Package crawl enumerates candidate geospatial files under a root path.
//
// Large network-attached trees dominate indexing runtime, so the recursive
// crawl fans out: each immediate subdirectory of the root is walked by its
// own worker and the per-worker results are merged once every worker is done.
package crawl

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/logger"
)

// Crawler finds files whose extension is in the allow-list.
type Crawler struct {
	workers int
	log     *zap.SugaredLogger
}

// New creates a Crawler with the given worker fan-out limit.
func New(workers int, log *zap.SugaredLogger) *Crawler {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Crawler{workers: workers, log: log.Named("crawl")}
}

// Crawl returns the absolute paths of all files under root whose extension
// (lowercased, without the leading dot) is in exts. The result carries no
// duplicates and no guaranteed order. Subtrees that cannot be read are
// skipped with a warning; only an unreadable root is an error.
func (c *Crawler) Crawl(ctx context.Context, root string, exts map[string]struct{}, recursive bool) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve root %s", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "read root directory %s", root)
	}

	var (
		mu      sync.Mutex
		matches = make(map[string]struct{})
	)
	collect := func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range paths {
			matches[p] = struct{}{}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	var rootFiles []string
	for _, entry := range entries {
		full := filepath.Join(root, entry.Name())

		if !entry.IsDir() {
			if matchExt(entry.Name(), exts) {
				rootFiles = append(rootFiles, full)
			}
			continue
		}

		// Containers like .gdb are directories with a matching suffix;
		// they count as one candidate file and are not descended into.
		if matchExt(entry.Name(), exts) {
			rootFiles = append(rootFiles, full)
			continue
		}

		if !recursive {
			continue
		}

		g.Go(func() error {
			found, err := c.walkSubtree(ctx, full, exts)
			if err != nil {
				return err
			}
			collect(found)
			return nil
		})
	}
	collect(rootFiles)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(matches))
	for p := range matches {
		out = append(out, p)
	}
	sort.Strings(out) // deterministic for callers and tests

	c.log.Infow("Crawl complete", logger.FieldPath, root, logger.FieldFiles, len(out))
	return out, nil
}

// walkSubtree walks one immediate subdirectory of the crawl root.
// Permission failures skip the offending subtree and continue.
func (c *Crawler) walkSubtree(ctx context.Context, dir string, exts map[string]struct{}) ([]string, error) {
	var found []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.log.Warnw("Skipping unreadable path", logger.FieldPath, path, logger.FieldError, err.Error())
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && matchExt(d.Name(), exts) {
				found = append(found, path)
				return fs.SkipDir
			}
			return nil
		}
		if matchExt(d.Name(), exts) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// matchExt reports whether name's extension, lowercased and without the
// leading dot, is in the allow-list.
func matchExt(name string, exts map[string]struct{}) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	_, ok := exts[ext]
	return ok
}
