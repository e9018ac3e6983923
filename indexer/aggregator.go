package indexer

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/config"
	"github.com/teranos/geodex/crawl"
	"github.com/teranos/geodex/crs"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/handlers"
	"github.com/teranos/geodex/logger"
)

// State tracks an aggregator's run lifecycle.
type State int

const (
	// StateCollecting enumerates candidate files under the input root.
	StateCollecting State = iota
	// StateProcessing dispatches candidates to their format handlers.
	StateProcessing
	// StateDone means the run completed; per-file failures may still exist.
	StateDone
	// StateFailed means the run aborted before producing results. The only
	// self-inflicted cause is a crawl with zero candidates.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunOptions are the per-run knobs of an indexing pass.
type RunOptions struct {
	// Input is the root directory to index.
	Input string
	// Recursive descends into subdirectories of the input root.
	Recursive bool
	// MinimumBoundingGeometry tightens footprints to convex hulls where the
	// source format exposes feature vertices.
	MinimumBoundingGeometry bool
}

// Result is the complete outcome of a finished run.
type Result struct {
	Records  []catalog.DatasetRecord
	Failures []catalog.FailureRecord
	Stats    catalog.RunStats
	Errors   *catalog.ErrorLog
}

// Aggregator owns one indexing run end to end: crawl, expected-total probe,
// dispatch, and bookkeeping.
type Aggregator struct {
	cfg     *config.Config
	crawler *crawl.Crawler
	set     *handlers.Set
	disp    *Dispatcher
	log     *zap.SugaredLogger

	mu    sync.Mutex
	state State
}

// New builds an aggregator and its full handler pipeline from configuration.
func New(cfg *config.Config, log *zap.SugaredLogger) *Aggregator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	set := handlers.NewSet(cfg, crs.New(log), log)
	return &Aggregator{
		cfg:     cfg,
		crawler: crawl.New(cfg.Crawler.Workers, log),
		set:     set,
		disp:    NewDispatcher(set, log),
		log:     log.Named("indexer"),
		state:   StateCollecting,
	}
}

// State reports the current run lifecycle state.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Aggregator) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Run executes one indexing pass. A crawl that yields zero candidates is the
// only condition that fails the whole run; everything else degrades to
// per-file failure records.
func (a *Aggregator) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	a.setState(StateCollecting)

	candidates, err := a.crawler.Crawl(ctx, opts.Input, a.cfg.Index.ExtensionSet(), opts.Recursive)
	if err != nil {
		a.setState(StateFailed)
		return nil, err
	}
	if len(candidates) == 0 {
		a.setState(StateFailed)
		return nil, errors.Wrapf(errors.ErrNoCandidates, "under %s", opts.Input)
	}

	a.log.Infow("Crawl complete",
		logger.FieldPath, opts.Input,
		logger.FieldFiles, len(candidates),
	)
	a.setState(StateProcessing)

	stats := catalog.RunStats{RunID: uuid.NewString()}
	errlog := &catalog.ErrorLog{}

	// Expected totals are probed up front so the final success rate can
	// account for container layers that fail individually.
	var images, sequential []string
	for _, path := range candidates {
		switch CategoryOf(path) {
		case catalog.CategoryContainer:
			stats.TotalExpected += a.set.Container.LayerCount(ctx, path)
			sequential = append(sequential, path)
		case catalog.CategoryImage:
			stats.TotalExpected++
			images = append(images, path)
		default:
			stats.TotalExpected++
			sequential = append(sequential, path)
		}
	}

	hopts := handlers.Options{MinimumBoundingGeometry: opts.MinimumBoundingGeometry}
	res := &Result{Errors: errlog}

	// Tool-backed handlers run sequentially; pdal and gdalinfo saturate
	// I/O on their own. Image extraction is pure file reading and fans out.
	for _, path := range sequential {
		if err := ctx.Err(); err != nil {
			a.setState(StateFailed)
			return nil, errors.WithStack(err)
		}
		cat, out := a.disp.Dispatch(ctx, path, hopts)
		a.collect(res, &stats, cat, out)
	}
	if len(images) > 0 {
		out := a.set.Image.ExtractBatch(ctx, images, hopts, a.cfg.Crawler.Workers)
		a.collect(res, &stats, catalog.CategoryImage, out)
	}
	if err := ctx.Err(); err != nil {
		a.setState(StateFailed)
		return nil, errors.WithStack(err)
	}

	if dir := a.cfg.Index.LogDir; dir != "" && errlog.Len() > 0 {
		uri, err := errlog.WriteTo(dir)
		if err != nil {
			a.log.Warnw("Could not persist error log", logger.FieldError, err.Error())
		} else {
			stats.LogFileURI = uri
		}
	}

	res.Stats = stats
	a.setState(StateDone)

	a.log.Infow("Run complete",
		logger.FieldRunID, stats.RunID,
		logger.FieldRecords, stats.TotalProcessed,
		logger.FieldCount, errlog.Len(),
	)
	return res, nil
}

func (a *Aggregator) collect(res *Result, stats *catalog.RunStats, cat catalog.Category, out handlers.Result) {
	stats.Count(cat, len(out.Records))
	res.Records = append(res.Records, out.Records...)
	res.Failures = append(res.Failures, out.Failures...)
	for _, f := range out.Failures {
		res.Errors.Record(f)
	}
}
