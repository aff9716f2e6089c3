// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package snapshot drives a complete run: it decides whether the live site
// changed since the last committed snapshot, crawls it until a consistent
// pass succeeds, and commits the result to the mirror.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirseerhq/sitesnap/internal/config"
	"github.com/sirseerhq/sitesnap/internal/crawl"
	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
	"github.com/sirseerhq/sitesnap/internal/fetcher"
	"github.com/sirseerhq/sitesnap/internal/logger"
	"github.com/sirseerhq/sitesnap/internal/metadata"
	"github.com/sirseerhq/sitesnap/internal/metrics"
	"github.com/sirseerhq/sitesnap/internal/mirror"
	"github.com/sirseerhq/sitesnap/internal/output"
	"github.com/sirseerhq/sitesnap/internal/retry"
	"github.com/sirseerhq/sitesnap/internal/state"
)

// SkipMessage is logged when the live site matches the committed snapshot.
// Workflows grep for it to tell a skip from a commit.
const SkipMessage = "snapshot skipped: no changes since last snapshot"

// Status is the terminal state of a run.
type Status string

const (
	StatusCommitted Status = metadata.StatusCommitted
	StatusSkipped   Status = metadata.StatusSkipped
	StatusFailed    Status = metadata.StatusFailed
)

// Outcome summarizes a run.
type Outcome struct {
	Status Status
	// Timestamp is the committed publish stamp, or the previous marker
	// value when the run was skipped.
	Timestamp time.Time
	Pages     int
	Dropped   map[string]string
	Restarts  int
	// MetadataFile is the run record written after a commit.
	MetadataFile string
}

// Runner executes snapshot runs for one configuration.
type Runner struct {
	cfg     *config.Config
	client  fetcher.Client
	log     logger.Interface
	metrics *metrics.Metrics
	fs      mirror.FS
	version string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithMetrics records run metrics in m instead of a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithFS writes the mirror through fsys instead of the output directory.
func WithFS(fsys mirror.FS) Option {
	return func(r *Runner) { r.fs = fsys }
}

// WithVersion sets the version recorded in run metadata.
func WithVersion(v string) Option {
	return func(r *Runner) { r.version = v }
}

// NewRunner creates a Runner. cfg must be validated.
func NewRunner(cfg *config.Config, client fetcher.Client, log logger.Interface, opts ...Option) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Runner{
		cfg:     cfg,
		client:  client,
		log:     log,
		version: "dev",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

// NewClient builds the HTTP client described by cfg.
func NewClient(cfg *config.Config, log logger.Interface) *fetcher.HTTPClient {
	return fetcher.NewHTTPClient(fetcher.Options{
		Timeout:    cfg.Crawl.Timeout.Duration,
		UserAgent:  cfg.Crawl.UserAgent,
		RateLimit:  cfg.Crawl.RateLimit,
		MaxRetries: 3,
		Logger:     log,
	})
}

// Run performs one snapshot run. A skipped run returns a nil error.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	cfg := r.cfg
	tracker := metadata.New()
	log := r.log.With("run_id", tracker.RunID(), "site", cfg.Site)

	marker := state.NewMarker(cfg.Resolve(cfg.Output.Marker))
	last, err := marker.Load()
	if err != nil {
		return r.fail(log, tracker, err)
	}

	ignore, err := cfg.IgnoreMatcher()
	if err != nil {
		return r.fail(log, tracker, err)
	}

	passOpts := crawl.Options{
		Site:        cfg.Site,
		Entry:       cfg.Pages.Entry,
		Pages:       cfg.Pages.Enabled,
		Ignore:      ignore,
		SitemapSeed: cfg.Pages.SitemapSeed,
		Concurrency: cfg.Crawl.Concurrency,
		ResourceRetry: retry.Policy{
			Tier:       retry.TierResource,
			MaxRetries: cfg.Retry.ResourceRetries,
			Delay:      cfg.Retry.ResourceDelay.Duration,
		},
		Tolerance: cfg.Consistency.Tolerance.Duration,
	}
	sitePolicy := retry.Policy{
		Tier:       retry.TierSite,
		MaxRetries: cfg.Retry.SiteRetries,
		Delay:      cfg.Retry.SiteCooldown(),
	}

	var (
		skipped bool
		live    time.Time
	)
	result, err := retry.Do(ctx, sitePolicy, func(ctx context.Context, attempt int) (*crawl.Result, retry.Decision, error) {
		if attempt > 0 {
			tracker.IncrementRestart()
			tracker.ResetPass()
			r.metrics.ObserveRestart()
			log.Info("restarting crawl from entry page", "attempt", attempt+1, "max_attempts", sitePolicy.Attempts())
		}

		entry, err := r.fetchEntry(ctx, tracker)
		if err != nil {
			return nil, retry.Stop, err
		}
		live = *entry.Published

		if attempt == 0 && !cfg.Force && !last.Before(live) {
			skipped = true
			return nil, retry.Stop, nil
		}

		log.Info("crawling", "reference", live.Format(time.RFC3339), "previous", last.Format(time.RFC3339))
		res, err := crawl.NewPass(r.client, passOpts, log, tracker, r.metrics).Run(ctx, entry)
		if errors.Is(err, snaperrors.ErrAheadMismatch) {
			log.Warn("site republished during crawl", "error", err)
			return nil, retry.Again, err
		}
		if err != nil {
			return nil, retry.Stop, err
		}
		return res, retry.Stop, nil
	})
	if err != nil {
		return r.fail(log, tracker, err)
	}

	if skipped {
		log.Info(SkipMessage, "marker", last.Format(time.RFC3339), "live", live.Format(time.RFC3339))
		r.metrics.ObserveRun(string(StatusSkipped), 0, last)
		r.writeMetrics(log)
		return &Outcome{Status: StatusSkipped, Timestamp: last}, nil
	}

	return r.commit(ctx, log, tracker, marker, result)
}

// fetchEntry fetches the first entry page, whose stamp is the reference for
// the pass that follows.
func (r *Runner) fetchEntry(ctx context.Context, tracker *metadata.Tracker) (fetcher.Result, error) {
	path := r.cfg.Pages.Entry[0]

	resp, err := r.client.Fetch(ctx, r.cfg.Site+path)
	tracker.IncrementFetch()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fetcher.Result{}, ctxErr
		}
		return fetcher.Result{}, fmt.Errorf("%w: %w", snaperrors.ErrEntryFetch, err)
	}

	entry := fetcher.NewResult(path, resp)
	if entry.Published == nil {
		return fetcher.Result{}, fmt.Errorf("%w: %s: %v", snaperrors.ErrEntryFetch, path, snaperrors.ErrTimestampMissing)
	}
	return entry, nil
}

func (r *Runner) commit(ctx context.Context, log logger.Interface, tracker *metadata.Tracker, marker *state.Marker, res *crawl.Result) (*Outcome, error) {
	cfg := r.cfg

	fsys := r.fs
	if fsys == nil {
		osfs, err := mirror.NewOSFS(cfg.Resolve(cfg.Output.Dir))
		if err != nil {
			return r.fail(log, tracker, err)
		}
		fsys = osfs
	}

	var manifest *output.Writer
	if cfg.Output.Manifest != "" {
		w, err := output.NewFileWriter(cfg.Resolve(cfg.Output.Manifest))
		if err != nil {
			return r.fail(log, tracker, fmt.Errorf("failed to create manifest: %w", err))
		}
		defer w.Close()
		manifest = w
	}

	wopts := mirror.Options{
		Layout:      cfg.Output.Layout,
		Concurrency: cfg.Crawl.Concurrency,
		Sitemap:     cfg.Output.Sitemap,
		Site:        cfg.Site,
		Logger:      log,
	}
	if manifest != nil {
		wopts.Manifest = manifest
	}

	entries := make([]mirror.Entry, 0, len(res.Resources))
	for _, rr := range res.Resources {
		entries = append(entries, mirror.EntryFromResult(rr))
	}

	committed, err := mirror.NewWriter(fsys, marker, wopts).Commit(ctx, entries, res.Reference)
	if err != nil {
		return r.fail(log, tracker, err)
	}

	out := &Outcome{
		Status:    StatusCommitted,
		Timestamp: res.Reference,
		Pages:     committed.Pages,
		Dropped:   res.Dropped,
		Restarts:  tracker.Restarts(),
	}

	// The marker is already committed; a missing run record is not worth
	// failing the run for.
	dir := cfg.Resolve(cfg.Output.MetadataDir)
	previous, err := metadata.LoadLatestMetadata(dir, cfg.Site)
	if err != nil {
		log.Warn("failed to read previous run metadata", "error", err)
	}
	var prevRef *metadata.RunRef
	if previous != nil {
		prevRef = previous.Ref()
	}
	md := tracker.GenerateMetadata(r.version, string(StatusCommitted), r.params(), res.Reference, committed.Pages, prevRef)
	if path, err := metadata.SaveMetadata(md, dir); err != nil {
		log.Warn("failed to save run metadata", "error", err)
	} else {
		out.MetadataFile = path
	}

	r.metrics.ObserveRun(string(StatusCommitted), committed.Pages, res.Reference)
	r.writeMetrics(log)

	log.Info("snapshot committed",
		"published", res.Reference.Format(time.RFC3339),
		"pages", committed.Pages,
		"files", len(committed.Files),
		"dropped", len(res.Dropped),
		"restarts", out.Restarts,
	)
	return out, nil
}

func (r *Runner) fail(log logger.Interface, tracker *metadata.Tracker, err error) (*Outcome, error) {
	log.Error("snapshot failed", "error", err, "restarts", tracker.Restarts())
	r.metrics.ObserveRun(string(StatusFailed), 0, time.Time{})
	r.writeMetrics(log)
	return &Outcome{Status: StatusFailed, Restarts: tracker.Restarts()}, err
}

func (r *Runner) writeMetrics(log logger.Interface) {
	path := r.cfg.Resolve(r.cfg.Output.MetricsFile)
	if err := r.metrics.WriteTextfile(path); err != nil {
		log.Warn("failed to write metrics", "path", path, "error", err)
	}
}

func (r *Runner) params() metadata.RunParams {
	cfg := r.cfg
	return metadata.RunParams{
		Site:            cfg.Site,
		Entry:           cfg.Pages.Entry,
		Layout:          cfg.Output.Layout,
		Concurrency:     cfg.Crawl.Concurrency,
		ResourceRetries: cfg.Retry.ResourceRetries,
		SiteRetries:     cfg.Retry.SiteRetries,
		Tolerance:       cfg.Consistency.Tolerance.String(),
		Force:           cfg.Force,
	}
}
