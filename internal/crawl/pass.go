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


// Package crawl runs one consistent capture pass over the site: starting
// from an already fetched entry page, it follows same-site links with
// bounded concurrency and checks every resource against the entry page's
// publish stamp.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sirseerhq/sitesnap/internal/consistency"
	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
	"github.com/sirseerhq/sitesnap/internal/extract"
	"github.com/sirseerhq/sitesnap/internal/fetcher"
	"github.com/sirseerhq/sitesnap/internal/logger"
	"github.com/sirseerhq/sitesnap/internal/metadata"
	"github.com/sirseerhq/sitesnap/internal/metrics"
	"github.com/sirseerhq/sitesnap/internal/neterror"
	"github.com/sirseerhq/sitesnap/internal/retry"
)

// Drop reasons reported to metrics.
const (
	ReasonStale     = "stale"
	ReasonNotFound  = "not_found"
	ReasonTransport = "transport"
)

// Options configures a pass.
type Options struct {
	// Site is the base URL without trailing slash.
	Site string
	// Entry lists the entry paths. The first one is the reference page the
	// pass is started with; the rest are fetched like pages but a failure on
	// any of them fails the pass.
	Entry []string
	// Pages enables link following. When false only the entry pages and
	// the stylesheet are captured.
	Pages bool
	// Ignore reports paths that must not be captured. Nil ignores nothing.
	Ignore      func(string) bool
	SitemapSeed bool
	Concurrency int
	// ResourceRetry is the policy for stale resources.
	ResourceRetry retry.Policy
	Tolerance     time.Duration
}

// Result is what a completed pass captured.
type Result struct {
	Reference time.Time
	// Resources are sorted by path. The stylesheet, when found, is stored
	// under extract.StylesheetPath.
	Resources []fetcher.Result
	Dropped   map[string]string
}

// Pages returns the number of captured HTML pages.
func (r *Result) Pages() int {
	n := 0
	for _, res := range r.Resources {
		if res.Kind == fetcher.KindHTML {
			n++
		}
	}
	return n
}

// Pass is a single capture attempt. It is not reusable: a restart builds a
// new Pass with a new reference.
type Pass struct {
	client    fetcher.Client
	opts      Options
	log       logger.Interface
	tracker   *metadata.Tracker
	metrics   *metrics.Metrics
	inspector neterror.Inspector

	reference  time.Time
	frontier   *Frontier
	fatal      map[string]bool
	stylesheet string

	mu      sync.Mutex
	results map[string]fetcher.Result
	dropped map[string]string
}

// NewPass prepares a pass. tracker and m may be nil.
func NewPass(client fetcher.Client, opts Options, log logger.Interface, tracker *metadata.Tracker, m *metrics.Metrics) *Pass {
	if log == nil {
		log = logger.NewNop()
	}
	if tracker == nil {
		tracker = metadata.New()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Ignore == nil {
		opts.Ignore = func(string) bool { return false }
	}
	if len(opts.Entry) == 0 {
		opts.Entry = []string{"/"}
	}
	opts.ResourceRetry.Tier = retry.TierResource

	return &Pass{
		client:    client,
		opts:      opts,
		log:       log,
		tracker:   tracker,
		metrics:   m,
		inspector: neterror.NewInspector(),
		frontier:  NewFrontier(),
		fatal:     make(map[string]bool),
		results:   make(map[string]fetcher.Result),
		dropped:   make(map[string]string),
	}
}

// Run crawls the site starting from entry, the already fetched first entry
// page whose stamp becomes the pass reference. A resource newer than the
// reference aborts the pass with an error matching errors.ErrAheadMismatch
// and cancels every in-flight fetch.
func (p *Pass) Run(ctx context.Context, entry fetcher.Result) (*Result, error) {
	if entry.Published == nil {
		return nil, fmt.Errorf("%w: %s has no publish stamp", snaperrors.ErrEntryFetch, entry.Path)
	}
	p.reference = *entry.Published

	href, found, err := extract.Stylesheet(entry.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry page: %w", err)
	}
	if found {
		if err := p.captureStylesheet(ctx, href); err != nil {
			return nil, err
		}
	} else {
		p.log.Warn("no site stylesheet linked from entry page", "path", entry.Path)
	}

	p.frontier.MarkVisited(entry.Path)
	for _, e := range p.opts.Entry[1:] {
		if p.frontier.Add(e) {
			p.fatal[e] = true
		}
	}

	p.store(entry)
	p.discover(entry)

	if p.opts.SitemapSeed && p.opts.Pages {
		p.seedFromSitemap(ctx)
	}

	if err := p.dispatch(ctx); err != nil {
		return nil, err
	}

	return p.result(), nil
}

// dispatch hands pending paths to workers until the frontier drains. It is
// the only goroutine calling g.Go, so workers never wait on the limit.
func (p *Pass) dispatch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for gctx.Err() == nil {
		path, ok, drained := p.frontier.Next()
		if drained {
			break
		}
		if !ok {
			select {
			case <-p.frontier.Wake():
			case <-gctx.Done():
			}
			continue
		}

		g.Go(func() error {
			defer p.frontier.Done()
			return p.visit(gctx, path)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Pass) visit(ctx context.Context, sitePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := p.fetchConsistent(ctx, sitePath, p.opts.Site+sitePath, "")
	if err != nil {
		switch {
		case errors.Is(err, snaperrors.ErrAheadMismatch):
			return err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case p.fatal[sitePath]:
			return fmt.Errorf("%w: %s: %v", snaperrors.ErrEntryFetch, sitePath, err)
		}
		p.drop(sitePath, err)
		return nil
	}

	p.store(res)
	p.discover(res)
	return nil
}

// fetchConsistent fetches a resource until its stamp agrees with the
// reference. Stale answers are retried under the resource policy; an ahead
// answer stops immediately. kind, when set, overrides the detected kind.
func (p *Pass) fetchConsistent(ctx context.Context, sitePath, rawURL string, kind fetcher.Kind) (fetcher.Result, error) {
	policy := p.opts.ResourceRetry

	return retry.Do(ctx, policy, func(ctx context.Context, attempt int) (fetcher.Result, retry.Decision, error) {
		start := time.Now()
		resp, err := p.client.Fetch(ctx, rawURL)
		p.tracker.IncrementFetch()
		if err != nil {
			k := kind
			if k == "" {
				k = fetcher.DetectKind("", rawURL)
			}
			p.metrics.ObserveFetch(string(k), err, time.Since(start))
			return fetcher.Result{}, retry.Stop, err
		}
		if kind != "" {
			resp.Kind = kind
		}
		p.metrics.ObserveFetch(string(resp.Kind), nil, time.Since(start))

		res := fetcher.NewResult(sitePath, resp)
		verdict := consistency.Classify(res.Published, p.reference, p.opts.Tolerance)
		if verdict.Degraded {
			p.log.Warn("no publish stamp, accepting with degraded confidence", "path", sitePath)
			p.tracker.RecordDegraded(sitePath)
		}

		switch verdict.Verdict {
		case consistency.Ahead:
			return res, retry.Stop, &snaperrors.MismatchError{
				Path: sitePath, Observed: *res.Published, Reference: p.reference, Ahead: true,
			}
		case consistency.Stale:
			mismatch := &snaperrors.MismatchError{
				Path: sitePath, Observed: *res.Published, Reference: p.reference,
			}
			if attempt < policy.Attempts()-1 {
				p.log.Info("stale resource, retrying", "path", sitePath,
					"attempt", attempt+1, "max_attempts", policy.Attempts(), "delay", policy.Delay)
				p.tracker.IncrementStaleRetry()
				p.metrics.ObserveStaleRetry()
			}
			return res, retry.Again, mismatch
		default:
			return res, retry.Stop, nil
		}
	})
}

func (p *Pass) captureStylesheet(ctx context.Context, href string) error {
	base, err := url.Parse(p.opts.Site + "/")
	if err != nil {
		return fmt.Errorf("invalid site %q: %w", p.opts.Site, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("%w: invalid href %q: %v", snaperrors.ErrStylesheet, href, err)
	}

	res, err := p.fetchConsistent(ctx, extract.StylesheetPath, base.ResolveReference(ref).String(), fetcher.KindCSS)
	if err != nil {
		if errors.Is(err, snaperrors.ErrAheadMismatch) {
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, snaperrors.ErrNetworkFailure) {
			return fmt.Errorf("%w: %w", snaperrors.ErrStylesheet, err)
		}
		return fmt.Errorf("%w: %v", snaperrors.ErrStylesheet, err)
	}

	p.stylesheet = href
	p.store(res)
	return nil
}

func (p *Pass) seedFromSitemap(ctx context.Context) {
	resp, err := p.client.Fetch(ctx, p.opts.Site+"/sitemap.xml")
	p.tracker.IncrementFetch()
	if err != nil {
		if !p.inspector.IsNotFoundError(err) {
			p.log.Warn("sitemap unavailable, crawling links only", "error", err)
		}
		return
	}

	paths, err := extract.SitemapPaths(resp.Body, p.opts.Site)
	if err != nil {
		p.log.Warn("sitemap unreadable, crawling links only", "error", err)
		return
	}

	added := 0
	for _, sp := range paths {
		if !p.opts.Ignore(sp) && p.frontier.Add(sp) {
			added++
		}
	}
	p.log.Debug("seeded from sitemap", "listed", len(paths), "added", added)
}

// discover adds the links of an HTML result to the frontier.
func (p *Pass) discover(res fetcher.Result) {
	if !p.opts.Pages || res.Kind != fetcher.KindHTML {
		return
	}

	links, err := extract.Links(res.Body)
	if err != nil {
		p.log.Warn("failed to extract links", "path", res.Path, "error", err)
		return
	}
	for _, l := range links {
		if p.opts.Ignore(l) {
			continue
		}
		p.frontier.Add(l)
	}
}

func (p *Pass) store(res fetcher.Result) {
	if res.Kind == fetcher.KindHTML && p.stylesheet != "" {
		res.Body = extract.RewriteStylesheet(res.Body, p.stylesheet)
	}

	p.mu.Lock()
	p.results[res.Path] = res
	p.mu.Unlock()
}

func (p *Pass) drop(sitePath string, err error) {
	reason := ReasonTransport
	switch {
	case errors.Is(err, snaperrors.ErrStaleMismatch):
		reason = ReasonStale
	case p.inspector.IsNotFoundError(err):
		reason = ReasonNotFound
	}

	p.log.Warn("dropping page", "path", sitePath, "reason", reason, "error", err)
	p.tracker.RecordDrop(sitePath, err.Error())
	p.metrics.ObserveDrop(reason)

	p.mu.Lock()
	p.dropped[sitePath] = err.Error()
	p.mu.Unlock()
}

func (p *Pass) result() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	resources := make([]fetcher.Result, 0, len(p.results))
	for _, r := range p.results {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Path < resources[j].Path })

	dropped := make(map[string]string, len(p.dropped))
	for k, v := range p.dropped {
		dropped[k] = v
	}

	return &Result{Reference: p.reference, Resources: resources, Dropped: dropped}
}
