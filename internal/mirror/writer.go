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


// Package mirror writes a captured snapshot to the output tree and commits
// it by replacing the snapshot marker.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sirseerhq/sitesnap/internal/config"
	"github.com/sirseerhq/sitesnap/internal/fetcher"
	"github.com/sirseerhq/sitesnap/internal/format"
	"github.com/sirseerhq/sitesnap/internal/logger"
	"github.com/sirseerhq/sitesnap/internal/output"
)

// Entry is one captured resource ready to be written.
type Entry struct {
	Path      string
	Kind      fetcher.Kind
	Body      string
	Published *time.Time
}

// EntryFromResult converts a fetch result into a mirror entry.
func EntryFromResult(r fetcher.Result) Entry {
	return Entry{Path: r.Path, Kind: r.Kind, Body: r.Body, Published: r.Published}
}

// MarkerStore persists the commit point. *state.Marker implements it.
type MarkerStore interface {
	Save(ts time.Time) error
}

// Options configures a Writer.
type Options struct {
	Layout string
	// Concurrency bounds parallel file writes.
	Concurrency int
	// Sitemap enables sitemap.xml generation for committed pages.
	Sitemap bool
	// Site is the base URL used for sitemap locations.
	Site     string
	Logger   logger.Interface
	Manifest output.RecordWriter
}

// CommitResult summarizes a successful commit.
type CommitResult struct {
	Files []string
	Pages int
}

// Writer writes snapshots through an FS.
type Writer struct {
	fs     FS
	marker MarkerStore
	opts   Options
	log    logger.Interface

	mu   sync.Mutex
	dirs map[string]struct{}
}

// NewWriter creates a Writer.
func NewWriter(fsys FS, marker MarkerStore, opts Options) *Writer {
	if opts.Layout == "" {
		opts.Layout = config.LayoutDirectory
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Writer{
		fs:     fsys,
		marker: marker,
		opts:   opts,
		log:    log,
		dirs:   make(map[string]struct{}),
	}
}

// Commit writes every entry, then the sitemap, and only then replaces the
// marker with published. If any write fails the marker is left as it was
// and the error is returned; files already written stay and are
// overwritten by the next successful commit.
func (w *Writer) Commit(ctx context.Context, entries []Entry, published time.Time) (*CommitResult, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	files := make([]string, len(sorted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for i, e := range sorted {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file, err := w.writeEntry(e)
			if err != nil {
				return err
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages := 0
	for _, e := range sorted {
		if e.Kind == fetcher.KindHTML {
			pages++
		}
	}

	if w.opts.Sitemap {
		data, err := SitemapXML(w.opts.Site, sorted, published)
		if err != nil {
			return nil, err
		}
		if err := w.fs.WriteFile(SitemapFile, data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", SitemapFile, err)
		}
		w.record(output.NewRecord("/"+SitemapFile, SitemapFile, string(fetcher.KindXML), string(data), nil))
		files = append(files, SitemapFile)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := w.marker.Save(published); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return &CommitResult{Files: files, Pages: pages}, nil
}

func (w *Writer) writeEntry(e Entry) (string, error) {
	file := FileFor(e.Path, w.opts.Layout, e.Kind)

	content, err := format.Format(e.Body, e.Kind)
	if err != nil {
		w.log.Warn("formatter failed, writing raw content", "path", e.Path, "error", err)
		content = e.Body
	}

	if w.unchanged(file, content) {
		w.log.Debug("unchanged", "file", file)
		w.record(output.NewRecord(e.Path, file, string(e.Kind), content, e.Published))
		return file, nil
	}

	if err := w.ensureDir(path.Dir(file)); err != nil {
		return "", err
	}
	if err := w.fs.WriteFile(file, []byte(content)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", file, err)
	}

	w.record(output.NewRecord(e.Path, file, string(e.Kind), content, e.Published))
	return file, nil
}

// unchanged reports whether file already holds content. Skipping such
// writes keeps mtimes stable for the next commit of the mirror.
func (w *Writer) unchanged(file, content string) bool {
	ok, err := w.fs.Exists(file)
	if err != nil || !ok {
		return false
	}
	old, err := w.fs.ReadFile(file)
	return err == nil && bytes.Equal(old, []byte(content))
}

func (w *Writer) record(rec output.Record) {
	if w.opts.Manifest == nil {
		return
	}
	if err := w.opts.Manifest.Write(rec); err != nil {
		w.log.Warn("failed to write manifest record", "file", rec.File, "error", err)
	}
}

// ensureDir creates dir and its parents once per Writer. Concurrent callers
// may race on Mkdir; losing the race is reported as fs.ErrExist and ignored.
func (w *Writer) ensureDir(dir string) error {
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}

	w.mu.Lock()
	_, done := w.dirs[dir]
	w.mu.Unlock()
	if done {
		return nil
	}

	if err := w.ensureDir(path.Dir(dir)); err != nil {
		return err
	}
	if err := w.fs.Mkdir(dir); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	w.mu.Lock()
	w.dirs[dir] = struct{}{}
	w.mu.Unlock()
	return nil
}
