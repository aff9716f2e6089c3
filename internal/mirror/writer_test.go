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


package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/sitesnap/internal/config"
	"github.com/sirseerhq/sitesnap/internal/fetcher"
	"github.com/sirseerhq/sitesnap/internal/output"
	"github.com/sirseerhq/sitesnap/internal/state"
)

// memFS is an in-memory FS that can fail selected writes.
type memFS struct {
	mu        sync.Mutex
	dirs      map[string]bool
	files     map[string][]byte
	mkdirs    map[string]int
	failWrite map[string]bool
}

func newMemFS() *memFS {
	return &memFS{
		dirs:      make(map[string]bool),
		files:     make(map[string][]byte),
		mkdirs:    make(map[string]int),
		failWrite: make(map[string]bool),
	}
}

func (m *memFS) Exists(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, isFile := m.files[name]
	return isFile || m.dirs[name], nil
}

func (m *memFS) Mkdir(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs[name]++
	if m.dirs[name] {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	m.dirs[name] = true
	return nil
}

func (m *memFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *memFS) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite[name] {
		return errors.New("disk full")
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// recordingMarker remembers the last saved timestamp.
type recordingMarker struct {
	saved []time.Time
}

func (r *recordingMarker) Save(ts time.Time) error {
	r.saved = append(r.saved, ts)
	return nil
}

var published = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func sampleEntries() []Entry {
	return []Entry{
		{Path: "/", Kind: fetcher.KindHTML, Body: "<p>home</p>"},
		{Path: "/about", Kind: fetcher.KindHTML, Body: "<p>about</p>"},
		{Path: "/blog/post-1", Kind: fetcher.KindHTML, Body: "<p>one</p>"},
		{Path: "/blog/post-2", Kind: fetcher.KindHTML, Body: "<p>two</p>"},
		{Path: "/style.css", Kind: fetcher.KindCSS, Body: "a{b:c}"},
	}
}

func TestFileFor(t *testing.T) {
	tests := []struct {
		path   string
		layout string
		kind   fetcher.Kind
		want   string
	}{
		{"/", config.LayoutDirectory, fetcher.KindHTML, "index.html"},
		{"/", config.LayoutFile, fetcher.KindHTML, "index.html"},
		{"/about", config.LayoutDirectory, fetcher.KindHTML, "about/index.html"},
		{"/about", config.LayoutFile, fetcher.KindHTML, "about.html"},
		{"/a/b", config.LayoutDirectory, fetcher.KindHTML, "a/b/index.html"},
		{"/a/b", config.LayoutFile, fetcher.KindHTML, "a/b.html"},
		{"/style.css", config.LayoutDirectory, fetcher.KindCSS, "style.css"},
		{"/../escape", config.LayoutFile, fetcher.KindHTML, "escape.html"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileFor(tt.path, tt.layout, tt.kind), "%s %s", tt.path, tt.layout)
	}
}

func TestCommit_WritesTreeThenMarker(t *testing.T) {
	fsys := newMemFS()
	marker := &recordingMarker{}
	var manifest bytes.Buffer

	w := NewWriter(fsys, marker, Options{
		Layout:      config.LayoutDirectory,
		Concurrency: 4,
		Sitemap:     true,
		Site:        "https://example.com/",
		Manifest:    output.NewWriter(&manifest),
	})

	res, err := w.Commit(context.Background(), sampleEntries(), published)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Pages)
	assert.ElementsMatch(t, []string{
		"index.html", "about/index.html", "blog/post-1/index.html",
		"blog/post-2/index.html", "style.css", "sitemap.xml",
	}, res.Files)

	home, err := fsys.ReadFile("index.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>\n  home\n</p>\n", string(home))

	css, err := fsys.ReadFile("style.css")
	require.NoError(t, err)
	assert.Equal(t, "a {\n  b:c\n}\n", string(css))

	sitemap, err := fsys.ReadFile("sitemap.xml")
	require.NoError(t, err)
	assert.Contains(t, string(sitemap), "<loc>https://example.com/blog/post-1</loc>")
	assert.Contains(t, string(sitemap), "<lastmod>2024-01-15</lastmod>")
	assert.NotContains(t, string(sitemap), "style.css")

	require.Len(t, marker.saved, 1)
	assert.True(t, marker.saved[0].Equal(published))

	assert.Equal(t, 6, strings.Count(manifest.String(), "\n"))
}

func TestCommit_PartialFailureKeepsMarker(t *testing.T) {
	fsys := newMemFS()
	fsys.failWrite["blog/post-2/index.html"] = true
	marker := &recordingMarker{}

	w := NewWriter(fsys, marker, Options{Concurrency: 1, Sitemap: true, Site: "https://example.com"})

	_, err := w.Commit(context.Background(), sampleEntries(), published)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blog/post-2/index.html")

	assert.Empty(t, marker.saved)
	ok, _ := fsys.Exists("sitemap.xml")
	assert.False(t, ok, "sitemap must not be written after a failed entry")
}

func TestCommit_PartialFailureOnDisk(t *testing.T) {
	root := t.TempDir()
	markerFile := filepath.Join(root, ".timestamp")
	previous := published.Add(-24 * time.Hour)
	require.NoError(t, state.SaveMarker(markerFile, previous))

	mirrorDir := filepath.Join(root, "public")
	osfs, err := NewOSFS(mirrorDir)
	require.NoError(t, err)

	// A file where a directory is needed makes the nested write fail.
	require.NoError(t, os.WriteFile(filepath.Join(mirrorDir, "blog"), []byte("not a dir"), 0o644))

	w := NewWriter(osfs, state.NewMarker(markerFile), Options{Concurrency: 2})
	_, err = w.Commit(context.Background(), sampleEntries(), published)
	require.Error(t, err)

	got, err := state.LoadMarker(markerFile)
	require.NoError(t, err)
	assert.True(t, got.Equal(previous), "marker moved to %v after failed commit", got)
}

func TestCommit_SkipsUnchangedFiles(t *testing.T) {
	fsys := newMemFS()
	marker := &recordingMarker{}

	_, err := NewWriter(fsys, marker, Options{Concurrency: 2}).Commit(context.Background(), sampleEntries(), published)
	require.NoError(t, err)

	// Identical content is never rewritten, so a broken file is not touched.
	fsys.failWrite["about/index.html"] = true
	_, err = NewWriter(fsys, marker, Options{Concurrency: 2}).Commit(context.Background(), sampleEntries(), published)
	require.NoError(t, err)
	require.Len(t, marker.saved, 2)

	changed := sampleEntries()
	changed[1].Body = "<p>about us</p>"
	_, err = NewWriter(fsys, marker, Options{Concurrency: 2}).Commit(context.Background(), changed, published)
	require.Error(t, err)
	assert.Len(t, marker.saved, 2)
}

func TestCommit_MkdirMemo(t *testing.T) {
	fsys := newMemFS()
	fsys.dirs["blog"] = true // left over from an earlier snapshot

	var entries []Entry
	for i := 0; i < 20; i++ {
		entries = append(entries, Entry{Path: fmt.Sprintf("/blog/post-%d", i), Kind: fetcher.KindHTML, Body: "x"})
	}

	w := NewWriter(fsys, &recordingMarker{}, Options{Concurrency: 8})
	_, err := w.Commit(context.Background(), entries, published)
	require.NoError(t, err)

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	for dir, n := range fsys.mkdirs {
		// Concurrent first calls may race, but never more than the worker count.
		assert.LessOrEqual(t, n, 8, "mkdir %s called %d times", dir, n)
	}
	for i := 0; i < 20; i++ {
		_, ok := fsys.files[fmt.Sprintf("blog/post-%d/index.html", i)]
		assert.True(t, ok)
	}
}

func TestCommit_Idempotent(t *testing.T) {
	root := t.TempDir()
	osfs, err := NewOSFS(root)
	require.NoError(t, err)

	marker := &recordingMarker{}
	w := NewWriter(osfs, marker, Options{Layout: config.LayoutFile, Concurrency: 3, Sitemap: true, Site: "https://example.com"})

	_, err = w.Commit(context.Background(), sampleEntries(), published)
	require.NoError(t, err)
	first := readTree(t, root)

	w2 := NewWriter(osfs, marker, Options{Layout: config.LayoutFile, Concurrency: 1, Sitemap: true, Site: "https://example.com"})
	_, err = w2.Commit(context.Background(), sampleEntries(), published)
	require.NoError(t, err)

	assert.Equal(t, first, readTree(t, root))
	assert.Contains(t, first, "blog/post-1.html")
}

func TestCommit_Cancelled(t *testing.T) {
	marker := &recordingMarker{}
	w := NewWriter(newMemFS(), marker, Options{Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Commit(ctx, sampleEntries(), published)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, marker.saved)
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return tree
}

func TestSitemapXML(t *testing.T) {
	data, err := SitemapXML("https://example.com", []Entry{
		{Path: "/", Kind: fetcher.KindHTML},
		{Path: "/about", Kind: fetcher.KindHTML},
		{Path: "/style.css", Kind: fetcher.KindCSS},
	}, published)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://example.com/</loc>
    <lastmod>2024-01-15</lastmod>
  </url>
  <url>
    <loc>https://example.com/about</loc>
    <lastmod>2024-01-15</lastmod>
  </url>
</urlset>
`
	assert.Equal(t, want, string(data))
}
