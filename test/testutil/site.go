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


// Package testutil provides common test helpers for sitesnap: a fake
// published site served over HTTP and filesystem assertions.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// PageSpec describes one page of a fake site.
type PageSpec struct {
	Links []string
	// Published overrides the site-wide stamp for this page.
	Published *time.Time
	// Stale serves a stamp one hour older than the site's for the first
	// Stale requests; a negative value keeps the page stale forever.
	Stale int
	// NoStamp omits the Last Published comment.
	NoStamp bool
	// Status, when set, is returned instead of the page.
	Status int
}

// Site is a fake builder-hosted site. Every page carries the site-wide
// publish stamp unless its spec says otherwise.
type Site struct {
	*httptest.Server

	mu         sync.Mutex
	published  time.Time
	pages      map[string]*PageSpec
	stylesheet bool
	sitemap    bool
	requests   map[string]int

	// OnRequest, if set, runs before a request is answered. n counts
	// requests to path, starting at 1.
	OnRequest func(path string, n int)
}

// NewSite starts a fake site published at ts with only a home page.
// The server is closed when the test ends.
func NewSite(t *testing.T, ts time.Time) *Site {
	t.Helper()

	s := &Site{
		published:  ts,
		pages:      map[string]*PageSpec{"/": {}},
		stylesheet: true,
		requests:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// AddPage adds or replaces path with a page linking to links.
func (s *Site) AddPage(path string, links ...string) *Site {
	return s.SetPage(path, PageSpec{Links: links})
}

// SetPage adds or replaces path.
func (s *Site) SetPage(path string, spec PageSpec) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = &spec
	return s
}

// Publish changes the site-wide stamp, as a republish would.
func (s *Site) Publish(ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = ts
}

// Published returns the current site-wide stamp.
func (s *Site) Published() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}

// WithoutStylesheet stops pages from linking the site stylesheet.
func (s *Site) WithoutStylesheet() *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stylesheet = false
	return s
}

// WithSitemap serves /sitemap.xml listing every page.
func (s *Site) WithSitemap() *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sitemap = true
	return s
}

// Requests returns how often path was requested.
func (s *Site) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}

	s.mu.Lock()
	s.requests[path]++
	n := s.requests[path]
	hook := s.OnRequest
	s.mu.Unlock()

	if hook != nil {
		hook(path, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case path == StylesheetHref:
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, StylesheetCSS(s.published))
		return
	case path == "/sitemap.xml" && s.sitemap:
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
		for p := range s.pages {
			fmt.Fprintf(w, "<url><loc>%s%s</loc></url>", s.URL, p)
		}
		fmt.Fprint(w, "</urlset>")
		return
	}

	spec, ok := s.pages[path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if spec.Status != 0 {
		w.WriteHeader(spec.Status)
		return
	}

	b := NewPageBuilder(path).WithLinks(spec.Links...)
	if s.stylesheet {
		b.WithStylesheet(StylesheetHref)
	}
	if !spec.NoStamp {
		ts := s.published
		if spec.Published != nil {
			ts = *spec.Published
		}
		if spec.Stale < 0 || n <= spec.Stale {
			ts = ts.Add(-time.Hour)
		}
		b.WithPublished(ts)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, b.Build())
}
