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

package extract

import (
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Links returns the same-site paths referenced by href attributes in markup,
// in order of first appearance and without duplicates. Only rooted paths
// ("/about") count: absolute URLs, protocol-relative URLs, relative paths,
// fragments and links to files with an extension are skipped.
func Links(markup string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		p, ok := SitePath(href)
		if !ok {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		links = append(links, p)
	})

	return links, nil
}

// SitePath reports whether href is a rooted same-site page path and returns
// it in canonical form.
func SitePath(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
		return "", false
	}

	p := CleanPath(href)
	if strings.Contains(path.Base(p), ".") {
		return "", false
	}
	return p, true
}

// CleanPath turns a configured or discovered path into its canonical
// site-relative form: rooted, no trailing slash, no query or fragment.
func CleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Clean("/" + strings.TrimSpace(p))
}
