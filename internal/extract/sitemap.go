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
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
)

// SitemapPaths returns the same-site page paths listed as <loc> entries in a
// sitemap document. Entries on other hosts are ignored.
func SitemapPaths(body []byte, site string) ([]string, error) {
	base, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("invalid site %q: %w", site, err)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, n := range xmlquery.Find(doc, "//*[local-name()='loc']") {
		loc, err := url.Parse(strings.TrimSpace(n.InnerText()))
		if err != nil || !strings.EqualFold(loc.Host, base.Host) {
			continue
		}
		p, ok := SitePath(loc.EscapedPath())
		if !ok {
			if loc.Path != "" && loc.Path != "/" {
				continue
			}
			p = "/"
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	return paths, nil
}
