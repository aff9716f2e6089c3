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
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/sirseerhq/sitesnap/internal/fetcher"
)

// SitemapFile is the sitemap's name in the mirror.
const SitemapFile = "sitemap.xml"

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SitemapXML renders a sitemap listing the HTML entries in order.
// lastmod is the snapshot's publish date.
func SitemapXML(site string, entries []Entry, published time.Time) ([]byte, error) {
	site = strings.TrimRight(site, "/")
	lastmod := published.UTC().Format("2006-01-02")

	set := urlset{Xmlns: sitemapNamespace}
	for _, e := range entries {
		if e.Kind != fetcher.KindHTML {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{Loc: site + e.Path, LastMod: lastmod})
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}
