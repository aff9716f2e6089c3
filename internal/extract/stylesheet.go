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
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StylesheetPath is where the captured stylesheet lives in the mirror.
const StylesheetPath = "/style.css"

// The compiled site stylesheet: either served next to the site under a
// *.webflow.<hash>.css name or from the builder's asset CDN.
var stylesheetRe = regexp.MustCompile(`^.*(?:(?:/.*\.webflow)|(?:website-files\.com.*))\.[a-z0-9]+(?:\.min)?\.css$`)

// Stylesheet returns the href of the compiled site stylesheet linked from
// markup, if any.
func Stylesheet(markup string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false, err
	}

	var href string
	doc.Find("link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("href")
		if stylesheetRe.MatchString(strings.TrimSpace(v)) {
			href = strings.TrimSpace(v)
			return false
		}
		return true
	})

	return href, href != "", nil
}

// RewriteStylesheet points every reference to the hashed stylesheet at the
// mirrored copy, so the snapshot does not change when only the hash does.
func RewriteStylesheet(markup, href string) string {
	if href == "" {
		return markup
	}
	markup = strings.ReplaceAll(markup, `"`+href+`"`, `"`+StylesheetPath+`"`)
	return strings.ReplaceAll(markup, `'`+href+`'`, `'`+StylesheetPath+`'`)
}
