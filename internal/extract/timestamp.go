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
	"fmt"
	"regexp"
	"strings"
	"time"

	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
)

var (
	// <!-- Last Published: Tue Oct 10 2023 12:34:56 GMT+0000 (Coordinated Universal Time) -->
	htmlStampRe = regexp.MustCompile(`<!--\s*Last Published:\s*([^(]+?)\s*(?:\(|-->)`)

	// /* Generated on: Tue Oct 10 2023 12:34:56 GMT+0000 (Coordinated Universal Time) */
	cssStampRe = regexp.MustCompile(`/\*\s*Generated on:\s*([^(]+?)\s*(?:\(|\*/)`)
)

var stampLayouts = []string{
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
}

// HTMLTimestamp returns the publish stamp embedded in page markup.
func HTMLTimestamp(markup string) (time.Time, error) {
	return findStamp(htmlStampRe, markup)
}

// CSSTimestamp returns the generation stamp embedded in a stylesheet.
func CSSTimestamp(css string) (time.Time, error) {
	return findStamp(cssStampRe, css)
}

func findStamp(re *regexp.Regexp, content string) (time.Time, error) {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return time.Time{}, snaperrors.ErrTimestampMissing
	}
	return ParseStamp(m[1])
}

// ParseStamp parses a publish stamp as written by the site builder or as
// stored in the marker file. The result is always UTC.
func ParseStamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", raw, snaperrors.ErrTimestampMissing)
}
