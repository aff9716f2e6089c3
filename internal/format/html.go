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


package format

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const indentUnit = "  "

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Elements whose content is kept byte for byte.
var preserveElements = map[string]bool{
	"pre": true, "script": true, "style": true, "textarea": true,
}

// HTML re-indents markup one tag per line and drops the Last Published
// comment. Content of pre, script, style and textarea is not touched.
func HTML(raw string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(raw))

	var (
		b        strings.Builder
		depth    int
		preserve int
	)
	line := func(s string) {
		b.WriteString(strings.Repeat(indentUnit, depth))
		b.WriteString(s)
		b.WriteByte('\n')
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return "", z.Err()
		}

		text := string(z.Raw())

		if preserve > 0 {
			b.WriteString(text)
			switch tt {
			case html.StartTagToken:
				if name, _ := z.TagName(); preserveElements[string(name)] {
					preserve++
				}
			case html.EndTagToken:
				if name, _ := z.TagName(); preserveElements[string(name)] {
					preserve--
					if preserve == 0 {
						b.WriteByte('\n')
						depth--
					}
				}
			}
			continue
		}

		switch tt {
		case html.DoctypeToken:
			line(text)
		case html.CommentToken:
			if strings.Contains(text, "Last Published:") {
				continue
			}
			line(strings.TrimSpace(text))
		case html.TextToken:
			if t := strings.TrimSpace(text); t != "" {
				line(collapseSpace(t))
			}
		case html.SelfClosingTagToken:
			line(text)
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case voidElements[tag]:
				line(text)
			case preserveElements[tag]:
				b.WriteString(strings.Repeat(indentUnit, depth))
				b.WriteString(text)
				depth++
				preserve = 1
			default:
				line(text)
				depth++
			}
		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
			line(text)
		}
	}

	return b.String(), nil
}

// collapseSpace turns every run of whitespace into a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
