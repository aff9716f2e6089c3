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


package testutil

import (
	"fmt"
	"strings"
	"time"
)

// StylesheetHref is the hashed stylesheet name fake sites link to.
const StylesheetHref = "/css/acme.webflow.3f9a1c.css"

// StampLayout is the date format the site builder writes into its stamps.
const StampLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

// PageBuilder provides a fluent API for creating builder-style pages.
type PageBuilder struct {
	title      string
	published  *time.Time
	stylesheet string
	links      []string
	body       string
}

// NewPageBuilder creates a page with a title and no links.
func NewPageBuilder(title string) *PageBuilder {
	return &PageBuilder{title: title}
}

// WithPublished sets the Last Published stamp.
func (b *PageBuilder) WithPublished(ts time.Time) *PageBuilder {
	b.published = &ts
	return b
}

// WithStylesheet links the hashed site stylesheet.
func (b *PageBuilder) WithStylesheet(href string) *PageBuilder {
	b.stylesheet = href
	return b
}

// WithLinks adds anchors to the given hrefs.
func (b *PageBuilder) WithLinks(hrefs ...string) *PageBuilder {
	b.links = append(b.links, hrefs...)
	return b
}

// WithBody appends raw markup to the body.
func (b *PageBuilder) WithBody(markup string) *PageBuilder {
	b.body += markup
	return b
}

// Build renders the page.
func (b *PageBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>")
	if b.published != nil {
		fmt.Fprintf(&sb, "<!-- Last Published: %s (Coordinated Universal Time) -->", FormatStamp(*b.published))
	}
	sb.WriteString("<html><head><title>")
	sb.WriteString(b.title)
	sb.WriteString("</title>")
	if b.stylesheet != "" {
		fmt.Fprintf(&sb, `<link href="%s" rel="stylesheet" type="text/css">`, b.stylesheet)
	}
	sb.WriteString("</head><body><nav>")
	for _, href := range b.links {
		fmt.Fprintf(&sb, `<a href="%s">%s</a>`, href, href)
	}
	sb.WriteString("</nav>")
	sb.WriteString(b.body)
	sb.WriteString("</body></html>")
	return sb.String()
}

// StylesheetCSS renders a stylesheet carrying a Generated on stamp.
func StylesheetCSS(published time.Time) string {
	return fmt.Sprintf("/* Generated on: %s (Coordinated Universal Time) */\nbody{margin:0}.nav{display:flex}",
		FormatStamp(published))
}

// FormatStamp renders ts the way the site builder does.
func FormatStamp(ts time.Time) string {
	return ts.UTC().Format(StampLayout)
}
