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


package fetcher

import (
	"context"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sirseerhq/sitesnap/internal/extract"
)

// Client defines the interface for fetching resources from the source site.
// This interface allows for easy mocking in tests.
type Client interface {
	// Fetch performs a GET for url. Non-2xx answers are returned as
	// *errors.TransportError carrying the status code.
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Kind classifies a resource for stamp extraction and formatting.
type Kind string

const (
	KindHTML  Kind = "html"
	KindCSS   Kind = "css"
	KindXML   Kind = "xml"
	KindOther Kind = "other"
)

// Response is a successful fetch.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Kind        Kind
	Body        []byte
}

// Result is a fetched resource together with its publish stamp. It is never
// modified after construction.
type Result struct {
	URL  string
	Path string
	Kind Kind
	Body string
	// Published is nil when the resource carries no stamp.
	Published *time.Time
}

// NewResult extracts the publish stamp matching the response kind.
func NewResult(sitePath string, resp *Response) Result {
	r := Result{
		URL:  resp.URL,
		Path: sitePath,
		Kind: resp.Kind,
		Body: string(resp.Body),
	}

	var (
		ts  time.Time
		err error
	)
	switch resp.Kind {
	case KindHTML:
		ts, err = extract.HTMLTimestamp(r.Body)
	case KindCSS:
		ts, err = extract.CSSTimestamp(r.Body)
	default:
		return r
	}
	if err == nil {
		r.Published = &ts
	}
	return r
}

// DetectKind classifies a resource by Content-Type, falling back to the URL
// extension when the server sends none.
func DetectKind(contentType, rawURL string) Kind {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mediaType == "text/html" || mediaType == "application/xhtml+xml":
			return KindHTML
		case mediaType == "text/css":
			return KindCSS
		case strings.HasSuffix(mediaType, "/xml") || strings.HasSuffix(mediaType, "+xml"):
			return KindXML
		}
	}

	var p string
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".css":
		return KindCSS
	case ".xml":
		return KindXML
	case "", ".html", ".htm":
		return KindHTML
	}
	return KindOther
}
