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
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
	"github.com/sirseerhq/sitesnap/internal/logger"
)

// maxBodySize caps a single resource. Builder pages are far below this.
const maxBodySize = 32 << 20

// Options configures an HTTPClient.
type Options struct {
	// Timeout bounds a single request including retries inside the transport.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
	// RateLimit is the sustained request rate in requests per second.
	// Zero disables limiting.
	RateLimit float64
	// MaxRetries bounds transport-level retries of 502/503/504 and
	// connection failures.
	MaxRetries int
	// Backoff is the first transport retry delay; it doubles per attempt.
	Backoff time.Duration
	// Transport is the innermost round tripper, http.DefaultTransport if nil.
	Transport http.RoundTripper
	Logger    logger.Interface
}

// HTTPClient fetches resources over HTTP with rate limiting and transient
// failure retries.
type HTTPClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logger.Interface
}

// NewHTTPClient creates a client with the transport chain
// user agent -> retry -> base.
func NewHTTPClient(opts Options) *HTTPClient {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}

	transport := &userAgentTransport{
		userAgent: opts.UserAgent,
		base:      newRetryTransport(base, opts.MaxRetries, opts.Backoff, log),
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		limiter: limiter,
		log:     log,
	}
}

// Fetch implements the Client interface.
func (c *HTTPClient) Fetch(ctx context.Context, url string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &snaperrors.TransportError{
			URL: url,
			Err: fmt.Errorf("%w: %w", snaperrors.ErrNetworkFailure, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &snaperrors.TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &snaperrors.TransportError{
			URL: url,
			Err: fmt.Errorf("%w: reading body: %w", snaperrors.ErrNetworkFailure, err),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	c.log.Debug("fetched", "url", url, "status", resp.StatusCode, "bytes", len(body))

	return &Response{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Kind:        DetectKind(contentType, url),
		Body:        body,
	}, nil
}
