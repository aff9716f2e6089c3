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
	"fmt"
	"net/http"
	"time"

	"github.com/sirseerhq/sitesnap/internal/logger"
	"github.com/sirseerhq/sitesnap/internal/neterror"
)

// maxBackoff caps the transport retry delay.
const maxBackoff = 30 * time.Second

// userAgentTransport sets the User-Agent header on every request.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// retryTransport adds exponential backoff retry logic for transient failures.
// Consistency mismatches are not its concern; it only sees status codes and
// connection errors.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
	inspector  neterror.Inspector
	log        logger.Interface
}

// newRetryTransport creates a new transport with retry logic.
func newRetryTransport(base http.RoundTripper, maxRetries int, backoff time.Duration, log logger.Interface) http.RoundTripper {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retryTransport{
		base:       base,
		maxRetries: maxRetries,
		backoff:    backoff,
		inspector:  neterror.NewInspector(),
		log:        log,
	}
}

// RoundTrip implements http.RoundTripper with retry logic. The last
// retryable response is returned as is so the caller sees its status.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	backoff := t.backoff
	attempts := t.maxRetries + 1

	for attempt := 0; ; attempt++ {
		// Clone request for each attempt
		clonedReq := req.Clone(req.Context())

		resp, err := t.base.RoundTrip(clonedReq)

		// Success - return immediately
		if err == nil && !isRetryableStatusCode(resp.StatusCode) {
			return resp, nil
		}

		if err != nil && !t.inspector.IsRetryable(err) {
			return nil, err
		}

		if attempt >= attempts-1 {
			if err != nil {
				return nil, neterror.WithRetryInfo(err, attempt+1, attempts)
			}
			return resp, nil
		}

		var cause error
		if err != nil {
			cause = neterror.WithRetryInfo(err, attempt+1, attempts)
		} else {
			cause = neterror.WithRetryInfo(fmt.Errorf("received status %d", resp.StatusCode), attempt+1, attempts)
			resp.Body.Close()
		}
		t.log.Warn("transient fetch failure, retrying",
			"url", req.URL.String(), "backoff", backoff, "error", cause)

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		}
	}
}

// isRetryableStatusCode checks if an HTTP status code should trigger a retry.
func isRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
