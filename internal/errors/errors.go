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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrTransport indicates the source site answered with a non-success status
	// or could not be reached. Retryable for ordinary pages, fatal for the
	// entry page and the stylesheet.
	ErrTransport = errors.New("transport failure")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrEntryFetch indicates the entry page could not be fetched or carries
	// no publish stamp. Maps to exit code 3.
	ErrEntryFetch = errors.New("entry page unavailable")

	// ErrStylesheet indicates the site stylesheet could not be captured.
	ErrStylesheet = errors.New("stylesheet unavailable")

	// ErrTimestampMissing indicates a resource exposes no publish stamp.
	// Degraded confidence, never fatal on its own.
	ErrTimestampMissing = errors.New("publish timestamp not found")

	// ErrStaleMismatch indicates a resource is older than the pass reference.
	ErrStaleMismatch = errors.New("resource older than reference")

	// ErrAheadMismatch indicates a resource is newer than the pass reference,
	// meaning the site was republished mid-crawl.
	ErrAheadMismatch = errors.New("resource newer than reference")

	// ErrRetryExhausted indicates a retry tier ran out of attempts.
	// At site tier this maps to exit code 4.
	ErrRetryExhausted = errors.New("too many retries")
)

// TransportError reports a failed fetch. StatusCode is zero when the request
// never produced a response.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes both the transport sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// IsNotFoundError reports whether the site answered 404 or 410.
func (e *TransportError) IsNotFoundError() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// IsNetworkError reports whether no HTTP response was received.
func (e *TransportError) IsNetworkError() bool {
	return e.StatusCode == 0
}

// MismatchError carries the two timestamps that disagreed.
type MismatchError struct {
	Path      string
	Observed  time.Time
	Reference time.Time
	Ahead     bool
}

func (e *MismatchError) Error() string {
	rel := "older"
	if e.Ahead {
		rel = "newer"
	}
	return fmt.Sprintf("%s published %s is %s than reference %s",
		e.Path, e.Observed.Format(time.RFC3339), rel, e.Reference.Format(time.RFC3339))
}

func (e *MismatchError) Unwrap() error {
	if e.Ahead {
		return ErrAheadMismatch
	}
	return ErrStaleMismatch
}

// Exit codes returned by the CLI.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitNetwork   = 3
	ExitExhausted = 4
)

// ExitCode maps an error returned from a run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, ErrRetryExhausted) {
		return ExitExhausted
	}

	if errors.Is(err, ErrEntryFetch) ||
		errors.Is(err, ErrNetworkFailure) {
		return ExitNetwork
	}

	return ExitGeneral
}
