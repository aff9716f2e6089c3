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

// Package neterror classifies fetch failures so transports and the crawl can
// decide what deserves another attempt.
package neterror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Inspector defines methods for classifying fetch errors.
type Inspector interface {
	// IsNotFoundError returns true if the error represents a missing page.
	IsNotFoundError(err error) bool

	// IsNetworkError returns true if the error represents a network connectivity error.
	IsNetworkError(err error) bool

	// IsRetryable returns true if repeating the same request may succeed.
	IsRetryable(err error) bool
}

// StringInspector classifies errors by their message. It is the fallback for
// errors produced outside this module (net/http, DNS, TLS).
type StringInspector struct{}

// NewInspector returns an Inspector that checks the error chain first and
// falls back to message inspection.
func NewInspector() Inspector {
	return &ChainInspector{base: &StringInspector{}}
}

// IsNotFoundError checks if the error is a not found error.
func (i *StringInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "not found")
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *StringInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "unexpected eof") ||
		strings.Contains(errStr, "network is unreachable")
}

// IsRetryable treats network errors as transient.
func (i *StringInspector) IsRetryable(err error) bool {
	return i.IsNetworkError(err)
}

// ChainInspector wraps a base inspector and adds support for checking errors
// in the error chain using errors.Is and errors.As.
type ChainInspector struct {
	base Inspector
}

// IsNotFoundError checks the error chain first, then falls back to base inspector.
func (c *ChainInspector) IsNotFoundError(err error) bool {
	var notFoundErr interface{ IsNotFoundError() bool }
	if errors.As(err, &notFoundErr) {
		return notFoundErr.IsNotFoundError()
	}
	return c.base.IsNotFoundError(err)
}

// IsNetworkError checks the error chain first, then falls back to base inspector.
func (c *ChainInspector) IsNetworkError(err error) bool {
	var networkErr interface{ IsNetworkError() bool }
	if errors.As(err, &networkErr) && networkErr.IsNetworkError() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return c.base.IsNetworkError(err)
}

// IsRetryable never retries cancellation; otherwise network errors are transient.
func (c *ChainInspector) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return c.IsNetworkError(err)
}

// RetryError annotates an error with the attempt it failed on.
type RetryError struct {
	Err         error
	Attempt     int
	MaxAttempts int
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%v (attempt %d/%d)", e.Err, e.Attempt, e.MaxAttempts)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// WithRetryInfo wraps err with attempt information.
func WithRetryInfo(err error, attempt, maxAttempts int) error {
	if err == nil {
		return nil
	}
	return &RetryError{Err: err, Attempt: attempt, MaxAttempts: maxAttempts}
}
