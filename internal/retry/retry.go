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


// Package retry implements the bounded retry loop shared by both consistency
// tiers. An operation asks for another attempt by returning Again; anything
// else ends the loop with the operation's own result.
package retry

import (
	"context"
	"fmt"
	"time"

	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
)

// Tier names the scope a policy retries.
type Tier string

const (
	// TierResource re-fetches a single page or stylesheet.
	TierResource Tier = "resource"
	// TierSite throws the whole pass away and starts over.
	TierSite Tier = "site"
)

// Decision is returned by an operation to steer the loop.
type Decision int

const (
	// Stop ends the loop with the returned value and error.
	Stop Decision = iota
	// Again requests another attempt after the policy delay.
	Again
)

// Policy bounds a retry loop. The operation runs at most 1+MaxRetries times.
type Policy struct {
	Tier       Tier
	MaxRetries int
	Delay      time.Duration
}

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Op is one attempt. attempt counts from zero.
type Op[T any] func(ctx context.Context, attempt int) (T, Decision, error)

// ExhaustedError is returned when every allowed attempt asked for Again.
type ExhaustedError struct {
	Tier     Tier
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s tier: %d attempts: %v", e.Tier, e.Attempts, snaperrors.ErrRetryExhausted)
	}
	return fmt.Sprintf("%s tier: %d attempts: %v: %v", e.Tier, e.Attempts, snaperrors.ErrRetryExhausted, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	if e.Err == nil {
		return []error{snaperrors.ErrRetryExhausted}
	}
	return []error{snaperrors.ErrRetryExhausted, e.Err}
}

// Do runs op until it returns Stop or the policy is exhausted. The error
// passed with the last Again is kept as the cause of exhaustion.
func Do[T any](ctx context.Context, p Policy, op Op[T]) (T, error) {
	var zero T
	var lastErr error

	attempts := p.Attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, p.Delay); err != nil {
				return zero, err
			}
		}

		v, decision, err := op(ctx, attempt)
		if decision != Again {
			return v, err
		}
		lastErr = err
	}

	return zero, &ExhaustedError{Tier: p.Tier, Attempts: attempts, Err: lastErr}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
