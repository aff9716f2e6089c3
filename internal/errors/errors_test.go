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

package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{
			name:     "wrapped retry exhaustion",
			err:      fmt.Errorf("site tier: %w", ErrRetryExhausted),
			sentinel: ErrRetryExhausted,
			want:     true,
		},
		{
			name:     "transport error unwraps to sentinel",
			err:      &TransportError{URL: "https://example.com/a", StatusCode: 500},
			sentinel: ErrTransport,
			want:     true,
		},
		{
			name:     "transport error keeps its cause",
			err:      &TransportError{URL: "https://example.com/a", Err: ErrNetworkFailure},
			sentinel: ErrNetworkFailure,
			want:     true,
		},
		{
			name:     "ahead mismatch",
			err:      &MismatchError{Path: "/a", Ahead: true},
			sentinel: ErrAheadMismatch,
			want:     true,
		},
		{
			name:     "stale mismatch is not ahead",
			err:      &MismatchError{Path: "/a"},
			sentinel: ErrAheadMismatch,
			want:     false,
		},
		{
			name:     "nil error",
			err:      nil,
			sentinel: ErrTransport,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{URL: "https://example.com/missing", StatusCode: 404}
	assert.Equal(t, "fetch https://example.com/missing: 404 Not Found", err.Error())
	assert.True(t, err.IsNotFoundError())
	assert.False(t, err.IsNetworkError())

	netErr := &TransportError{URL: "https://example.com", Err: errors.New("dial tcp: connection refused")}
	assert.Contains(t, netErr.Error(), "connection refused")
	assert.True(t, netErr.IsNetworkError())
}

func TestMismatchErrorMessage(t *testing.T) {
	ref := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := &MismatchError{Path: "/blog", Observed: ref.Add(time.Hour), Reference: ref, Ahead: true}
	assert.Equal(t, "/blog published 2024-03-01T13:00:00Z is newer than reference 2024-03-01T12:00:00Z", err.Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"site exhaustion", fmt.Errorf("site: %w", ErrRetryExhausted), ExitExhausted},
		{"entry failure", fmt.Errorf("%w: 500", ErrEntryFetch), ExitNetwork},
		{"network", ErrNetworkFailure, ExitNetwork},
		{"other", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
