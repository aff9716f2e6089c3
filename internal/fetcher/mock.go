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
	"net/http"
	"sync"

	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
)

// MockResponse is one canned answer of a MockClient.
type MockResponse struct {
	Body        string
	ContentType string
	// StatusCode other than 2xx yields a TransportError. Zero means 200.
	StatusCode int
	Err        error
}

// MockClient is a mock implementation of the Client interface for testing.
// Each URL answers from its own sequence; once the sequence is exhausted the
// last answer repeats. It is safe for concurrent use.
type MockClient struct {
	mu        sync.Mutex
	responses map[string][]MockResponse
	calls     map[string]int
	order     []string

	// OnFetch, if set, runs before each answer is chosen.
	OnFetch func(url string, call int)
}

// NewMockClient creates an empty mock client. Unknown URLs answer 404.
func NewMockClient() *MockClient {
	return &MockClient{
		responses: make(map[string][]MockResponse),
		calls:     make(map[string]int),
	}
}

// Set makes url answer with an HTML body.
func (m *MockClient) Set(url, body string) *MockClient {
	return m.SetSequence(url, MockResponse{Body: body, ContentType: "text/html; charset=utf-8"})
}

// SetSequence makes url answer with responses in order.
func (m *MockClient) SetSequence(url string, responses ...MockResponse) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = responses
	return m
}

// Calls returns how often url was fetched.
func (m *MockClient) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// Order returns every fetched URL in call order.
func (m *MockClient) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Fetch implements the Client interface.
func (m *MockClient) Fetch(ctx context.Context, url string) (*Response, error) {
	// Check for context cancellation
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	call := m.calls[url]
	m.calls[url] = call + 1
	m.order = append(m.order, url)
	hook := m.OnFetch
	m.mu.Unlock()

	if hook != nil {
		hook(url, call)
	}

	m.mu.Lock()
	seq := m.responses[url]
	m.mu.Unlock()

	if len(seq) == 0 {
		return nil, &snaperrors.TransportError{URL: url, StatusCode: http.StatusNotFound}
	}
	r := seq[len(seq)-1]
	if call < len(seq) {
		r = seq[call]
	}

	if r.Err != nil {
		return nil, r.Err
	}
	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status > 299 {
		return nil, &snaperrors.TransportError{URL: url, StatusCode: status}
	}

	return &Response{
		URL:         url,
		StatusCode:  status,
		ContentType: r.ContentType,
		Kind:        DetectKind(r.ContentType, url),
		Body:        []byte(r.Body),
	}, nil
}
