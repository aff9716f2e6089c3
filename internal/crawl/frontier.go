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

package crawl

import "sync"

// Frontier is the per-pass set of discovered paths. A path is handed out
// at most once per pass no matter how often it is linked.
type Frontier struct {
	mu       sync.Mutex
	visited  map[string]struct{}
	pending  []string
	inflight int
	wake     chan struct{}
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		visited: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Add enqueues p unless it was seen before in this pass. The check and the
// mark happen under one lock.
func (f *Frontier) Add(p string) bool {
	f.mu.Lock()
	if _, seen := f.visited[p]; seen {
		f.mu.Unlock()
		return false
	}
	f.visited[p] = struct{}{}
	f.pending = append(f.pending, p)
	f.mu.Unlock()

	f.signal()
	return true
}

// MarkVisited records p as seen without scheduling it.
func (f *Frontier) MarkVisited(p string) {
	f.mu.Lock()
	f.visited[p] = struct{}{}
	f.mu.Unlock()
}

// Next pops a pending path and counts it as in flight. When nothing is
// pending it reports drained if nothing is in flight either; otherwise the
// caller should wait on Wake.
func (f *Frontier) Next() (p string, ok, drained bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) == 0 {
		return "", false, f.inflight == 0
	}
	p = f.pending[0]
	f.pending = f.pending[1:]
	f.inflight++
	return p, true, false
}

// Done marks an in-flight path finished.
func (f *Frontier) Done() {
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	f.signal()
}

// Wake fires after Add or Done.
func (f *Frontier) Wake() <-chan struct{} {
	return f.wake
}

// Seen returns the number of distinct paths discovered.
func (f *Frontier) Seen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

func (f *Frontier) signal() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}
