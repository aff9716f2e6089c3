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


// Package metadata provides functionality for tracking and persisting metadata
// about snapshot runs. It records how many resources were fetched, which
// pages were dropped and why, how often the crawl restarted, and links each
// run to the previous one.
//
// Metadata is saved as JSON files next to the snapshot marker, allowing
// external tools to follow capture history and spot flaky pages.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sitesnap/internal/state"
)

// Status values of a run record.
const (
	StatusCommitted = "committed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Tracker collects statistics during a run. Crawl workers report to it
// concurrently, so every method is safe for concurrent use.
type Tracker struct {
	mu           sync.Mutex
	runID        string
	startTime    time.Time
	fetches      int
	staleRetries int
	restarts     int
	dropped      map[string]string
	degraded     map[string]struct{}
}

// New creates a new metadata tracker with a fresh run ID.
// Call this at the beginning of a run to start tracking.
func New() *Tracker {
	return &Tracker{
		runID:     uuid.NewString(),
		startTime: time.Now(),
		dropped:   make(map[string]string),
		degraded:  make(map[string]struct{}),
	}
}

// RunID returns the identifier of the tracked run.
func (t *Tracker) RunID() string {
	return t.runID
}

// IncrementFetch records one completed request to the source site.
func (t *Tracker) IncrementFetch() {
	t.mu.Lock()
	t.fetches++
	t.mu.Unlock()
}

// IncrementStaleRetry records a resource re-fetched because it was stale.
func (t *Tracker) IncrementStaleRetry() {
	t.mu.Lock()
	t.staleRetries++
	t.mu.Unlock()
}

// IncrementRestart records a site-tier restart.
func (t *Tracker) IncrementRestart() {
	t.mu.Lock()
	t.restarts++
	t.mu.Unlock()
}

// Restarts returns the number of site-tier restarts so far.
func (t *Tracker) Restarts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restarts
}

// RecordDrop records a page left out of the snapshot.
func (t *Tracker) RecordDrop(path, reason string) {
	t.mu.Lock()
	t.dropped[path] = reason
	t.mu.Unlock()
}

// RecordDegraded records a page accepted without a publish stamp.
func (t *Tracker) RecordDegraded(path string) {
	t.mu.Lock()
	t.degraded[path] = struct{}{}
	t.mu.Unlock()
}

// ResetPass forgets per-pass observations. Called when a pass is abandoned,
// since its drops no longer describe the snapshot being committed.
func (t *Tracker) ResetPass() {
	t.mu.Lock()
	t.dropped = make(map[string]string)
	t.degraded = make(map[string]struct{})
	t.mu.Unlock()
}

// GenerateMetadata creates the record of the run. Call this once the run
// has reached its final status.
func (t *Tracker) GenerateMetadata(version, status string, params RunParams, published time.Time, pages int, previous *RunRef) *RunMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := time.Now()

	dropped := make([]DroppedPage, 0, len(t.dropped))
	for p, reason := range t.dropped {
		dropped = append(dropped, DroppedPage{Path: p, Reason: reason})
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].Path < dropped[j].Path })

	degraded := make([]string, 0, len(t.degraded))
	for p := range t.degraded {
		degraded = append(degraded, p)
	}
	sort.Strings(degraded)

	return &RunMetadata{
		Version:    version,
		RunID:      t.runID,
		Status:     status,
		Parameters: params,
		Results: RunResults{
			Published:    published.UTC(),
			Pages:        pages,
			Dropped:      dropped,
			Degraded:     degraded,
			Restarts:     t.restarts,
			StaleRetries: t.staleRetries,
			Fetches:      t.fetches,
			Duration:     completedAt.Sub(t.startTime).String(),
			StartedAt:    t.startTime,
			CompletedAt:  completedAt,
		},
		PreviousRun: previous,
	}
}

// Ref returns a lightweight reference to this record.
func (m *RunMetadata) Ref() *RunRef {
	return &RunRef{
		RunID:       m.RunID,
		Published:   m.Results.Published,
		CompletedAt: m.Results.CompletedAt,
	}
}

// SaveMetadata persists a RunMetadata record to a JSON file in dir. The file
// is written atomically and named snapshot-metadata-{unix}.json so the
// history sorts by start time.
func SaveMetadata(metadata *RunMetadata, dir string) (string, error) {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	filename := fmt.Sprintf("snapshot-metadata-%d.json", metadata.Results.StartedAt.Unix())
	target := filepath.Join(dir, filename)

	if err := state.WriteFileAtomic(target, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to save metadata file: %w", err)
	}

	return target, nil
}

// LoadLatestMetadata finds and loads the most recent metadata file in dir
// recorded for site. Returns nil if there is none.
func LoadLatestMetadata(dir, site string) (*RunMetadata, error) {
	pattern := filepath.Join(dir, "snapshot-metadata-*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}

	var latest *RunMetadata
	for _, file := range files {
		data, readErr := os.ReadFile(file)
		if readErr != nil {
			continue
		}

		var md RunMetadata
		if err := json.Unmarshal(data, &md); err != nil {
			return nil, fmt.Errorf("failed to parse metadata %s: %w", file, err)
		}
		if md.Parameters.Site != site {
			continue
		}
		if latest == nil || md.Results.StartedAt.After(latest.Results.StartedAt) {
			latest = &md
		}
	}

	return latest, nil
}

// WriteMetadataToWriter serializes metadata to JSON and writes it to the
// provided io.Writer. The output is formatted with indentation for readability.
func WriteMetadataToWriter(metadata *RunMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}
