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


// Package metadata types define the structures used for recording what a
// snapshot run did. One record is written per committed run.
package metadata

import (
	"time"
)

// RunMetadata represents the complete metadata record for a single snapshot
// run: what was asked for, what was captured and what was left out.
type RunMetadata struct {
	Version     string     `json:"sitesnap_version"`
	RunID       string     `json:"run_id"`
	Status      string     `json:"status"`
	Parameters  RunParams  `json:"parameters"`
	Results     RunResults `json:"results"`
	PreviousRun *RunRef    `json:"previous_run,omitempty"`
}

// RunParams captures the inputs of a run.
type RunParams struct {
	Site            string   `json:"site"`
	Entry           []string `json:"entry"`
	Layout          string   `json:"layout"`
	Concurrency     int      `json:"concurrency"`
	ResourceRetries int      `json:"resource_retries"`
	SiteRetries     int      `json:"site_retries"`
	Tolerance       string   `json:"tolerance"`
	Force           bool     `json:"force"`
}

// RunResults contains statistics about a completed run.
type RunResults struct {
	Published    time.Time     `json:"published"`
	Pages        int           `json:"pages"`
	Dropped      []DroppedPage `json:"dropped,omitempty"`
	Degraded     []string      `json:"degraded,omitempty"`
	Restarts     int           `json:"restarts"`
	StaleRetries int           `json:"stale_retries"`
	Fetches      int           `json:"fetches"`
	Duration     string        `json:"run_duration"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at"`
}

// DroppedPage is a page left out of the snapshot and why.
type DroppedPage struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RunRef links a run to its predecessor.
type RunRef struct {
	RunID       string    `json:"run_id"`
	Published   time.Time `json:"published"`
	CompletedAt time.Time `json:"completed_at"`
}
