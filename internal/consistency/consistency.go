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


// Package consistency decides whether a fetched resource belongs to the same
// published version of the site as the entry page a pass started from.
package consistency

import "time"

// DefaultTolerance absorbs clock skew between the page and stylesheet stamps
// of a single publish.
const DefaultTolerance = time.Second

// Verdict is the outcome of comparing a resource stamp with the reference.
type Verdict int

const (
	// Pass means the resource was published together with the reference.
	Pass Verdict = iota
	// Stale means the resource predates the reference, typically a CDN edge
	// that has not caught up yet.
	Stale
	// Ahead means the resource is newer than the reference: the site was
	// republished while the pass was running.
	Ahead
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Stale:
		return "stale"
	case Ahead:
		return "ahead"
	default:
		return "unknown"
	}
}

// Result carries a verdict and whether it was reached without a stamp.
type Result struct {
	Verdict Verdict
	// Degraded is set when the resource had no stamp and was accepted blind.
	Degraded bool
}

// Classify compares observed against reference. Differences strictly smaller
// than tolerance pass, and identical stamps pass even with zero tolerance.
// A nil observed stamp passes with Degraded set.
func Classify(observed *time.Time, reference time.Time, tolerance time.Duration) Result {
	if observed == nil {
		return Result{Verdict: Pass, Degraded: true}
	}

	diff := observed.Sub(reference)
	if diff == 0 {
		return Result{Verdict: Pass}
	}
	if diff < 0 {
		if -diff < tolerance {
			return Result{Verdict: Pass}
		}
		return Result{Verdict: Stale}
	}
	if diff < tolerance {
		return Result{Verdict: Pass}
	}
	return Result{Verdict: Ahead}
}
