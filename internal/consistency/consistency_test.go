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


package consistency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	ref := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := ref.Add(d)
		return &ts
	}

	tests := []struct {
		name      string
		observed  *time.Time
		tolerance time.Duration
		want      Result
	}{
		{"equal", at(0), time.Second, Result{Verdict: Pass}},
		{"slightly newer", at(500 * time.Millisecond), time.Second, Result{Verdict: Pass}},
		{"slightly older", at(-999 * time.Millisecond), time.Second, Result{Verdict: Pass}},
		{"older at tolerance", at(-time.Second), time.Second, Result{Verdict: Stale}},
		{"newer at tolerance", at(time.Second), time.Second, Result{Verdict: Ahead}},
		{"much older", at(-time.Hour), time.Second, Result{Verdict: Stale}},
		{"much newer", at(time.Hour), time.Second, Result{Verdict: Ahead}},
		{"zero tolerance equal", at(0), 0, Result{Verdict: Pass}},
		{"zero tolerance newer", at(time.Millisecond), 0, Result{Verdict: Ahead}},
		{"wide tolerance", at(-30 * time.Second), time.Minute, Result{Verdict: Pass}},
		{"no stamp", nil, time.Second, Result{Verdict: Pass, Degraded: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.observed, ref, tt.tolerance))
		})
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "pass", Pass.String())
	assert.Equal(t, "stale", Stale.String())
	assert.Equal(t, "ahead", Ahead.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}
