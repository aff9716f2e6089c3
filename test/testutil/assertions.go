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


package testutil

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

// AssertMarker checks that the marker file holds want.
func AssertMarker(t *testing.T, path string, want time.Time) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read marker: %v", err)
	}

	got, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("Marker %q is not RFC 3339: %v", data, err)
	}
	if !got.Equal(want) {
		t.Errorf("marker = %v, want %v", got, want)
	}
}

// AssertManifest validates that a manifest holds one valid record per line
// and returns the recorded site paths.
func AssertManifest(t *testing.T, path string) []string {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open manifest: %v", err)
	}
	defer file.Close()

	var paths []string
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Errorf("Line %d: invalid JSON: %v", line, err)
			continue
		}
		for _, field := range []string{"path", "file", "kind", "bytes", "sha256"} {
			if _, ok := rec[field]; !ok {
				t.Errorf("Line %d: missing required field '%s'", line, field)
			}
		}
		if p, ok := rec["path"].(string); ok {
			paths = append(paths, p)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading manifest: %v", err)
	}
	return paths
}
