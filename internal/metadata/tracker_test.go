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


package metadata

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testParams(site string) RunParams {
	return RunParams{
		Site:            site,
		Entry:           []string{"/"},
		Layout:          "directory",
		Concurrency:     8,
		ResourceRetries: 3,
		SiteRetries:     3,
		Tolerance:       "1s",
	}
}

func TestTracker_Counters(t *testing.T) {
	tracker := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.IncrementFetch()
			tracker.IncrementStaleRetry()
		}()
	}
	wg.Wait()
	tracker.IncrementRestart()

	published := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	md := tracker.GenerateMetadata("v1.2.3", StatusCommitted, testParams("https://example.com"), published, 12, nil)

	if md.Results.Fetches != 50 {
		t.Errorf("Fetches = %d, want 50", md.Results.Fetches)
	}
	if md.Results.StaleRetries != 50 {
		t.Errorf("StaleRetries = %d, want 50", md.Results.StaleRetries)
	}
	if md.Results.Restarts != 1 || tracker.Restarts() != 1 {
		t.Errorf("Restarts = %d, want 1", md.Results.Restarts)
	}
	if md.Results.Pages != 12 {
		t.Errorf("Pages = %d, want 12", md.Results.Pages)
	}
	if !md.Results.Published.Equal(published) {
		t.Errorf("Published = %v, want %v", md.Results.Published, published)
	}
	if md.Version != "v1.2.3" {
		t.Errorf("Version = %s, want v1.2.3", md.Version)
	}
	if md.Status != StatusCommitted {
		t.Errorf("Status = %s, want %s", md.Status, StatusCommitted)
	}
	if _, err := uuid.Parse(md.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", md.RunID, err)
	}
	if md.RunID != tracker.RunID() {
		t.Errorf("RunID = %s, want tracker id %s", md.RunID, tracker.RunID())
	}
}

func TestTracker_DropsAndReset(t *testing.T) {
	tracker := New()

	tracker.RecordDrop("/b", "stale after 4 attempts")
	tracker.RecordDrop("/a", "404 Not Found")
	tracker.RecordDegraded("/plain")

	md := tracker.GenerateMetadata("dev", StatusCommitted, testParams("https://example.com"), time.Now(), 3, nil)
	if len(md.Results.Dropped) != 2 {
		t.Fatalf("Dropped = %v, want 2 entries", md.Results.Dropped)
	}
	if md.Results.Dropped[0].Path != "/a" || md.Results.Dropped[1].Path != "/b" {
		t.Errorf("Dropped not sorted by path: %v", md.Results.Dropped)
	}
	if len(md.Results.Degraded) != 1 || md.Results.Degraded[0] != "/plain" {
		t.Errorf("Degraded = %v, want [/plain]", md.Results.Degraded)
	}

	tracker.ResetPass()
	md = tracker.GenerateMetadata("dev", StatusCommitted, testParams("https://example.com"), time.Now(), 3, nil)
	if len(md.Results.Dropped) != 0 || len(md.Results.Degraded) != 0 {
		t.Errorf("after ResetPass: dropped=%v degraded=%v", md.Results.Dropped, md.Results.Degraded)
	}
}

func TestSaveAndLoadMetadata(t *testing.T) {
	tempDir := t.TempDir()

	older := New()
	older.startTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := older.GenerateMetadata("dev", StatusCommitted, testParams("https://example.com"), time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 4, nil)

	newer := New()
	newer.startTime = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	second := newer.GenerateMetadata("dev", StatusCommitted, testParams("https://example.com"), time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), 5, first.Ref())

	other := New()
	other.startTime = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	third := other.GenerateMetadata("dev", StatusCommitted, testParams("https://other.example"), time.Now(), 1, nil)

	for _, md := range []*RunMetadata{first, second, third} {
		path, err := SaveMetadata(md, tempDir)
		if err != nil {
			t.Fatalf("SaveMetadata failed: %v", err)
		}
		if !strings.HasPrefix(filepath.Base(path), "snapshot-metadata-") {
			t.Errorf("unexpected file name %s", path)
		}
	}

	loaded, err := LoadLatestMetadata(tempDir, "https://example.com")
	if err != nil {
		t.Fatalf("LoadLatestMetadata failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadLatestMetadata returned nil")
	}
	if loaded.RunID != second.RunID {
		t.Errorf("RunID = %s, want latest %s", loaded.RunID, second.RunID)
	}
	if loaded.PreviousRun == nil || loaded.PreviousRun.RunID != first.RunID {
		t.Errorf("PreviousRun = %+v, want link to %s", loaded.PreviousRun, first.RunID)
	}
	if loaded.Results.Pages != 5 {
		t.Errorf("Pages = %d, want 5", loaded.Results.Pages)
	}
}

func TestLoadLatestMetadata_Empty(t *testing.T) {
	loaded, err := LoadLatestMetadata(t.TempDir(), "https://example.com")
	if err != nil {
		t.Fatalf("LoadLatestMetadata failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil metadata, got %+v", loaded)
	}
}

func TestLoadLatestMetadata_Corrupted(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "snapshot-metadata-1.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadLatestMetadata(tempDir, "https://example.com"); err == nil {
		t.Error("expected error for corrupted metadata")
	}
}

func TestWriteMetadataToWriter(t *testing.T) {
	md := New().GenerateMetadata("dev", StatusSkipped, testParams("https://example.com"), time.Now(), 0, nil)

	var buf bytes.Buffer
	if err := WriteMetadataToWriter(md, &buf); err != nil {
		t.Fatalf("WriteMetadataToWriter failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["status"] != StatusSkipped {
		t.Errorf("status = %v, want %s", decoded["status"], StatusSkipped)
	}
	if !strings.Contains(buf.String(), "\n  \"run_id\"") {
		t.Error("expected indented output")
	}
}
