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


package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirseerhq/sitesnap/internal/extract"
)

// SaveMarker atomically writes ts to the marker file as RFC 3339 in UTC.
func SaveMarker(markerFile string, ts time.Time) error {
	data := []byte(ts.UTC().Format(time.RFC3339) + "\n")
	if err := WriteFileAtomic(markerFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to save marker: %w", err)
	}
	return nil
}

// LoadMarker reads the marker file. A missing or empty marker yields Epoch.
// Markers written by older tooling in the builder's date format are accepted.
func LoadMarker(markerFile string) (time.Time, error) {
	data, err := os.ReadFile(markerFile)
	if err != nil {
		if os.IsNotExist(err) {
			return Epoch, nil
		}
		return time.Time{}, fmt.Errorf("failed to read marker file %s: %w", markerFile, err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return Epoch, nil
	}

	ts, err := extract.ParseStamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("marker file %s is corrupted: %w", markerFile, err)
	}
	return ts, nil
}

// DeleteMarker removes the marker file.
// This is useful for forcing the next run to capture.
func DeleteMarker(markerFile string) error {
	err := os.Remove(markerFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete marker file: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to path through a synced temporary file in the
// same directory and a rename, so readers see either the old or the new
// content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Create a temporary file in the same directory
	tempFile := path + ".tmp"

	if err := os.WriteFile(tempFile, data, perm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	// Sync to ensure data is flushed to disk
	file, err := os.Open(tempFile)
	if err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
