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


package output

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RecordWriter defines the interface for writing manifest records.
type RecordWriter interface {
	// Write writes a single record to the output.
	// The record should be immediately flushed to avoid memory accumulation.
	Write(record any) error

	// Close closes the underlying writer and releases any resources.
	// This should be called when all writing is complete.
	Close() error
}

// Record describes one file of a committed snapshot.
type Record struct {
	Path      string     `json:"path"`
	File      string     `json:"file"`
	Kind      string     `json:"kind"`
	Bytes     int        `json:"bytes"`
	SHA256    string     `json:"sha256"`
	Published *time.Time `json:"published,omitempty"`
}

// NewRecord builds a manifest record for the content written to file.
func NewRecord(sitePath, file, kind, content string, published *time.Time) Record {
	sum := sha256.Sum256([]byte(content))
	return Record{
		Path:      sitePath,
		File:      file,
		Kind:      kind,
		Bytes:     len(content),
		SHA256:    hex.EncodeToString(sum[:]),
		Published: published,
	}
}
