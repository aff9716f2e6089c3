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

import "time"

// Epoch is the marker value when no snapshot was ever committed. Any live
// publish stamp compares newer.
var Epoch = time.Unix(0, 0).UTC()

// Marker is the on-disk snapshot marker at Path.
type Marker struct {
	Path string
}

// NewMarker returns the marker stored at path.
func NewMarker(path string) *Marker {
	return &Marker{Path: path}
}

// Load returns the committed timestamp, Epoch if none was committed.
func (m *Marker) Load() (time.Time, error) {
	return LoadMarker(m.Path)
}

// Save atomically replaces the committed timestamp.
func (m *Marker) Save(ts time.Time) error {
	return SaveMarker(m.Path, ts)
}

// Delete removes the marker so the next run captures unconditionally.
func (m *Marker) Delete() error {
	return DeleteMarker(m.Path)
}
