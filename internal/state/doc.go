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


// Package state provides atomic persistence of the snapshot marker.
//
// The marker holds the publish timestamp of the last committed snapshot as a
// single RFC 3339 line. A run compares it with the live entry page to decide
// whether anything changed. The marker is the commit point of a snapshot:
// it is only replaced after every mirror file was written, and the
// replacement itself uses a write-to-temp-and-rename pattern so a crash never
// leaves a half-written marker behind.
//
// Example usage:
//
//	m := state.NewMarker(".timestamp")
//	last, err := m.Load()
//	...
//	err = m.Save(published)
package state
