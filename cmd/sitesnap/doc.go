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


// Package main implements the sitesnap command-line interface.
// sitesnap captures a consistent snapshot of a live, externally published
// website into a local mirror, committing only when every captured resource
// carries the same publish stamp as the entry page.
//
// Usage:
//
//	sitesnap snapshot [flags]
//	sitesnap status
//	sitesnap reset
//
// Example:
//
//	sitesnap snapshot --site https://www.example.com --output-dir public
//
// Exit codes:
//   - 0: Snapshot committed, or skipped because nothing changed
//   - 1: General error
//   - 3: Entry page or network unavailable
//   - 4: Site kept changing; site-tier retries exhausted
package main
