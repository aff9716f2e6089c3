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


// Package format normalizes captured markup and stylesheets so that two
// captures of the same publish produce identical files. Publish stamps are
// removed since they change on every publish even when content does not.
package format

import (
	"github.com/sirseerhq/sitesnap/internal/fetcher"
)

// Format normalizes raw according to kind. Kinds without a formatter are
// returned unchanged.
func Format(raw string, kind fetcher.Kind) (string, error) {
	switch kind {
	case fetcher.KindHTML:
		return HTML(raw)
	case fetcher.KindCSS:
		return CSS(raw)
	default:
		return raw, nil
	}
}
