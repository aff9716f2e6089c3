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


package mirror

import (
	"path"
	"strings"

	"github.com/sirseerhq/sitesnap/internal/config"
	"github.com/sirseerhq/sitesnap/internal/fetcher"
)

// FileFor maps a site path to its file in the mirror. The mapping depends
// only on its inputs, so repeated commits overwrite the same files.
//
//	layout directory:  /  -> index.html   /a/b -> a/b/index.html
//	layout file:       /  -> index.html   /a/b -> a/b.html
//
// Non-HTML resources keep their own path: /style.css -> style.css.
func FileFor(sitePath, layout string, kind fetcher.Kind) string {
	clean := strings.TrimPrefix(path.Clean("/"+sitePath), "/")

	if kind != fetcher.KindHTML {
		return clean
	}
	if clean == "" {
		return "index.html"
	}
	if layout == config.LayoutFile {
		return clean + ".html"
	}
	return clean + "/index.html"
}
