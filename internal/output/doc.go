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


// Package output writes the snapshot manifest in NDJSON (Newline Delimited
// JSON) format: one record per mirrored file, streamed as files are
// committed so large sites never accumulate the manifest in memory.
//
// The primary type is Writer, which provides thread-safe writing of JSON
// records to an io.Writer or file.
//
// Example usage:
//
//	w, err := output.NewFileWriter("public/manifest.ndjson")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	err = w.Write(output.NewRecord("/about", "about/index.html", "html", body, published))
package output
