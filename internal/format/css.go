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


package format

import (
	"fmt"
	"strings"

	"github.com/gorilla/css/scanner"
)

// CSS lays a stylesheet out one declaration per line and drops the
// Generated on comment. Token values are written unchanged.
func CSS(raw string) (string, error) {
	s := scanner.New(raw)

	var (
		b           strings.Builder
		depth       int
		lineStart   = true
		pendingSpace bool
	)
	newline := func() {
		if !lineStart {
			b.WriteByte('\n')
			lineStart = true
		}
		pendingSpace = false
	}
	write := func(v string) {
		if lineStart {
			b.WriteString(strings.Repeat(indentUnit, depth))
			lineStart = false
		} else if pendingSpace {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteString(v)
	}

	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			newline()
			return b.String(), nil
		case scanner.TokenError:
			return "", fmt.Errorf("css line %d column %d: %s", tok.Line, tok.Column, tok.Value)
		case scanner.TokenS:
			pendingSpace = true
		case scanner.TokenComment:
			if strings.Contains(tok.Value, "Generated on:") {
				continue
			}
			newline()
			write(tok.Value)
			newline()
		case scanner.TokenChar:
			switch tok.Value {
			case "{":
				pendingSpace = true
				write("{")
				depth++
				newline()
			case "}":
				newline()
				if depth > 0 {
					depth--
				}
				write("}")
				newline()
			case ";":
				pendingSpace = false
				write(";")
				newline()
			default:
				write(tok.Value)
			}
		default:
			write(tok.Value)
		}
	}
}
