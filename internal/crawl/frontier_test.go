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


package crawl

import (
	"sync"
	"testing"
)

func TestFrontier_AddOnce(t *testing.T) {
	f := NewFrontier()

	if !f.Add("/a") {
		t.Fatal("first Add(/a) = false, want true")
	}
	if f.Add("/a") {
		t.Error("second Add(/a) = true, want false")
	}

	f.MarkVisited("/")
	if f.Add("/") {
		t.Error("Add(/) after MarkVisited = true, want false")
	}
	if got := f.Seen(); got != 2 {
		t.Errorf("Seen() = %d, want 2", got)
	}
}

func TestFrontier_Drain(t *testing.T) {
	f := NewFrontier()

	if _, ok, drained := f.Next(); ok || !drained {
		t.Fatalf("empty frontier: ok=%v drained=%v, want false true", ok, drained)
	}

	f.Add("/a")
	p, ok, _ := f.Next()
	if !ok || p != "/a" {
		t.Fatalf("Next() = %q %v, want /a true", p, ok)
	}

	// In flight: nothing pending but not drained.
	if _, ok, drained := f.Next(); ok || drained {
		t.Errorf("in flight: ok=%v drained=%v, want false false", ok, drained)
	}

	f.Done()
	select {
	case <-f.Wake():
	default:
		t.Error("Done did not signal Wake")
	}
	if _, _, drained := f.Next(); !drained {
		t.Error("frontier not drained after Done")
	}
}

func TestFrontier_ConcurrentAdd(t *testing.T) {
	f := NewFrontier()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, p := range []string{"/a", "/b", "/c"} {
				if f.Add(p) {
					mu.Lock()
					added++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
}
