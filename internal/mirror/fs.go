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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem the mirror is written to. Names are slash-separated
// and relative to the mirror root.
type FS interface {
	Exists(name string) (bool, error)
	// Mkdir creates a single directory. It returns an error matching
	// fs.ErrExist when the directory is already there.
	Mkdir(name string) error
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
}

// OSFS is an FS rooted at a directory on disk.
type OSFS struct {
	Root string
}

// NewOSFS returns an FS rooted at root, creating root if needed.
func NewOSFS(root string) (*OSFS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root: %w", err)
	}
	return &OSFS{Root: root}, nil
}

func (o *OSFS) path(name string) string {
	return filepath.Join(o.Root, filepath.FromSlash(name))
}

// Exists reports whether name exists.
func (o *OSFS) Exists(name string) (bool, error) {
	_, err := os.Stat(o.path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Mkdir creates the directory name.
func (o *OSFS) Mkdir(name string) error {
	return os.Mkdir(o.path(name), 0o755)
}

// ReadFile reads the file name.
func (o *OSFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(o.path(name))
}

// WriteFile writes data to name, replacing it.
func (o *OSFS) WriteFile(name string, data []byte) error {
	return os.WriteFile(o.path(name), data, 0o644)
}
