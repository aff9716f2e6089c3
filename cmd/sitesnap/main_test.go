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


package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/sitesnap/internal/config"
	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
	"github.com/sirseerhq/sitesnap/internal/metadata"
	"github.com/sirseerhq/sitesnap/test/testutil"
)

var published = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// workspace points the config loader at a fresh directory.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GITHUB_WORKSPACE", dir)
	for _, key := range []string{
		"GITHUB_REPOSITORY", "SITESNAP_SITE", "SITESNAP_OUTPUT_DIR",
		"SITESNAP_LOG_LEVEL", "SITESNAP_CONCURRENCY", "INPUT_FORCE",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSnapshotCommand(t *testing.T) {
	dir := workspace(t)
	site := testutil.NewSite(t, published)
	site.AddPage("/", "/about")
	site.AddPage("/about")

	args := []string{"snapshot", "--site", site.URL + "/", "--rate-limit", "0", "--log-format", "json"}

	stdout, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Snapshot committed: 2 pages")
	testutil.AssertMarker(t, filepath.Join(dir, ".timestamp"), published)
	testutil.AssertFileExists(t, filepath.Join(dir, "public", "about", "index.html"))

	stdout, stderr, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Snapshot skipped")
	assert.Contains(t, stderr, "snapshot skipped: no changes since last snapshot")

	stdout, _, err = execute(t, append(args, "--force")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Snapshot committed")
}

func TestSnapshotCommand_ConfigFile(t *testing.T) {
	dir := workspace(t)
	site := testutil.NewSite(t, published)
	site.AddPage("/", "/about", "/drafts/wip")
	site.AddPage("/about")
	site.AddPage("/drafts/wip")

	testutil.CreateTempFile(t, dir, "sitesnap.yml", `
site: `+site.URL+`
pages:
  ignore: ["/drafts/**"]
crawl:
  rate_limit: 0
output:
  dir: mirror
  layout: file
`)

	_, _, err := execute(t, "snapshot")
	require.NoError(t, err)

	testutil.AssertFileExists(t, filepath.Join(dir, "mirror", "about.html"))
	testutil.AssertFileNotExists(t, filepath.Join(dir, "mirror", "drafts", "wip.html"))
	assert.Zero(t, site.Requests("/drafts/wip"))
}

func TestSnapshotCommand_EntryFailureExitCode(t *testing.T) {
	workspace(t)
	site := testutil.NewSite(t, published)
	site.SetPage("/", testutil.PageSpec{Status: 500})

	_, _, err := execute(t, "snapshot", "--site", site.URL, "--rate-limit", "0")
	require.Error(t, err)
	assert.Equal(t, snaperrors.ExitNetwork, snaperrors.ExitCode(err))
}

func TestSnapshotCommand_InvalidConfig(t *testing.T) {
	workspace(t)

	_, _, err := execute(t, "snapshot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site is not configured")
	assert.Equal(t, snaperrors.ExitGeneral, snaperrors.ExitCode(err))
}

func TestStatusAndReset(t *testing.T) {
	dir := workspace(t)
	site := testutil.NewSite(t, published)
	t.Setenv("SITESNAP_SITE", site.URL)

	stdout, _, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No snapshot committed yet")

	_, _, err = execute(t, "snapshot", "--rate-limit", "0")
	require.NoError(t, err)

	stdout, _, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Last snapshot: 2024-03-01T12:00:00Z")
	assert.Contains(t, stdout, "1 pages")

	stdout, _, err = execute(t, "status", "--json")
	require.NoError(t, err)
	var md metadata.RunMetadata
	require.NoError(t, json.Unmarshal([]byte(stdout), &md))
	assert.Equal(t, metadata.StatusCommitted, md.Status)
	assert.Equal(t, site.URL, md.Parameters.Site)

	stdout, _, err = execute(t, "reset")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Removed snapshot marker"))
	testutil.AssertFileNotExists(t, filepath.Join(dir, ".timestamp"))

	stdout, _, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No snapshot committed yet")
}

func TestApplySnapshotFlags_OnlyChanged(t *testing.T) {
	cmd := newSnapshotCommand(&globalFlags{})
	require.NoError(t, cmd.Flags().Parse([]string{"--layout", "file", "--concurrency", "2"}))

	cfg := config.DefaultConfig()
	cfg.Site = "https://configured.example"
	cfg.Output.Dir = "configured"

	flags := snapshotFlags{layout: "file", concurrency: 2}
	applySnapshotFlags(cmd, cfg, &flags)

	assert.Equal(t, "https://configured.example", cfg.Site)
	assert.Equal(t, "configured", cfg.Output.Dir)
	assert.Equal(t, config.LayoutFile, cfg.Output.Layout)
	assert.Equal(t, 2, cfg.Crawl.Concurrency)
}
