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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sitesnap/internal/config"
	"github.com/sirseerhq/sitesnap/internal/logger"
	"github.com/sirseerhq/sitesnap/internal/snapshot"
)

type snapshotFlags struct {
	site        string
	outputDir   string
	layout      string
	force       bool
	concurrency int
	rateLimit   float64
	manifest    string
	metricsFile string
}

func newSnapshotCommand(global *globalFlags) *cobra.Command {
	var flags snapshotFlags

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the live site into the mirror",
		Long: `Capture the live site into the output directory.

The entry page's "Last Published" stamp is compared with the marker of the
previous snapshot. If it is not newer the run is skipped. Otherwise every
reachable page and the site stylesheet are fetched and checked against that
stamp; stale pages are retried, and a republish during the crawl restarts
it. The marker is replaced only after every file was written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			applySnapshotFlags(cmd, cfg, &flags)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return runSnapshot(cmd.Context(), cfg, log, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.site, "site", "", "Base URL of the live site (overrides config)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Mirror directory")
	cmd.Flags().StringVar(&flags.layout, "layout", "", "Page layout: directory (about/index.html) or file (about.html)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Capture even if the site did not change")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Parallel fetches")
	cmd.Flags().Float64Var(&flags.rateLimit, "rate-limit", 0, "Requests per second, 0 for unlimited")
	cmd.Flags().StringVar(&flags.manifest, "manifest", "", "Write an NDJSON manifest of committed files")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format")

	return cmd
}

func applySnapshotFlags(cmd *cobra.Command, cfg *config.Config, flags *snapshotFlags) {
	fs := cmd.Flags()
	if changed(fs, "site") {
		cfg.Site = strings.TrimRight(strings.TrimSpace(flags.site), "/")
	}
	if changed(fs, "output-dir") {
		cfg.Output.Dir = flags.outputDir
	}
	if changed(fs, "layout") {
		cfg.Output.Layout = flags.layout
	}
	if changed(fs, "force") {
		cfg.Force = flags.force
	}
	if changed(fs, "concurrency") {
		cfg.Crawl.Concurrency = flags.concurrency
	}
	if changed(fs, "rate-limit") {
		cfg.Crawl.RateLimit = flags.rateLimit
	}
	if changed(fs, "manifest") {
		cfg.Output.Manifest = flags.manifest
	}
	if changed(fs, "metrics-file") {
		cfg.Output.MetricsFile = flags.metricsFile
	}
}

func runSnapshot(ctx context.Context, cfg *config.Config, log logger.Interface, w io.Writer) error {
	runner := snapshot.NewRunner(cfg, snapshot.NewClient(cfg, log), log, snapshot.WithVersion(version))

	out, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	switch out.Status {
	case snapshot.StatusSkipped:
		fmt.Fprintf(w, "Snapshot skipped: %s is current\n", out.Timestamp.Format("2006-01-02 15:04:05 MST"))
	default:
		fmt.Fprintf(w, "Snapshot committed: %d pages published %s", out.Pages, out.Timestamp.Format("2006-01-02 15:04:05 MST"))
		if n := len(out.Dropped); n > 0 {
			fmt.Fprintf(w, ", %d dropped", n)
		}
		if out.Restarts > 0 {
			fmt.Fprintf(w, ", %d restarts", out.Restarts)
		}
		fmt.Fprintln(w)
	}
	return nil
}
