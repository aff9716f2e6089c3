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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	snaperrors "github.com/sirseerhq/sitesnap/internal/errors"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(snaperrors.ExitCode(err))
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "sitesnap",
		Short: "Capture consistent snapshots of a published website",
		Long: `sitesnap mirrors a website that is edited and published elsewhere.
It crawls the live site, checks every page and the stylesheet against the
publish stamp of the entry page, and only commits a snapshot when they all
agree. A run that finds nothing new since the last snapshot is skipped.`,
		Version:       version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default: sitesnap.yml in the workspace)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log encoding: console or json")

	rootCmd.AddCommand(newSnapshotCommand(flags))
	rootCmd.AddCommand(newStatusCommand(flags))
	rootCmd.AddCommand(newResetCommand(flags))

	return rootCmd
}
