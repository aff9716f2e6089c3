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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sitesnap/internal/metadata"
	"github.com/sirseerhq/sitesnap/internal/state"
)

func newStatusCommand(global *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last committed snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			ts, err := state.NewMarker(cfg.Resolve(cfg.Output.Marker)).Load()
			if err != nil {
				return err
			}
			md, err := metadata.LoadLatestMetadata(cfg.Resolve(cfg.Output.MetadataDir), cfg.Site)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				if md == nil {
					return fmt.Errorf("no run metadata found for %s", cfg.Site)
				}
				return metadata.WriteMetadataToWriter(md, w)
			}

			if ts.Equal(state.Epoch) {
				fmt.Fprintln(w, "No snapshot committed yet")
				return nil
			}
			fmt.Fprintf(w, "Last snapshot: %s\n", ts.Format(time.RFC3339))
			if md != nil {
				fmt.Fprintf(w, "Run: %s (%d pages, %d dropped, %d restarts, %s)\n",
					md.RunID, md.Results.Pages, len(md.Results.Dropped), md.Results.Restarts, md.Results.Duration)
				for _, d := range md.Results.Dropped {
					fmt.Fprintf(w, "  dropped %s: %s\n", d.Path, d.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the latest run record as JSON")
	return cmd
}
