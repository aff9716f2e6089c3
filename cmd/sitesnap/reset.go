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

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sitesnap/internal/state"
)

func newResetCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the last snapshot so the next run captures unconditionally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			path := cfg.Resolve(cfg.Output.Marker)
			if err := state.NewMarker(path).Delete(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed snapshot marker %s\n", path)
			return nil
		},
	}
}
