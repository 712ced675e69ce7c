// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvearnings/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xeonx/timeago"
)

// companiesCmd represents the companies command
var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List tracked companies and their scheduled earnings",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myStore, err := store.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myStore.Close()

		statuses, err := myStore.CompanyStatuses(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not list companies")
		}

		builder := strings.Builder{}
		builder.WriteString("# Tracked Companies\n\n")

		if len(statuses) == 0 {
			builder.WriteString("No companies tracked yet; run `pvearnings refresh <ticker>` to add one.\n")
		}

		for _, status := range statuses {
			line := fmt.Sprintf("  * %s %s", status.Ticker, status.Name)

			if status.EarningsDate != nil {
				when := status.EarningsDate.Format("Jan 2, 2006")
				if status.DateRange != nil {
					when = *status.DateRange
				}

				line = fmt.Sprintf("%s - earnings %s", line, when)
			}

			line = fmt.Sprintf("%s (updated %s)\n", line, timeago.English.Format(status.LastUpdated))
			builder.WriteString(line)
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(builder.String())
		if err != nil {
			log.Fatal().Err(err).Msg("could not render company list")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}
