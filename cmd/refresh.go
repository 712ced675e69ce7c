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
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvearnings/data"
	"github.com/penny-vault/pvearnings/edgar"
	"github.com/penny-vault/pvearnings/fetch"
	"github.com/penny-vault/pvearnings/healthcheck"
	"github.com/penny-vault/pvearnings/refresh"
	"github.com/penny-vault/pvearnings/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	refreshCSV string
	refreshAll bool
)

type csvTicker struct {
	Ticker string `csv:"ticker"`
}

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh [ticker...]",
	Short: "Refresh earnings estimates for the given tickers",
	Long: `The refresh sub-command updates each ticker's reported quarterly results
from SEC EDGAR and its upcoming earnings estimate from the extraction sites,
then replaces the stored estimate. Tickers are processed sequentially through
a single browser session. Tickers may be given as arguments, loaded from a
CSV file with a 'ticker' column, or expanded to every tracked company.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		myStore, err := store.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myStore.Close()

		tickers, err := gatherTickers(ctx, myStore, args)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build ticker list")
		}

		if len(tickers) == 0 {
			log.Fatal().Msg("no tickers to refresh; pass tickers, --csv, or --all")
		}

		edgarClient := edgar.NewClient(fetch.NewClient(nil))
		refresher := refresh.New(myStore, edgarClient)

		summary := refresher.RefreshBatch(ctx, tickers)

		printBatchSummary(summary)
		pingHealthcheck(summary)

		if summary.Failed > 0 {
			os.Exit(1)
		}
	},
}

// gatherTickers builds the normalized, de-duplicated ticker list from the
// command arguments, the --csv file, and --all
func gatherTickers(ctx context.Context, myStore *store.Store, args []string) ([]string, error) {
	raw := make([]string, 0, len(args))
	raw = append(raw, args...)

	if refreshCSV != "" {
		csvBytes, err := os.ReadFile(refreshCSV)
		if err != nil {
			return nil, err
		}

		var rows []*csvTicker
		if err := gocsv.UnmarshalBytes(csvBytes, &rows); err != nil {
			return nil, err
		}

		for _, row := range rows {
			raw = append(raw, row.Ticker)
		}
	}

	if refreshAll {
		companies, err := myStore.TrackedCompanies(ctx)
		if err != nil {
			return nil, err
		}

		for _, company := range companies {
			raw = append(raw, company.Ticker)
		}
	}

	seen := make(map[string]bool, len(raw))
	tickers := make([]string, 0, len(raw))

	for _, ticker := range raw {
		normalized := data.NormalizeTicker(ticker)
		if normalized == "" || seen[normalized] {
			continue
		}

		seen[normalized] = true
		tickers = append(tickers, normalized)
	}

	return tickers, nil
}

func printBatchSummary(summary *refresh.BatchSummary) {
	var sb strings.Builder

	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}

	fmt.Fprintf(&sb, "%s\n\nTotal: %s\nSuccessful: %s\nFailed: %s\n",
		lipgloss.NewStyle().Bold(true).Render("EARNINGS REFRESH"),
		keyword(fmt.Sprintf("%d", summary.Total)),
		keyword(fmt.Sprintf("%d", summary.Successful)),
		keyword(fmt.Sprintf("%d", summary.Failed)),
	)

	if len(summary.Errors) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", lipgloss.NewStyle().Bold(true).Render("Errors"))
		for _, message := range summary.Errors {
			fmt.Fprintf(&sb, "\n%s", keyword(message))
		}
	}

	fmt.Println(
		lipgloss.NewStyle().
			Width(60).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Render(sb.String()),
	)
}

// pingHealthcheck reports the run outcome to healthchecks.io when a check is
// configured
func pingHealthcheck(summary *refresh.BatchSummary) {
	checkID := viper.GetString("healthchecks.check_id")
	if checkID == "" {
		return
	}

	var err error
	if summary.Failed == 0 {
		err = healthcheck.Ping(checkID)
	} else {
		err = healthcheck.PingFailure(checkID)
	}

	if err != nil {
		log.Warn().Err(err).Msg("could not ping healthcheck")
	}
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVar(&refreshCSV, "csv", "", "CSV file with a 'ticker' column to refresh")
	refreshCmd.Flags().BoolVar(&refreshAll, "all", false, "refresh every tracked company")
}
