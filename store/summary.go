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
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvearnings/data"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NumCompanies returns the count of registered companies
func (myStore *Store) NumCompanies(ctx context.Context) (int, error) {
	count := 0
	err := myStore.db.QueryRow(ctx, "SELECT count(*) FROM companies").Scan(&count)
	return count, err
}

// NumEstimates returns the count of stored earnings estimates
func (myStore *Store) NumEstimates(ctx context.Context) (int, error) {
	count := 0
	err := myStore.db.QueryRow(ctx, "SELECT count(*) FROM earnings_estimates").Scan(&count)
	return count, err
}

// NumReportedQuarters returns the count of reported quarterly results on file
func (myStore *Store) NumReportedQuarters(ctx context.Context) (int, error) {
	count := 0
	err := myStore.db.QueryRow(ctx, "SELECT count(*) FROM eps_actuals").Scan(&count)
	return count, err
}

// LastUpdated returns the time of the most recent estimate refresh
func (myStore *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	var lastUpdated time.Time
	err := myStore.db.QueryRow(ctx,
		"SELECT coalesce(max(last_updated), '0001-01-01'::timestamp) FROM earnings_estimates").
		Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, err
	}

	return lastUpdated, nil
}

// timingPhrase converts a stored market-timing value into display text
func timingPhrase(timing *string) string {
	if timing == nil {
		return ""
	}

	switch data.MarketTiming(*timing) {
	case data.TimingBefore:
		return "before market open"
	case data.TimingDuring:
		return "during market hours"
	case data.TimingAfter:
		return "after market close"
	}

	return ""
}

// Summary returns a description of the earnings library in markdown
func (myStore *Store) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# Earnings Library\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Database connection string
	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", myStore.DBUrl)); err != nil {
		return "", err
	}

	// Number of registered companies
	numCompanies, err := myStore.NumCompanies(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies Tracked: %d\n", numCompanies)); err != nil {
		return "", err
	}

	// Scheduled estimate count
	numEstimates, err := myStore.NumEstimates(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Scheduled Estimates: %d\n", numEstimates)); err != nil {
		return "", err
	}

	// Reported quarter count
	numReported, err := myStore.NumReportedQuarters(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Reported Quarters: %d\n\n", numReported)); err != nil {
		return "", err
	}

	// Last refresh time
	lastUpdated, err := myStore.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	age := timeago.English.Format(lastUpdated)

	if lastUpdated.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Updated: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	// Scheduled earnings
	if _, err := builder.WriteString("## Scheduled earnings\n\n"); err != nil {
		return "", err
	}

	statuses, err := myStore.CompanyStatuses(ctx)
	if err != nil {
		return "", err
	}

	for _, status := range statuses {
		if status.EarningsDate == nil {
			continue
		}

		when := status.EarningsDate.Format("Jan 2, 2006")
		if status.DateRange != nil {
			when = *status.DateRange
		}

		line := fmt.Sprintf("  * %s %s - %s", status.Ticker, status.Name, when)

		if phrase := timingPhrase(status.MarketTiming); phrase != "" {
			line = fmt.Sprintf("%s %s", line, phrase)
		}

		if status.ReleaseTime != nil {
			line = fmt.Sprintf("%s at %s", line, *status.ReleaseTime)
		}

		if status.EPSEstimate != nil {
			line = p.Sprintf("%s [est %.2f]", line, *status.EPSEstimate)
		}

		if _, err := builder.WriteString(line + "\n"); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
