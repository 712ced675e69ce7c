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
package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// EarningsEstimate is the single forward-looking earnings row kept per
// company. Pointer fields are nullable columns: a source that did not report
// the value leaves it nil rather than zero.
type EarningsEstimate struct {
	CompanyID    uuid.UUID    `json:"company_id" db:"company_id"`
	EarningsDate time.Time    `json:"earnings_date" db:"earnings_date"`
	DateRange    *string      `json:"date_range" db:"date_range"`
	ReleaseTime  *string      `json:"release_time" db:"release_time"`
	MarketTiming MarketTiming `json:"market_timing" db:"market_timing"`
	EPSEstimate  *float64     `json:"eps_estimate" db:"eps_estimate"`
	YearAgoEPS   *float64     `json:"year_ago_eps" db:"year_ago_eps"`
	LastUpdated  time.Time    `json:"last_updated" db:"last_updated"`
}

// Replace removes every estimate row for the company and inserts this one,
// in a single transaction. Earnings dates move between refreshes, so an
// upsert keyed on the date would strand rows for dates that are no longer
// announced; replacing the company's rows wholesale cannot.
func (estimate *EarningsEstimate) Replace(ctx context.Context, dbConn DB) error {
	tx, err := dbConn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	deleteSQL := fmt.Sprintf(`DELETE FROM %s WHERE company_id = $1`, estimatesTable)
	if _, err := tx.Exec(ctx, deleteSQL, estimate.CompanyID); err != nil {
		log.Error().Err(err).Str("SQL", deleteSQL).Msg("error clearing prior earnings estimates")
		return err
	}

	insertSQL := fmt.Sprintf(`INSERT INTO %s (
		"company_id",
		"earnings_date",
		"date_range",
		"release_time",
		"market_timing",
		"eps_estimate",
		"year_ago_eps",
		"last_updated"
	) VALUES (
		$1,
		$2,
		$3,
		$4,
		$5,
		$6,
		$7,
		$8
	);`, estimatesTable)

	estimate.LastUpdated = time.Now()

	if _, err := tx.Exec(ctx, insertSQL, estimate.CompanyID, estimate.EarningsDate,
		estimate.DateRange, estimate.ReleaseTime, estimate.MarketTiming,
		estimate.EPSEstimate, estimate.YearAgoEPS, estimate.LastUpdated); err != nil {
		log.Error().Err(err).Str("SQL", insertSQL).Msg("error saving earnings estimate to database")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	return nil
}
