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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HistoricalEPS is one reported quarter of diluted (or basic, when diluted
// is unavailable) earnings per share taken from a regulatory filing.
type HistoricalEPS struct {
	FiscalPeriod string    `json:"fiscal_period" db:"fiscal_period"`
	EPS          float64   `json:"eps"`
	FilingDate   time.Time `json:"filing_date" db:"filing_date"`
}

// SaveHistoricalEPS upserts reported quarters for a company. Rows are only
// written when absent or when the stored value differs, and existing rows
// are never deleted; records later in the slice never overwrite an earlier
// record for the same fiscal period, so callers pass newest-filed-first.
func SaveHistoricalEPS(ctx context.Context, dbConn DB, companyID uuid.UUID, records []*HistoricalEPS) error {
	sql := fmt.Sprintf(`INSERT INTO %[1]s (
		"company_id",
		"fiscal_period",
		"eps",
		"filing_date"
	) VALUES (
		$1,
		$2,
		$3,
		$4
	) ON CONFLICT ON CONSTRAINT %[1]s_pkey
	DO UPDATE SET
		eps = EXCLUDED.eps,
		filing_date = EXCLUDED.filing_date
	WHERE %[1]s.eps IS DISTINCT FROM EXCLUDED.eps
	   OR %[1]s.filing_date IS DISTINCT FROM EXCLUDED.filing_date;`, actualsTable)

	seen := make(map[string]bool, len(records))

	for _, record := range records {
		if seen[record.FiscalPeriod] {
			continue
		}

		seen[record.FiscalPeriod] = true

		if _, err := dbConn.Exec(ctx, sql, companyID, record.FiscalPeriod,
			record.EPS, record.FilingDate); err != nil {
			log.Error().Err(err).Str("SQL", sql).
				Str("FiscalPeriod", record.FiscalPeriod).
				Msg("error saving historical eps to database")
			return err
		}
	}

	return nil
}
