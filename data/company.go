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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Company is a tracked issuer. Companies are created implicitly the first
// time a refresh references their ticker; the display name starts out equal
// to the ticker and is replaced once an extraction source reports one.
type Company struct {
	ID          uuid.UUID `json:"id"`
	Ticker      string    `json:"ticker"`
	Name        string    `json:"name"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// NormalizeTicker upper-cases and trims a user-supplied ticker
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Save inserts the company, leaving any existing row untouched so a
// previously discovered display name survives re-registration
func (company *Company) Save(ctx context.Context, dbConn DB) error {
	sql := fmt.Sprintf(`INSERT INTO %[1]s (
		"id",
		"ticker",
		"name",
		"last_updated"
	) VALUES (
		$1,
		$2,
		$3,
		$4
	) ON CONFLICT ON CONSTRAINT %[1]s_ticker_key
	DO NOTHING;`, companiesTable)

	company.LastUpdated = time.Now()

	_, err := dbConn.Exec(ctx, sql, company.ID, company.Ticker, company.Name,
		company.LastUpdated)
	if err != nil {
		log.Error().Err(err).Str("SQL", sql).Str("Ticker", company.Ticker).
			Msg("error saving company to database")
		return err
	}

	return nil
}

// Rename updates the display name once an extraction source discovers it
func (company *Company) Rename(ctx context.Context, dbConn DB, name string) error {
	sql := fmt.Sprintf(`UPDATE %[1]s SET name = $1, last_updated = $2 WHERE id = $3`,
		companiesTable)

	_, err := dbConn.Exec(ctx, sql, name, time.Now(), company.ID)
	if err != nil {
		log.Error().Err(err).Str("SQL", sql).Str("Ticker", company.Ticker).
			Msg("error renaming company")
		return err
	}

	company.Name = name

	return nil
}
