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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveHistoricalEPSWritesEachQuarter(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	companyID := uuid.New()

	records := []*HistoricalEPS{
		{FiscalPeriod: "Q1 2025", EPS: 1.31, FilingDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)},
		{FiscalPeriod: "Q4 2024", EPS: 1.18, FilingDate: time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)},
	}

	for _, record := range records {
		mock.ExpectExec("INSERT INTO eps_actuals").
			WithArgs(companyID, record.FiscalPeriod, record.EPS, record.FilingDate).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, SaveHistoricalEPS(context.Background(), mock, companyID, records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A restated quarter appears twice in a newest-filed-first series; only the
// restated value may reach the database.
func TestSaveHistoricalEPSKeepsNewestFilingPerQuarter(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	companyID := uuid.New()

	records := []*HistoricalEPS{
		{FiscalPeriod: "Q2 2024", EPS: 1.12, FilingDate: time.Date(2024, 11, 8, 0, 0, 0, 0, time.UTC)},
		{FiscalPeriod: "Q2 2024", EPS: 1.1, FilingDate: time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)},
	}

	mock.ExpectExec("INSERT INTO eps_actuals").
		WithArgs(companyID, "Q2 2024", 1.12, records[0].FilingDate).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, SaveHistoricalEPS(context.Background(), mock, companyID, records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanySaveLeavesExistingRowAlone(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	company := &Company{
		ID:     uuid.New(),
		Ticker: "ACME",
		Name:   "ACME",
	}

	mock.ExpectExec("INSERT INTO companies").
		WithArgs(company.ID, "ACME", "ACME", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, company.Save(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRename(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	company := &Company{
		ID:     uuid.New(),
		Ticker: "ACME",
		Name:   "ACME",
	}

	mock.ExpectExec("UPDATE companies SET name").
		WithArgs("ACME Holdings Inc.", pgxmock.AnyArg(), company.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, company.Rename(context.Background(), mock, "ACME Holdings Inc."))
	assert.Equal(t, "ACME Holdings Inc.", company.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizeTicker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"acme", "ACME"},
		{" brk.b ", "BRK.B"},
		{"AAPL", "AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeTicker(tt.in))
		})
	}
}
