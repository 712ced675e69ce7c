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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/penny-vault/pvearnings/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCompanyRegistersNewTicker(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	defer mock.Close()

	companyID := uuid.New()
	registered := time.Now()

	mock.ExpectExec("INSERT INTO companies").
		WithArgs(pgxmock.AnyArg(), "CRM", "CRM", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery("SELECT id, ticker, name, last_updated FROM companies WHERE ticker").
		WithArgs("CRM").
		WillReturnRows(pgxmock.NewRows([]string{"id", "ticker", "name", "last_updated"}).
			AddRow(companyID, "CRM", "CRM", registered))

	myStore := NewWithDB(mock)

	company, err := myStore.EnsureCompany(context.Background(), " crm ")
	require.NoError(t, err)

	assert.Equal(t, companyID, company.ID)
	assert.Equal(t, "CRM", company.Ticker)
	assert.Equal(t, "CRM", company.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureCompanyKeepsExistingRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	defer mock.Close()

	existingID := uuid.New()
	registered := time.Now().Add(-48 * time.Hour)

	mock.ExpectExec("INSERT INTO companies").
		WithArgs(pgxmock.AnyArg(), "CRM", "CRM", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	mock.ExpectQuery("SELECT id, ticker, name, last_updated FROM companies WHERE ticker").
		WithArgs("CRM").
		WillReturnRows(pgxmock.NewRows([]string{"id", "ticker", "name", "last_updated"}).
			AddRow(existingID, "CRM", "Salesforce Inc", registered))

	myStore := NewWithDB(mock)

	company, err := myStore.EnsureCompany(context.Background(), "CRM")
	require.NoError(t, err)

	assert.Equal(t, existingID, company.ID, "the stored row wins over the placeholder")
	assert.Equal(t, "Salesforce Inc", company.Name,
		"a previously discovered display name must survive re-registration")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyByTickerNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	defer mock.Close()

	mock.ExpectQuery("SELECT id, ticker, name, last_updated FROM companies WHERE ticker").
		WithArgs("NOPE").
		WillReturnError(pgx.ErrNoRows)

	myStore := NewWithDB(mock)

	_, err = myStore.CompanyByTicker(context.Background(), "NOPE")
	assert.ErrorIs(t, err, data.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackedCompaniesOrderedByTicker(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	defer mock.Close()

	registered := time.Now()

	mock.ExpectQuery("SELECT id, ticker, name, last_updated FROM companies ORDER BY ticker").
		WillReturnRows(pgxmock.NewRows([]string{"id", "ticker", "name", "last_updated"}).
			AddRow(uuid.New(), "AAPL", "Apple Inc", registered).
			AddRow(uuid.New(), "MSFT", "Microsoft Corporation", registered))

	myStore := NewWithDB(mock)

	companies, err := myStore.TrackedCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)

	assert.Equal(t, "AAPL", companies[0].Ticker)
	assert.Equal(t, "MSFT", companies[1].Ticker)

	assert.NoError(t, mock.ExpectationsWereMet())
}
