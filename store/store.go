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
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvearnings/data"
)

// Store wraps the database pool with the queries the refresh pipeline and
// the CLI commands use.
type Store struct {
	DBUrl string

	pool *pgxpool.Pool
	db   data.DB
}

// NewFromDB connects a store to the configured database
func NewFromDB(ctx context.Context, dbURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		DBUrl: dbURL,
		pool:  pool,
		db:    pool,
	}, nil
}

// NewWithDB wraps an already-opened connection
func NewWithDB(db data.DB) *Store {
	return &Store{db: db}
}

// Close releases the database pool
func (myStore *Store) Close() {
	if myStore.pool != nil {
		myStore.pool.Close()
	}
}

// EnsureCompany returns the tracked company for ticker, registering it first
// when absent. A newly registered company uses its ticker as a placeholder
// display name until an extraction source reports the real one.
func (myStore *Store) EnsureCompany(ctx context.Context, ticker string) (*data.Company, error) {
	company := &data.Company{
		ID:     uuid.New(),
		Ticker: data.NormalizeTicker(ticker),
		Name:   data.NormalizeTicker(ticker),
	}

	if err := company.Save(ctx, myStore.db); err != nil {
		return nil, err
	}

	// the insert is a no-op when the ticker is already registered; read the
	// canonical row back in either case
	return myStore.CompanyByTicker(ctx, company.Ticker)
}

// CompanyByTicker fetches a single tracked company, returning
// data.ErrNotFound when the ticker is not registered
func (myStore *Store) CompanyByTicker(ctx context.Context, ticker string) (*data.Company, error) {
	company := &data.Company{}

	err := myStore.db.QueryRow(ctx,
		`SELECT id, ticker, name, last_updated FROM companies WHERE ticker = $1`,
		data.NormalizeTicker(ticker)).
		Scan(&company.ID, &company.Ticker, &company.Name, &company.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, data.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return company, nil
}

// TrackedCompanies returns every registered company ordered by ticker
func (myStore *Store) TrackedCompanies(ctx context.Context) ([]*data.Company, error) {
	var companies []*data.Company
	err := pgxscan.Select(ctx, myStore.db, &companies,
		`SELECT id, ticker, name, last_updated FROM companies ORDER BY ticker`)
	return companies, err
}

// CompanyStatus pairs a tracked company with its scheduled earnings row for
// listings; the estimate fields are nil when no refresh has produced one
type CompanyStatus struct {
	ID           uuid.UUID  `db:"id"`
	Ticker       string     `db:"ticker"`
	Name         string     `db:"name"`
	LastUpdated  time.Time  `db:"last_updated"`
	EarningsDate *time.Time `db:"earnings_date"`
	DateRange    *string    `db:"date_range"`
	ReleaseTime  *string    `db:"release_time"`
	MarketTiming *string    `db:"market_timing"`
	EPSEstimate  *float64   `db:"eps_estimate"`
}

// CompanyStatuses returns every registered company joined with its estimate
func (myStore *Store) CompanyStatuses(ctx context.Context) ([]*CompanyStatus, error) {
	var statuses []*CompanyStatus
	err := pgxscan.Select(ctx, myStore.db, &statuses,
		`SELECT c.id, c.ticker, c.name, c.last_updated, e.earnings_date,
e.date_range, e.release_time, e.market_timing, e.eps_estimate
FROM companies c
LEFT JOIN earnings_estimates e ON e.company_id = c.id
ORDER BY c.ticker`)
	return statuses, err
}

// RenameCompany updates a company's display name
func (myStore *Store) RenameCompany(ctx context.Context, company *data.Company, name string) error {
	return company.Rename(ctx, myStore.db, name)
}

// SaveHistory upserts reported quarterly results for a company
func (myStore *Store) SaveHistory(ctx context.Context, companyID uuid.UUID, records []*data.HistoricalEPS) error {
	return data.SaveHistoricalEPS(ctx, myStore.db, companyID, records)
}

// ReportedHistory returns the reported quarters on file for a company,
// newest filing first
func (myStore *Store) ReportedHistory(ctx context.Context, companyID uuid.UUID) ([]*data.HistoricalEPS, error) {
	var records []*data.HistoricalEPS
	err := pgxscan.Select(ctx, myStore.db, &records,
		`SELECT fiscal_period, eps, filing_date FROM eps_actuals
WHERE company_id = $1 ORDER BY filing_date DESC, fiscal_period DESC`,
		companyID)
	return records, err
}

// ReplaceEstimate swaps the company's stored estimate for the given one
func (myStore *Store) ReplaceEstimate(ctx context.Context, estimate *data.EarningsEstimate) error {
	return estimate.Replace(ctx, myStore.db)
}
