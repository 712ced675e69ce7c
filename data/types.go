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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MarketTiming locates an earnings release relative to the regular trading
// session (09:30 - 16:00 eastern)
type MarketTiming string

const (
	TimingBefore  MarketTiming = "before"
	TimingDuring  MarketTiming = "during"
	TimingAfter   MarketTiming = "after"
	TimingUnknown MarketTiming = "unknown"
)

const (
	companiesTable = "companies"
	actualsTable   = "eps_actuals"
	estimatesTable = "earnings_estimates"
)

var (
	ErrNotFound = errors.New("not found")
)

// DB is the subset of a pgx connection pool the data layer writes through.
// Both *pgxpool.Pool and the pgxmock pool satisfy it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
