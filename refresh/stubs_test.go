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
package refresh_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/penny-vault/pvearnings/data"
	"github.com/penny-vault/pvearnings/sites"
	"github.com/playwright-community/playwright-go"
)

type stubStore struct {
	companies    map[string]*data.Company
	reported     map[uuid.UUID][]*data.HistoricalEPS
	savedHistory map[uuid.UUID][]*data.HistoricalEPS
	estimates    []*data.EarningsEstimate
	renames      map[string]string

	ensureErr  error
	replaceErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		companies:    make(map[string]*data.Company),
		reported:     make(map[uuid.UUID][]*data.HistoricalEPS),
		savedHistory: make(map[uuid.UUID][]*data.HistoricalEPS),
		renames:      make(map[string]string),
	}
}

func (myStore *stubStore) EnsureCompany(_ context.Context, ticker string) (*data.Company, error) {
	if myStore.ensureErr != nil {
		return nil, myStore.ensureErr
	}

	ticker = data.NormalizeTicker(ticker)
	if company, ok := myStore.companies[ticker]; ok {
		return company, nil
	}

	company := &data.Company{ID: uuid.New(), Ticker: ticker, Name: ticker}
	myStore.companies[ticker] = company

	return company, nil
}

func (myStore *stubStore) RenameCompany(_ context.Context, company *data.Company, name string) error {
	myStore.renames[company.Ticker] = name
	company.Name = name
	return nil
}

func (myStore *stubStore) SaveHistory(_ context.Context, companyID uuid.UUID, records []*data.HistoricalEPS) error {
	myStore.savedHistory[companyID] = records
	return nil
}

func (myStore *stubStore) ReportedHistory(_ context.Context, companyID uuid.UUID) ([]*data.HistoricalEPS, error) {
	return myStore.reported[companyID], nil
}

func (myStore *stubStore) ReplaceEstimate(_ context.Context, estimate *data.EarningsEstimate) error {
	if myStore.replaceErr != nil {
		return myStore.replaceErr
	}

	myStore.estimates = append(myStore.estimates, estimate)
	return nil
}

type stubFilings struct {
	ciks       map[string]string
	history    map[string][]*data.HistoricalEPS
	resolveErr error
}

func newStubFilings() *stubFilings {
	return &stubFilings{
		ciks:    make(map[string]string),
		history: make(map[string][]*data.HistoricalEPS),
	}
}

func (filings *stubFilings) ResolveIdentifier(_ context.Context, ticker string) (string, error) {
	if filings.resolveErr != nil {
		return "", filings.resolveErr
	}

	return filings.ciks[data.NormalizeTicker(ticker)], nil
}

func (filings *stubFilings) QuarterlyEPS(_ context.Context, cik string) []*data.HistoricalEPS {
	return filings.history[cik]
}

type stubSession struct {
	closed bool
}

func (session *stubSession) NewPage() (playwright.Page, error) {
	return nil, fmt.Errorf("no pages in tests")
}

func (session *stubSession) Close() {
	session.closed = true
}

// stubSource returns canned results per ticker. When errsBeforeResult is
// positive the first fetches fail with err instead.
type stubSource struct {
	name    string
	results map[string]*sites.SourceResult
	err     error

	errsBeforeResult int
	calls            int
}

func (source *stubSource) Name() string        { return source.name }
func (source *stubSource) Description() string { return source.name }
func (source *stubSource) Fields() []string    { return nil }

func (source *stubSource) FetchEarnings(_ context.Context, _ sites.Session, ticker string) *sites.SourceResult {
	source.calls++

	if source.err != nil && (source.errsBeforeResult <= 0 || source.calls <= source.errsBeforeResult) {
		return &sites.SourceResult{Source: source.name, Ticker: ticker, Err: source.err}
	}

	if result, ok := source.results[data.NormalizeTicker(ticker)]; ok {
		copied := *result
		copied.Source = source.name
		copied.Ticker = ticker
		return &copied
	}

	return &sites.SourceResult{Source: source.name, Ticker: ticker}
}

type panicSource struct {
	name string
}

func (source *panicSource) Name() string        { return source.name }
func (source *panicSource) Description() string { return source.name }
func (source *panicSource) Fields() []string    { return nil }

func (source *panicSource) FetchEarnings(_ context.Context, _ sites.Session, _ string) *sites.SourceResult {
	panic("selector walked off the page")
}
