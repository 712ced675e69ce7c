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
package refresh

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pvearnings/browser"
	"github.com/penny-vault/pvearnings/data"
	"github.com/penny-vault/pvearnings/reconcile"
	"github.com/penny-vault/pvearnings/sites"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	// a source fetch is retried only on a navigation timeout
	maxSourceAttempts = 3
	retryDelay        = 10 * time.Second
)

// Store is the persistence surface the refresh pipeline writes through;
// *store.Store satisfies it
type Store interface {
	EnsureCompany(ctx context.Context, ticker string) (*data.Company, error)
	RenameCompany(ctx context.Context, company *data.Company, name string) error
	SaveHistory(ctx context.Context, companyID uuid.UUID, records []*data.HistoricalEPS) error
	ReportedHistory(ctx context.Context, companyID uuid.UUID) ([]*data.HistoricalEPS, error)
	ReplaceEstimate(ctx context.Context, estimate *data.EarningsEstimate) error
}

// Filings resolves tickers and fetches reported results from the regulator;
// *edgar.Client satisfies it
type Filings interface {
	ResolveIdentifier(ctx context.Context, ticker string) (string, error)
	QuarterlyEPS(ctx context.Context, cik string) []*data.HistoricalEPS
}

// Session is one browser session shared by every ticker in a batch;
// *browser.Session satisfies it
type Session interface {
	NewPage() (playwright.Page, error)
	Close()
}

// Result reports the outcome of refreshing a single ticker
type Result struct {
	Ticker  string
	Success bool
	Message string
}

// BatchSummary aggregates the outcome of a refresh run
type BatchSummary struct {
	Total      int
	Successful int
	Failed     int
	Errors     []string
}

// Refresher drives the earnings refresh pipeline: reported history from the
// regulator, site extraction through a shared browser session, per-field
// reconciliation, and estimate replacement. Tickers are processed one at a
// time; the extraction sites throttle aggressive visitors.
type Refresher struct {
	Store   Store
	Filings Filings

	Primary     sites.Source
	Secondaries []sites.Source

	// Launch opens the batch's browser session; tests replace it
	Launch func() (Session, error)

	// Sleep paces tickers and retries; tests replace it to avoid waiting
	Sleep func(ctx context.Context, d time.Duration)
}

// New returns a Refresher wired to the production sources and browser
func New(myStore Store, filings Filings) *Refresher {
	return &Refresher{
		Store:       myStore,
		Filings:     filings,
		Primary:     sites.Primary(),
		Secondaries: sites.Secondaries(),
		Launch:      launchBrowser,
		Sleep:       sleepContext,
	}
}

func launchBrowser() (Session, error) {
	session, err := browser.NewSession(viper.GetBool("playwright.headless"))
	if err != nil {
		return nil, err
	}

	return session, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// tickerDelay returns the pause between tickers; refresh.ticker_delay is in
// seconds and defaults to 4
func tickerDelay() time.Duration {
	seconds := viper.GetFloat64("refresh.ticker_delay")
	if seconds <= 0 {
		seconds = 4
	}

	return time.Duration(seconds * float64(time.Second))
}

// tickerTimeout returns the per-ticker deadline; refresh.ticker_timeout is
// in seconds and defaults to 120
func tickerTimeout() time.Duration {
	seconds := viper.GetFloat64("refresh.ticker_timeout")
	if seconds <= 0 {
		seconds = 120
	}

	return time.Duration(seconds * float64(time.Second))
}

// RefreshBatch refreshes every ticker sequentially through one shared
// browser session. A ticker's failure never stops the batch; a browser
// launch failure fails every ticker.
func (refresher *Refresher) RefreshBatch(ctx context.Context, tickers []string) *BatchSummary {
	summary := &BatchSummary{Total: len(tickers)}

	session, err := refresher.Launch()
	if err != nil {
		log.Error().Err(err).Msg("could not launch browser")

		summary.Failed = len(tickers)
		for _, ticker := range tickers {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("%s: browser launch failed: %s", data.NormalizeTicker(ticker), err.Error()))
		}

		return summary
	}

	defer session.Close()

	delay := tickerDelay()
	timeout := tickerTimeout()

	for idx, ticker := range tickers {
		if ctx.Err() != nil {
			for _, remaining := range tickers[idx:] {
				summary.Failed++
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("%s: run cancelled", data.NormalizeTicker(remaining)))
			}

			break
		}

		tickerCtx, cancel := context.WithTimeout(ctx, timeout)
		result := refresher.RefreshOne(tickerCtx, session, ticker)
		cancel()

		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("%s: %s", result.Ticker, result.Message))
		}

		if idx < len(tickers)-1 {
			refresher.Sleep(ctx, delay)
		}
	}

	return summary
}

// RefreshOne updates a single ticker through an already-open browser
// session: reported history first, then the extraction sources, then the
// reconciled estimate replaces whatever was stored
func (refresher *Refresher) RefreshOne(ctx context.Context, session Session, rawTicker string) *Result {
	ticker := data.NormalizeTicker(rawTicker)
	result := &Result{Ticker: ticker}

	logger := log.With().Str("Ticker", ticker).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("refreshing earnings data")

	company, err := refresher.Store.EnsureCompany(ctx, ticker)
	if err != nil {
		result.Message = fmt.Sprintf("cannot register company: %s", err.Error())
		return result
	}

	history := refresher.loadHistory(ctx, company, ticker)

	primaryResult := refresher.runSource(ctx, session, refresher.Primary, ticker)
	if primaryResult.Err != nil {
		result.Message = fmt.Sprintf("primary source failed: %s", primaryResult.Err.Error())
		return result
	}

	secondaryResults := make([]*sites.SourceResult, 0, len(refresher.Secondaries))

	if !primaryResult.HasTimingSignal() {
		for _, source := range refresher.Secondaries {
			secondaryResult := refresher.runSource(ctx, session, source, ticker)
			if secondaryResult.Err != nil {
				logger.Warn().Err(secondaryResult.Err).Str("Source", source.Name()).
					Msg("secondary source failed")
				continue
			}

			secondaryResults = append(secondaryResults, secondaryResult)

			if secondaryResult.HasTimingSignal() {
				break
			}
		}
	}

	merged := reconcile.Merge(primaryResult, secondaryResults,
		reconcile.LatestReported(history), history)

	if !merged.Usable() {
		result.Message = "no usable earnings data found"
		return result
	}

	if merged.CompanyName != nil && *merged.CompanyName != company.Name {
		if err := refresher.Store.RenameCompany(ctx, company, *merged.CompanyName); err != nil {
			logger.Warn().Err(err).Msg("could not update company name")
		}
	}

	estimate := &data.EarningsEstimate{
		CompanyID:    company.ID,
		EarningsDate: *merged.EarningsDate,
		DateRange:    merged.DateRange,
		ReleaseTime:  merged.ReleaseTime,
		MarketTiming: merged.Timing,
		EPSEstimate:  merged.EPSEstimate,
		YearAgoEPS:   merged.YearAgoEPS,
	}

	if err := refresher.Store.ReplaceEstimate(ctx, estimate); err != nil {
		result.Message = fmt.Sprintf("cannot save estimate: %s", err.Error())
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("earnings %s (%s)",
		merged.EarningsDate.Format("Jan 2, 2006"), merged.Timing)

	return result
}

// loadHistory fetches reported quarters from the regulator and persists
// them; when the ticker cannot be resolved or has no filings the quarters
// already on file are used instead. History problems never fail a refresh.
func (refresher *Refresher) loadHistory(ctx context.Context, company *data.Company, ticker string) []*data.HistoricalEPS {
	logger := zerolog.Ctx(ctx)

	cik, err := refresher.Filings.ResolveIdentifier(ctx, ticker)
	if err != nil {
		logger.Warn().Err(err).Msg("could not resolve ticker with regulator")
	}

	if cik != "" {
		records := refresher.Filings.QuarterlyEPS(ctx, cik)
		if len(records) > 0 {
			if err := refresher.Store.SaveHistory(ctx, company.ID, records); err != nil {
				logger.Warn().Err(err).Msg("could not save reported history")
			}

			return records
		}
	}

	records, err := refresher.Store.ReportedHistory(ctx, company.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("could not load reported history")
		return nil
	}

	return records
}

// runSource fetches from one source, retrying up to twice when the page
// navigation timed out. Other failures are returned immediately; a panic in
// a source is converted into a failed result.
func (refresher *Refresher) runSource(ctx context.Context, session Session, source sites.Source, ticker string) (result *sites.SourceResult) {
	for attempt := 1; attempt <= maxSourceAttempts; attempt++ {
		result = refresher.fetchSource(ctx, session, source, ticker)

		if result.Err == nil || !isNavigationTimeout(result.Err) {
			return result
		}

		if attempt < maxSourceAttempts {
			zerolog.Ctx(ctx).Warn().Err(result.Err).Str("Source", source.Name()).
				Int("Attempt", attempt).Msg("navigation timed out; retrying")
			refresher.Sleep(ctx, retryDelay)
		}
	}

	return result
}

func (refresher *Refresher) fetchSource(ctx context.Context, session Session, source sites.Source, ticker string) (result *sites.SourceResult) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Str("Source", source.Name()).
				Interface("Panic", r).Msg("source panicked")

			result = &sites.SourceResult{
				Source: source.Name(),
				Ticker: ticker,
				Err:    fmt.Errorf("source %s panicked: %v", source.Name(), r),
			}
		}
	}()

	return source.FetchEarnings(ctx, session, ticker)
}

func isNavigationTimeout(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "timeout") && strings.Contains(msg, "exceeded")
}
