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
package sites

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

const (
	YAHOO_QUOTE_URL    string = "https://finance.yahoo.com/quote/%s/"
	YAHOO_ANALYSIS_URL string = "https://finance.yahoo.com/quote/%s/analysis/"
)

const monthDayYear = `[A-Z][a-z]{2} \d{1,2}, \d{4}`

var (
	// earningsDateStrictRe matches an element whose own text is a single
	// date or a date range, e.g. "Aug 4, 2025 - Aug 8, 2025"
	earningsDateStrictRe = regexp.MustCompile(`^` + monthDayYear + `(?:\s*[-–]\s*` + monthDayYear + `)?$`)

	// earningsDateLooseRe finds a date or date range inside running text
	earningsDateLooseRe = regexp.MustCompile(monthDayYear + `(?:\s*[-–]\s*` + monthDayYear + `)?`)

	dateRangeSplitRe = regexp.MustCompile(`\s*[-–]\s*`)

	decimalRe = regexp.MustCompile(`-?\d+\.\d+`)

	tickerSuffixRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

// Yahoo extracts from the Yahoo Finance quote and analysis pages. It is the
// primary source: the earnings date, date range, consensus estimate,
// year-ago EPS, and company name all come from here when present.
type Yahoo struct{}

func (yahoo *Yahoo) Name() string {
	return "yahoo"
}

func (yahoo *Yahoo) Description() string {
	return "Yahoo Finance quote and analysis pages. Supplies the upcoming earnings date (or announcement window), the consensus EPS estimate, the year-ago EPS, and the company display name."
}

func (yahoo *Yahoo) Fields() []string {
	return []string{"earnings_date", "date_range", "eps_estimate", "year_ago_eps", "company_name"}
}

func (yahoo *Yahoo) FetchEarnings(ctx context.Context, session Session, ticker string) *SourceResult {
	result := &SourceResult{Source: yahoo.Name(), Ticker: ticker}
	logger := zerolog.Ctx(ctx).With().Str("Source", yahoo.Name()).Logger()

	page, err := session.NewPage()
	if err != nil {
		result.Err = err
		return result
	}

	defer func() {
		if err := page.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing page")
		}
	}()

	page.SetDefaultTimeout(navigationTimeoutMs())

	quoteURL := fmt.Sprintf(YAHOO_QUOTE_URL, url.PathEscape(ticker))
	if _, err := page.Goto(quoteURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(navigationTimeoutMs()),
	}); err != nil {
		logger.Error().Err(err).Str("Url", quoteURL).Msg("could not load quote page")
		result.Err = err
		return result
	}

	// EU visitors land on a consent interstitial that replaces the quote
	// page entirely; agreeing navigates back
	if DismissOverlays(page) {
		if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateDomcontentloaded,
			Timeout: playwright.Float(10000),
		}); err != nil {
			logger.Warn().Err(err).Msg("page did not settle after consent dismissal")
		}
	}

	waitForAny(page, 4000,
		`[data-testid="quote-statistics"]`,
		`#quote-summary`,
		`[data-testid="quote-hdr"]`,
	)

	yahoo.extractQuote(ctx, page, result)
	yahoo.extractAnalysis(ctx, page, ticker, result)

	if result.EarningsDate == nil && result.EPSEstimate == nil && result.YearAgoEPS == nil {
		logger.Warn().Msg("no earnings fields extracted")
		saveFailureScreenshot(page, yahoo.Name(), ticker)
	}

	return result
}

// extractQuote pulls the earnings date (or announcement window) and the
// company display name from the quote page
func (yahoo *Yahoo) extractQuote(ctx context.Context, page playwright.Page, result *SourceResult) {
	logger := zerolog.Ctx(ctx)

	dateText := firstMatch(page,
		bySelector(
			`[data-testid="quote-statistics"] li:has(span:text-is("Earnings Date")) span.value`,
			`li[data-test="EARNINGS_DATE-value"]`,
			`[data-testid="earnings-date"]`,
		),
		byElementScan(`[data-testid="quote-statistics"] span, #quote-summary td`, earningsDateStrictRe),
		byProximity("Earnings Date", earningsDateLooseRe),
	)

	if date, dateRange, ok := parseEarningsDateText(dateText); ok {
		result.EarningsDate = &date
		if dateRange != "" {
			result.DateRange = &dateRange
		}
	} else if dateText != "" {
		logger.Warn().Str("DateText", dateText).Msg("could not parse earnings date text")
	}

	nameText := firstMatch(page,
		bySelector(
			`[data-testid="quote-hdr"] h1`,
			`#quote-header-info h1`,
			`h1`,
		),
	)

	if name := companyNameFromHeader(nameText); name != "" {
		result.CompanyName = &name
	}
}

// extractAnalysis pulls the consensus estimate and year-ago EPS for the
// current quarter from the analysis page. The page is optional: a date
// without an estimate is still worth persisting.
func (yahoo *Yahoo) extractAnalysis(ctx context.Context, page playwright.Page, ticker string, result *SourceResult) {
	logger := zerolog.Ctx(ctx)

	analysisURL := fmt.Sprintf(YAHOO_ANALYSIS_URL, url.PathEscape(ticker))
	if _, err := page.Goto(analysisURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(navigationTimeoutMs()),
	}); err != nil {
		logger.Warn().Err(err).Str("Url", analysisURL).Msg("could not load analysis page")
		return
	}

	DismissOverlays(page)

	waitForAny(page, 4000,
		`section[data-testid="earningsEstimate"]`,
		`table`,
	)

	estimateText := firstMatch(page,
		bySelector(
			`section[data-testid="earningsEstimate"] table tbody tr:has(td:text-is("Avg. Estimate")) td:nth-child(2)`,
			`table:has-text("Earnings Estimate") tbody tr:has-text("Avg. Estimate") td:nth-child(2)`,
		),
		byProximity("Avg. Estimate", decimalRe),
	)

	if estimate, ok := parseSignedDecimal(estimateText); ok {
		result.EPSEstimate = &estimate
	} else if estimateText != "" {
		logger.Warn().Str("EstimateText", estimateText).Msg("could not parse eps estimate")
	}

	yearAgoText := firstMatch(page,
		bySelector(
			`section[data-testid="earningsEstimate"] table tbody tr:has(td:text-is("Year Ago EPS")) td:nth-child(2)`,
			`table:has-text("Earnings Estimate") tbody tr:has-text("Year Ago EPS") td:nth-child(2)`,
		),
		byProximity("Year Ago EPS", decimalRe),
	)

	if yearAgo, ok := parseSignedDecimal(yearAgoText); ok {
		result.YearAgoEPS = &yearAgo
	} else if yearAgoText != "" {
		logger.Warn().Str("YearAgoText", yearAgoText).Msg("could not parse year-ago eps")
	}
}

// parseEarningsDateText interprets a Yahoo earnings-date value, either a
// single date or an announcement window. For a window the earliest date is
// returned and the literal range text is preserved.
func parseEarningsDateText(text string) (time.Time, string, bool) {
	match := earningsDateLooseRe.FindString(strings.TrimSpace(text))
	if match == "" {
		return time.Time{}, "", false
	}

	parts := dateRangeSplitRe.Split(match, -1)

	first, err := time.Parse("Jan 2, 2006", strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, "", false
	}

	if len(parts) > 1 {
		if _, err := time.Parse("Jan 2, 2006", strings.TrimSpace(parts[1])); err == nil {
			return first, match, true
		}
	}

	return first, "", true
}

// companyNameFromHeader strips the "(TICKER)" suffix from a quote header
// like "ACME Holdings Inc. (ACME)"
func companyNameFromHeader(text string) string {
	return strings.TrimSpace(tickerSuffixRe.ReplaceAllString(strings.TrimSpace(text), ""))
}

// parseSignedDecimal extracts a decimal number such as "1.25" or "-0.18"
// from a table-cell value
func parseSignedDecimal(text string) (float64, bool) {
	match := decimalRe.FindString(text)
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}
