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
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

const EARNINGS_WHISPERS_URL string = "https://www.earningswhispers.com/stocks/%s"

// EarningsWhispers extracts the confirmed release time from
// earningswhispers.com, the only source that regularly carries an exact
// clock time such as "4:30 PM ET".
type EarningsWhispers struct{}

func (whispers *EarningsWhispers) Name() string {
	return "earningswhispers"
}

func (whispers *EarningsWhispers) Description() string {
	return "Earnings Whispers stock page. Supplies the confirmed release time and the market-timing classification derived from it."
}

func (whispers *EarningsWhispers) Fields() []string {
	return []string{"release_time", "market_timing"}
}

func (whispers *EarningsWhispers) FetchEarnings(ctx context.Context, session Session, ticker string) *SourceResult {
	result := &SourceResult{Source: whispers.Name(), Ticker: ticker}
	logger := zerolog.Ctx(ctx).With().Str("Source", whispers.Name()).Logger()

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

	stockURL := fmt.Sprintf(EARNINGS_WHISPERS_URL, url.PathEscape(strings.ToLower(ticker)))
	if _, err := page.Goto(stockURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(navigationTimeoutMs()),
	}); err != nil {
		logger.Error().Err(err).Str("Url", stockURL).Msg("could not load stock page")
		result.Err = err
		return result
	}

	DismissOverlays(page)

	waitForAny(page, 4000, `#epsdetails`, `#datetime`, `.mainitem`)

	timeText := firstMatch(page,
		bySelector(
			`#epsdetails #epstime`,
			`#datetime .time`,
			`.earnings-time`,
		),
		byElementScan(`#epsdetails div, #epsdetails span, #datetime div, main span`, strictClockRe),
		byPageText(pageClockRe, 1),
	)

	if timeText != "" {
		release := strings.TrimSpace(timeText)
		timing := ClassifyTiming(release)

		result.ReleaseTime = &release
		result.Timing = &timing

		return result
	}

	// no clock time published yet; the page sometimes carries a
	// qualitative marker instead
	if timing := TimingFromPhrase(firstMatch(page, bySelector(`#epsdetails`, `#datetime`))); timing != nil {
		result.Timing = timing
		return result
	}

	logger.Debug().Msg("no release time published")
	saveFailureScreenshot(page, whispers.Name(), ticker)

	return result
}
