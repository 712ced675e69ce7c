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
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

const NASDAQ_EARNINGS_URL string = "https://www.nasdaq.com/market-activity/stocks/%s/earnings"

// nasdaqMarkerRe finds the qualitative timing marker nasdaq prints on its
// earnings pages
var nasdaqMarkerRe = regexp.MustCompile(`(?i)(AFTER MARKET CLOSE|BEFORE MARKET OPEN|PRE-MARKET|AFTER-HOURS|TIME-NOT-SUPPLIED)`)

// Nasdaq extracts the qualitative announcement-timing marker from the
// nasdaq.com earnings page; the site publishes markers like
// "AFTER MARKET CLOSE" rather than clock times
type Nasdaq struct{}

func (nasdaq *Nasdaq) Name() string {
	return "nasdaq"
}

func (nasdaq *Nasdaq) Description() string {
	return "Nasdaq earnings page. Supplies a before/after-market timing marker for the upcoming announcement."
}

func (nasdaq *Nasdaq) Fields() []string {
	return []string{"market_timing"}
}

func (nasdaq *Nasdaq) FetchEarnings(ctx context.Context, session Session, ticker string) *SourceResult {
	result := &SourceResult{Source: nasdaq.Name(), Ticker: ticker}
	logger := zerolog.Ctx(ctx).With().Str("Source", nasdaq.Name()).Logger()

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

	earningsURL := fmt.Sprintf(NASDAQ_EARNINGS_URL, url.PathEscape(strings.ToLower(ticker)))
	if _, err := page.Goto(earningsURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(navigationTimeoutMs()),
	}); err != nil {
		logger.Error().Err(err).Str("Url", earningsURL).Msg("could not load earnings page")
		result.Err = err
		return result
	}

	DismissOverlays(page)

	waitForAny(page, 4000,
		`.announcement-time`,
		`[data-testid="earnings-forecast"]`,
		`.earnings-forecast`,
	)

	marker := firstMatch(page,
		bySelector(
			`.announcement-time`,
			`[data-testid="announcement-time"]`,
			`.earnings-forecast__banner`,
		),
		byPageText(nasdaqMarkerRe, 1),
		byProximity("expected to report earnings", nasdaqMarkerRe),
	)

	if timing := TimingFromPhrase(marker); timing != nil {
		result.Timing = timing
		return result
	}

	logger.Debug().Str("Marker", marker).Msg("no usable timing marker")

	return result
}
