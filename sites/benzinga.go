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

const BENZINGA_EARNINGS_URL string = "https://www.benzinga.com/quote/%s/earnings"

// Benzinga extracts the announcement time from benzinga.com quote pages,
// which publish either a clock time or a qualitative marker like
// "After Market Close"
type Benzinga struct{}

func (benzinga *Benzinga) Name() string {
	return "benzinga"
}

func (benzinga *Benzinga) Description() string {
	return "Benzinga earnings page. Supplies the announcement time, either an exact clock time or a before/after-market marker."
}

func (benzinga *Benzinga) Fields() []string {
	return []string{"release_time", "market_timing"}
}

func (benzinga *Benzinga) FetchEarnings(ctx context.Context, session Session, ticker string) *SourceResult {
	result := &SourceResult{Source: benzinga.Name(), Ticker: ticker}
	logger := zerolog.Ctx(ctx).With().Str("Source", benzinga.Name()).Logger()

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

	earningsURL := fmt.Sprintf(BENZINGA_EARNINGS_URL, url.PathEscape(strings.ToUpper(ticker)))
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
		`[data-testid="earnings-summary"]`,
		`.earnings-container`,
		`main table`,
	)

	announcement := firstMatch(page,
		bySelector(
			`[data-testid="announcement-time"]`,
			`.announcement-time`,
		),
		byElementScan(`main span, main td, main div`, strictClockRe),
		byPageText(pageClockRe, 1),
		byProximity("Announcement Time", clockRe),
	)

	if announcement != "" {
		release := strings.TrimSpace(announcement)
		timing := ClassifyTiming(release)

		result.ReleaseTime = &release
		result.Timing = &timing

		return result
	}

	if timing := TimingFromPhrase(firstMatch(page,
		byProximity("Announcement Time", timingMarkerRe),
		byPageText(timingMarkerRe, 1),
	)); timing != nil {
		result.Timing = timing
		return result
	}

	logger.Debug().Msg("no announcement time published")

	return result
}
