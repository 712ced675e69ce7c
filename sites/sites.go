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
	"time"

	"github.com/penny-vault/pvearnings/data"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/viper"
)

// Session provides browser pages to extraction sources; *browser.Session
// satisfies it
type Session interface {
	NewPage() (playwright.Page, error)
}

// Source extracts upcoming-earnings information for one ticker from one
// website. Sources never fail a run: extraction problems are reported in the
// result's Err field and every value field is optional.
type Source interface {
	Name() string
	Description() string

	// Fields lists which result fields the source is able to produce
	Fields() []string

	FetchEarnings(ctx context.Context, session Session, ticker string) *SourceResult
}

// SourceResult is the raw output of one source for one ticker. Nil means the
// source did not report the value, which is different from reporting a zero
// or empty value.
type SourceResult struct {
	Source       string
	Ticker       string
	EarningsDate *time.Time
	DateRange    *string
	ReleaseTime  *string
	Timing       *data.MarketTiming
	EPSEstimate  *float64
	YearAgoEPS   *float64
	CompanyName  *string
	Err          error
}

// HasTimingSignal reports whether the source produced a release time or a
// market-timing classification; once one source has, lower-priority sources
// are not consulted.
func (result *SourceResult) HasTimingSignal() bool {
	return result.ReleaseTime != nil || result.Timing != nil
}

// Primary returns the source whose dates, estimates, and year-ago figures
// always win during reconciliation
func Primary() Source {
	return &Yahoo{}
}

// Secondaries returns the fallback timing sources in priority order
func Secondaries() []Source {
	return []Source{
		&EarningsWhispers{},
		&Nasdaq{},
		&Benzinga{},
	}
}

// Map indexes every extraction source by name
var Map = map[string]Source{
	"yahoo":            &Yahoo{},
	"earningswhispers": &EarningsWhispers{},
	"nasdaq":           &Nasdaq{},
	"benzinga":         &Benzinga{},
}

// navigationTimeoutMs returns the configured page-navigation timeout in
// milliseconds; refresh.navigation_timeout is in seconds and defaults to 30
func navigationTimeoutMs() float64 {
	seconds := viper.GetFloat64("refresh.navigation_timeout")
	if seconds <= 0 {
		seconds = 30
	}

	return seconds * 1000
}
