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
package reconcile

import (
	"time"

	"github.com/penny-vault/pvearnings/data"
	"github.com/penny-vault/pvearnings/fiscal"
	"github.com/penny-vault/pvearnings/sites"
)

// Merged is the reconciled view of one ticker's upcoming earnings, ready to
// persist
type Merged struct {
	EarningsDate *time.Time
	DateRange    *string
	ReleaseTime  *string
	Timing       data.MarketTiming
	EPSEstimate  *float64
	YearAgoEPS   *float64
	CompanyName  *string
}

type ruleScope int

const (
	primaryOnly ruleScope = iota
	anySource
)

// mergeRules fixes, per output field, which sources may supply the value.
// Dates, estimates, year-ago figures, and names come only from the primary
// source regardless of what a secondary claims; the timing fields take the
// first non-nil value in source priority order. Precedence changes happen
// here, not in the merge logic.
var mergeRules = map[string]ruleScope{
	"earnings_date": primaryOnly,
	"date_range":    primaryOnly,
	"eps_estimate":  primaryOnly,
	"year_ago_eps":  primaryOnly,
	"company_name":  primaryOnly,
	"release_time":  anySource,
	"market_timing": anySource,
}

// pick returns the first non-nil value for field among the results the
// field's rule allows, in priority order
func pick[T any](field string, ordered []*sites.SourceResult, get func(*sites.SourceResult) *T) *T {
	allowed := ordered
	if mergeRules[field] == primaryOnly && len(ordered) > 0 {
		allowed = ordered[:1]
	}

	for _, result := range allowed {
		if result == nil {
			continue
		}

		if value := get(result); value != nil {
			return value
		}
	}

	return nil
}

// Merge combines the primary source's result, the secondary results in
// priority order, and the reported history into a single record. When no
// source classified the release timing it defaults to after-market, where
// the large majority of issuers report. A year-ago figure the primary did
// not publish is backfilled from the reported history, keyed to the quarter
// one year before the upcoming quarter.
func Merge(primary *sites.SourceResult, secondaries []*sites.SourceResult, latestReported string, history []*data.HistoricalEPS) *Merged {
	if primary == nil {
		primary = &sites.SourceResult{}
	}

	ordered := make([]*sites.SourceResult, 0, len(secondaries)+1)
	ordered = append(ordered, primary)
	ordered = append(ordered, secondaries...)

	merged := &Merged{
		EarningsDate: pick("earnings_date", ordered, func(result *sites.SourceResult) *time.Time { return result.EarningsDate }),
		DateRange:    pick("date_range", ordered, func(result *sites.SourceResult) *string { return result.DateRange }),
		ReleaseTime:  pick("release_time", ordered, func(result *sites.SourceResult) *string { return result.ReleaseTime }),
		EPSEstimate:  pick("eps_estimate", ordered, func(result *sites.SourceResult) *float64 { return result.EPSEstimate }),
		YearAgoEPS:   pick("year_ago_eps", ordered, func(result *sites.SourceResult) *float64 { return result.YearAgoEPS }),
		CompanyName:  pick("company_name", ordered, func(result *sites.SourceResult) *string { return result.CompanyName }),
	}

	if timing := pick("market_timing", ordered, func(result *sites.SourceResult) *data.MarketTiming { return result.Timing }); timing != nil {
		merged.Timing = *timing
	} else {
		merged.Timing = data.TimingAfter
	}

	if merged.YearAgoEPS == nil {
		merged.YearAgoEPS = YearAgoFromHistory(latestReported, history)
	}

	return merged
}

// LatestReported returns the chronologically greatest fiscal period in the
// reported history. Filing order is not reliable here: an amendment can be
// the newest filing while restating an old quarter.
func LatestReported(history []*data.HistoricalEPS) string {
	latest := ""
	latestQuarter := 0
	latestYear := 0

	for _, record := range history {
		quarter, year, ok := fiscal.Parse(record.FiscalPeriod)
		if !ok {
			continue
		}

		if year > latestYear || (year == latestYear && quarter > latestQuarter) {
			latest = record.FiscalPeriod
			latestQuarter = quarter
			latestYear = year
		}
	}

	return latest
}

// YearAgoFromHistory returns the reported EPS for the quarter one year
// before the upcoming quarter. With Q1 2025 as the latest reported period
// the upcoming quarter is Q2 2025, so the comparator is Q2 2024 - not the
// year-ago of the latest reported quarter.
func YearAgoFromHistory(latestReported string, history []*data.HistoricalEPS) *float64 {
	upcoming := fiscal.NextQuarter(latestReported)
	if upcoming == "" {
		return nil
	}

	comparator := fiscal.YearAgoQuarter(upcoming)

	for _, record := range history {
		if record.FiscalPeriod == comparator {
			eps := record.EPS
			return &eps
		}
	}

	return nil
}

// Usable reports whether the merged record carries enough to persist. An
// earnings date is required; estimates and timing without a date have
// nothing to attach to.
func (merged *Merged) Usable() bool {
	return merged.EarningsDate != nil
}
