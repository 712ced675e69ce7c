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
	"regexp"
	"strconv"
	"strings"

	"github.com/penny-vault/pvearnings/data"
)

// regular trading session boundaries in minutes since midnight eastern
const (
	marketOpenMinutes  = 9*60 + 30
	marketCloseMinutes = 16 * 60
)

var (
	// strictClockRe matches an element whose own text is a clock time,
	// e.g. "4:30 PM ET"
	strictClockRe = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}\s*(AM|PM)\s*(ET|EST|EDT)?$`)

	// clockRe finds a clock time anywhere in a block of text
	clockRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)

	// pageClockRe finds a clock time in full-page text; the timezone suffix
	// is required there to avoid grabbing unrelated timestamps
	pageClockRe = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*(?:AM|PM))\s*(?:ET|EST|EDT)`)

	// timingMarkerRe finds a qualitative timing marker in running text
	timingMarkerRe = regexp.MustCompile(`(?i)(after market close|before market open|after the close|before the open|pre-market|after-hours|during market hours)`)
)

// ClassifyTiming buckets a raw release-time string against the regular
// trading session: strictly before 09:30 eastern is before-market, 16:00 or
// later is after-market, anything between falls during market hours. A
// string without an AM/PM marker cannot be placed on the clock and
// classifies as unknown; callers keep the literal string either way.
func ClassifyTiming(raw string) data.MarketTiming {
	match := clockRe.FindStringSubmatch(raw)
	if match == nil {
		return data.TimingUnknown
	}

	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])

	if hour < 1 || hour > 12 || minute > 59 {
		return data.TimingUnknown
	}

	hour %= 12
	if strings.EqualFold(match[3], "PM") {
		hour += 12
	}

	minutes := hour*60 + minute

	switch {
	case minutes < marketOpenMinutes:
		return data.TimingBefore
	case minutes < marketCloseMinutes:
		return data.TimingDuring
	default:
		return data.TimingAfter
	}
}

// TimingFromPhrase interprets a short qualitative marker such as "After
// Market Close", "pre-market", or the calendar shorthands BMO and AMC.
// Free-form text it does not recognize yields nil. The shorthands are only
// honored as the entire value; AMC and BMO are also tickers and must not be
// picked out of running text.
func TimingFromPhrase(text string) *data.MarketTiming {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}

	switch normalized {
	case "bmo", "before market open", "before open", "before the open",
		"before the bell", "pre-market", "premarket":
		return timingPtr(data.TimingBefore)
	case "amc", "after market close", "after close", "after the close",
		"after the bell", "after-hours", "after hours":
		return timingPtr(data.TimingAfter)
	case "dmh", "during market", "during market hours":
		return timingPtr(data.TimingDuring)
	}

	switch {
	case strings.Contains(normalized, "before market open"),
		strings.Contains(normalized, "before the open"),
		strings.Contains(normalized, "pre-market"):
		return timingPtr(data.TimingBefore)
	case strings.Contains(normalized, "after market close"),
		strings.Contains(normalized, "after the close"),
		strings.Contains(normalized, "after-hours"):
		return timingPtr(data.TimingAfter)
	case strings.Contains(normalized, "during market hours"):
		return timingPtr(data.TimingDuring)
	}

	return nil
}

func timingPtr(timing data.MarketTiming) *data.MarketTiming {
	return &timing
}
