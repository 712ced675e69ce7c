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
package fiscal

import (
	"fmt"
	"regexp"
	"strconv"
)

var periodRegex = regexp.MustCompile(`^Q([1-4]) (\d{4})$`)

// Parse splits a fiscal-period label like "Q2 2024" into its quarter number
// and year. ok is false when the label does not match `Q[1-4] YYYY`.
func Parse(label string) (quarter int, year int, ok bool) {
	match := periodRegex.FindStringSubmatch(label)
	if match == nil {
		return 0, 0, false
	}

	quarter, _ = strconv.Atoi(match[1])
	year, _ = strconv.Atoi(match[2])

	return quarter, year, true
}

// Label formats a quarter number and year as a fiscal-period label
func Label(quarter, year int) string {
	return fmt.Sprintf("Q%d %d", quarter, year)
}

// NextQuarter returns the fiscal period immediately following label, rolling
// Q4 into Q1 of the next year. Malformed labels return the empty string.
func NextQuarter(label string) string {
	quarter, year, ok := Parse(label)
	if !ok {
		return ""
	}

	if quarter == 4 {
		return Label(1, year+1)
	}

	return Label(quarter+1, year)
}

// YearAgoQuarter returns the same quarter number one year earlier. When the
// upcoming quarter is known this selects the correct year-over-year
// comparator; callers must pass the upcoming quarter, not the most recently
// reported one. Malformed labels return the empty string.
func YearAgoQuarter(label string) string {
	quarter, year, ok := Parse(label)
	if !ok {
		return ""
	}

	return Label(quarter, year-1)
}
