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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEarningsDateText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantDate  time.Time
		wantRange string
		wantOK    bool
	}{
		{
			name:     "single date",
			text:     "Jul 30, 2025",
			wantDate: time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:      "date range keeps earliest date and literal",
			text:      "Aug 4, 2025 - Aug 8, 2025",
			wantDate:  time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC),
			wantRange: "Aug 4, 2025 - Aug 8, 2025",
			wantOK:    true,
		},
		{
			name:      "en dash range",
			text:      "Aug 4, 2025 – Aug 8, 2025",
			wantDate:  time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC),
			wantRange: "Aug 4, 2025 – Aug 8, 2025",
			wantOK:    true,
		},
		{
			name:     "date embedded in surrounding text",
			text:     "Earnings Date Aug 4, 2025 (confirmed)",
			wantDate: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:   "no date",
			text:   "--",
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			date, dateRange, ok := parseEarningsDateText(tt.text)
			require.Equal(t, tt.wantOK, ok)

			if !tt.wantOK {
				return
			}

			assert.True(t, tt.wantDate.Equal(date), "want %s got %s", tt.wantDate, date)
			assert.Equal(t, tt.wantRange, dateRange)
		})
	}
}

func TestCompanyNameFromHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{"ACME Holdings Inc. (ACME)", "ACME Holdings Inc."},
		{"Apple Inc. (AAPL)", "Apple Inc."},
		{"Alphabet Inc. (GOOGL) ", "Alphabet Inc."},
		{"Plain Name", "Plain Name"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, companyNameFromHeader(tt.text))
		})
	}
}

func TestParseSignedDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		want   float64
		wantOK bool
	}{
		{"1.25", 1.25, true},
		{"-0.18", -0.18, true},
		{" 2.05 ", 2.05, true},
		{"N/A", 0, false},
		{"--", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		name := tt.text
		if name == "" {
			name = "empty"
		}

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseSignedDecimal(tt.text)
			require.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}
