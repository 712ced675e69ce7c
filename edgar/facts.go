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
package edgar

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvearnings/data"
	"github.com/rs/zerolog"
)

// epsConcepts is the taxonomy concept priority; the first concept with any
// quarterly observations wins and later concepts are ignored
var epsConcepts = []string{
	"EarningsPerShareDiluted",
	"EarningsPerShareBasic",
	"EarningsPerShareBasicAndDiluted",
}

const (
	gaapTaxonomy = "us-gaap"
	epsUnits     = "USD/shares"
)

var quarterlyPeriod = regexp.MustCompile(`^Q[1-4]$`)

type companyFacts struct {
	EntityName string                             `json:"entityName"`
	Facts      map[string]map[string]conceptFacts `json:"facts"`
}

type conceptFacts struct {
	Label string                         `json:"label"`
	Units map[string][]*factObservation `json:"units"`
}

type factObservation struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Value        float64 `json:"val"`
	Accession    string  `json:"accn"`
	FiscalYear   int     `json:"fy"`
	FiscalPeriod string  `json:"fp"`
	Form         string  `json:"form"`
	Filed        string  `json:"filed"`
	Frame        string  `json:"frame"`
}

// QuarterlyEPS returns the reported quarterly earnings per share for the
// company identified by cik, newest filing first, one record per fiscal
// period. Missing concepts, missing units, and unparseable entries yield an
// empty slice, never an error; an issuer without usable history is routine.
func (client *Client) QuarterlyEPS(ctx context.Context, cik string) []*data.HistoricalEPS {
	logger := zerolog.Ctx(ctx)
	records := make([]*data.HistoricalEPS, 0, 40)

	factsURL := fmt.Sprintf(client.factsURL, cik)

	resp, err := client.fetcher.Get(ctx, factsURL)
	if err != nil {
		logger.Error().Err(err).Str("Url", factsURL).Msg("company facts request failed")
		return records
	}

	if resp.StatusCode() >= 300 {
		logger.Warn().Int("StatusCode", resp.StatusCode()).Str("CIK", cik).
			Msg("company facts unavailable")
		return records
	}

	facts := &companyFacts{}
	if err := json.Unmarshal(resp.Body(), facts); err != nil {
		logger.Error().Err(err).Str("CIK", cik).Msg("could not parse company facts")
		return records
	}

	gaap, ok := facts.Facts[gaapTaxonomy]
	if !ok {
		logger.Warn().Str("CIK", cik).Msg("company facts contain no us-gaap taxonomy")
		return records
	}

	for _, concept := range epsConcepts {
		conceptData, ok := gaap[concept]
		if !ok {
			continue
		}

		records = quarterlyRecords(ctx, conceptData.Units[epsUnits])
		if len(records) > 0 {
			logger.Debug().Str("Concept", concept).Int("NumQuarters", len(records)).
				Msg("loaded quarterly eps history")
			return records
		}
	}

	return records
}

// quarterlyRecords filters fact observations down to quarterly 10-Q entries
// and deduplicates restated quarters. Each filing also restates the year-ago
// comparative under its own fiscal year and period, so ties on filing date
// are broken by the observation's end date: the later span is the filing's
// own quarter.
func quarterlyRecords(ctx context.Context, observations []*factObservation) []*data.HistoricalEPS {
	logger := zerolog.Ctx(ctx)

	type candidate struct {
		record *data.HistoricalEPS
		end    string
	}

	candidates := make([]*candidate, 0, len(observations))

	for _, observation := range observations {
		if !quarterlyPeriod.MatchString(observation.FiscalPeriod) {
			continue
		}

		if !strings.HasPrefix(observation.Form, "10-Q") {
			continue
		}

		filed, err := time.Parse("2006-01-02", observation.Filed)
		if err != nil {
			logger.Warn().Err(err).Str("Filed", observation.Filed).
				Msg("could not parse filing date, skipping observation")
			continue
		}

		candidates = append(candidates, &candidate{
			record: &data.HistoricalEPS{
				FiscalPeriod: fmt.Sprintf("%s %d", observation.FiscalPeriod, observation.FiscalYear),
				EPS:          observation.Value,
				FilingDate:   filed,
			},
			end: observation.End,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].record.FilingDate.Equal(candidates[j].record.FilingDate) {
			return candidates[i].record.FilingDate.After(candidates[j].record.FilingDate)
		}

		return candidates[i].end > candidates[j].end
	})

	records := make([]*data.HistoricalEPS, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, candidate := range candidates {
		if seen[candidate.record.FiscalPeriod] {
			continue
		}

		seen[candidate.record.FiscalPeriod] = true
		records = append(records, candidate.record)
	}

	return records
}
