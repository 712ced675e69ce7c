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
	"errors"
	"fmt"

	"github.com/alphadose/haxmap"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvearnings/data"
	"github.com/penny-vault/pvearnings/fetch"
	"github.com/rs/zerolog/log"
)

const (
	EDGAR_COMPANY_TICKERS_URL string = "https://www.sec.gov/files/company_tickers_exchange.json"
	EDGAR_COMPANY_FACTS_URL   string = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
)

var (
	ErrStatus          = errors.New("received invalid status code")
	ErrMalformedTicker = errors.New("ticker map is missing expected columns")
)

// Client looks up regulatory identifiers and reported earnings from the
// SEC's public APIs. The full ticker-to-CIK map is fetched once and cached
// for the life of the client.
type Client struct {
	fetcher    *fetch.Client
	ciks       *haxmap.Map[string, string]
	tickersURL string
	factsURL   string
}

// NewClient creates an EDGAR client that issues requests through fetcher
func NewClient(fetcher *fetch.Client) *Client {
	return &Client{
		fetcher:    fetcher,
		ciks:       haxmap.New[string, string](),
		tickersURL: EDGAR_COMPANY_TICKERS_URL,
		factsURL:   EDGAR_COMPANY_FACTS_URL,
	}
}

// tickerExchangeFile is the columnar ticker map published by the regulator:
// a field-name header plus rows of values in header order
type tickerExchangeFile struct {
	Fields []string `json:"fields"`
	Data   [][]any  `json:"data"`
}

func (tickerFile *tickerExchangeFile) column(name string) int {
	for idx, field := range tickerFile.Fields {
		if field == name {
			return idx
		}
	}

	return -1
}

// ResolveIdentifier returns the zero-padded 10-digit CIK for ticker, or the
// empty string when the regulator does not know the symbol. Unknown tickers
// are not an error; delisted and foreign issuers are routinely absent.
func (client *Client) ResolveIdentifier(ctx context.Context, ticker string) (string, error) {
	if client.ciks.Len() == 0 {
		if err := client.loadTickerMap(ctx); err != nil {
			return "", err
		}
	}

	cik, ok := client.ciks.Get(data.NormalizeTicker(ticker))
	if !ok {
		return "", nil
	}

	return cik, nil
}

func (client *Client) loadTickerMap(ctx context.Context) error {
	resp, err := client.fetcher.Get(ctx, client.tickersURL)
	if err != nil {
		return err
	}

	if resp.StatusCode() >= 300 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Url", client.tickersURL).
			Msg("ticker map request returned an invalid HTTP response")
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	tickerFile := &tickerExchangeFile{}
	if err := json.Unmarshal(resp.Body(), tickerFile); err != nil {
		return err
	}

	cikCol := tickerFile.column("cik")
	tickerCol := tickerFile.column("ticker")

	if cikCol < 0 || tickerCol < 0 {
		return ErrMalformedTicker
	}

	count := 0

	for _, row := range tickerFile.Data {
		if len(row) <= cikCol || len(row) <= tickerCol {
			continue
		}

		cik, cikOk := row[cikCol].(float64)
		ticker, tickerOk := row[tickerCol].(string)

		if !cikOk || !tickerOk {
			continue
		}

		client.ciks.Set(data.NormalizeTicker(ticker), fmt.Sprintf("%010d", int64(cik)))
		count++
	}

	log.Info().Int("NumTickers", count).Msg("loaded ticker map from regulator")

	return nil
}
