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
package refresh_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvearnings/data"
	"github.com/penny-vault/pvearnings/refresh"
	"github.com/penny-vault/pvearnings/sites"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &date
}

func strPtr(value string) *string {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

func timingPtr(timing data.MarketTiming) *data.MarketTiming {
	return &timing
}

var _ = Describe("RefreshBatch", func() {
	var (
		myStore   *stubStore
		filings   *stubFilings
		primary   *stubSource
		session   *stubSession
		refresher *refresh.Refresher
		sleeps    []time.Duration
	)

	BeforeEach(func() {
		myStore = newStubStore()
		filings = newStubFilings()
		session = &stubSession{}
		sleeps = nil

		primary = &stubSource{
			name:    "yahoo",
			results: map[string]*sites.SourceResult{},
		}

		refresher = refresh.New(myStore, filings)
		refresher.Primary = primary
		refresher.Secondaries = nil
		refresher.Launch = func() (refresh.Session, error) { return session, nil }
		refresher.Sleep = func(_ context.Context, d time.Duration) { sleeps = append(sleeps, d) }
	})

	When("every ticker has usable data", func() {
		BeforeEach(func() {
			primary.results["AAPL"] = &sites.SourceResult{EarningsDate: datePtr(2025, 8, 5)}
			primary.results["MSFT"] = &sites.SourceResult{EarningsDate: datePtr(2025, 8, 12)}
			primary.results["CRM"] = &sites.SourceResult{EarningsDate: datePtr(2025, 8, 19)}
		})

		It("replaces an estimate for each ticker", func() {
			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL", "MSFT", "CRM"})

			Expect(summary.Total).To(Equal(3))
			Expect(summary.Successful).To(Equal(3))
			Expect(summary.Failed).To(Equal(0))
			Expect(summary.Errors).To(BeEmpty())
			Expect(myStore.estimates).To(HaveLen(3))
		})

		It("closes the browser session when the batch ends", func() {
			refresher.RefreshBatch(context.Background(), []string{"AAPL"})
			Expect(session.closed).To(BeTrue())
		})

		It("pauses between tickers but not after the last", func() {
			refresher.RefreshBatch(context.Background(), []string{"AAPL", "MSFT", "CRM"})
			Expect(sleeps).To(HaveLen(2))
		})
	})

	When("one ticker has no usable data", func() {
		BeforeEach(func() {
			primary.results["AAPL"] = &sites.SourceResult{EarningsDate: datePtr(2025, 8, 5)}
			// MSFT: source loads but reports nothing
			primary.results["CRM"] = &sites.SourceResult{EarningsDate: datePtr(2025, 8, 19)}
		})

		It("fails that ticker and still processes the rest", func() {
			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL", "MSFT", "CRM"})

			Expect(summary.Successful).To(Equal(2))
			Expect(summary.Failed).To(Equal(1))
			Expect(summary.Errors).To(ConsistOf("MSFT: no usable earnings data found"))
			Expect(myStore.estimates).To(HaveLen(2))
		})
	})

	When("the primary source errors", func() {
		BeforeEach(func() {
			primary.err = errors.New("net::ERR_NAME_NOT_RESOLVED")
		})

		It("fails the ticker without retrying", func() {
			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(summary.Failed).To(Equal(1))
			Expect(summary.Errors[0]).To(ContainSubstring("primary source failed"))
			Expect(primary.calls).To(Equal(1))
		})
	})

	When("the primary source hits a navigation timeout", func() {
		BeforeEach(func() {
			primary.err = errors.New("playwright: Timeout 30000ms exceeded")
			primary.errsBeforeResult = 2
			primary.results["AAPL"] = &sites.SourceResult{EarningsDate: datePtr(2025, 8, 5)}
		})

		It("retries up to twice and succeeds", func() {
			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(summary.Successful).To(Equal(1))
			Expect(primary.calls).To(Equal(3))
			Expect(sleeps).To(HaveLen(2))
		})

		It("gives up after the final retry", func() {
			primary.errsBeforeResult = 0

			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(summary.Failed).To(Equal(1))
			Expect(primary.calls).To(Equal(3))
		})
	})

	When("a source panics", func() {
		It("converts the panic into a failed ticker", func() {
			refresher.Primary = &panicSource{name: "yahoo"}

			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(summary.Failed).To(Equal(1))
			Expect(summary.Errors[0]).To(ContainSubstring("panicked"))
		})
	})

	When("the browser cannot launch", func() {
		It("fails every ticker in the batch", func() {
			refresher.Launch = func() (refresh.Session, error) {
				return nil, errors.New("chromium executable not found")
			}

			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL", "MSFT"})

			Expect(summary.Failed).To(Equal(2))
			Expect(summary.Errors).To(HaveLen(2))
			Expect(summary.Errors[0]).To(ContainSubstring("browser launch failed"))
			Expect(primary.calls).To(Equal(0))
		})
	})

	When("the run is cancelled", func() {
		It("marks unprocessed tickers as cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			summary := refresher.RefreshBatch(ctx, []string{"AAPL", "MSFT"})

			Expect(summary.Failed).To(Equal(2))
			Expect(summary.Errors).To(ConsistOf("AAPL: run cancelled", "MSFT: run cancelled"))
		})
	})

	Describe("timing reconciliation", func() {
		var whispers, nasdaq *stubSource

		BeforeEach(func() {
			primary.results["AAPL"] = &sites.SourceResult{EarningsDate: datePtr(2025, 8, 5)}

			whispers = &stubSource{name: "earningswhispers", results: map[string]*sites.SourceResult{}}
			nasdaq = &stubSource{name: "nasdaq", results: map[string]*sites.SourceResult{}}

			refresher.Secondaries = []sites.Source{whispers, nasdaq}
		})

		It("stops consulting secondaries once one reports a timing signal", func() {
			whispers.results["AAPL"] = &sites.SourceResult{
				ReleaseTime: strPtr("4:30 PM ET"),
				Timing:      timingPtr(data.TimingAfter),
			}

			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(summary.Successful).To(Equal(1))
			Expect(nasdaq.calls).To(Equal(0))

			estimate := myStore.estimates[0]
			Expect(estimate.MarketTiming).To(Equal(data.TimingAfter))
			Expect(estimate.ReleaseTime).To(HaveValue(Equal("4:30 PM ET")))
		})

		It("skips secondaries entirely when the primary reports timing", func() {
			primary.results["AAPL"].Timing = timingPtr(data.TimingBefore)

			refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(whispers.calls).To(Equal(0))
			Expect(nasdaq.calls).To(Equal(0))
			Expect(myStore.estimates[0].MarketTiming).To(Equal(data.TimingBefore))
		})

		It("tolerates a failing secondary and consults the next", func() {
			whispers.err = errors.New("net::ERR_CONNECTION_RESET")
			nasdaq.results["AAPL"] = &sites.SourceResult{Timing: timingPtr(data.TimingBefore)}

			summary := refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(summary.Successful).To(Equal(1))
			Expect(myStore.estimates[0].MarketTiming).To(Equal(data.TimingBefore))
		})

		It("defaults to after-market when no source reports timing", func() {
			refresher.RefreshBatch(context.Background(), []string{"AAPL"})

			Expect(myStore.estimates[0].MarketTiming).To(Equal(data.TimingAfter))
			Expect(myStore.estimates[0].ReleaseTime).To(BeNil())
		})
	})

	Describe("reported history", func() {
		BeforeEach(func() {
			filings.ciks["ACME"] = "0000123456"
			filings.history["0000123456"] = []*data.HistoricalEPS{
				{FiscalPeriod: "Q1 2025", EPS: 1.31, FilingDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)},
				{FiscalPeriod: "Q4 2024", EPS: 1.18, FilingDate: time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)},
				{FiscalPeriod: "Q2 2024", EPS: 1.10, FilingDate: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)},
			}

			primary.results["ACME"] = &sites.SourceResult{
				EarningsDate: datePtr(2025, 8, 5),
				EPSEstimate:  floatPtr(1.25),
				CompanyName:  strPtr("ACME Industries Inc"),
			}
		})

		It("persists filings and backfills the year-ago figure", func() {
			summary := refresher.RefreshBatch(context.Background(), []string{"ACME"})

			Expect(summary.Successful).To(Equal(1))

			company := myStore.companies["ACME"]
			Expect(myStore.savedHistory[company.ID]).To(HaveLen(3))

			estimate := myStore.estimates[0]
			Expect(estimate.CompanyID).To(Equal(company.ID))
			Expect(estimate.EPSEstimate).To(HaveValue(Equal(1.25)))
			Expect(estimate.YearAgoEPS).To(HaveValue(Equal(1.10)))
		})

		It("renames the company once a source reports its name", func() {
			refresher.RefreshBatch(context.Background(), []string{"ACME"})
			Expect(myStore.renames).To(HaveKeyWithValue("ACME", "ACME Industries Inc"))
		})

		It("prefers the primary's year-ago figure over filings", func() {
			primary.results["ACME"].YearAgoEPS = floatPtr(1.09)

			refresher.RefreshBatch(context.Background(), []string{"ACME"})

			Expect(myStore.estimates[0].YearAgoEPS).To(HaveValue(Equal(1.09)))
		})

		It("falls back to stored history when the ticker cannot be resolved", func() {
			delete(filings.ciks, "ACME")

			// seed rows from an earlier run
			company, err := myStore.EnsureCompany(context.Background(), "ACME")
			Expect(err).NotTo(HaveOccurred())
			myStore.reported[company.ID] = []*data.HistoricalEPS{
				{FiscalPeriod: "Q1 2025", EPS: 1.31},
				{FiscalPeriod: "Q2 2024", EPS: 1.10},
			}

			refresher.RefreshBatch(context.Background(), []string{"ACME"})

			Expect(myStore.savedHistory).To(BeEmpty())
			Expect(myStore.estimates[0].YearAgoEPS).To(HaveValue(Equal(1.10)))
		})

		It("still refreshes when the regulator lookup errors", func() {
			filings.resolveErr = errors.New("received invalid status code: 503")

			summary := refresher.RefreshBatch(context.Background(), []string{"ACME"})

			Expect(summary.Successful).To(Equal(1))
			Expect(myStore.estimates[0].YearAgoEPS).To(BeNil())
		})
	})
})
