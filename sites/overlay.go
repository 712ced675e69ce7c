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
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

// consentButtonSelectors are known accept buttons on the extraction sites,
// most specific first. The first entry is the agree button on Yahoo's
// EU consent interstitial.
var consentButtonSelectors = []string{
	"button[name=agree]",
	"#onetrust-accept-btn-handler",
	"#didomi-notice-agree-button",
	"button.fc-cta-consent",
	".qc-cmp2-summary-buttons button[mode=primary]",
}

// consentButtonLabels are exact button captions tried when no known
// selector matches
var consentButtonLabels = []string{
	"Accept all",
	"Accept All",
	"Accept all cookies",
	"Accept Cookies",
	"I accept",
	"I Agree",
	"Agree",
	"Got it",
}

// consentContainers match elements that look like a consent or cookie
// overlay; the container-scoped click is the last resort
var consentContainers = []string{
	`[id*="consent"]`,
	`[class*="consent"]`,
	`[id*="cookie"]`,
	`[class*="cookie"]`,
}

// DismissOverlays clears consent and cookie walls that block extraction,
// trying known buttons, then exact caption matches, then a click scoped to
// anything overlay-shaped. Every step is best-effort; a missing overlay is
// the happy path and reports false.
func DismissOverlays(page playwright.Page) bool {
	for _, selector := range consentButtonSelectors {
		if clickIfVisible(page, page.Locator(selector).First()) {
			log.Debug().Str("Selector", selector).Msg("dismissed consent overlay")
			return true
		}
	}

	for _, label := range consentButtonLabels {
		locator := page.GetByRole(playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name:  label,
			Exact: playwright.Bool(true),
		}).First()

		if clickIfVisible(page, locator) {
			log.Debug().Str("Label", label).Msg("dismissed consent overlay")
			return true
		}
	}

	for _, container := range consentContainers {
		locator := page.Locator(container).Locator("button").First()
		if clickIfVisible(page, locator) {
			log.Debug().Str("Container", container).Msg("dismissed consent overlay")
			return true
		}
	}

	return false
}

func clickIfVisible(page playwright.Page, locator playwright.Locator) bool {
	visible, err := locator.IsVisible()
	if err != nil || !visible {
		return false
	}

	if err := locator.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(2000),
	}); err != nil {
		return false
	}

	// let the page reflow after the overlay drops
	page.WaitForTimeout(500)

	return true
}
