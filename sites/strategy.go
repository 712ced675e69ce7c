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
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Strategy is a single extraction heuristic. It returns the empty string
// when the value cannot be found; on markup that churns as often as these
// sites do, failure to match is indistinguishable from absence, so
// strategies swallow driver errors.
type Strategy func(page playwright.Page) string

// firstMatch runs strategies in order and returns the first non-empty value
func firstMatch(page playwright.Page, strategies ...Strategy) string {
	for _, strategy := range strategies {
		if value := strategy(page); value != "" {
			return value
		}
	}

	return ""
}

// bySelector returns the trimmed text of the first visible element among
// selectors, tried in order
func bySelector(selectors ...string) Strategy {
	return func(page playwright.Page) string {
		for _, selector := range selectors {
			locator := page.Locator(selector).First()

			visible, err := locator.IsVisible()
			if err != nil || !visible {
				continue
			}

			text, err := locator.TextContent(playwright.LocatorTextContentOptions{
				Timeout: playwright.Float(1000),
			})
			if err != nil {
				continue
			}

			if text = strings.TrimSpace(text); text != "" {
				return text
			}
		}

		return ""
	}
}

// byElementScan inspects every element matching selector and returns the
// first whose own text strictly matches re
func byElementScan(selector string, re *regexp.Regexp) Strategy {
	return func(page playwright.Page) string {
		elements, err := page.Locator(selector).All()
		if err != nil {
			return ""
		}

		for _, element := range elements {
			text, err := element.TextContent(playwright.LocatorTextContentOptions{
				Timeout: playwright.Float(1000),
			})
			if err != nil {
				continue
			}

			if match := strictMatch(text, re); match != "" {
				return match
			}
		}

		return ""
	}
}

// strictMatch returns the re match only when it makes up the bulk of the
// element's own text. A value embedded in a longer sentence or paragraph is
// rejected: a timestamp buried in an article blurb is usually unrelated to
// the release being extracted.
func strictMatch(text string, re *regexp.Regexp) string {
	text = strings.TrimSpace(text)

	match := re.FindString(text)
	if match == "" {
		return ""
	}

	if len(match)*2 < len(text) {
		return ""
	}

	return match
}

// byPageText matches re against the full rendered page text and returns
// capture group
func byPageText(re *regexp.Regexp, group int) Strategy {
	return func(page playwright.Page) string {
		body, err := page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
			Timeout: playwright.Float(2000),
		})
		if err != nil {
			return ""
		}

		return pageMatch(body, re, group)
	}
}

func pageMatch(text string, re *regexp.Regexp, group int) string {
	match := re.FindStringSubmatch(text)
	if match == nil || group >= len(match) {
		return ""
	}

	return strings.TrimSpace(match[group])
}

// byProximity locates label in the page text and scans the text that
// follows it for re. The last line of defense when a site has shuffled its
// markup completely.
func byProximity(label string, re *regexp.Regexp) Strategy {
	return func(page playwright.Page) string {
		body, err := page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
			Timeout: playwright.Float(2000),
		})
		if err != nil {
			return ""
		}

		return nearLabel(body, label, re, 160)
	}
}

// nearLabel scans the window characters following each occurrence of label
// for re and returns the first match
func nearLabel(text, label string, re *regexp.Regexp, window int) string {
	lower := strings.ToLower(text)
	label = strings.ToLower(label)

	for idx := strings.Index(lower, label); idx >= 0; {
		segStart := idx + len(label)
		segEnd := min(segStart+window, len(text))

		if match := re.FindString(text[segStart:segEnd]); match != "" {
			return strings.TrimSpace(match)
		}

		next := strings.Index(lower[segStart:], label)
		if next < 0 {
			break
		}

		idx = segStart + next
	}

	return ""
}

// waitForAny blocks until one of selectors attaches to the DOM, giving each
// candidate timeout milliseconds. Returns false when none appeared; callers
// usually press on anyway and let the full-page strategies try their luck.
func waitForAny(page playwright.Page, timeout float64, selectors ...string) bool {
	for _, selector := range selectors {
		err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(timeout),
		})
		if err == nil {
			return true
		}
	}

	return false
}
