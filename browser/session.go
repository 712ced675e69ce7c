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
package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/stealth"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Session owns one browser process shared by every extraction in a refresh
// run. Launching Chromium is expensive; individual pages are cheap, so each
// source opens and closes its own page on the shared session.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// NewSession starts the playwright driver and launches a single Chromium
// instance. Callers must Close the session when the run finishes.
func NewSession(headless bool) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("launch playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			log.Error().Err(stopErr).Msg("error stopping playwright after failed launch")
		}

		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	log.Info().Bool("Headless", headless).
		Str("ExecutablePath", pw.Chromium.ExecutablePath()).
		Str("BrowserVersion", browser.Version()).
		Msg("starting playwright")

	userAgent := viper.GetString("playwright.user_agent")
	if userAgent == "" {
		userAgent = buildUserAgent(browser)
	}

	contextOptions := playwright.BrowserNewContextOptions{}
	if userAgent != "" {
		log.Info().Str("UserAgent", userAgent).Msg("using user-agent")
		contextOptions.UserAgent = playwright.String(userAgent)
	}

	context, err := browser.NewContext(contextOptions)
	if err != nil {
		if closeErr := browser.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing browser after failed context creation")
		}

		if stopErr := pw.Stop(); stopErr != nil {
			log.Error().Err(stopErr).Msg("error stopping playwright after failed context creation")
		}

		return nil, fmt.Errorf("create browser context: %w", err)
	}

	return &Session{
		pw:      pw,
		browser: browser,
		context: context,
	}, nil
}

// NewPage creates a page with the stealth script loaded and ad and tracker
// routes blocked
func (session *Session) NewPage() (playwright.Page, error) {
	page, err := session.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := page.AddInitScript(playwright.Script{
		Content: playwright.String(stealth.JS),
	}); err != nil {
		log.Error().Err(err).Msg("could not load stealth mode")
	}

	blockTrackers(page)

	return page, nil
}

// Close shuts down the browser and the playwright driver. It is safe to call
// after a partial launch failure.
func (session *Session) Close() {
	log.Info().Msg("closing browser")

	if session.browser != nil {
		if err := session.browser.Close(); err != nil {
			log.Error().Err(err).Msg("error encountered when closing browser")
		}
	}

	log.Info().Msg("stopping playwright")

	if session.pw != nil {
		if err := session.pw.Stop(); err != nil {
			log.Error().Err(err).Msg("error encountered when stopping playwright")
		}
	}
}

// buildUserAgent dynamically determines the user agent and removes the
// headless identifier
func buildUserAgent(browser playwright.Browser) string {
	context, err := browser.NewContext()
	if err != nil {
		log.Error().Err(err).Msg("could not create context for building user agent")
		return ""
	}

	defer func() {
		if err := context.Close(); err != nil {
			log.Error().Err(err).Msg("error closing user agent context")
		}
	}()

	page, err := context.NewPage()
	if err != nil {
		log.Error().Err(err).Msg("could not create page for building user agent")
		return ""
	}

	resp, err := page.Goto("https://playwright.dev", playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		log.Error().Err(err).Str("Url", "https://playwright.dev").Msg("could not load page")
		return ""
	}

	headers, err := resp.Request().AllHeaders()
	if err != nil {
		log.Error().Err(err).Msg("could not load request headers")
		return ""
	}

	return strings.Replace(headers["user-agent"], "Headless", "", -1)
}

// blockTrackers aborts requests to ad exchanges and tracking pixels. The
// extraction sites stay functional without them and pages settle to
// networkidle much sooner.
func blockTrackers(page playwright.Page) {
	err := page.Route("**/*", func(route playwright.Route) {
		request := route.Request()
		if strings.Contains(request.URL(), "googletagservices.com") ||
			strings.Contains(request.URL(), "googlesyndication.com") ||
			strings.Contains(request.URL(), "facebook.com") ||
			strings.Contains(request.URL(), "moatpixel.com") ||
			strings.Contains(request.URL(), "moatads.com") ||
			strings.Contains(request.URL(), "adsystem.com") ||
			strings.Contains(request.URL(), "connatix.com") ||
			strings.Contains(request.URL(), "prebid") ||
			strings.Contains(request.URL(), "sodar") ||
			strings.Contains(request.URL(), "auction") ||
			strings.Contains(request.URL(), "rubiconproject.com") ||
			strings.Contains(request.URL(), "pubmatic.com") ||
			strings.Contains(request.URL(), "amazon-adsystem.com") ||
			strings.Contains(request.URL(), "adnxs.com") ||
			strings.Contains(request.URL(), "lijit.com") ||
			strings.Contains(request.URL(), "3lift.com") ||
			strings.Contains(request.URL(), "doubleclick.net") ||
			strings.Contains(request.URL(), "bidswitch.net") ||
			strings.Contains(request.URL(), "casalemedia.com") ||
			strings.Contains(request.URL(), "sitescout.com") ||
			strings.Contains(request.URL(), "ipredictive.com") ||
			strings.Contains(request.URL(), "taboola.com") ||
			strings.Contains(request.URL(), "outbrain.com") ||
			strings.Contains(request.URL(), "eyeota.net") {
			if err := route.Abort("failed"); err != nil {
				log.Error().Err(err).Msg("failed blocking route")
			}

			return
		}

		if err := route.Continue(); err != nil {
			log.Error().Err(err).Msg("failed continueing route")
		}
	})

	if err != nil {
		log.Error().Err(err).Msg("page route errored")
	}
}
