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
	"fmt"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
	"github.com/penny-vault/pvearnings/backblaze"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// saveFailureScreenshot captures the page when a source came back empty so
// the markup drift can be diagnosed later. Disabled unless
// debug.screenshot_dir is set; when backblaze.bucket is also set the capture
// is archived there.
func saveFailureScreenshot(page playwright.Page, source, ticker string) {
	dir := viper.GetString("debug.screenshot_dir")
	if dir == "" {
		return
	}

	name := slug.Make(fmt.Sprintf("%s %s %s", source, ticker,
		time.Now().Format("2006-01-02 15-04-05")))
	path := filepath.Join(dir, name+".png")

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Error().Err(err).Str("Path", path).Msg("could not save failure screenshot")
		return
	}

	log.Info().Str("Path", path).Msg("saved failure screenshot")

	if bucket := viper.GetString("backblaze.bucket"); bucket != "" {
		if err := backblaze.Upload(path, bucket, "screenshots"); err != nil {
			log.Warn().Err(err).Str("Path", path).Msg("could not archive failure screenshot")
		}
	}
}
