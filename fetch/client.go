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
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Client issues rate-limited HTTP requests that identify the operator in the
// User-Agent header. Regulatory hosts require a contact string and refuse
// anonymous or browser-impersonating agents, so the header is built from the
// configured contact name and email.
type Client struct {
	pacer *Pacer
	rest  *resty.Client
}

// NewClient creates a client whose requests are spaced by pacer
func NewClient(pacer *Pacer) *Client {
	if pacer == nil {
		pacer = NewPacer(DEFAULT_HOST_INTERVAL)
	}

	return &Client{
		pacer: pacer,
		rest:  resty.New().SetHeader("User-Agent", UserAgent()),
	}
}

// UserAgent returns the contact string sent with every request, built from
// the contact.name and contact.email configuration settings
func UserAgent() string {
	parts := make([]string, 0, 2)

	if name := strings.TrimSpace(viper.GetString("contact.name")); name != "" {
		parts = append(parts, name)
	}

	if email := strings.TrimSpace(viper.GetString("contact.email")); email != "" {
		parts = append(parts, email)
	}

	if len(parts) == 0 {
		return "pvearnings"
	}

	return strings.Join(parts, " ")
}

// Get fetches url after waiting for the host's rate limiter. Non-2xx
// responses are returned with a nil error; callers decide whether a given
// status is fatal.
func (client *Client) Get(ctx context.Context, rawURL string) (*resty.Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	if err := client.pacer.Wait(ctx, parsed.Host); err != nil {
		return nil, err
	}

	resp, err := client.rest.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		log.Error().Err(err).Str("Url", rawURL).Msg("http request failed")
		return nil, err
	}

	return resp, nil
}
