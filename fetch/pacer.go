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
	"time"

	"github.com/alphadose/haxmap"
	"golang.org/x/time/rate"
)

// DEFAULT_HOST_INTERVAL is the minimum spacing between requests to a single
// upstream host, 10 requests per second.
const DEFAULT_HOST_INTERVAL = 100 * time.Millisecond

// Pacer enforces a minimum interval between requests to each upstream host.
// Hosts are independent of one another; the first request to a host is never
// delayed.
type Pacer struct {
	interval time.Duration
	limiters *haxmap.Map[string, *rate.Limiter]
}

// NewPacer creates a pacer that spaces requests to any single host at least
// interval apart
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = DEFAULT_HOST_INTERVAL
	}

	return &Pacer{
		interval: interval,
		limiters: haxmap.New[string, *rate.Limiter](),
	}
}

func (pacer *Pacer) limiter(host string) *rate.Limiter {
	if limiter, ok := pacer.limiters.Get(host); ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Every(pacer.interval), 1)
	pacer.limiters.Set(host, limiter)

	return limiter
}

// Reserve returns how long a request to host must wait when issued at now.
// The reservation is consumed, so callers must honor the returned delay.
func (pacer *Pacer) Reserve(host string, now time.Time) time.Duration {
	return pacer.limiter(host).ReserveN(now, 1).DelayFrom(now)
}

// Wait blocks until a request to host may proceed or ctx is cancelled
func (pacer *Pacer) Wait(ctx context.Context, host string) error {
	return pacer.limiter(host).Wait(ctx)
}
