// Copyright 2025 The packetd Authors
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

package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/resp3/common"
	"github.com/packetd/resp3/internal/rescue"
)

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime_seconds",
			Help:      "Seconds since the process started",
		},
	)

	concurrencyHint = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "concurrency_hint",
			Help:      "common.Concurrency(), the process' default worker fan-out based on CPU count",
		},
	)
)

func init() {
	concurrencyHint.Set(float64(common.Concurrency()))
}

// registerUptimeCollector starts a background goroutine that refreshes
// the uptime_seconds gauge once per tick until stop is closed, since
// promhttp.Handler gives this package no per-request hook to sample
// uptime from on each scrape the way an inline handler could.
func (s *Server) registerUptimeCollector(stop <-chan struct{}) {
	uptime.Set(float64(time.Now().Unix() - common.Started()))
	go func() {
		defer rescue.HandleCrash()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				uptime.Set(float64(time.Now().Unix() - common.Started()))
			case <-stop:
				return
			}
		}
	}()
}
