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

package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/resp3/common"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "calls_total",
			Help:      "Engine calls total, by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: common.App,
			Name:      "call_duration_seconds",
			Help:      "Engine call latency in seconds, by command",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	pushesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "pushes_dispatched_total",
			Help:      "Push messages routed to registered callbacks, by push kind",
		},
		[]string{"kind"},
	)

	connectionsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "connections_dropped_total",
			Help:      "Connections dropped from the pool due to a transport or protocol error",
		},
	)
)
