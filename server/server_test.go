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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/resp3/confengine"
)

func testConfig(t *testing.T, yaml string) *confengine.Config {
	t.Helper()
	conf, err := confengine.LoadContent([]byte(yaml))
	require.NoError(t, err)
	return conf
}

func TestNewDisabledReturnsNil(t *testing.T) {
	conf := testConfig(t, "server:\n  enabled: false\n")
	s, err := New(conf)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMetricsRouteServesUptimeAndConcurrency(t *testing.T) {
	conf := testConfig(t, `
server:
  enabled: true
  address: "127.0.0.1:0"
  metrics: true
  pprof: false
  timeout: 2s
`)
	s, err := New(conf)
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.Close()

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "resp3_uptime_seconds")
	assert.Contains(t, rec.Body.String(), "resp3_concurrency_hint")
}

func TestCloseStopsUptimeCollector(t *testing.T) {
	conf := testConfig(t, `
server:
  enabled: true
  address: "127.0.0.1:0"
  metrics: true
  timeout: 100ms
`)
	s, err := New(conf)
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NoError(t, s.Close())
	// A second Close-driven channel close would panic; registerUptimeCollector
	// must have exited its select loop rather than leaking after Close.
	time.Sleep(10 * time.Millisecond)
}
