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

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/packetd/resp3/client"
	"github.com/packetd/resp3/confengine"
	"github.com/packetd/resp3/internal/rescue"
	"github.com/packetd/resp3/internal/sigs"
	"github.com/packetd/resp3/logger"
	"github.com/packetd/resp3/server"
)

type serveCmdConfig struct {
	Address string
	Pprof   bool
	Timeout int
}

func (c serveCmdConfig) yaml() []byte {
	text := `
server:
  enabled: true
  address: {{ .Address }}
  pprof: {{ .Pprof }}
  metrics: true
  timeout: {{ .Timeout }}s
`
	tpl, err := template.New("serve").Parse(text)
	if err != nil {
		return nil
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, c); err != nil {
		return nil
	}
	return buf.Bytes()
}

var serveConfig serveCmdConfig

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the observability sidecar (Prometheus metrics, optional pprof)",
	Run: func(cmd *cobra.Command, args []string) {
		conf, err := confengine.LoadContent(serveConfig.yaml())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		srv, err := server.New(conf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
			os.Exit(1)
		}

		engine := client.New(rootConfig.Host, rootConfig.Port, client.Options{})
		srv.RegisterGetRoute("/healthz", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if _, err := engine.Call(ctx, []byte("PING")); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		go func() {
			defer rescue.HandleCrash()
			if err := srv.ListenAndServe(); err != nil {
				logger.Errorf("admin server stopped: %v", err)
			}
		}()

		<-sigs.Terminate()

		var errs error
		if err := srv.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		if err := engine.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		if errs != nil {
			logger.Errorf("serve shutdown: %v", errs)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfig.Address, "address", ":9253", "Admin server listen address")
	serveCmd.Flags().BoolVar(&serveConfig.Pprof, "pprof", false, "Enable pprof routes")
	serveCmd.Flags().IntVar(&serveConfig.Timeout, "timeout", 5, "Admin server read/write timeout in seconds")
	rootCmd.AddCommand(serveCmd)
}
