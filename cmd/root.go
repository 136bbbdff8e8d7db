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

// Package cmd implements the resp3 command-line tool: a thin cobra
// wrapper around client.Engine used to probe a RESP3 server from a
// terminal, and to run the observability sidecar alongside it.
package cmd

import (
	_ "go.uber.org/automaxprocs"

	"github.com/spf13/cobra"

	"github.com/packetd/resp3/common"
	"github.com/packetd/resp3/logger"
)

var rootConfig struct {
	Host     string
	Port     int
	LogLevel string
}

var rootCmd = &cobra.Command{
	Use:     "resp3",
	Short:   "A RESP3 client CLI for ad-hoc server calls and diagnostics",
	Version: common.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetOptions(logger.Options{Stdout: true, Level: rootConfig.LogLevel})
	},
}

// Execute runs the CLI, returning the first error encountered.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfig.Host, "host", "127.0.0.1", "Server host")
	rootCmd.PersistentFlags().IntVar(&rootConfig.Port, "port", 6379, "Server port")
	rootCmd.PersistentFlags().StringVar(&rootConfig.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}
