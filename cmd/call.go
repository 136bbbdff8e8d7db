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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/packetd/resp3/client"
	"github.com/packetd/resp3/common"
	"github.com/packetd/resp3/internal/sigs"
	"github.com/packetd/resp3/resp3"
)

var callConfig struct {
	Timeout        time.Duration
	ReadBufferSize int
}

func engineOptions() client.Options {
	extra := common.NewOptions()
	if callConfig.ReadBufferSize > 0 {
		extra.Merge("readBufferSize", callConfig.ReadBufferSize)
	}
	return client.Options{Extra: extra}
}

var callCmd = &cobra.Command{
	Use:   "call <command> [arg...]",
	Short: "Issue a single RESP3 command and print the reply",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine := client.New(rootConfig.Host, rootConfig.Port, engineOptions())
		defer engine.Close()

		ctx, cancel := context.WithTimeout(context.Background(), callConfig.Timeout)
		defer cancel()

		reply, err := engine.Call(ctx, []byte(args[0]), bytesArgs(args[1:])...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(formatValue(reply, 0))
	},
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <channel> [channel...]",
	Short: "Subscribe to one or more channels and print pushes until interrupted",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine := client.New(rootConfig.Host, rootConfig.Port, engineOptions())
		defer engine.Close()

		engine.RegisterPushCallback([]byte("subscribe"), func(v *resp3.Value) {
			fmt.Println(formatValue(v, 0))
		})
		engine.RegisterPushCallback([]byte("message"), func(v *resp3.Value) {
			fmt.Println(formatValue(v, 0))
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-sigs.Terminate()
			cancel()
		}()

		// A subscribed connection stays dedicated to this command for as
		// long as the subscription lives: once SUBSCRIBE's ack push has
		// been dispatched, the same connection keeps delivering further
		// "message" pushes indefinitely, so it must never be handed back
		// to the pool for an unrelated call to pick up mid-stream.
		conn, err := engine.Send(ctx, []byte("SUBSCRIBE"), bytesArgs(args)...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "subscribed, waiting for pushes (ctrl-c to exit)\n")
		for {
			if _, err := engine.Receive(ctx, conn, true); err != nil {
				engine.Drop(conn)
				if ctx.Err() != nil {
					return
				}
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			if ctx.Err() != nil {
				engine.Drop(conn)
				return
			}
		}
	},
}

func bytesArgs(args []string) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return out
}

func init() {
	callCmd.Flags().DurationVar(&callConfig.Timeout, "timeout", 5*time.Second, "Call timeout")
	for _, c := range []*cobra.Command{callCmd, subscribeCmd} {
		c.Flags().IntVar(&callConfig.ReadBufferSize, "read-buffer-size", 0, "Override the engine's per-read buffer size in bytes (0 = default)")
	}
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(subscribeCmd)
}
