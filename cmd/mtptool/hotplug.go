// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

func newHotplugCmd() *cobra.Command {
	var pollInterval time.Duration
	cmd := &cobra.Command{
		Use:   "hotplug",
		Short: "Watch for MTP-class devices attaching and detaching",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, stop := listMtpDevices(pollInterval)
			defer stop()

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt)

			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if ev.attached {
						fmt.Printf("attached\t%s\n", ev.key)
					} else {
						fmt.Printf("detached\t%s\n", ev.key)
					}
				case <-sigs:
					return nil
				}
			}
		},
	}
	cmd.Flags().DurationVar(&pollInterval, "interval", 2*time.Second, "device-list poll interval")
	return cmd
}
