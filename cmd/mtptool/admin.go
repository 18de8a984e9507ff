// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/saferwall/mtp"
	"github.com/spf13/cobra"
)

func newFormatCmd() *cobra.Command {
	var storageID uint32
	var confirm bool
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Format a storage, erasing all its objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to format storage %d without --yes", storageID)
			}
			return withSession(func(s *mtp.MtpSession) error {
				return s.FormatStore(storageID)
			})
		},
	}
	cmd.Flags().Uint32Var(&storageID, "storage", 0, "storage ID")
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the destructive format")
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the USB device without opening an MTP session",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, err := openDeviceOnly()
			if err != nil {
				return err
			}
			defer dev.Release()
			return dev.Reset()
		},
	}
}
