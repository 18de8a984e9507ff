// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command mtptool is a thin CLI front-end over the mtp package, wired to
// a single USB MTP device selected by vendor/product ID.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagVendorID  uint16
	flagProductID uint16
	flagConfig    int
	flagInterface int
	flagAlt       int
	flagBulkIn    int
	flagBulkOut   int
	flagInterrupt int
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:   "mtptool",
		Short: "Inspect and transfer files to/from an MTP device",
	}

	root.PersistentFlags().Uint16Var(&flagVendorID, "vid", 0, "USB vendor ID (hex, e.g. 0x04e8)")
	root.PersistentFlags().Uint16Var(&flagProductID, "pid", 0, "USB product ID (hex, e.g. 0x5137)")
	root.PersistentFlags().IntVar(&flagConfig, "config", 1, "USB configuration number")
	root.PersistentFlags().IntVar(&flagInterface, "iface", 0, "MTP interface number")
	root.PersistentFlags().IntVar(&flagAlt, "alt", 0, "interface alt setting")
	root.PersistentFlags().IntVar(&flagBulkIn, "bulk-in", 0x81, "bulk IN endpoint address")
	root.PersistentFlags().IntVar(&flagBulkOut, "bulk-out", 0x02, "bulk OUT endpoint address")
	root.PersistentFlags().IntVar(&flagInterrupt, "interrupt-in", 0x83, "interrupt IN endpoint address")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log protocol-level diagnostics")

	root.AddCommand(
		newFoldersCmd(),
		newFilesCmd(),
		newTracksCmd(),
		newGetCmd(),
		newSendCmd(),
		newPlaylistsCmd(),
		newFormatCmd(),
		newResetCmd(),
		newHotplugCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mtptool:", err)
		os.Exit(1)
	}
}
