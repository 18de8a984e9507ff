// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/saferwall/mtp"
	"github.com/spf13/cobra"
)

func newFoldersCmd() *cobra.Command {
	var storageID uint32
	var parent uint32
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List folders under a parent object (0 for storage root)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *mtp.MtpSession) error {
				recs, err := s.ListFolders(storageID, mtp.ObjectHandle(parent))
				if err != nil {
					return err
				}
				printRecords(recs)
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&storageID, "storage", 0, "storage ID")
	cmd.Flags().Uint32Var(&parent, "parent", 0, "parent object handle")
	return cmd
}

func newFilesCmd() *cobra.Command {
	var storageID uint32
	var parent uint32
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List non-folder objects under a parent object",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *mtp.MtpSession) error {
				recs, err := s.ListFiles(storageID, mtp.ObjectHandle(parent))
				if err != nil {
					return err
				}
				printRecords(recs)
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&storageID, "storage", 0, "storage ID")
	cmd.Flags().Uint32Var(&parent, "parent", 0, "parent object handle")
	return cmd
}

func newTracksCmd() *cobra.Command {
	var storageID uint32
	var parent uint32
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List audio tracks under a parent object",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *mtp.MtpSession) error {
				recs, err := s.ListTracks(storageID, mtp.ObjectHandle(parent))
				if err != nil {
					return err
				}
				printRecords(recs)
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&storageID, "storage", 0, "storage ID")
	cmd.Flags().Uint32Var(&parent, "parent", 0, "parent object handle")
	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <handle> <dest-path>",
		Short: "Download an object to a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid handle %q: %w", args[0], err)
			}
			return withSession(func(s *mtp.MtpSession) error {
				return s.GetFile(mtp.ObjectHandle(handle), args[1])
			})
		},
	}
	return cmd
}

func newSendCmd() *cobra.Command {
	var storageID uint32
	var parent uint32
	var format uint16
	cmd := &cobra.Command{
		Use:   "send <src-path>",
		Short: "Upload a local file as a new object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *mtp.MtpSession) error {
				handle, err := s.SendFile(args[0], storageID, mtp.ObjectHandle(parent), mtp.FormatCode(format))
				if err != nil {
					return err
				}
				fmt.Println(uint32(handle))
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&storageID, "storage", 0, "storage ID")
	cmd.Flags().Uint32Var(&parent, "parent", 0, "parent object handle")
	cmd.Flags().Uint16Var(&format, "format", uint16(mtp.FormatMP3), "PTP object format code")
	return cmd
}

// withSession opens a device session, runs fn, and always closes the
// session and releases the USB interface afterward.
func withSession(fn func(*mtp.MtpSession) error) error {
	session, dev, err := openSession()
	if err != nil {
		return err
	}
	defer closeSession(session, dev)
	return fn(session)
}

func printRecords(recs []mtp.ObjectRecord) {
	for _, r := range recs {
		fmt.Printf("%d\t%s\t%d\t0x%04x\n", uint32(r.Handle), r.Name, r.Size, uint16(r.Format))
	}
}
