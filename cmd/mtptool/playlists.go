// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saferwall/mtp"
	"github.com/spf13/cobra"
)

func newPlaylistsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "Inspect or manage playlists",
	}
	cmd.AddCommand(newPlaylistsListCmd(), newPlaylistsCreateCmd(), newPlaylistsDeleteCmd())
	return cmd
}

func newPlaylistsListCmd() *cobra.Command {
	var storageID uint32
	var parent uint32
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List playlists (native objects or .spl files) under a parent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *mtp.MtpSession) error {
				pls, err := s.ListPlaylists(storageID, mtp.ObjectHandle(parent))
				if err != nil {
					return err
				}
				for _, pl := range pls {
					fmt.Printf("%d\t%s\t%v\n", uint32(pl.Handle), pl.Name, pl.Tracks)
				}
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&storageID, "storage", 0, "storage ID")
	cmd.Flags().Uint32Var(&parent, "parent", 0, "parent object handle")
	return cmd
}

func newPlaylistsCreateCmd() *cobra.Command {
	var storageID uint32
	var parent uint32
	var tracksCSV string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a playlist from a comma-separated list of track handles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := parseHandles(tracksCSV)
			if err != nil {
				return err
			}
			return withSession(func(s *mtp.MtpSession) error {
				pl, err := s.CreatePlaylist(storageID, mtp.ObjectHandle(parent), args[0], tracks)
				if err != nil {
					return err
				}
				fmt.Println(uint32(pl.Handle))
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&storageID, "storage", 0, "storage ID")
	cmd.Flags().Uint32Var(&parent, "parent", 0, "parent object handle")
	cmd.Flags().StringVar(&tracksCSV, "tracks", "", "comma-separated ordered track handles")
	return cmd
}

func newPlaylistsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <handle>",
		Short: "Delete a playlist object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid handle %q: %w", args[0], err)
			}
			return withSession(func(s *mtp.MtpSession) error {
				return s.DeletePlaylist(mtp.ObjectHandle(handle))
			})
		},
	}
	return cmd
}

func parseHandles(csv string) ([]mtp.ObjectHandle, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	out := make([]mtp.ObjectHandle, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid track handle %q: %w", p, err)
		}
		out = append(out, mtp.ObjectHandle(v))
	}
	return out, nil
}
