package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/klippy/internal/message"
)

func newClearCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear clipboard history",
		Long: `Removes all unpinned entries from the history. Pinned entries are kept
unless --all is passed.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			req := &message.Message{Type: message.TypeClear}
			if v.GetBool("all") {
				req.Type = message.TypeClearAll
			}
			resp, err := roundTrip(req)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries.\n", resp.Removed)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "also remove pinned entries")
	addConfigFlag(cmd)

	return cmd
}

func newSetMaxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-max <n>",
		Short: "Set the retention limit for unpinned entries",
		Long: `Sets how many unpinned entries the history keeps. Shrinking the limit
evicts the oldest unpinned entries immediately. The new limit is persisted
with the history and survives daemon restarts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", args[0], err)
			}
			_, err = roundTrip(&message.Message{Type: message.TypeSetMax, Max: n})
			return err
		},
	}
	return cmd
}

func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the history file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := roundTrip(&message.Message{Type: message.TypePath})
			if err != nil {
				return err
			}
			fmt.Println(resp.Path)
			return nil
		},
	}
	return cmd
}
