package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/klippy/internal/message"
)

func newPinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin an entry so it survives eviction and clearing",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, err := roundTrip(&message.Message{Type: message.TypePin, ID: args[0]})
			return err
		},
	}
	return cmd
}

func newUnpinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpin <id>",
		Short: "Unpin an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, err := roundTrip(&message.Message{Type: message.TypeUnpin, ID: args[0]})
			return err
		},
	}
	return cmd
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an entry from the history",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, err := roundTrip(&message.Message{Type: message.TypeRemove, ID: args[0]})
			return err
		},
	}
	return cmd
}

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Copy an entry back to the system clipboard",
		Long: `Copies the entry's content back to the system clipboard and moves it to
the front of the history. IDs may be abbreviated to any unambiguous prefix,
e.g. the 8-character form printed by "klippy list".`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := roundTrip(&message.Message{Type: message.TypeSelect, ID: args[0]})
			if err != nil {
				return err
			}
			if len(resp.Entries) == 1 {
				fmt.Printf("Copied %s to clipboard.\n", shortID(resp.Entries[0].ID))
			}
			return nil
		},
	}
	return cmd
}
