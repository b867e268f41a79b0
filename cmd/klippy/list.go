package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/klippy/internal/history"
	"go.klb.dev/klippy/internal/message"
)

const previewWidth = 60

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clipboard history",
		Long: `Lists the clipboard history, most recently used first.

With --pinned only pinned entries are shown.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			req := &message.Message{Type: message.TypeList}
			if v.GetBool("pinned") {
				req.Type = message.TypePinned
			}
			resp, err := roundTrip(req)
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				enc, _ := json.MarshalIndent(resp.Entries, "", "  ")
				fmt.Println(string(enc))
				return nil
			}
			printEntries(resp.Entries)
			return nil
		},
	}

	f := cmd.Flags()
	f.Bool("pinned", false, "show only pinned entries")
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func newSearchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search clipboard history",
		Long: `Searches the clipboard history for entries whose content contains the
query, case-insensitively. Results keep the history's recency order.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := roundTrip(&message.Message{Type: message.TypeSearch, Query: args[0]})
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				enc, _ := json.MarshalIndent(resp.Entries, "", "  ")
				fmt.Println(string(enc))
				return nil
			}
			printEntries(resp.Entries)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func printEntries(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Println("History is empty.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tID\tLAST USED\tCONTENT\n")
	_, _ = fmt.Fprintf(tw, "\t--\t---------\t-------\n")
	for _, e := range entries {
		marker := ""
		if e.Pinned {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, shortID(e.ID), fmtAge(e.LastUsedAt), preview(e.Content))
	}
	_ = tw.Flush()
}

// shortID keeps output readable; full IDs still work everywhere an ID is
// accepted, and the daemon resolves unambiguous prefixes.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// preview flattens an entry to a single truncated line for table output.
func preview(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(s) <= previewWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewWidth-1]) + "…"
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}
