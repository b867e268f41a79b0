// klippy: clipboard history daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/klippy/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "klippy",
		Short: "Clipboard history daemon",
		Long: `klippy watches the system clipboard, keeps a bounded searchable history
of everything you copy, and persists it across restarts. Pinned entries are
exempt from eviction.

Run "klippy watch" as the background daemon. The other sub-commands (list,
search, pin, select, ...) talk to the running daemon over a local socket.

Config file search order (first found wins):
  /etc/klippy/klippy.toml
  $HOME/.config/klippy/klippy.toml
  path supplied via --config

All flags can be set via KLIPPY_<FLAG> env vars or config-file keys.
See "klippy watch --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newWatchCmd(),
		newListCmd(),
		newSearchCmd(),
		newPinCmd(),
		newUnpinCmd(),
		newRemoveCmd(),
		newSelectCmd(),
		newClearCmd(),
		newSetMaxCmd(),
		newPathCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("klippy %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
