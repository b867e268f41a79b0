package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/klippy/internal/clip"
	"go.klb.dev/klippy/internal/crypto"
	"go.klb.dev/klippy/internal/history"
	"go.klb.dev/klippy/internal/httpapi"
	"go.klb.dev/klippy/internal/ipc"
	"go.klb.dev/klippy/internal/message"
	"go.klb.dev/klippy/internal/persist"
	"go.klb.dev/klippy/internal/query"
	"go.klb.dev/klippy/internal/watcher"
	"go.klb.dev/klippy/internal/wire"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the clipboard watcher daemon",
		Long: `Starts the klippy daemon: watches the system clipboard, maintains the
history, serves the IPC socket for the other sub-commands, and persists
state to disk.

Config file search order:
  /etc/klippy/klippy.toml
  $HOME/.config/klippy/klippy.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → KLIPPY_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runWatch(cmd, v) },
	}

	f := cmd.Flags()
	f.Int("max-entries", history.DefaultMaxEntries, "retention limit for unpinned entries")
	f.Duration("poll-interval", clip.DefaultPollInterval, "how often to sample the clipboard")
	f.Duration("flush-interval", watcher.DefaultFlushInterval, "how often to flush unsaved history to disk")
	f.String("data-file", "", "history file path (default: per-OS config dir)")
	f.String("token", "", "passphrase to encrypt the history file at rest (empty = plain JSON)")
	f.String("http", "", "optional HTTP API listen address, e.g. 127.0.0.1:8931 (empty = disabled)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper) error {
	setupLogging(v)

	if ipc.IsRunning() {
		return fmt.Errorf("another klippy daemon is already running on %s", ipc.SocketPath())
	}

	path, err := historyPath(v)
	if err != nil {
		return err
	}

	var key *[32]byte
	if token := v.GetString("token"); token != "" {
		key, err = crypto.DeriveKey(token)
		if err != nil {
			return fmt.Errorf("key derivation: %w", err)
		}
	}

	saver := persist.New(path, key)
	snap, err := saver.Load()
	if err != nil {
		// Never fatal: the daemon keeps running with an empty store. A
		// corrupt file has already been moved aside by the adapter.
		if errors.Is(err, persist.ErrCorruptState) {
			slog.Warn("history file unreadable, starting empty", "err", err)
		} else {
			slog.Warn("history load failed, starting empty", "err", err)
		}
	}
	store := history.FromSnapshot(snap)

	// The persisted limit survives restarts; an explicit flag overrides it.
	if cmd.Flags().Changed("max-entries") {
		if err := store.SetMaxEntries(v.GetInt("max-entries")); err != nil {
			return err
		}
	}

	slog.Info("klippy daemon starting",
		"version", Version,
		"data_file", path,
		"entries", store.Len(),
		"max_entries", store.MaxEntries(),
		"encrypted", key != nil,
	)

	backend := clip.New(v.GetDuration("poll-interval"))
	defer backend.Close()

	w := watcher.New(store, backend, saver, v.GetDuration("flush-interval"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// IPC socket for the CLI sub-commands.
	ipcLn, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		defer ipcLn.Close()
		go serveIPC(ipcLn, store, backend, path)
	}

	if addr := v.GetString("http"); addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("http listen %s: %w", addr, err)
		}
		slog.Info("HTTP API listening", "addr", ln.Addr())
		srv := &http.Server{Handler: httpapi.Handler(store, query.New(store), backend, path)}
		defer srv.Close()
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server failed", "err", err)
			}
		}()
	}

	// Blocks until signalled; performs the final save before returning.
	w.Run(ctx)
	return nil
}

func serveIPC(ln net.Listener, store *history.Store, backend clip.Backend, storagePath string) {
	facade := query.New(store)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			wc := wire.New(conn)
			msg, err := wc.ReadMsg()
			if err != nil {
				return
			}
			resp := handleRequest(msg, store, facade, backend, storagePath)
			if err := wc.WriteMsg(resp); err != nil {
				slog.Debug("ipc response write failed", "err", err)
			}
		}()
	}
}

// handleRequest executes one control request against the store. Store errors
// travel back to the client classified, never as daemon crashes.
func handleRequest(msg *message.Message, store *history.Store, facade *query.Facade, backend clip.Backend, storagePath string) *message.Message {
	switch msg.Type {
	case message.TypeList:
		return &message.Message{Type: message.TypeEntries, Entries: facade.List()}

	case message.TypeSearch:
		return &message.Message{Type: message.TypeEntries, Entries: facade.Search(msg.Query)}

	case message.TypePinned:
		return &message.Message{Type: message.TypeEntries, Entries: facade.PinnedOnly()}

	case message.TypePin:
		id, err := store.ResolveID(msg.ID)
		if err != nil {
			return message.NewError(err)
		}
		if err := store.Pin(id); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeUnpin:
		id, err := store.ResolveID(msg.ID)
		if err != nil {
			return message.NewError(err)
		}
		if err := store.Unpin(id); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeRemove:
		id, err := store.ResolveID(msg.ID)
		if err != nil {
			return message.NewError(err)
		}
		if err := store.Remove(id); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypeSelect:
		id, err := store.ResolveID(msg.ID)
		if err != nil {
			return message.NewError(err)
		}
		e, err := store.Select(id)
		if err != nil {
			return message.NewError(err)
		}
		if err := backend.Write(e.Content); err != nil {
			return message.NewError(fmt.Errorf("clipboard write: %w", err))
		}
		return &message.Message{Type: message.TypeOK, Entries: []history.Entry{e}}

	case message.TypeClear:
		return &message.Message{Type: message.TypeOK, Removed: store.Clear()}

	case message.TypeClearAll:
		return &message.Message{Type: message.TypeOK, Removed: store.ClearAll()}

	case message.TypeSetMax:
		if err := store.SetMaxEntries(msg.Max); err != nil {
			return message.NewError(err)
		}
		return &message.Message{Type: message.TypeOK}

	case message.TypePath:
		return &message.Message{Type: message.TypeOK, Path: storagePath}

	default:
		return message.NewError(fmt.Errorf("unknown request type %q", msg.Type))
	}
}
