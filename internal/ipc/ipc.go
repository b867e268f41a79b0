// Package ipc provides the local Unix-socket channel used by CLI
// sub-commands (list, search, pin, ...) to talk to the running klippy
// daemon. The daemon listens on the socket; sub-commands probe for it and
// report a helpful error when it is absent.
package ipc

import (
	"net"
	"os"
	"path/filepath"
)

// SocketPath returns the path for the IPC socket.
//
//   - $KLIPPY_SOCKET when set
//   - $XDG_RUNTIME_DIR/klippy.sock when available (Linux)
//   - $TMPDIR/klippy.sock otherwise
func SocketPath() string {
	if s := os.Getenv("KLIPPY_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "klippy.sock")
	}
	return filepath.Join(os.TempDir(), "klippy.sock")
}

// IsRunning reports whether a klippy daemon appears to be listening on the
// IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC socket path, removing any stale
// socket file from a previous (crashed) run first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to the daemon's IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", SocketPath())
}
