package clip

import (
	"bytes"
	"sync"
	"time"

	"golang.design/x/clipboard"
)

// pollBackend samples the clipboard on a ticker and signals Watch when the
// text changes. golang.design/x/clipboard exposes no portable change
// notification, so polling is the common denominator across X11, Wayland,
// macOS, and Windows.
type pollBackend struct {
	interval time.Duration
	watchCh  chan struct{}
	done     chan struct{}

	mu       sync.Mutex
	lastText []byte
}

func newPollBackend(interval time.Duration) (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	b := &pollBackend{
		interval: interval,
		watchCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go b.poll()
	return b, nil
}

func (b *pollBackend) Name() string { return "system clipboard (poll)" }

func (b *pollBackend) poll() {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text := clipboard.Read(clipboard.FmtText)
			b.mu.Lock()
			changed := !bytes.Equal(text, b.lastText)
			if changed {
				b.lastText = text
			}
			b.mu.Unlock()
			if changed {
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *pollBackend) Read() (string, bool) {
	text := clipboard.Read(clipboard.FmtText)
	if len(text) == 0 {
		return "", false
	}
	return string(text), true
}

func (b *pollBackend) Write(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	// Remember what we wrote so the poll loop does not report our own write
	// back as a change.
	b.mu.Lock()
	b.lastText = []byte(text)
	b.mu.Unlock()
	return nil
}

func (b *pollBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *pollBackend) Close()                 { close(b.done) }
