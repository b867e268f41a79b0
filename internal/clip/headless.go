package clip

// headlessBackend is a no-op clipboard for environments without a display
// server. It never produces Watch events and silently discards writes.
type headlessBackend struct {
	watchCh chan struct{}
}

func newHeadlessBackend() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string { return "headless (no-op)" }
func (b *headlessBackend) Read() (string, bool) { return "", false }
func (b *headlessBackend) Write(_ string) error { return nil }
func (b *headlessBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *headlessBackend) Close() {}
