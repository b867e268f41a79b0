package clip

import "sync"

// Fake is an in-memory Backend for tests. SetText simulates the user copying
// something: it updates the fake clipboard and fires a Watch signal.
type Fake struct {
	mu      sync.Mutex
	text    string
	watchCh chan struct{}

	// WriteErr, when non-nil, is returned by Write to simulate an
	// unavailable clipboard.
	WriteErr error
}

// NewFake returns an empty fake clipboard.
func NewFake() *Fake {
	return &Fake{watchCh: make(chan struct{}, 8)}
}

// SetText simulates an external copy.
func (f *Fake) SetText(text string) {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
	select {
	case f.watchCh <- struct{}{}:
	default:
	}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Read() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.text == "" {
		return "", false
	}
	return f.text, true
}

func (f *Fake) Write(text string) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
	return nil
}

func (f *Fake) Watch() <-chan struct{} { return f.watchCh }
func (f *Fake) Close()                 {}
