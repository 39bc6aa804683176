package generator

import "sync/atomic"

// Toggle is a process-wide on/off setting owned by the host, such as
// "generate transforms before page load"
type Toggle interface {
	Enabled() bool
	SetEnabled(bool)
}

// AtomicToggle is a Toggle safe for concurrent use
type AtomicToggle struct {
	v atomic.Bool
}

func (t *AtomicToggle) Enabled() bool     { return t.v.Load() }
func (t *AtomicToggle) SetEnabled(b bool) { t.v.Store(b) }

// withEager forces t on while fn runs and puts the previous value back on
// every exit path, panics included. A nil toggle just runs fn.
func withEager(t Toggle, fn func() error) error {
	if t == nil {
		return fn()
	}
	prev := t.Enabled()
	t.SetEnabled(true)
	defer t.SetEnabled(prev)
	return fn()
}
