package scheduler

import (
	"context"
	"sync"
	"time"
)

const DefaultQuietPeriod = 500 * time.Millisecond

// Token identifies one scheduled run. Results computed for a token may only
// be applied while IsCurrent reports true for it.
type Token struct {
	Key string
	Gen uint64
}

// Debouncer coalesces bursts of triggers per key and runs the last one after
// a quiet period. A newer trigger cancels the context of any run still in
// flight for the same key, which makes the older run's token stale.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	seq     uint64
	entries map[string]*entry
	stopped bool
}

type entry struct {
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet, entries: make(map[string]*entry)}
}

// Trigger schedules run for key, replacing anything pending for it. run gets
// a context derived from parent that is canceled when the token goes stale.
func (d *Debouncer) Trigger(parent context.Context, key string, run func(ctx context.Context, tok Token)) Token {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return Token{Key: key}
	}

	e, ok := d.entries[key]
	if !ok {
		e = &entry{}
		d.entries[key] = e
	}
	e.abort()

	d.seq++
	tok := Token{Key: key, Gen: d.seq}
	ctx, cancel := context.WithCancel(parent)
	e.gen = tok.Gen
	e.cancel = cancel
	e.timer = time.AfterFunc(d.quiet, func() {
		defer cancel()
		if ctx.Err() != nil {
			return
		}
		run(ctx, tok)
		d.finish(tok)
	})
	return tok
}

// IsCurrent reports whether tok is still the latest trigger for its key.
func (d *Debouncer) IsCurrent(tok Token) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || tok.Gen == 0 {
		return false
	}
	e, ok := d.entries[tok.Key]
	return ok && e.gen == tok.Gen
}

// Cancel drops the pending or running trigger for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[key]; ok {
		e.abort()
		delete(d.entries, key)
	}
}

// Stop cancels everything; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, e := range d.entries {
		e.abort()
		delete(d.entries, k)
	}
	d.stopped = true
}

// Pending returns the number of keys with a scheduled or running trigger.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *Debouncer) finish(tok Token) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[tok.Key]; ok && e.gen == tok.Gen {
		delete(d.entries, tok.Key)
	}
}

func (e *entry) abort() {
	if e.timer != nil {
		e.timer.Stop()
	}
	if e.cancel != nil {
		e.cancel()
	}
}
