package batch

import "sync"

// Ledger records the issue IDs created by the most recent create-all so a
// single undo can reverse them. It holds one set at a time.
type Ledger struct {
	mu  sync.Mutex
	ids []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Replace overwrites the recorded set with a copy of ids.
func (l *Ledger) Replace(ids []string) {
	cp := make([]string, len(ids))
	copy(cp, ids)

	l.mu.Lock()
	l.ids = cp
	l.mu.Unlock()
}

// Drain returns the recorded set and clears it atomically.
func (l *Ledger) Drain() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := l.ids
	l.ids = nil
	return ids
}

// Len returns the size of the recorded set.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}
