// Package testing provides in-process stand-ins for the transaction manager and
// the advisory locker.
package testing

import (
	"context"
	"sync"
)

// TxManager runs fn directly. It counts calls so tests can assert transaction use.
type TxManager struct {
	mu    sync.Mutex
	calls int
}

// WithTx calls fn with ctx unchanged.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

// Calls reports how many transactions were opened.
func (m *TxManager) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Locker is an in-memory named try-lock.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool)}
}

// TryLock takes name if nobody holds it.
func (l *Locker) TryLock(ctx context.Context, name string) (func() error, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true

	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, name)
		return nil
	}, true, nil
}
