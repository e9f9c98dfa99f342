package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps the serialized mapping in process memory. It is meant
// for tests and local development; Seed and the failure hooks let tests put
// the store into states that are hard to reach with a real backend.
type MemoryBackend struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Seed replaces the persisted bytes verbatim.
func (b *MemoryBackend) Seed(raw []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), raw...)
}

// Raw returns a copy of the persisted bytes.
func (b *MemoryBackend) Raw() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

// FailLoad makes every Load return err until cleared with nil.
func (b *MemoryBackend) FailLoad(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadErr = err
}

// FailSave makes every Save return err until cleared with nil.
func (b *MemoryBackend) FailSave(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveErr = err
}

// Saves reports how many successful saves have happened.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func (b *MemoryBackend) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	if b.data == nil {
		return nil, nil
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBackend) Save(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.data = append([]byte(nil), payload...)
	b.saves++
	return nil
}
