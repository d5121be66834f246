package chat

import (
	"context"
	"sync"

	"github.com/xelth-com/wooassist/internal/ai"
)

// MaxHistory bounds every session's history; the oldest entry goes first
const MaxHistory = 10

// History is the per-session conversation ledger
type History interface {
	Append(ctx context.Context, key string, msgs ...ai.Message) error
	Recent(ctx context.Context, key string) ([]ai.Message, error)
	Clear(ctx context.Context, key string) error
}

// MemoryHistory keeps histories in process
type MemoryHistory struct {
	mu       sync.Mutex
	sessions map[string][]ai.Message
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string][]ai.Message)}
}

func (h *MemoryHistory) Append(_ context.Context, key string, msgs ...ai.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := append(h.sessions[key], msgs...)
	if len(list) > MaxHistory {
		list = append([]ai.Message(nil), list[len(list)-MaxHistory:]...)
	}
	h.sessions[key] = list
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, key string) ([]ai.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ai.Message(nil), h.sessions[key]...), nil
}

func (h *MemoryHistory) Clear(_ context.Context, key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, key)
	return nil
}
