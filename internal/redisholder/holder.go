// Package redisholder owns the redis connection shared by the queue, the
// cursor store and the sync lease. The client sits behind a small guarded
// holder so the health loop can swap in a fresh connection without
// coordinating with readers.
package redisholder

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

type Holder struct {
	mu sync.RWMutex
	c  redis.UniversalClient
}

func NewHolder(initial redis.UniversalClient) *Holder {
	return &Holder{c: initial}
}

// Get returns the current client. Callers must not close it; the holder owns
// the connection lifecycle.
func (h *Holder) Get() redis.UniversalClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.c
}

// swap installs a replacement client and hands the previous one back to the
// caller, who is responsible for closing it once in-flight users drain.
func (h *Holder) swap(newc redis.UniversalClient) (old redis.UniversalClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	old, h.c = h.c, newc
	return old
}

func (h *Holder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.c == nil {
		return nil
	}
	err := h.c.Close()
	h.c = nil
	return err
}
