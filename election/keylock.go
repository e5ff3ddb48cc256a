// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// keyLocks serializes work per (guild, position). Waiting honors the
// context, so a stuck holder turns into a deadline error instead of a hang.
type keyLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	sem  *semaphore.Weighted
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{slots: make(map[string]*lockSlot)}
}

func lockKey(guildID, position string) string {
	return guildID + "\x00" + position
}

// acquire blocks until the key is free or ctx ends. The returned func
// releases the key and must be called exactly once.
func (k *keyLocks) acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &lockSlot{sem: semaphore.NewWeighted(1)}
		k.slots[key] = slot
	}
	slot.refs++
	k.mu.Unlock()

	if err := slot.sem.Acquire(ctx, 1); err != nil {
		k.drop(key, slot)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			slot.sem.Release(1)
			k.drop(key, slot)
		})
	}, nil
}

// drop forgets idle slots so the map does not grow with every position ever used
func (k *keyLocks) drop(key string, slot *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
}

// size reports how many keys currently have holders or waiters
func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
