package repository

import "sync"

// KeyMutex serializes read-modify-write sequences on a single store key.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyMutex creates a new KeyMutex.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for key and returns its release function.
func (k *KeyMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
