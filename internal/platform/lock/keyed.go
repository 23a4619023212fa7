package lock

import (
	"context"
	"sync"
)

// Keyed serializes critical sections that share a key while letting
// sections under different keys run fully in parallel. It backs the
// check-then-act sequences around booking inserts and challenge
// acceptance, where the key is the contended resource id.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	token chan struct{}
	refs  int
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*keyLock)}
}

// Do runs fn while holding the mutex for key. Waiting is abandoned when
// ctx is done; fn itself is never interrupted once started.
func (k *Keyed) Do(ctx context.Context, key string, fn func() error) error {
	lk := k.acquire(key)

	select {
	case lk.token <- struct{}{}:
	case <-ctx.Done():
		k.release(key, lk)
		return ctx.Err()
	}

	err := fn()

	<-lk.token
	k.release(key, lk)

	return err
}

func (k *Keyed) acquire(key string) *keyLock {
	k.mu.Lock()
	defer k.mu.Unlock()

	lk, ok := k.locks[key]
	if !ok {
		lk = &keyLock{token: make(chan struct{}, 1)}
		k.locks[key] = lk
	}
	lk.refs++

	return lk
}

func (k *Keyed) release(key string, lk *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	lk.refs--
	if lk.refs == 0 {
		delete(k.locks, key)
	}
}
