package ledger

import "sync"

const lockShards = 64

type refMutex struct {
	sync.Mutex
	refs int
}

type lockShard struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

// keyedMutex hands out one mutex per sweet ID. Entries are reference counted
// and dropped once no caller holds or waits on them, and the ID space is
// spread over shards so unrelated IDs do not share a map lock.
type keyedMutex struct {
	shards [lockShards]lockShard
}

func newKeyedMutex() *keyedMutex {
	k := &keyedMutex{}
	for i := range k.shards {
		k.shards[i].locks = make(map[int64]*refMutex)
	}
	return k
}

func (k *keyedMutex) shard(id int64) *lockShard {
	return &k.shards[uint64(id)%lockShards]
}

// Lock blocks until the mutex for id is held and returns its release func.
func (k *keyedMutex) Lock(id int64) func() {
	s := k.shard(id)
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &refMutex{}
		s.locks[id] = m
	}
	m.refs++
	s.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		s.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// size returns the number of live entries
func (k *keyedMutex) size() int {
	n := 0
	for i := range k.shards {
		s := &k.shards[i]
		s.mu.Lock()
		n += len(s.locks)
		s.mu.Unlock()
	}
	return n
}
