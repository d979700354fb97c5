// file: internals/features/attendance/sessions/service/locks.go
package service

import "sync"

// LockTable: mutex per key (session id, atau slot+date saat Start).
// Semua operasi mutasi pada satu sesi serial lewat sini supaya counter
// konsisten dgn record set; sesi berbeda jalan paralel.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*entry)}
}

// Lock menahan mutex utk key; return fungsi unlock.
func (t *LockTable) Lock(key string) func() {
	t.mu.Lock()
	e, ok := t.locks[key]
	if !ok {
		e = &entry{}
		t.locks[key] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.locks, key)
		}
		t.mu.Unlock()
	}
}
