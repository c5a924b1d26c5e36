////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package collection

import (
	"sync"

	"gitlab.com/xx_network/primitives/id"
)

// Locker hands out one mutex per collection id. Holding it linearizes every
// mutation of that collection, so the duplicate submission check and the
// update that records the submission can never interleave. Operations on
// different ids do not contend.
type Locker struct {
	mux   sync.Mutex
	locks map[id.ID]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// NewLocker builds an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[id.ID]*refLock)}
}

// Lock blocks until the caller holds the lock for cid. The returned function
// releases it and must be called exactly once.
func (l *Locker) Lock(cid *id.ID) func() {
	l.mux.Lock()
	rl, ok := l.locks[*cid]
	if !ok {
		rl = &refLock{}
		l.locks[*cid] = rl
	}
	rl.refs++
	l.mux.Unlock()

	rl.Lock()

	key := *cid
	return func() {
		rl.Unlock()

		l.mux.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, key)
		}
		l.mux.Unlock()
	}
}

// held returns the number of ids with outstanding lock references
func (l *Locker) held() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.locks)
}
