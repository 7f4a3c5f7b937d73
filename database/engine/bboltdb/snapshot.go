// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bboltdb

import (
	"bytes"

	"github.com/TheGreat22/Divi/database/engine"
	bolt "go.etcd.io/bbolt"
)

// Snapshot is a read-only bbolt transaction.  It must be released before
// the database is closed.
type Snapshot struct {
	tx       *bolt.Tx
	bucket   *bolt.Bucket
	released bool
}

func (s *Snapshot) lookup(key []byte) ([]byte, bool) {
	k, v := s.bucket.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

func (s *Snapshot) Has(key []byte) (bool, error) {
	if s.released {
		return false, ErrSnapshotReleased
	}
	_, ok := s.lookup(key)
	return ok, nil
}

func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.released {
		return nil, ErrSnapshotReleased
	}
	v, ok := s.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, v...), nil
}

func (s *Snapshot) Release() {
	if !s.released {
		s.released = true
		s.tx.Rollback()
	}
}

func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	if s.released {
		return &Iterator{err: ErrSnapshotReleased, released: true}
	}
	if slice == nil {
		slice = &engine.Range{}
	}
	return &Iterator{cursor: s.bucket.Cursor(), slice: slice}
}
