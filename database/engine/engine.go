// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine defines the key/value storage abstraction the block store
// is built on.  Each backend lives in its own sub-package and registers a
// driver with the database package.
package engine

// Engine is an ordered key/value store supporting atomic write batches and
// consistent read snapshots.
type Engine interface {
	Transaction() (Transaction, error)
	Snapshot() (Snapshot, error)
	Close() error
}

// Transaction collects writes which become visible atomically on Commit.
// Calling Discard after Commit or Discard is a no-op.
type Transaction interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Discard()
}

// Snapshot is a point-in-time read view.  Get returns an error for missing
// keys; Has does not.
type Snapshot interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewIterator(*Range) Iterator
	Releaser
}

type Releaser interface {
	Release()
}
