// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bboltdb

import (
	bolt "go.etcd.io/bbolt"
)

type op struct {
	key    []byte
	value  []byte
	delete bool
}

// Transaction records writes until Commit.
type Transaction struct {
	db       *DB
	ops      []op
	released bool
}

func (t *Transaction) Put(key, value []byte) error {
	if t.released {
		return ErrTxClosed
	}
	t.ops = append(t.ops, op{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

func (t *Transaction) Delete(key []byte) error {
	if t.released {
		return ErrTxClosed
	}
	t.ops = append(t.ops, op{key: append([]byte(nil), key...), delete: true})
	return nil
}

func (t *Transaction) Discard() {
	t.released = true
	t.ops = nil
}

func (t *Transaction) Commit() error {
	if t.released {
		return ErrTxClosed
	}
	defer t.Discard()
	if t.db.closed.Load() {
		return ErrDbClosed
	}
	return t.db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, o := range t.ops {
			var err error
			if o.delete {
				err = bucket.Delete(o.key)
			} else {
				err = bucket.Put(o.key, o.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
