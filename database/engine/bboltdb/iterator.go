// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bboltdb

import (
	"bytes"

	"github.com/TheGreat22/Divi/database/engine"
	bolt "go.etcd.io/bbolt"
)

// Iterator bounds a bbolt cursor to a key range.
type Iterator struct {
	cursor     *bolt.Cursor
	slice      *engine.Range
	key, value []byte
	positioned bool
	released   bool
	err        error
}

// set records the cursor position, treating keys outside the range as
// exhaustion.
func (i *Iterator) set(k, v []byte) bool {
	i.positioned = true
	if k == nil || !i.slice.Contains(k) {
		i.key, i.value = nil, nil
		return false
	}
	i.key, i.value = k, v
	return true
}

func (i *Iterator) First() bool {
	if i.released {
		return false
	}
	if i.slice.Start != nil {
		return i.set(i.cursor.Seek(i.slice.Start))
	}
	return i.set(i.cursor.First())
}

func (i *Iterator) Last() bool {
	if i.released {
		return false
	}
	if i.slice.Limit == nil {
		return i.set(i.cursor.Last())
	}
	if k, _ := i.cursor.Seek(i.slice.Limit); k == nil {
		return i.set(i.cursor.Last())
	}
	return i.set(i.cursor.Prev())
}

func (i *Iterator) Seek(key []byte) bool {
	if i.released {
		return false
	}
	if i.slice.Start != nil && bytes.Compare(key, i.slice.Start) < 0 {
		key = i.slice.Start
	}
	return i.set(i.cursor.Seek(key))
}

func (i *Iterator) Next() bool {
	if !i.positioned {
		return i.First()
	}
	if i.released || i.key == nil {
		return false
	}
	return i.set(i.cursor.Next())
}

func (i *Iterator) Prev() bool {
	if !i.positioned {
		return i.Last()
	}
	if i.released || i.key == nil {
		return false
	}
	return i.set(i.cursor.Prev())
}

func (i *Iterator) Valid() bool {
	return !i.released && i.key != nil
}

func (i *Iterator) Key() []byte {
	if !i.Valid() {
		return nil
	}
	return i.key
}

func (i *Iterator) Value() []byte {
	if !i.Valid() {
		return nil
	}
	return i.value
}

func (i *Iterator) Release() {
	i.released = true
	i.key, i.value = nil, nil
}

func (i *Iterator) Error() error {
	if i.err != nil {
		return i.err
	}
	if i.released {
		return engine.ErrIterReleased
	}
	return nil
}
