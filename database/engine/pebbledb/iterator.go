// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/TheGreat22/Divi/database/engine"
	"github.com/cockroachdb/pebble"
)

func NewIterator(iter *pebble.Iterator) engine.Iterator {
	return &Iterator{Iterator: iter}
}

// Iterator adapts a pebble iterator.  Pebble iterators start unpositioned,
// so the first Next or Prev seeks to the corresponding end.
type Iterator struct {
	*pebble.Iterator
	positioned bool
	released   bool
	err        error
}

func (i *Iterator) First() bool {
	if i.released {
		return false
	}
	i.positioned = true
	return i.Iterator.First()
}

func (i *Iterator) Last() bool {
	if i.released {
		return false
	}
	i.positioned = true
	return i.Iterator.Last()
}

func (i *Iterator) Seek(key []byte) bool {
	if i.released {
		return false
	}
	i.positioned = true
	return i.Iterator.SeekGE(key)
}

func (i *Iterator) Next() bool {
	if !i.positioned {
		return i.First()
	}
	if i.released {
		return false
	}
	return i.Iterator.Next()
}

func (i *Iterator) Prev() bool {
	if !i.positioned {
		return i.Last()
	}
	if i.released {
		return false
	}
	return i.Iterator.Prev()
}

func (i *Iterator) Valid() bool {
	return !i.released && i.Iterator.Valid()
}

func (i *Iterator) Key() []byte {
	if !i.Valid() { // return nil if the iterator is exhausted
		return nil
	}
	return i.Iterator.Key()
}

func (i *Iterator) Value() []byte {
	if !i.Valid() { // return nil if the iterator is exhausted
		return nil
	}
	return i.Iterator.Value()
}

func (i *Iterator) Release() {
	if !i.released {
		i.released = true
		i.Iterator.Close()
	}
}

func (i *Iterator) Error() error {
	if i.err != nil {
		return i.err
	}
	if i.released {
		return engine.ErrIterReleased
	}
	return i.Iterator.Error()
}
