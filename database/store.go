// Copyright (c) 2015-2017 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/TheGreat22/Divi/database/engine"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const (
	// DefaultBlockCacheSize is the number of deserialized blocks kept in
	// memory by a store.
	DefaultBlockCacheSize = 256

	// txLocSize is the size of a serialized transaction location: the
	// confirming block hash followed by the index within the block.
	txLocSize = chainhash.HashSize + 4
)

var (
	// ErrNotFound is the cause of every lookup failure for a block, height
	// or transaction that is not stored.
	ErrNotFound = errors.New("not found")

	// ErrCorruption is the cause of errors for stored data that cannot be
	// decoded.
	ErrCorruption = errors.New("database corruption")
)

// Key prefixes of the stored records.
var (
	blockKeyPrefix       = []byte("b")
	txKeyPrefix          = []byte("t")
	unconfirmedKeyPrefix = []byte("u")
	heightKeyPrefix      = []byte("h")
	bestHeightKey        = []byte("bestheight")
)

// IsNotFound returns whether err was caused by a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func prefixedKey(prefix []byte, hash *chainhash.Hash) []byte {
	key := make([]byte, len(prefix)+chainhash.HashSize)
	copy(key, prefix)
	copy(key[len(prefix):], hash[:])
	return key
}

func heightKey(height int32) []byte {
	key := make([]byte, len(heightKeyPrefix)+4)
	copy(key, heightKeyPrefix)
	binary.BigEndian.PutUint32(key[len(heightKeyPrefix):], uint32(height))
	return key
}

// Store persists blocks and transactions on a storage engine and resolves
// them by hash, height and transaction id.  It satisfies the block reader
// and transaction lookup collaborators of the chain.
//
// Writes are serialized by the store; reads may run concurrently with each
// other and with writes.
type Store struct {
	db     engine.Engine
	dbType string

	writeMtx sync.Mutex
	blocks   *lru.Cache[chainhash.Hash, *wire.MsgBlock]
}

// Create creates a new store of the given database type at path.
func Create(dbType, path string) (*Store, error) {
	return open(dbType, path, true)
}

// Open opens an existing store of the given database type at path.
func Open(dbType, path string) (*Store, error) {
	return open(dbType, path, false)
}

func open(dbType, path string, create bool) (*Store, error) {
	db, err := OpenEngine(dbType, path, create)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(db, DefaultBlockCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.dbType = dbType
	log.Infof("Opened %s block store at %s", dbType, path)
	return store, nil
}

// NewStore returns a store over an already open engine caching up to
// cacheSize blocks.
func NewStore(db engine.Engine, cacheSize int) (*Store, error) {
	blocks, err := lru.New[chainhash.Hash, *wire.MsgBlock](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "block cache")
	}
	return &Store{db: db, blocks: blocks}, nil
}

// Type returns the database type the store was opened with, if any.
func (s *Store) Type() string {
	return s.dbType
}

// Close closes the underlying engine.
func (s *Store) Close() error {
	s.writeMtx.Lock()
	defer s.writeMtx.Unlock()

	s.blocks.Purge()
	return s.db.Close()
}

// view runs fn against a fresh snapshot.
func (s *Store) view(fn func(engine.Snapshot) error) error {
	snapshot, err := s.db.Snapshot()
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	defer snapshot.Release()
	return fn(snapshot)
}

// update runs fn in a transaction which is committed when fn succeeds.  The
// caller must hold writeMtx.  No snapshot is held across the commit.
func (s *Store) update(fn func(engine.Transaction) error) error {
	tx, err := s.db.Transaction()
	if err != nil {
		return errors.Wrap(err, "transaction")
	}
	if err := fn(tx); err != nil {
		tx.Discard()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// get returns the value of key, translating a missing key into ErrNotFound
// regardless of the backend's own not-found error.
func get(snapshot engine.Snapshot, key []byte) ([]byte, error) {
	has, err := snapshot.Has(key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNotFound
	}
	return snapshot.Get(key)
}

func bestHeight(snapshot engine.Snapshot) (int32, error) {
	value, err := get(snapshot, bestHeightKey)
	if errors.Is(err, ErrNotFound) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	if len(value) != 4 {
		return 0, errors.Wrapf(ErrCorruption, "best height of %d bytes", len(value))
	}
	return int32(binary.LittleEndian.Uint32(value)), nil
}

// PutBlock stores block at height, indexes its transactions by id and
// records it as the block at that height.  Unconfirmed copies of its
// transactions are removed.  The best height only ever increases.
//
// A different block previously stored at height is displaced: its
// transactions no longer resolve to it, so after a branch switch the
// transaction index follows the blocks put along the new branch.
func (s *Store) PutBlock(block *wire.MsgBlock, height int32) error {
	if height < 0 {
		return errors.Errorf("invalid block height %d", height)
	}
	return s.putBlock(block, height)
}

// PutSideBlock stores a block that is not part of the main chain.  It can be
// fetched by hash, but neither its height nor its transactions are indexed
// until it is put on the main chain with PutBlock.
func (s *Store) PutSideBlock(block *wire.MsgBlock) error {
	return s.putBlock(block, -1)
}

// putBlock stores block, indexing it and its transactions at height unless
// height is negative.
func (s *Store) putBlock(block *wire.MsgBlock, height int32) error {
	var buf bytes.Buffer
	buf.Grow(block.SerializeSize())
	if err := block.Serialize(&buf); err != nil {
		return errors.Wrap(err, "serialize block")
	}
	hash := block.BlockHash()

	s.writeMtx.Lock()
	defer s.writeMtx.Unlock()

	var (
		best  int32
		stale [][]byte
	)
	err := s.view(func(snapshot engine.Snapshot) error {
		var err error
		best, err = bestHeight(snapshot)
		if err != nil || height < 0 {
			return err
		}
		stale, err = s.displacedTxKeys(snapshot, height, &hash)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "put block %v", hash)
	}

	err = s.update(func(tx engine.Transaction) error {
		if err := tx.Put(prefixedKey(blockKeyPrefix, &hash), buf.Bytes()); err != nil {
			return err
		}
		if height < 0 {
			return nil
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for i, msgTx := range block.Transactions {
			txid := msgTx.TxHash()
			loc := make([]byte, txLocSize)
			copy(loc, hash[:])
			binary.LittleEndian.PutUint32(loc[chainhash.HashSize:], uint32(i))
			if err := tx.Put(prefixedKey(txKeyPrefix, &txid), loc); err != nil {
				return err
			}
			if err := tx.Delete(prefixedKey(unconfirmedKeyPrefix, &txid)); err != nil {
				return err
			}
		}
		if err := tx.Put(heightKey(height), hash[:]); err != nil {
			return err
		}
		if height > best {
			var value [4]byte
			binary.LittleEndian.PutUint32(value[:], uint32(height))
			return tx.Put(bestHeightKey, value[:])
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "put block %v", hash)
	}

	s.blocks.Add(hash, block)
	log.Debugf("Stored block %v at height %d (%d transactions)", hash,
		height, len(block.Transactions))
	return nil
}

// displacedTxKeys returns the transaction index keys still pointing at the
// block stored at height when a block other than hash replaces it there.
func (s *Store) displacedTxKeys(snapshot engine.Snapshot, height int32, hash *chainhash.Hash) ([][]byte, error) {
	value, err := get(snapshot, heightKey(height))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	old, err := chainhash.NewHash(value)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruption, "height index: %v", err)
	}
	if *old == *hash {
		return nil, nil
	}
	block, err := s.fetchBlock(snapshot, old)
	if err != nil {
		return nil, errors.Wrapf(err, "displaced block %v", old)
	}

	var keys [][]byte
	for _, msgTx := range block.Transactions {
		txid := msgTx.TxHash()
		key := prefixedKey(txKeyPrefix, &txid)
		loc, err := get(snapshot, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(loc) == txLocSize && bytes.Equal(loc[:chainhash.HashSize], old[:]) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// PutUnconfirmedTx stores a transaction that no block confirms yet.
func (s *Store) PutUnconfirmedTx(msgTx *wire.MsgTx) error {
	var buf bytes.Buffer
	buf.Grow(msgTx.SerializeSize())
	if err := msgTx.Serialize(&buf); err != nil {
		return errors.Wrap(err, "serialize transaction")
	}
	txid := msgTx.TxHash()

	s.writeMtx.Lock()
	defer s.writeMtx.Unlock()

	err := s.update(func(tx engine.Transaction) error {
		return tx.Put(prefixedKey(unconfirmedKeyPrefix, &txid), buf.Bytes())
	})
	return errors.Wrapf(err, "put unconfirmed transaction %v", txid)
}

func (s *Store) fetchBlock(snapshot engine.Snapshot, hash *chainhash.Hash) (*wire.MsgBlock, error) {
	if block, ok := s.blocks.Get(*hash); ok {
		return block, nil
	}

	value, err := get(snapshot, prefixedKey(blockKeyPrefix, hash))
	if err != nil {
		return nil, err
	}
	var block wire.MsgBlock
	if err := block.Deserialize(bytes.NewReader(value)); err != nil {
		return nil, errors.Wrapf(ErrCorruption, "deserialize block: %v", err)
	}
	s.blocks.Add(*hash, &block)
	return &block, nil
}

// FetchBlock returns the stored block with the given hash.
func (s *Store) FetchBlock(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	var block *wire.MsgBlock
	err := s.view(func(snapshot engine.Snapshot) error {
		var err error
		block, err = s.fetchBlock(snapshot, hash)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch block %v", hash)
	}
	return block, nil
}

// HasBlock returns whether a block with the given hash is stored.
func (s *Store) HasBlock(hash *chainhash.Hash) (bool, error) {
	if s.blocks.Contains(*hash) {
		return true, nil
	}
	var has bool
	err := s.view(func(snapshot engine.Snapshot) error {
		var err error
		has, err = snapshot.Has(prefixedKey(blockKeyPrefix, hash))
		return err
	})
	return has, errors.Wrapf(err, "has block %v", hash)
}

// FetchTransaction returns the transaction with the given id together with
// the hash of the block confirming it.  Unconfirmed transactions are only
// returned when allowUnconfirmed is set, and then with a nil block hash.
func (s *Store) FetchTransaction(txid *chainhash.Hash, allowUnconfirmed bool) (*wire.MsgTx, *chainhash.Hash, error) {
	var (
		msgTx     *wire.MsgTx
		blockHash *chainhash.Hash
	)
	err := s.view(func(snapshot engine.Snapshot) error {
		loc, err := get(snapshot, prefixedKey(txKeyPrefix, txid))
		switch {
		case err == nil:
			if len(loc) != txLocSize {
				return errors.Wrapf(ErrCorruption, "transaction location of %d bytes", len(loc))
			}
			var hash chainhash.Hash
			copy(hash[:], loc)
			index := binary.LittleEndian.Uint32(loc[chainhash.HashSize:])

			block, err := s.fetchBlock(snapshot, &hash)
			if err != nil {
				return errors.Wrapf(err, "confirming block %v", hash)
			}
			if index >= uint32(len(block.Transactions)) {
				return errors.Wrapf(ErrCorruption, "transaction index %d of block %v "+
					"with %d transactions", index, hash, len(block.Transactions))
			}
			msgTx, blockHash = block.Transactions[index], &hash
			return nil

		case !errors.Is(err, ErrNotFound):
			return err

		case !allowUnconfirmed:
			return ErrNotFound
		}

		value, err := get(snapshot, prefixedKey(unconfirmedKeyPrefix, txid))
		if err != nil {
			return err
		}
		msgTx = new(wire.MsgTx)
		if err := msgTx.Deserialize(bytes.NewReader(value)); err != nil {
			return errors.Wrapf(ErrCorruption, "deserialize transaction: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fetch transaction %v", txid)
	}
	return msgTx, blockHash, nil
}

// BlockHashByHeight returns the hash of the block stored at height.
func (s *Store) BlockHashByHeight(height int32) (*chainhash.Hash, error) {
	var hash *chainhash.Hash
	err := s.view(func(snapshot engine.Snapshot) error {
		value, err := get(snapshot, heightKey(height))
		if err != nil {
			return err
		}
		hash, err = chainhash.NewHash(value)
		if err != nil {
			return errors.Wrapf(ErrCorruption, "height index: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "block at height %d", height)
	}
	return hash, nil
}

// BestHeight returns the greatest stored block height, or -1 when no block
// is stored.
func (s *Store) BestHeight() (int32, error) {
	var height int32
	err := s.view(func(snapshot engine.Snapshot) error {
		var err error
		height, err = bestHeight(snapshot)
		return err
	})
	return height, errors.Wrap(err, "best height")
}

// ForEachBlock calls fn with each stored block in ascending height order,
// stopping at the first error.  fn must not write to the store.
func (s *Store) ForEachBlock(fn func(height int32, block *wire.MsgBlock) error) error {
	return s.view(func(snapshot engine.Snapshot) error {
		iter := snapshot.NewIterator(engine.BytesPrefix(heightKeyPrefix))
		defer iter.Release()

		for iter.Next() {
			key, value := iter.Key(), iter.Value()
			if len(key) != len(heightKeyPrefix)+4 {
				return errors.Wrapf(ErrCorruption, "height key of %d bytes", len(key))
			}
			height := int32(binary.BigEndian.Uint32(key[len(heightKeyPrefix):]))
			hash, err := chainhash.NewHash(value)
			if err != nil {
				return errors.Wrapf(ErrCorruption, "height index: %v", err)
			}
			block, err := s.fetchBlock(snapshot, hash)
			if err != nil {
				return errors.Wrapf(err, "block %v at height %d", hash, height)
			}
			if err := fn(height, block); err != nil {
				return err
			}
		}
		return iter.Error()
	})
}
