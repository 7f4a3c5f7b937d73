// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bboltdb provides a bbolt backed storage engine.  All keys live in a
// single bucket; transactions are buffered in memory and applied in one bbolt
// update on commit, so an open transaction never holds the bbolt writer lock.
package bboltdb

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/TheGreat22/Divi/database"
	"github.com/TheGreat22/Divi/database/engine"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var (
	ErrDbClosed         = errors.New("bboltdb: closed")
	ErrDbExists         = errors.New("bboltdb: database already exists")
	ErrDbMissing        = errors.New("bboltdb: database does not exist")
	ErrTxClosed         = errors.New("bboltdb: transaction already closed")
	ErrSnapshotReleased = errors.New("bboltdb: snapshot released")
	ErrNotFound         = errors.New("bboltdb: not found")
)

const (
	dbType = "bbolt"

	// initialMmapSize keeps commits from remapping, which would wait on
	// open snapshots.
	initialMmapSize = 64 * 1024 * 1024
)

var bucketName = []byte("divi")

// NewDB opens the database file at dbPath.  When create is set the file must
// not already exist; otherwise it must.
func NewDB(dbPath string, create bool) (engine.Engine, error) {
	_, err := os.Stat(dbPath)
	switch {
	case err == nil && create:
		return nil, errors.Wrap(ErrDbExists, dbPath)
	case os.IsNotExist(err) && !create:
		return nil, errors.Wrap(ErrDbMissing, dbPath)
	case err != nil && !os.IsNotExist(err):
		return nil, err
	}

	bdb, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout:         time.Second,
		InitialMmapSize: initialMmapSize,
	})
	if err != nil {
		return nil, err
	}
	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return &DB{db: bdb}, nil
}

type DB struct {
	db     *bolt.DB
	closed atomic.Bool
}

func (d *DB) Transaction() (engine.Transaction, error) {
	if d.closed.Load() {
		return nil, ErrDbClosed
	}
	return &Transaction{db: d}, nil
}

func (d *DB) Snapshot() (engine.Snapshot, error) {
	if d.closed.Load() {
		return nil, ErrDbClosed
	}
	tx, err := d.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &Snapshot{tx: tx, bucket: tx.Bucket(bucketName)}, nil
}

func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return ErrDbClosed
	}
	return d.db.Close()
}

func registerDriver() {
	driver := database.Driver{
		DbType: dbType,
		Open:   NewDB,
	}
	if err := database.RegisterDriver(driver); err != nil {
		panic(fmt.Sprintf("Failed to register database driver '%s': %v",
			dbType, err))
	}
}

func init() {
	registerDriver()
}
