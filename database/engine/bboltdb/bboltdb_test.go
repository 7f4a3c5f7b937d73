// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bboltdb

import (
	"path/filepath"
	"testing"

	"github.com/TheGreat22/Divi/database"
	"github.com/TheGreat22/Divi/database/engine"
	"github.com/stretchr/testify/require"
)

func TestSuiteBboltDB(t *testing.T) {
	engine.TestSuiteEngine(t, func() engine.Engine {
		dbPath := filepath.Join(t.TempDir(), "bbolt-testsuite.db")

		db, err := NewDB(dbPath, true)
		require.NoErrorf(t, err, "failed to create bbolt db")
		return db
	})
}

func TestOpenExisting(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bbolt.db")

	_, err := NewDB(dbPath, false)
	require.ErrorIs(t, err, ErrDbMissing)

	db, err := database.OpenEngine(dbType, dbPath, true)
	require.NoError(t, err)
	tx, err := db.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("k"), []byte("v")))
	require.NoError(t, tx.Commit())
	require.NoError(t, db.Close())

	_, err = NewDB(dbPath, true)
	require.ErrorIs(t, err, ErrDbExists)

	db, err = NewDB(dbPath, false)
	require.NoError(t, err)
	defer db.Close()
	snapshot, err := db.Snapshot()
	require.NoError(t, err)
	defer snapshot.Release()
	value, err := snapshot.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)

	_, err = snapshot.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)
}
