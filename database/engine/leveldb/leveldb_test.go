// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/TheGreat22/Divi/database"
	"github.com/TheGreat22/Divi/database/engine"
	"github.com/stretchr/testify/require"
)

func TestSuiteLevelDB(t *testing.T) {
	engine.TestSuiteEngine(t, func() engine.Engine {
		dbPath := filepath.Join(t.TempDir(), "leveldb-testsuite")

		leveldb, err := NewDB(dbPath, true)
		require.NoErrorf(t, err, "failed to create leveldb")
		return leveldb
	})
}

func TestOpenExisting(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "leveldb-open")

	_, err := NewDB(dbPath, false)
	require.Error(t, err, "opening a missing database")

	db, err := NewDB(dbPath, true)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewDB(dbPath, true)
	require.Error(t, err, "creating over an existing database")

	db, err = database.OpenEngine(dbType, dbPath, false)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
