// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheGreat22/Divi/blockchain"
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/TheGreat22/Divi/database"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func regtestParams() *chaincfg.Params {
	params := chaincfg.RegressionNetParams
	return &params
}

// nextBlock returns a proof-of-work block on top of parent spaced the given
// duration after it.
func nextBlock(parent *wire.MsgBlock, spacing time.Duration, extraNonce uint32) *wire.MsgBlock {
	block := wire.NewMsgBlock(&wire.BlockHeader{
		Version:   1,
		PrevBlock: parent.BlockHash(),
		Timestamp: parent.Header.Timestamp.Add(spacing),
		Bits:      parent.Header.Bits,
	})
	var nonce [4]byte
	binary.LittleEndian.PutUint32(nonce[:], extraNonce)
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		append([]byte{0x04}, nonce[:]...), nil))
	coinbase.AddTxOut(wire.NewTxOut(chaincfg.Coin, []byte{0x51}))
	block.AddTransaction(coinbase)
	return block
}

// buildChain returns the genesis block followed by n blocks a minute apart.
func buildChain(params *chaincfg.Params, n int) []*wire.MsgBlock {
	blocks := []*wire.MsgBlock{params.GenesisBlock}
	for i := 0; i < n; i++ {
		blocks = append(blocks, nextBlock(blocks[i], time.Minute, uint32(i)))
	}
	return blocks
}

// bootstrap serializes blocks in the import file format.
func bootstrap(t *testing.T, net wire.BitcoinNet, blocks []*wire.MsgBlock) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, block := range blocks {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(net)))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(block.SerializeSize())))
		require.NoError(t, block.Serialize(&buf))
	}
	return &buf
}

func createStore(t *testing.T) (*database.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks_bbolt")
	store, err := database.Create("bbolt", path)
	require.NoError(t, err)
	return store, path
}

func runImport(t *testing.T, chain *blockchain.Chain, store *database.Store,
	params *chaincfg.Params, buf *bytes.Buffer) *importResults {

	t.Helper()
	importer := newBlockImporter(chain, store, params.Net, 0, buf)
	select {
	case results := <-importer.Import():
		return results
	case <-time.After(time.Minute):
		t.Fatal("import did not finish")
		return nil
	}
}

func TestImportAndReplay(t *testing.T) {
	params := regtestParams()
	store, path := createStore(t)

	chain, err := newChain(params, store, nil)
	require.NoError(t, err)

	// An empty store starts from the genesis block.
	stats, err := replayStore(chain, store)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.blocks)

	blocks := buildChain(params, 40)
	results := runImport(t, chain, store, params, bootstrap(t, params.Net, blocks))
	require.NoError(t, results.err)
	require.EqualValues(t, 41, results.blocksProcessed)
	require.EqualValues(t, 40, results.blocksImported)
	require.Zero(t, results.sideBlocks)
	require.EqualValues(t, 40, results.stats.blocks)
	require.Zero(t, results.stats.proofOfStake)
	require.NotZero(t, results.stats.modifiers)

	tip := chain.BestSnapshot()
	require.EqualValues(t, 40, tip.Height)
	require.EqualValues(t, 40, chain.BestHeight())
	require.Zero(t, sideBlockCount(chain))
	height, err := store.BestHeight()
	require.NoError(t, err)
	require.EqualValues(t, 40, height)
	require.NoError(t, store.Close())

	// Replaying the stored chain reproduces the stake state of the tip.
	store, err = database.Open("bbolt", path)
	require.NoError(t, err)
	defer store.Close()
	replayed, err := newChain(params, store, nil)
	require.NoError(t, err)
	stats, err = replayStore(replayed, store)
	require.NoError(t, err)
	require.EqualValues(t, 41, stats.blocks)
	require.Equal(t, results.stats.modifiers+1, stats.modifiers)
	require.Equal(t, tip, replayed.BestSnapshot())
}

func TestImportReorganize(t *testing.T) {
	params := regtestParams()
	store, _ := createStore(t)
	defer store.Close()

	chain, err := newChain(params, store, nil)
	require.NoError(t, err)
	_, err = replayStore(chain, store)
	require.NoError(t, err)

	// 0 -> ... -> 10
	//        \-> 9a -> 10a -> 11a
	blocks := buildChain(params, 10)
	fork := []*wire.MsgBlock{nextBlock(blocks[8], 90*time.Second, 100)}
	fork = append(fork, nextBlock(fork[0], 90*time.Second, 101))
	fork = append(fork, nextBlock(fork[1], 90*time.Second, 102))

	file := append(append([]*wire.MsgBlock{}, blocks...), fork...)
	results := runImport(t, chain, store, params, bootstrap(t, params.Net, file))
	require.NoError(t, results.err)
	require.EqualValues(t, 13, results.blocksImported)
	require.EqualValues(t, 2, results.sideBlocks)
	require.EqualValues(t, 11, chain.BestHeight())
	require.Equal(t, 14, chain.BlockCount())
	require.Equal(t, 2, sideBlockCount(chain))

	require.Equal(t, fork[2].BlockHash(), chain.BestSnapshot().Hash)
	for i, block := range fork {
		hash, err := store.BlockHashByHeight(int32(9 + i))
		require.NoError(t, err)
		require.Equal(t, block.BlockHash(), *hash)
	}
	hash, err := store.BlockHashByHeight(8)
	require.NoError(t, err)
	require.Equal(t, blocks[8].BlockHash(), *hash)

	// The abandoned branch is still stored by hash.
	abandoned := blocks[10].BlockHash()
	has, err := store.HasBlock(&abandoned)
	require.NoError(t, err)
	require.True(t, has)

	// Transactions follow the branch switch.
	coinbase := fork[1].Transactions[0].TxHash()
	_, confirmedIn, err := store.FetchTransaction(&coinbase, false)
	require.NoError(t, err)
	require.Equal(t, fork[1].BlockHash(), *confirmedIn)
	coinbase = blocks[10].Transactions[0].TxHash()
	_, _, err = store.FetchTransaction(&coinbase, false)
	require.True(t, database.IsNotFound(err), "got %v", err)

	// A fresh replay follows the reorganized height index.
	replayed, err := newChain(params, store, nil)
	require.NoError(t, err)
	_, err = replayStore(replayed, store)
	require.NoError(t, err)
	require.Equal(t, chain.BestSnapshot(), replayed.BestSnapshot())
}

func TestImportErrors(t *testing.T) {
	params := regtestParams()
	blocks := buildChain(params, 3)

	tests := []struct {
		name   string
		file   func(t *testing.T) *bytes.Buffer
		code   blockchain.ErrorCode
		isRule bool
	}{{
		name: "network mismatch",
		file: func(t *testing.T) *bytes.Buffer {
			return bootstrap(t, chaincfg.MainNetParams.Net, blocks)
		},
	}, {
		name: "truncated block",
		file: func(t *testing.T) *bytes.Buffer {
			buf := bootstrap(t, params.Net, blocks)
			buf.Truncate(buf.Len() - 10)
			return buf
		},
	}, {
		name: "orphan block",
		file: func(t *testing.T) *bytes.Buffer {
			return bootstrap(t, params.Net, []*wire.MsgBlock{blocks[0], blocks[2]})
		},
		code:   blockchain.ErrMissingParent,
		isRule: true,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store, _ := createStore(t)
			defer store.Close()
			chain, err := newChain(params, store, nil)
			require.NoError(t, err)
			_, err = replayStore(chain, store)
			require.NoError(t, err)

			results := runImport(t, chain, store, params, test.file(t))
			require.Error(t, results.err)
			if test.isRule {
				require.True(t, blockchain.IsErrorCode(results.err, test.code),
					"got %v", results.err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", chaincfg.Coin, true},
		{"1.5", 150000000, true},
		{"0.00000001", 1, true},
		{"10000", 10000 * chaincfg.Coin, true},
		{"0.000000001", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"100000000000000", 0, false},
	}
	for _, test := range tests {
		got, err := parseAmount(test.in)
		if !test.ok {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.want, got, test.in)
	}
}

func TestVaultRewards(t *testing.T) {
	require.Nil(t, vaultRewards(nil))

	for _, reward := range []int64{0, 3 * chaincfg.Coin} {
		reward := reward
		rewards := vaultRewards(&reward)
		require.NotNil(t, rewards)
		require.Equal(t, blockchain.BlockRewards{StakeReward: reward}, rewards(100))
	}
}

func TestLoadConfig(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := loadConfig([]string{"--regtest", "--datadir", dataDir,
		"--dbtype", "pebble", "--stakereward", "2.5", "--strictcheckpoints"})
	require.NoError(t, err)
	require.Equal(t, "regtest", cfg.params.Name)
	require.Equal(t, filepath.Join(dataDir, "regtest"), cfg.DataDir)
	require.NotNil(t, cfg.stakeReward)
	require.EqualValues(t, 250000000, *cfg.stakeReward)
	require.Equal(t, chaincfg.CheckpointStrict, cfg.params.StakeModifierCheckpointPolicy)
	require.NotSame(t, &chaincfg.RegressionNetParams, cfg.params)

	cfg, err = loadConfig(nil)
	require.NoError(t, err)
	require.Equal(t, chaincfg.MainNetParams.Name, cfg.params.Name)
	require.Equal(t, chaincfg.MainNetParams.StakeModifierCheckpointPolicy,
		cfg.params.StakeModifierCheckpointPolicy)
	require.Nil(t, cfg.stakeReward)

	// A zero reward still turns the vault rules on.
	cfg, err = loadConfig([]string{"--regtest", "--stakereward", "0"})
	require.NoError(t, err)
	require.NotNil(t, cfg.stakeReward)
	require.Zero(t, *cfg.stakeReward)

	for _, args := range [][]string{
		{"--regtest", "--testnet"},
		{"--dbtype", "ffldb"},
		{"--stakereward", "1.000000001"},
		{"--debuglevel", "loud"},
		{"--infile", filepath.Join(dataDir, "missing.dat")},
	} {
		_, err := loadConfig(args)
		require.Error(t, err, "%v", args)
	}
}
