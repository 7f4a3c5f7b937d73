// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/TheGreat22/Divi/blockchain"
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/TheGreat22/Divi/database"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// verifyStats tallies the stake state of connected blocks.
type verifyStats struct {
	blocks             int64
	proofOfStake       int64
	modifiers          int64
	checkpointMismatch int64
}

func (s *verifyStats) record(info *blockchain.BlockStakeInfo) {
	s.blocks++
	if info.ProofOfStake {
		s.proofOfStake++
	}
	if info.GeneratedStakeModifier {
		s.modifiers++
	}
	if info.CheckpointMismatch {
		s.checkpointMismatch++
	}
}

func (s *verifyStats) add(other verifyStats) {
	s.blocks += other.blocks
	s.proofOfStake += other.proofOfStake
	s.modifiers += other.modifiers
	s.checkpointMismatch += other.checkpointMismatch
}

// vaultRewards returns the expected rewards of every block, or nil when no
// stake reward was given and vault rules are not checked.  A zero reward still
// requires vault coinstakes to pay their inputs back.
func vaultRewards(stakeReward *int64) func(int32) blockchain.BlockRewards {
	if stakeReward == nil {
		return nil
	}
	rewards := blockchain.BlockRewards{StakeReward: *stakeReward}
	return func(int32) blockchain.BlockRewards {
		return rewards
	}
}

// newChain returns a chain reading blocks and transactions from store.
func newChain(params *chaincfg.Params, store *database.Store, stakeReward *int64) (*blockchain.Chain, error) {
	return blockchain.New(&blockchain.Config{
		ChainParams:     params,
		Blocks:          store,
		Transactions:    store,
		ExpectedRewards: vaultRewards(stakeReward),
	})
}

// replayStore connects every block of the stored main chain in height order.
// The genesis block of the network is connected and stored first when the
// store is empty.
func replayStore(chain *blockchain.Chain, store *database.Store) (verifyStats, error) {
	var stats verifyStats
	err := store.ForEachBlock(func(height int32, block *wire.MsgBlock) error {
		info, err := chain.ConnectBlock(block)
		if err != nil {
			return errors.Wrapf(err, "height %d", height)
		}
		if info.Height != height {
			return errors.Errorf("block %v is stored at height %d but "+
				"connects at height %d", info.Hash, height, info.Height)
		}
		stats.record(info)
		log.Tracef("Replayed block %v (height %d, modifier %016x, "+
			"checksum %08x)", info.Hash, info.Height, info.StakeModifier,
			info.StakeModifierChecksum)
		return nil
	})
	if err != nil {
		return stats, err
	}

	if chain.BestSnapshot() == nil {
		genesis := chain.ChainParams().GenesisBlock
		info, err := chain.ConnectBlock(genesis)
		if err != nil {
			return stats, errors.Wrap(err, "genesis block")
		}
		if err := store.PutBlock(genesis, 0); err != nil {
			return stats, err
		}
		stats.record(info)
	}
	return stats, nil
}
