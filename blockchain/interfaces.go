// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/TheGreat22/Divi/blockchain/stakescript"
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// BlockReader is an interface that abstracts away access to stored blocks.
type BlockReader interface {
	// FetchBlock returns the stored block with the given hash.
	FetchBlock(hash *chainhash.Hash) (*wire.MsgBlock, error)
}

// TxLookup is an interface that abstracts away transaction resolution by id.
type TxLookup interface {
	// FetchTransaction returns the transaction with the given id and the
	// hash of the block that confirmed it.  The block hash is nil for a
	// transaction that is only known unconfirmed, which is only returned
	// when allowUnconfirmed is set.
	FetchTransaction(txid *chainhash.Hash, allowUnconfirmed bool) (*wire.MsgTx, *chainhash.Hash, error)
}

// ScriptVerifier is an interface that abstracts away script execution for a
// single transaction input.
type ScriptVerifier interface {
	// VerifyScript executes sigScript against pkScript under flags in the
	// signature context of one input.
	VerifyScript(sigScript, pkScript []byte, flags stakescript.ScriptFlags, ctx stakescript.SigContext) error
}

// ProofOfStakeGenerator is an interface that abstracts away the kernel hash
// and target arithmetic.
//
// The chain invokes it with the chain lock held, so implementations must not
// call back into exported Chain methods.
type ProofOfStakeGenerator interface {
	// ComputeAndVerifyProofOfStake returns the kernel hash of the staking
	// data at the given timestamp together with an error when the hash
	// does not meet the weighted target.
	ComputeAndVerifyProofOfStake(data *StakingData, timestamp uint32) (chainhash.Hash, error)
}

// ActivationState is an interface that abstracts away fork activation.
type ActivationState interface {
	// IsActive returns whether the fork is active for the block with the
	// given header.
	IsActive(header *wire.BlockHeader, fork chaincfg.Fork) bool
}
