// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stakescript

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// isNullOutPoint determines whether or not a previous transaction output point
// is set.
func isNullOutPoint(outpoint *wire.OutPoint) bool {
	return outpoint.Index == math.MaxUint32 && outpoint.Hash == (chainhash.Hash{})
}

// IsCoinStake determines whether or not a transaction is a coinstake.  A
// coinstake spends at least one real output and marks itself with an empty
// first output followed by at least one more output.
func IsCoinStake(tx *wire.MsgTx) bool {
	if len(tx.TxIn) == 0 || isNullOutPoint(&tx.TxIn[0].PreviousOutPoint) {
		return false
	}
	if len(tx.TxOut) < 2 {
		return false
	}
	first := tx.TxOut[0]
	return first.Value == 0 && len(first.PkScript) == 0
}

// IsProofOfStakeBlock returns whether the block carries a coinstake as its
// second transaction.
func IsProofOfStakeBlock(block *wire.MsgBlock) bool {
	return len(block.Transactions) > 1 && IsCoinStake(block.Transactions[1])
}
