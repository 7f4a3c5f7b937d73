// Copyright (c) 2012-2013 The PPCoin developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// checkProofOfStake recovers the staking data of a proof-of-stake block
// extending parent and verifies its kernel hash meets the target.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) checkProofOfStake(block *wire.MsgBlock, parent *blockNode) (chainhash.Hash, *resolvedInputs, error) {
	data, resolved, err := c.recoverStakingData(block, parent)
	if err != nil {
		return chainhash.Hash{}, nil, err
	}

	timestamp := uint32(block.Header.Timestamp.Unix())
	hash, err := c.proofOfStake.ComputeAndVerifyProofOfStake(data, timestamp)
	if err != nil {
		// Failures that do not classify themselves are treated as a
		// definitive target miss.
		if _, ok := ErrorKindOf(err); !ok {
			str := fmt.Sprintf("kernel check failed on coinstake %v",
				block.Transactions[1].TxHash())
			err = wrapRuleError(ErrKernelTargetMiss, str, err)
		}

		// A kernel that is not yet valid may occur during initial sync or
		// when the chain is behind.
		if IsErrorCode(err, ErrKernelNotYetValid) {
			log.Debugf("Kernel of block %v not yet valid: %v",
				block.BlockHash(), err)
		}
		return hash, nil, err
	}

	log.Tracef("Proof of stake for block %v: %v", block.BlockHash(), hash)
	return hash, resolved, nil
}

// CheckProofOfStake verifies the coinstake of a proof-of-stake block and that
// its kernel hash meets the weighted target, returning the kernel hash.  The
// parent of the block must be in the block index.
//
// This function is safe for concurrent access.
func (c *Chain) CheckProofOfStake(block *wire.MsgBlock) (chainhash.Hash, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	parent, err := c.lookupParent(&block.Header)
	if err != nil {
		return chainhash.Hash{}, err
	}
	hash, _, err := c.checkProofOfStake(block, parent)
	return hash, err
}
