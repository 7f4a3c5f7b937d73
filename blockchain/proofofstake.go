// Copyright (c) 2012-2013 The PPCoin developers
// Copyright (c) 2015-2017 The PIVX developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/TheGreat22/Divi/chaincfg"
	btcchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// coinDayDivisor scales value times age in seconds down to the coin weight
// the target is multiplied by.
const coinDayDivisor = 400

// ProofOfStakeCalculator is the default ProofOfStakeGenerator.  It hashes the
// kernel with the stake modifier in force one selection interval after the
// staked output was confirmed, and compares the hash against the block target
// weighted by the value and age of the staked output.
type ProofOfStakeCalculator struct {
	chain *Chain
}

// NewProofOfStakeCalculator returns a calculator reading stake modifiers from
// the given chain.
func NewProofOfStakeCalculator(chain *Chain) *ProofOfStakeCalculator {
	return &ProofOfStakeCalculator{chain: chain}
}

// branchNodeAtHeight returns the node at the given height on the branch ending
// in tip.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) branchNodeAtHeight(tip *blockNode, height int32) (*blockNode, error) {
	if c.bestChain.Contains(tip) {
		if node := c.bestChain.NodeByHeight(height); node != nil && height <= tip.height {
			return node, nil
		}
	}
	node, err := c.index.Ancestor(tip, height)
	if err != nil {
		return nil, err
	}
	if node == nil {
		str := fmt.Sprintf("no block at height %d on the branch of %v",
			height, tip.hash)
		return nil, ruleError(ErrMissingAncestor, str)
	}
	return node, nil
}

// kernelStakeModifier returns the stake modifier used to hash kernels of
// outputs confirmed in the from block.  It is the modifier of the first block
// on the branch of tip whose generated modifier is at least one selection
// interval younger than the from block.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) kernelStakeModifier(from, tip *blockNode) (uint64, error) {
	selectionInterval := stakeModifierSelectionInterval(c.chainParams)
	modifierTime := from.timestamp
	node := from
	for modifierTime < from.timestamp+selectionInterval {
		if node.height >= tip.height {
			str := fmt.Sprintf("stake modifier for kernels confirmed in "+
				"block %v (height %d) is not known at tip %v (height %d)",
				from.hash, from.height, tip.hash, tip.height)
			return 0, ruleError(ErrKernelNotYetValid, str)
		}
		next, err := c.branchNodeAtHeight(tip, node.height+1)
		if err != nil {
			return 0, err
		}
		node = next
		if node.generatedStakeModifier() {
			modifierTime = node.timestamp
		}
	}
	return node.stakeModifier, nil
}

// kernelHash returns the hash of the kernel of the staking data at the given
// timestamp.
func kernelHash(modifier uint64, data *StakingData, timestamp uint32) chainhash.Hash {
	var buf [8 + 4 + 4 + chainhash.HashSize + 4]byte
	binary.LittleEndian.PutUint64(buf[0:8], modifier)
	binary.LittleEndian.PutUint32(buf[8:12], data.FirstConfirmationBlockTime)
	binary.LittleEndian.PutUint32(buf[12:16], data.StakedOutPoint.Index)
	copy(buf[16:48], data.StakedOutPoint.Hash[:])
	binary.LittleEndian.PutUint32(buf[48:52], timestamp)
	return chainhash.DoubleHashH(buf[:])
}

// kernelTarget returns the target of the staking data at the given timestamp:
// the block target multiplied by the value and capped age of the staked output.
func kernelTarget(params *chaincfg.Params, data *StakingData, timestamp uint32) *big.Int {
	age := int64(timestamp) - int64(data.FirstConfirmationBlockTime)
	if age > params.StakeMaxAge {
		age = params.StakeMaxAge
	}

	weight := new(big.Int).Mul(big.NewInt(data.StakedValue), big.NewInt(age))
	weight.Div(weight, big.NewInt(chaincfg.Coin*coinDayDivisor))
	return weight.Mul(weight, CompactToBig(data.Bits))
}

// ComputeAndVerifyProofOfStake returns the kernel hash of the staking data at
// the given timestamp and fails when it exceeds the weighted target.
//
// This is part of the ProofOfStakeGenerator interface.
func (p *ProofOfStakeCalculator) ComputeAndVerifyProofOfStake(data *StakingData, timestamp uint32) (chainhash.Hash, error) {
	c := p.chain
	params := c.chainParams

	if timestamp < data.FirstConfirmationBlockTime {
		str := fmt.Sprintf("kernel timestamp %d precedes the confirmation "+
			"of %v at %d", timestamp, data.StakedOutPoint,
			data.FirstConfirmationBlockTime)
		return chainhash.Hash{}, ruleError(ErrKernelTimeViolation, str)
	}
	if int64(data.FirstConfirmationBlockTime)+params.StakeMinAge > int64(timestamp) {
		str := fmt.Sprintf("staked output %v confirmed at %d is younger "+
			"than the minimum stake age %d at %d", data.StakedOutPoint,
			data.FirstConfirmationBlockTime, params.StakeMinAge, timestamp)
		return chainhash.Hash{}, ruleError(ErrKernelTimeViolation, str)
	}

	from := c.index.LookupNode(&data.FirstConfirmationBlockHash)
	if from == nil {
		str := fmt.Sprintf("confirming block %v is not in the block index",
			data.FirstConfirmationBlockHash)
		return chainhash.Hash{}, ruleError(ErrMissingConfirmingBlock, str)
	}
	tip := c.index.LookupNode(&data.ChainTipBlockHash)
	if tip == nil {
		str := fmt.Sprintf("chain tip %v is not in the block index",
			data.ChainTipBlockHash)
		return chainhash.Hash{}, ruleError(ErrMissingParent, str)
	}

	modifier, err := c.kernelStakeModifier(from, tip)
	if err != nil {
		return chainhash.Hash{}, err
	}

	hash := kernelHash(modifier, data, timestamp)
	target := kernelTarget(params, data, timestamp)
	if btcchain.HashToBig(&hash).Cmp(target) > 0 {
		str := fmt.Sprintf("kernel hash %v of %v is above the target %064x",
			hash, data.StakedOutPoint, target)
		return hash, ruleError(ErrKernelTargetMiss, str)
	}
	return hash, nil
}
