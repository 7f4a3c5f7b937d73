// Copyright (c) 2014-2014 PPCD developers.
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"fmt"

	"github.com/TheGreat22/Divi/chaincfg"
	btcchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// checkpointWarning identifies a stake modifier checkpoint mismatch that has
// already been reported.
type checkpointWarning struct {
	height   int32
	checksum uint32
}

// stakeModifierChecksum hashes the checksum of the parent together with the
// flags, kernel hash and stake modifier of the node and returns the top 32
// bits of the result.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) stakeModifierChecksum(node *blockNode) (uint32, error) {
	buf := make([]byte, 0, 4+4+chainhash.HashSize+8)
	parent, err := c.index.Parent(node)
	if err != nil {
		return 0, err
	}
	if parent != nil {
		buf = binary.LittleEndian.AppendUint32(buf, parent.stakeModifierChecksum)
	} else if node.hash != *c.chainParams.GenesisHash {
		str := fmt.Sprintf("block %v has no parent and is not the "+
			"genesis block", node.hash)
		return 0, AssertError(str)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(node.flags))
	buf = append(buf, node.hashProofOfStake[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, node.stakeModifier)

	hash := chainhash.DoubleHashH(buf)
	checksum := btcchain.HashToBig(&hash)
	checksum.Rsh(checksum, 256-32)
	return uint32(checksum.Uint64()), nil
}

// CheckStakeModifierCheckpoints returns false only when a hard checkpoint is
// registered for the height and the checksum differs from it.
//
// This function is safe for concurrent access.
func (c *Chain) CheckStakeModifierCheckpoints(height int32, checksum uint32) bool {
	expected, ok := c.chainParams.StakeModifierCheckpoint(height)
	return !ok || expected == checksum
}

// setStakeModifiersForNewNode assigns the stake modifier and checksum to a
// node that is about to be connected and checks the checksum against the hard
// checkpoints.  A checkpoint mismatch is reported through the first return
// value.  It only fails the node under the strict checkpoint policy.
//
// This function MUST be called with the chain state lock held (for writes).
func (c *Chain) setStakeModifiersForNewNode(node *blockNode) (bool, error) {
	parent, err := c.index.Parent(node)
	if err != nil {
		return false, err
	}
	modifier, generated, err := c.computeNextStakeModifier(parent)
	if err != nil {
		return false, fmt.Errorf("unable to compute stake modifier for "+
			"block %v: %w", node.hash, err)
	}
	node.setStakeModifier(modifier, generated)

	node.stakeModifierChecksum, err = c.stakeModifierChecksum(node)
	if err != nil {
		return false, err
	}

	log.Tracef("Block %v height=%d modifier=%016x checksum=%08x", node.hash,
		node.height, node.stakeModifier, node.stakeModifierChecksum)

	if c.CheckStakeModifierCheckpoints(node.height, node.stakeModifierChecksum) {
		return false, nil
	}

	str := fmt.Sprintf("stake modifier checkpoint mismatch at height %d: "+
		"checksum %08x, modifier %016x", node.height,
		node.stakeModifierChecksum, node.stakeModifier)
	if c.chainParams.StakeModifierCheckpointPolicy == chaincfg.CheckpointStrict {
		return true, ruleError(ErrStakeModifierCheckpoint, str)
	}

	warning := checkpointWarning{node.height, node.stakeModifierChecksum}
	if !c.checkpointWarnings.Contains(warning) {
		c.checkpointWarnings.Add(warning)
		log.Warnf("Rejected by stake modifier checkpoint (policy %v): %s",
			c.chainParams.StakeModifierCheckpointPolicy, str)
	}
	return true, nil
}

// StakeModifierChecksum returns the stake modifier checksum of the block with
// the given hash.
//
// This function is safe for concurrent access.
func (c *Chain) StakeModifierChecksum(hash *chainhash.Hash) (uint32, error) {
	node := c.index.LookupNode(hash)
	if node == nil {
		str := fmt.Sprintf("block %v is not in the block index", hash)
		return 0, ruleError(ErrMissingAncestor, str)
	}
	return node.stakeModifierChecksum, nil
}
