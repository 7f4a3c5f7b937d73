// Copyright (c) 2014-2014 PPCD developers.
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/TheGreat22/Divi/chaincfg"
	btcchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btclog"
)

// stakeModifierRounds is the number of selection rounds, one per bit of the
// stake modifier.
const stakeModifierRounds = 64

// blockTimeHash is a stake modifier candidate.
type blockTimeHash struct {
	time int64
	hash chainhash.Hash
}

// blockTimeHashSorter implements sort.Interface to allow a slice of candidates
// to be sorted by timestamp with ties broken by hash.
type blockTimeHashSorter []blockTimeHash

// Len returns the number of candidates in the slice.  It is part of the
// sort.Interface implementation.
func (s blockTimeHashSorter) Len() int {
	return len(s)
}

// Swap swaps the candidates at the passed indices.  It is part of the
// sort.Interface implementation.
func (s blockTimeHashSorter) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Less returns whether the candidate with index i should sort before the
// candidate with index j.  Hashes compare as 256-bit unsigned integers, so the
// comparison starts at the most significant byte of the little-endian hash.
// It is part of the sort.Interface implementation.
func (s blockTimeHashSorter) Less(i, j int) bool {
	if s[i].time != s[j].time {
		return s[i].time < s[j].time
	}
	for k := chainhash.HashSize - 1; k >= 0; k-- {
		if s[i].hash[k] != s[j].hash[k] {
			return s[i].hash[k] < s[j].hash[k]
		}
	}
	return false
}

// stakeModifierSelectionIntervalSection returns the length in seconds the
// selection window grows by in the given round.  Early rounds get short
// sections which biases them toward recent blocks.
func stakeModifierSelectionIntervalSection(params *chaincfg.Params, section int) int64 {
	return params.ModifierInterval * 63 /
		(63 + (63-int64(section))*(params.ModifierIntervalRatio-1))
}

// stakeModifierSelectionInterval returns the total length in seconds of the
// window stake modifier candidates are selected from.
func stakeModifierSelectionInterval(params *chaincfg.Params) int64 {
	var interval int64
	for section := 0; section < stakeModifierRounds; section++ {
		interval += stakeModifierSelectionIntervalSection(params, section)
	}
	return interval
}

// lastGeneratedStakeModifier walks back from node to the nearest node whose
// stake modifier was generated there.
func (c *Chain) lastGeneratedStakeModifier(node *blockNode) (*blockNode, error) {
	for !node.generatedStakeModifier() {
		parent, err := c.index.Parent(node)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		node = parent
	}
	if !node.generatedStakeModifier() {
		str := fmt.Sprintf("no generated stake modifier at or before "+
			"block %v", node.hash)
		return nil, ruleError(ErrMissingAncestor, str)
	}
	return node, nil
}

// selectionHash returns the hash a candidate competes with in a selection
// round.  Proof-of-stake candidates hash a zero proof and have their result
// divided by 2^32 so they are always favored over proof-of-work candidates.
func selectionHash(node *blockNode, prevModifier uint64) *big.Int {
	var buf [chainhash.HashSize + 8]byte
	if !node.isProofOfStake() {
		copy(buf[:chainhash.HashSize], node.hash[:])
	}
	binary.LittleEndian.PutUint64(buf[chainhash.HashSize:], prevModifier)

	hash := chainhash.DoubleHashH(buf[:])
	selection := btcchain.HashToBig(&hash)
	if node.isProofOfStake() {
		selection.Rsh(selection, 32)
	}
	return selection
}

// selectBlockFromCandidates selects a block from the sorted candidates,
// excluding already selected blocks and with timestamp up to the interval
// stop.  Once a block is selected, scanning stops at the first candidate past
// the interval stop.
func (c *Chain) selectBlockFromCandidates(sorted []blockTimeHash,
	selected map[chainhash.Hash]*blockNode, intervalStop int64,
	prevModifier uint64) (*blockNode, error) {

	var best *big.Int
	var bestNode *blockNode
	for i := range sorted {
		node := c.index.LookupNode(&sorted[i].hash)
		if node == nil {
			str := fmt.Sprintf("failed to find block index for "+
				"candidate block %v", sorted[i].hash)
			return nil, ruleError(ErrMissingAncestor, str)
		}
		if bestNode != nil && node.timestamp > intervalStop {
			break
		}
		if _, ok := selected[node.hash]; ok {
			continue
		}

		hash := selectionHash(node, prevModifier)
		if bestNode == nil || hash.Cmp(best) < 0 {
			best = hash
			bestNode = node
		}
	}
	if bestNode == nil {
		return nil, AssertError("no stake modifier candidate left to select")
	}

	log.Tracef("Selection hash %064x for block %v", best, bestNode.hash)
	return bestNode, nil
}

// stakeModifierSelection computes the stake modifier of the child of prev.  It
// also returns the candidates selected in each round, in round order, which is
// empty when no new modifier was generated.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) stakeModifierSelection(prev *blockNode) (uint64, bool, []*blockNode, error) {
	if prev == nil {
		// The genesis block's modifier is 0.
		return 0, true, nil, nil
	}
	params := c.chainParams
	if prev.height == 0 {
		return params.FirstStakeModifier, true, nil, nil
	}

	// Keep the current modifier while it was generated within the
	// modifier interval of the previous block.
	last, err := c.lastGeneratedStakeModifier(prev)
	if err != nil {
		return 0, false, nil, err
	}
	modifier := last.stakeModifier
	if last.timestamp/params.ModifierInterval >= prev.timestamp/params.ModifierInterval {
		return modifier, false, nil, nil
	}

	// Collect and sort the candidate blocks of the selection window.
	selectionInterval := stakeModifierSelectionInterval(params)
	intervalStart := (prev.timestamp/params.ModifierInterval)*params.ModifierInterval -
		selectionInterval
	capacity := stakeModifierRounds * params.ModifierInterval / params.StakeTargetSpacing
	sorted := make([]blockTimeHash, 0, capacity)
	node := prev
	for node != nil && node.timestamp >= intervalStart {
		sorted = append(sorted, blockTimeHash{node.timestamp, node.hash})
		node, err = c.index.Parent(node)
		if err != nil {
			return 0, false, nil, err
		}
	}
	var firstCandidateHeight int32
	if node != nil {
		firstCandidateHeight = node.height + 1
	}
	sort.Sort(blockTimeHashSorter(sorted))

	// Select one block per round and gather its entropy bit.
	var newModifier uint64
	intervalStop := intervalStart
	rounds := len(sorted)
	if rounds > stakeModifierRounds {
		rounds = stakeModifierRounds
	}
	selected := make(map[chainhash.Hash]*blockNode, rounds)
	order := make([]*blockNode, 0, rounds)
	for round := 0; round < rounds; round++ {
		intervalStop += stakeModifierSelectionIntervalSection(params, round)

		node, err := c.selectBlockFromCandidates(sorted, selected,
			intervalStop, modifier)
		if err != nil {
			return 0, false, nil, fmt.Errorf("unable to select block "+
				"at round %d: %w", round, err)
		}

		newModifier |= node.stakeEntropyBit() << uint(round)
		selected[node.hash] = node
		order = append(order, node)

		log.Tracef("Stake modifier round %d stop=%d height=%d bit=%d",
			round, intervalStop, node.height, node.stakeEntropyBit())
	}

	if log.Level() <= btclog.LevelDebug {
		log.Debugf("Stake modifier selection height [%d, %d] map %s",
			firstCandidateHeight, prev.height,
			c.selectionMap(prev, firstCandidateHeight, selected))
		log.Debugf("New stake modifier %016x at time %v", newModifier,
			prev.blockTime())
	}

	return newModifier, true, order, nil
}

// selectionMap renders the candidate window for diagnostics.  '-' marks an
// unselected proof-of-work block, '=' an unselected proof-of-stake block, 'W'
// a selected proof-of-work block and 'S' a selected proof-of-stake block.
func (c *Chain) selectionMap(prev *blockNode, firstHeight int32,
	selected map[chainhash.Hash]*blockNode) string {

	marks := []byte(strings.Repeat("-", int(prev.height-firstHeight+1)))
	for node := prev; node != nil && node.height >= firstHeight; {
		if node.isProofOfStake() {
			marks[node.height-firstHeight] = '='
		}
		parent, err := c.index.Parent(node)
		if err != nil {
			break
		}
		node = parent
	}
	for _, node := range selected {
		mark := byte('W')
		if node.isProofOfStake() {
			mark = 'S'
		}
		marks[node.height-firstHeight] = mark
	}
	return string(marks)
}

// computeNextStakeModifier returns the stake modifier of the child of prev
// and whether the modifier is generated at the child.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) computeNextStakeModifier(prev *blockNode) (uint64, bool, error) {
	modifier, generated, _, err := c.stakeModifierSelection(prev)
	return modifier, generated, err
}

// ComputeNextStakeModifier returns the stake modifier a block extending the
// block with the given hash receives, along with whether the modifier is
// generated at that block.  A nil hash denotes the parent of the genesis
// block.
//
// This function is safe for concurrent access.
func (c *Chain) ComputeNextStakeModifier(prevHash *chainhash.Hash) (uint64, bool, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	var prev *blockNode
	if prevHash != nil {
		prev = c.index.LookupNode(prevHash)
		if prev == nil {
			str := fmt.Sprintf("block %v is not in the block index", prevHash)
			return 0, false, ruleError(ErrMissingParent, str)
		}
	}
	return c.computeNextStakeModifier(prev)
}
