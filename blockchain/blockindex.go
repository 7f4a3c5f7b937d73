// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2018 The Decred developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"
	"time"

	"github.com/TheGreat22/Divi/blockchain/stakescript"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// blockFlags is the bit field of stake related properties of a block that is
// committed to by the stake modifier checksum.
//
// NOTE: The values are hashed into the checksum and must never change.
type blockFlags uint32

const (
	// blockProofOfStake indicates the block carries a coinstake.
	blockProofOfStake blockFlags = 1 << 0

	// blockStakeEntropy holds the entropy bit of the block.
	blockStakeEntropy blockFlags = 1 << 1

	// blockStakeModifier indicates the stake modifier of the block was
	// generated at this block rather than carried over from its parent.
	blockStakeModifier blockFlags = 1 << 2
)

// blockStatus is a bit field representing the validation state of the block.
type blockStatus byte

const (
	// statusNone indicates that the block has no validation state flags set.
	statusNone blockStatus = 0

	// statusCheckpointMismatch indicates that the stake modifier checksum
	// of the block disagrees with a hard checkpoint.
	statusCheckpointMismatch blockStatus = 1 << 0
)

// CheckpointMismatch returns whether the stake modifier checksum of the block
// disagreed with a hard checkpoint.
func (status blockStatus) CheckpointMismatch() bool {
	return status&statusCheckpointMismatch != 0
}

// blockNode represents a block within the block index.  Nodes never point at
// each other.  The parent is referenced by hash and resolved through the
// index that owns the node.
type blockNode struct {
	// hash is the hash of the block this node represents.
	hash chainhash.Hash

	// parentHash is the hash of the parent block.  It is only meaningful
	// when hasParent is set.
	parentHash chainhash.Hash

	// hashProofOfStake is the kernel hash of a proof-of-stake block and
	// the zero hash otherwise.
	hashProofOfStake chainhash.Hash

	stakeModifier uint64
	timestamp     int64
	height        int32
	bits          uint32

	// flags must only be modified before the node is added to the index.
	flags blockFlags

	stakeModifierChecksum uint32
	hasParent             bool

	// status may change after the node has been added to the index, so it
	// must only be accessed through the blockIndex status methods.
	status blockStatus
}

// initBlockNode initializes a block node from the given block and parent node.
// The entropy bit is derived from the block hash.
//
// This function is NOT safe for concurrent access.  It must only be called when
// initially creating a node.
func initBlockNode(node *blockNode, block *wire.MsgBlock, parent *blockNode) {
	header := &block.Header
	*node = blockNode{
		hash:      header.BlockHash(),
		timestamp: header.Timestamp.Unix(),
		bits:      header.Bits,
	}
	if parent != nil {
		node.parentHash = parent.hash
		node.hasParent = true
		node.height = parent.height + 1
	}
	if stakescript.IsProofOfStakeBlock(block) {
		node.flags |= blockProofOfStake
	}
	if node.hash[0]&1 != 0 {
		node.flags |= blockStakeEntropy
	}
}

// newBlockNode returns a new block node for the given block and parent node.
func newBlockNode(block *wire.MsgBlock, parent *blockNode) *blockNode {
	var node blockNode
	initBlockNode(&node, block, parent)
	return &node
}

// isProofOfStake returns whether the node represents a proof-of-stake block.
func (node *blockNode) isProofOfStake() bool {
	return node.flags&blockProofOfStake != 0
}

// stakeEntropyBit returns the entropy bit the block contributes to stake
// modifiers selecting it.
func (node *blockNode) stakeEntropyBit() uint64 {
	if node.flags&blockStakeEntropy != 0 {
		return 1
	}
	return 0
}

// generatedStakeModifier returns whether the stake modifier was generated at
// this node.
func (node *blockNode) generatedStakeModifier() bool {
	return node.flags&blockStakeModifier != 0
}

// setStakeModifier stores the stake modifier of the node along with whether it
// was generated here.
func (node *blockNode) setStakeModifier(modifier uint64, generated bool) {
	node.stakeModifier = modifier
	if generated {
		node.flags |= blockStakeModifier
	} else {
		node.flags &^= blockStakeModifier
	}
}

// blockTime returns the timestamp of the node as a time.Time.
func (node *blockNode) blockTime() time.Time {
	return time.Unix(node.timestamp, 0)
}

// blockIndex provides facilities for keeping track of an in-memory index of the
// block chain.  Although the name block chain suggests a single chain of
// blocks, it is actually a tree-shaped structure where any node can have
// multiple children.  However, there can only be one active branch which does
// indeed form a chain from the tip all the way back to the genesis block.
type blockIndex struct {
	sync.RWMutex
	index map[chainhash.Hash]*blockNode
}

// newBlockIndex returns a new empty instance of a block index.
func newBlockIndex() *blockIndex {
	return &blockIndex{
		index: make(map[chainhash.Hash]*blockNode),
	}
}

// HaveBlock returns whether or not the block index contains the provided hash.
//
// This function is safe for concurrent access.
func (bi *blockIndex) HaveBlock(hash *chainhash.Hash) bool {
	bi.RLock()
	_, hasBlock := bi.index[*hash]
	bi.RUnlock()
	return hasBlock
}

// Len returns the number of nodes in the index.
//
// This function is safe for concurrent access.
func (bi *blockIndex) Len() int {
	bi.RLock()
	n := len(bi.index)
	bi.RUnlock()
	return n
}

// AddNode adds the provided node to the block index.  Duplicate entries are not
// checked so it is up to caller to avoid adding them.
//
// This function is safe for concurrent access.
func (bi *blockIndex) AddNode(node *blockNode) {
	bi.Lock()
	bi.index[node.hash] = node
	bi.Unlock()
}

// LookupNode returns the block node identified by the provided hash.  It will
// return nil if there is no entry for the hash.
//
// This function is safe for concurrent access.
func (bi *blockIndex) LookupNode(hash *chainhash.Hash) *blockNode {
	bi.RLock()
	node := bi.index[*hash]
	bi.RUnlock()
	return node
}

// Parent returns the parent of the node.  It returns nil for the genesis node
// and an error when the parent is referenced but not in the index.
//
// This function is safe for concurrent access.
func (bi *blockIndex) Parent(node *blockNode) (*blockNode, error) {
	if !node.hasParent {
		return nil, nil
	}
	parent := bi.LookupNode(&node.parentHash)
	if parent == nil {
		str := "parent " + node.parentHash.String() + " of block " +
			node.hash.String() + " is not in the block index"
		return nil, ruleError(ErrMissingAncestor, str)
	}
	return parent, nil
}

// Ancestor returns the ancestor block node at the provided height by following
// the chain backwards from the node.  The returned block will be nil when a
// height is requested that is after the height of the passed node or is less
// than zero.
//
// This function is safe for concurrent access.
func (bi *blockIndex) Ancestor(node *blockNode, height int32) (*blockNode, error) {
	if height < 0 || height > node.height {
		return nil, nil
	}

	n := node
	for n.height != height {
		parent, err := bi.Parent(n)
		if err != nil {
			return nil, err
		}
		n = parent
	}
	return n, nil
}

// NodeStatus returns the status associated with the provided node.
//
// This function is safe for concurrent access.
func (bi *blockIndex) NodeStatus(node *blockNode) blockStatus {
	bi.RLock()
	status := node.status
	bi.RUnlock()
	return status
}

// SetStatusFlags sets the provided status flags for the given block node
// regardless of their previous state.  It does not unset any flags.
//
// This function is safe for concurrent access.
func (bi *blockIndex) SetStatusFlags(node *blockNode, flags blockStatus) {
	bi.Lock()
	node.status |= flags
	bi.Unlock()
}
