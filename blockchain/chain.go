// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"sync"
	"time"

	"github.com/TheGreat22/Divi/blockchain/stakescript"
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/lru"
)

const (
	// defaultSigCacheSize is the number of verified signatures cached by
	// the default script verifier.
	defaultSigCacheSize = 10000

	// checkpointWarningCacheSize is the number of stake modifier
	// checkpoint mismatches remembered so each is only logged once.
	checkpointWarningCacheSize = 100
)

// Config is a descriptor which specifies the chain instance configuration.
type Config struct {
	// ChainParams identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	ChainParams *chaincfg.Params

	// Blocks reads stored blocks, such as the block confirming a staked
	// output.
	//
	// This field is required.
	Blocks BlockReader

	// Transactions resolves the transactions spent by coinstakes.
	//
	// This field is required.
	Transactions TxLookup

	// ScriptVerifier verifies the kernel input script of coinstakes.  A
	// txscript backed verifier is used when nil.
	ScriptVerifier ScriptVerifier

	// ProofOfStake computes and verifies kernel hashes.  A
	// ProofOfStakeCalculator over this chain is used when nil.
	ProofOfStake ProofOfStakeGenerator

	// Activation reports fork activation.  Activation by the timestamps
	// of ChainParams is used when nil.
	Activation ActivationState

	// ExpectedRewards returns the rewards of the block at the given height.
	// When set, coinstakes spending staking vault outputs are checked
	// against the vault reward rules on connection.
	ExpectedRewards func(height int32) BlockRewards
}

// BlockStakeInfo is a snapshot of the stake state of a block in the index.
type BlockStakeInfo struct {
	Hash                   chainhash.Hash
	Height                 int32
	Timestamp              time.Time
	ProofOfStake           bool
	EntropyBit             uint32
	StakeModifier          uint64
	GeneratedStakeModifier bool
	StakeModifierChecksum  uint32
	HashProofOfStake       chainhash.Hash
	CheckpointMismatch     bool
}

// Chain tracks the block index of a proof-of-stake chain together with the
// stake modifiers and checksums of its blocks, and validates the kernels of
// proof-of-stake blocks as they are connected.
type Chain struct {
	// The following fields are set when the instance is created and can't
	// be changed afterwards, so there is no need to protect them with a
	// separate mutex.
	chainParams     *chaincfg.Params
	blocks          BlockReader
	txLookup        TxLookup
	scriptVerifier  ScriptVerifier
	proofOfStake    ProofOfStakeGenerator
	activation      ActivationState
	expectedRewards func(height int32) BlockRewards

	// chainLock protects concurrent access to the index and the best chain.
	// Connecting a block is the only writer.
	chainLock sync.RWMutex
	index     *blockIndex
	bestChain *chainView

	// checkpointWarnings holds the checkpoint mismatches already logged.
	checkpointWarnings lru.Cache
}

// New returns a Chain instance using the provided configuration details.  The
// chain starts empty and expects the genesis block of the network to be
// connected first.
func New(config *Config) (*Chain, error) {
	// Enforce required config fields.
	if config.ChainParams == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}
	if config.Blocks == nil {
		return nil, AssertError("blockchain.New block reader is nil")
	}
	if config.Transactions == nil {
		return nil, AssertError("blockchain.New transaction lookup is nil")
	}

	index := newBlockIndex()
	bestChain, err := newChainView(index, nil)
	if err != nil {
		return nil, err
	}

	c := Chain{
		chainParams:        config.ChainParams,
		blocks:             config.Blocks,
		txLookup:           config.Transactions,
		scriptVerifier:     config.ScriptVerifier,
		proofOfStake:       config.ProofOfStake,
		activation:         config.Activation,
		expectedRewards:    config.ExpectedRewards,
		index:              index,
		bestChain:          bestChain,
		checkpointWarnings: lru.NewCache(checkpointWarningCacheSize),
	}
	if c.scriptVerifier == nil {
		c.scriptVerifier = stakescript.NewVerifier(defaultSigCacheSize)
	}
	if c.proofOfStake == nil {
		c.proofOfStake = NewProofOfStakeCalculator(&c)
	}
	if c.activation == nil {
		c.activation = NewTimeActivation(c.chainParams)
	}

	log.Infof("Chain initialized for %s with checkpoint policy %v",
		c.chainParams.Name, c.chainParams.StakeModifierCheckpointPolicy)
	return &c, nil
}

// ChainParams returns the network parameters of the chain.
func (c *Chain) ChainParams() *chaincfg.Params {
	return c.chainParams
}

// lookupParent returns the index node of the parent of the given header.
//
// This function is safe for concurrent access.
func (c *Chain) lookupParent(header *wire.BlockHeader) (*blockNode, error) {
	parent := c.index.LookupNode(&header.PrevBlock)
	if parent == nil {
		str := fmt.Sprintf("previous block %v is not in the block index",
			header.PrevBlock)
		return nil, ruleError(ErrMissingParent, str)
	}
	return parent, nil
}

// stakeInfo returns the stake snapshot of the node.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) stakeInfo(node *blockNode) *BlockStakeInfo {
	return &BlockStakeInfo{
		Hash:                   node.hash,
		Height:                 node.height,
		Timestamp:              node.blockTime(),
		ProofOfStake:           node.isProofOfStake(),
		EntropyBit:             uint32(node.stakeEntropyBit()),
		StakeModifier:          node.stakeModifier,
		GeneratedStakeModifier: node.generatedStakeModifier(),
		StakeModifierChecksum:  node.stakeModifierChecksum,
		HashProofOfStake:       node.hashProofOfStake,
		CheckpointMismatch:     c.index.NodeStatus(node).CheckpointMismatch(),
	}
}

// ConnectBlock validates the stake rules of the block, adds it to the block
// index with its stake modifier and checksum, and extends the best chain when
// the block is on the branch with the most blocks.  The parent must already
// be connected unless the block is the genesis block.
//
// Proof-of-stake blocks have their kernel verified and, when the chain was
// configured with ExpectedRewards, their vault rewards checked.
//
// This function is safe for concurrent access.
func (c *Chain) ConnectBlock(block *wire.MsgBlock) (*BlockStakeInfo, error) {
	c.chainLock.Lock()
	defer c.chainLock.Unlock()

	hash := block.BlockHash()
	if c.index.HaveBlock(&hash) {
		str := fmt.Sprintf("already have block %v", hash)
		return nil, ruleError(ErrDuplicateBlock, str)
	}

	var parent *blockNode
	if block.Header.PrevBlock == (chainhash.Hash{}) {
		if hash != *c.chainParams.GenesisHash {
			str := fmt.Sprintf("block %v has no parent and is not the "+
				"%s genesis block", hash, c.chainParams.Name)
			return nil, ruleError(ErrUnexpectedGenesis, str)
		}
	} else {
		var err error
		parent, err = c.lookupParent(&block.Header)
		if err != nil {
			return nil, err
		}
	}

	node := newBlockNode(block, parent)
	if node.isProofOfStake() && parent != nil {
		proofHash, resolved, err := c.checkProofOfStake(block, parent)
		if err != nil {
			return nil, err
		}
		node.hashProofOfStake = proofHash

		if c.expectedRewards != nil {
			err := CheckCoinstakeForVaults(block.Transactions[1],
				c.expectedRewards(node.height), resolved.prevOuts,
				c.chainParams)
			if err != nil {
				return nil, err
			}
		}
	}

	mismatch, err := c.setStakeModifiersForNewNode(node)
	if err != nil {
		return nil, err
	}

	c.index.AddNode(node)
	if mismatch {
		c.index.SetStatusFlags(node, statusCheckpointMismatch)
	}

	// Extend the best chain, or switch to the branch of the block once it
	// holds more blocks.
	tip := c.bestChain.Tip()
	if tip == nil || node.height > tip.height {
		if tip != nil && parent != tip {
			log.Infof("Switching best chain to the branch of block %v "+
				"at height %d", node.hash, node.height)
		}
		if err := c.bestChain.SetTip(node); err != nil {
			return nil, err
		}
	}

	log.Debugf("Connected block %v height=%d pos=%v modifier=%016x "+
		"generated=%v checksum=%08x", node.hash, node.height,
		node.isProofOfStake(), node.stakeModifier,
		node.generatedStakeModifier(), node.stakeModifierChecksum)

	return c.stakeInfo(node), nil
}

// BlockStakeInfo returns the stake snapshot of the block with the given hash.
//
// This function is safe for concurrent access.
func (c *Chain) BlockStakeInfo(hash *chainhash.Hash) (*BlockStakeInfo, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	node := c.index.LookupNode(hash)
	if node == nil {
		str := fmt.Sprintf("block %v is not in the block index", hash)
		return nil, ruleError(ErrMissingAncestor, str)
	}
	return c.stakeInfo(node), nil
}

// BestSnapshot returns the stake snapshot of the tip of the best chain, or nil
// when no block has been connected.
//
// This function is safe for concurrent access.
func (c *Chain) BestSnapshot() *BlockStakeInfo {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	tip := c.bestChain.Tip()
	if tip == nil {
		return nil
	}
	return c.stakeInfo(tip)
}

// BestHeight returns the height of the tip of the best chain, or -1 when no
// block has been connected.
func (c *Chain) BestHeight() int32 {
	return c.bestChain.Height()
}

// BlockCount returns the number of connected blocks, including those off the
// best chain.
func (c *Chain) BlockCount() int {
	return c.index.Len()
}

// BlockHashByHeight returns the hash of the block at the given height of the
// best chain.
//
// This function is safe for concurrent access.
func (c *Chain) BlockHashByHeight(height int32) (*chainhash.Hash, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	node := c.bestChain.NodeByHeight(height)
	if node == nil {
		str := fmt.Sprintf("no block at height %d exists", height)
		return nil, ruleError(ErrMissingAncestor, str)
	}
	return &node.hash, nil
}

// StakeModifierSelectionInterval returns the length in seconds of the window
// stake modifier candidates are selected from.
func (c *Chain) StakeModifierSelectionInterval() int64 {
	return stakeModifierSelectionInterval(c.chainParams)
}

// CheckCoinstakeForVaults resolves the outputs spent by the coinstake and
// enforces the vault reward rules on it.
//
// This function is safe for concurrent access.
func (c *Chain) CheckCoinstakeForVaults(tx *wire.MsgTx, rewards BlockRewards) error {
	if !stakescript.IsCoinStake(tx) {
		str := fmt.Sprintf("transaction %v is not a coinstake", tx.TxHash())
		return ruleError(ErrNoCoinstake, str)
	}
	resolved, err := c.resolveInputs(tx)
	if err != nil {
		return err
	}
	return CheckCoinstakeForVaults(tx, rewards, resolved.prevOuts, c.chainParams)
}
