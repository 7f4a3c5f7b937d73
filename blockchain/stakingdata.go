// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"fmt"

	"github.com/TheGreat22/Divi/blockchain/stakescript"
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// StakingData holds the facts a kernel hash is computed from.  It is derived
// from a candidate block and the history of the coin it stakes.
type StakingData struct {
	// Bits is the target difficulty of the candidate block.
	Bits uint32

	// FirstConfirmationBlockTime is the timestamp of the block that
	// confirmed the staked output.
	FirstConfirmationBlockTime uint32

	// FirstConfirmationBlockHash is the hash of that block.
	FirstConfirmationBlockHash chainhash.Hash

	// StakedOutPoint identifies the staked output.
	StakedOutPoint wire.OutPoint

	// StakedValue is the value of the staked output.
	StakedValue int64

	// ChainTipBlockHash is the hash of the block the candidate extends.
	ChainTipBlockHash chainhash.Hash
}

// resolvedInputs holds the outputs spent by a transaction along with the
// blocks that confirmed them.
type resolvedInputs struct {
	prevOuts *txscript.MultiPrevOutFetcher
	outputs  []*wire.TxOut

	// confirmedIn holds the confirming block hash per input.  It is nil
	// for an output only known unconfirmed.
	confirmedIn []*chainhash.Hash
}

// resolveInputs looks up the output spent by every input of tx.
//
// This function is safe for concurrent access.
func (c *Chain) resolveInputs(tx *wire.MsgTx) (*resolvedInputs, error) {
	resolved := &resolvedInputs{
		prevOuts:    txscript.NewMultiPrevOutFetcher(nil),
		outputs:     make([]*wire.TxOut, len(tx.TxIn)),
		confirmedIn: make([]*chainhash.Hash, len(tx.TxIn)),
	}
	for i, txIn := range tx.TxIn {
		prevOut := &txIn.PreviousOutPoint
		prevTx, blockHash, err := c.txLookup.FetchTransaction(&prevOut.Hash, true)
		if err != nil {
			str := fmt.Sprintf("unable to read transaction %v spent "+
				"by input %d of %v", prevOut.Hash, i, tx.TxHash())
			return nil, wrapRuleError(ErrMissingTxOut, str, err)
		}
		if prevOut.Index >= uint32(len(prevTx.TxOut)) {
			str := fmt.Sprintf("input %d of %v references output %v "+
				"which is out of range", i, tx.TxHash(), prevOut)
			return nil, ruleError(ErrBadTxOutIndex, str)
		}

		txOut := prevTx.TxOut[prevOut.Index]
		resolved.prevOuts.AddPrevOut(*prevOut, txOut)
		resolved.outputs[i] = txOut
		resolved.confirmedIn[i] = blockHash
	}
	return resolved, nil
}

// scriptFlagsForBlock returns the script flags coinstake kernel inputs of the
// block are verified with.
func (c *Chain) scriptFlagsForBlock(header *wire.BlockHeader) stakescript.ScriptFlags {
	flags := stakescript.POSScriptVerifyFlags
	if !c.activation.IsActive(header, chaincfg.ForkStakingVaults) {
		flags = stakescript.PreVaultForkFlags(flags)
	}
	return flags
}

// recoverStakingData checks the coinstake of a proof-of-stake block extending
// parent and recovers the staking data of its kernel input.
//
// This function MUST be called with the chain state lock held (for reads).
func (c *Chain) recoverStakingData(block *wire.MsgBlock, parent *blockNode) (*StakingData, *resolvedInputs, error) {
	if len(block.Transactions) < 2 || !stakescript.IsCoinStake(block.Transactions[1]) {
		str := fmt.Sprintf("second transaction of block %v is not a "+
			"coinstake", block.BlockHash())
		return nil, nil, ruleError(ErrNoCoinstake, str)
	}
	tx := block.Transactions[1]
	txHash := tx.TxHash()

	maxInputs := c.chainParams.MaxKernelCombinedInputs
	if len(tx.TxIn) > maxInputs {
		str := fmt.Sprintf("coinstake %v has %d inputs, max %d", txHash,
			len(tx.TxIn), maxInputs)
		return nil, nil, ruleError(ErrTooManyStakeInputs, str)
	}

	resolved, err := c.resolveInputs(tx)
	if err != nil {
		return nil, nil, err
	}

	// All other inputs must pay to the same script as the kernel.
	kernelOut := resolved.outputs[0]
	for i := 1; i < len(resolved.outputs); i++ {
		if !bytes.Equal(resolved.outputs[i].PkScript, kernelOut.PkScript) {
			str := fmt.Sprintf("stake input %d of coinstake %v pays to "+
				"a different script than the kernel", i, txHash)
			return nil, nil, ruleError(ErrStakeInputScriptMismatch, str)
		}
	}

	kernelIn := tx.TxIn[0]
	flags := c.scriptFlagsForBlock(&block.Header)
	err = c.scriptVerifier.VerifyScript(kernelIn.SignatureScript,
		kernelOut.PkScript, flags, stakescript.SigContext{
			Tx:       tx,
			Amount:   kernelOut.Value,
			PrevOuts: resolved.prevOuts,
		})
	if err != nil {
		str := fmt.Sprintf("signature verification failed on coinstake "+
			"%v with flags %v", txHash, flags)
		return nil, nil, wrapRuleError(ErrCoinstakeScriptFailed, str, err)
	}

	confHash := resolved.confirmedIn[0]
	if confHash == nil || !c.index.HaveBlock(confHash) {
		str := fmt.Sprintf("block confirming kernel %v of coinstake %v "+
			"is not in the block index", kernelIn.PreviousOutPoint, txHash)
		return nil, nil, ruleError(ErrMissingConfirmingBlock, str)
	}
	confBlock, err := c.blocks.FetchBlock(confHash)
	if err != nil {
		str := fmt.Sprintf("unable to read block %v confirming kernel of "+
			"coinstake %v", confHash, txHash)
		return nil, nil, wrapRuleError(ErrMissingConfirmingBlock, str, err)
	}

	data := &StakingData{
		Bits:                       block.Header.Bits,
		FirstConfirmationBlockTime: uint32(confBlock.Header.Timestamp.Unix()),
		FirstConfirmationBlockHash: confBlock.BlockHash(),
		StakedOutPoint:             kernelIn.PreviousOutPoint,
		StakedValue:                kernelOut.Value,
		ChainTipBlockHash:          parent.hash,
	}
	return data, resolved, nil
}

// ExtractStakingData checks the coinstake of a proof-of-stake block and
// returns the staking data of its kernel input.  The parent of the block must
// be in the block index.
//
// This function is safe for concurrent access.
func (c *Chain) ExtractStakingData(block *wire.MsgBlock) (*StakingData, error) {
	c.chainLock.RLock()
	defer c.chainLock.RUnlock()

	parent, err := c.lookupParent(&block.Header)
	if err != nil {
		return nil, err
	}
	data, _, err := c.recoverStakingData(block, parent)
	return data, err
}
