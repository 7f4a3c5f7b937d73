// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2021-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stakescript

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrNotCoinstake is returned when the staker branch of a vault script
	// is taken by a transaction that is not a coinstake while
	// ScriptRequireCoinstake is set.
	ErrNotCoinstake = errors.New("OP_REQUIRE_COINSTAKE in a non-coinstake transaction")

	// ErrSigScriptMismatch is returned when the signature script passed in
	// does not belong to the input named by the signature context.
	ErrSigScriptMismatch = errors.New("signature script does not match the transaction input")
)

// SigContext binds a script verification to a specific transaction input.
type SigContext struct {
	// Tx is the spending transaction.
	Tx *wire.MsgTx

	// InputIndex is the index of the input being verified.
	InputIndex int

	// Amount is the value of the output being spent.
	Amount int64

	// PrevOuts resolves the outputs spent by every input of Tx.  When nil
	// only the verified input is known.
	PrevOuts txscript.PrevOutputFetcher
}

// Verifier verifies coinstake input scripts on top of the txscript engine.  It
// is safe for concurrent use.
type Verifier struct {
	sigCache *txscript.SigCache
}

// NewVerifier returns a verifier that caches up to sigCacheSize verified
// signatures.
func NewVerifier(sigCacheSize uint) *Verifier {
	return &Verifier{sigCache: txscript.NewSigCache(sigCacheSize)}
}

// VerifyScript executes sigScript against pkScript under the given flags for
// the input described by ctx.
func (v *Verifier) VerifyScript(sigScript, pkScript []byte, flags ScriptFlags, ctx SigContext) error {
	tx := ctx.Tx
	if tx == nil || ctx.InputIndex < 0 || ctx.InputIndex >= len(tx.TxIn) {
		return fmt.Errorf("input index %d out of range", ctx.InputIndex)
	}
	if !bytes.Equal(tx.TxIn[ctx.InputIndex].SignatureScript, sigScript) {
		return ErrSigScriptMismatch
	}

	if flags&ScriptRequireCoinstake != 0 && IsStakingVaultScript(pkScript) &&
		selectsStakerPath(sigScript) && !IsCoinStake(tx) {

		log.Debugf("Rejecting staker spend of vault script by %v", tx.TxHash())
		return ErrNotCoinstake
	}

	prevOuts := ctx.PrevOuts
	if prevOuts == nil {
		prevOuts = txscript.NewCannedPrevOutputFetcher(pkScript, ctx.Amount)
	}
	sigHashes := txscript.NewTxSigHashes(tx, prevOuts)

	vm, err := txscript.NewEngine(pkScript, tx, ctx.InputIndex,
		flags.engineFlags(), v.sigCache, sigHashes, ctx.Amount, prevOuts)
	if err != nil {
		return err
	}
	if err := vm.Execute(); err != nil {
		log.Tracef("Script verification of %v:%d failed with flags %v: %v",
			tx.TxHash(), ctx.InputIndex, flags, err)
		return err
	}
	return nil
}
