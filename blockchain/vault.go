// Copyright (c) 2021-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"fmt"

	"github.com/TheGreat22/Divi/blockchain/stakescript"
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
)

// BlockRewards holds the amounts a block pays to each reward recipient.
type BlockRewards struct {
	StakeReward      int64
	MasternodeReward int64
	TreasuryReward   int64
	CharityReward    int64
	LotteryReward    int64
	ProposalsReward  int64
}

// Total returns the sum of all rewards.
func (r BlockRewards) Total() int64 {
	return r.StakeReward + r.MasternodeReward + r.TreasuryReward +
		r.CharityReward + r.LotteryReward + r.ProposalsReward
}

// FormatAmount renders an amount in base units as a decimal coin value.
func FormatAmount(amount int64) string {
	return decimal.New(amount, -8).StringFixed(8) + " DIVI"
}

// CheckCoinstakeForVaults enforces the reward rules of coinstakes spending
// staking vault outputs.  The stake reward must be paid back to the vault
// script in the second output, optionally split once into the third output when
// both outputs are worth at least the network's minimum split value.
// Coinstakes not spending a vault output pass unconditionally.
func CheckCoinstakeForVaults(tx *wire.MsgTx, rewards BlockRewards,
	prevOuts txscript.PrevOutputFetcher, params *chaincfg.Params) error {

	txHash := tx.TxHash()
	if !stakescript.IsCoinStake(tx) {
		str := fmt.Sprintf("transaction %v is not a coinstake", txHash)
		return ruleError(ErrNoCoinstake, str)
	}

	var valueIn int64
	var vaultScript []byte
	for i, txIn := range tx.TxIn {
		prevOut := prevOuts.FetchPrevOutput(txIn.PreviousOutPoint)
		if prevOut == nil {
			str := fmt.Sprintf("output %v spent by input %d of %v is "+
				"unknown", txIn.PreviousOutPoint, i, txHash)
			return ruleError(ErrMissingTxOut, str)
		}
		valueIn += prevOut.Value
		if !stakescript.IsStakingVaultScript(prevOut.PkScript) {
			continue
		}

		if vaultScript == nil {
			vaultScript = prevOut.PkScript
			continue
		}
		// Extracting the staking data already ensures all inputs pay
		// to a single script.
		if !bytes.Equal(vaultScript, prevOut.PkScript) {
			str := fmt.Sprintf("coinstake %v spends from more than one "+
				"vault script", txHash)
			return AssertError(str)
		}
	}
	if vaultScript == nil {
		return nil
	}

	rewardOut := tx.TxOut[1]
	if !bytes.Equal(rewardOut.PkScript, vaultScript) {
		str := fmt.Sprintf("coinstake %v does not pay its reward back "+
			"to the vault input script", txHash)
		return ruleError(ErrVaultRewardScript, str)
	}
	actual := rewardOut.Value

	// The reward may be split into two outputs, but not more, provided
	// both carry at least the minimum split value.
	minSplit := params.VaultMinSplitValue
	if len(tx.TxOut) >= 3 {
		splitOut := tx.TxOut[2]
		if actual >= minSplit && splitOut.Value >= minSplit &&
			bytes.Equal(splitOut.PkScript, vaultScript) {

			actual += splitOut.Value
		}
	}

	expected := valueIn + rewards.StakeReward
	if actual < expected {
		str := fmt.Sprintf("coinstake %v expected to pay at least %s back "+
			"to the vault, got only %s (stake reward %s of %s block "+
			"rewards)", txHash, FormatAmount(expected),
			FormatAmount(actual), FormatAmount(rewards.StakeReward),
			FormatAmount(rewards.Total()))
		return ruleError(ErrVaultRewardAmount, str)
	}
	return nil
}
