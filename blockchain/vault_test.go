// Copyright (c) 2021-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/TheGreat22/Divi/blockchain/stakescript"
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

const coin = chaincfg.Coin

func testVaultScript(t *testing.T, owner, staker []byte) []byte {
	t.Helper()
	script, err := stakescript.NewStakingVaultScript(owner, staker)
	require.NoError(t, err)
	return script
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1.23456789 DIVI", FormatAmount(123456789))
	require.Equal(t, "10000.00000000 DIVI", FormatAmount(10000*coin))
	require.Equal(t, "0.00000001 DIVI", FormatAmount(1))
}

func TestBlockRewardsTotal(t *testing.T) {
	rewards := BlockRewards{
		StakeReward:      1,
		MasternodeReward: 2,
		TreasuryReward:   4,
		CharityReward:    8,
		LotteryReward:    16,
		ProposalsReward:  32,
	}
	require.EqualValues(t, 63, rewards.Total())
}

func TestCheckCoinstakeForVaults(t *testing.T) {
	params := regtestParams()
	vault := testVaultScript(t, make([]byte, 20), append(make([]byte, 19), 1))
	otherVault := testVaultScript(t, append(make([]byte, 19), 2), make([]byte, 20))
	plain := []byte{txscript.OP_TRUE}
	rewards := BlockRewards{StakeReward: coin, MasternodeReward: 5 * coin}

	tests := []struct {
		name    string
		inputs  []*wire.TxOut
		outputs []*wire.TxOut
		code    ErrorCode
		assert  bool
		ok      bool
	}{{
		name:    "non-vault coinstake",
		inputs:  []*wire.TxOut{{Value: 100 * coin, PkScript: plain}},
		outputs: []*wire.TxOut{{Value: 1, PkScript: plain}},
		ok:      true,
	}, {
		name:    "reward paid back to the vault",
		inputs:  []*wire.TxOut{{Value: 19999 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{{Value: 20000 * coin, PkScript: vault}},
		ok:      true,
	}, {
		name:   "reward split into two outputs of the minimum",
		inputs: []*wire.TxOut{{Value: 19999 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{
			{Value: 10000 * coin, PkScript: vault},
			{Value: 10000 * coin, PkScript: vault},
		},
		ok: true,
	}, {
		name:   "split output below the minimum",
		inputs: []*wire.TxOut{{Value: 19999 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{
			{Value: 10001 * coin, PkScript: vault},
			{Value: 9999 * coin, PkScript: vault},
		},
		code: ErrVaultRewardAmount,
	}, {
		name:   "first output below the minimum",
		inputs: []*wire.TxOut{{Value: 19999 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{
			{Value: 9999 * coin, PkScript: vault},
			{Value: 10001 * coin, PkScript: vault},
		},
		code: ErrVaultRewardAmount,
	}, {
		name:   "split output to another script",
		inputs: []*wire.TxOut{{Value: 19999 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{
			{Value: 10000 * coin, PkScript: vault},
			{Value: 10000 * coin, PkScript: plain},
		},
		code: ErrVaultRewardAmount,
	}, {
		name:   "combined vault inputs",
		inputs: []*wire.TxOut{{Value: 50 * coin, PkScript: vault}, {Value: 50 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{
			{Value: 101 * coin, PkScript: vault},
		},
		ok: true,
	}, {
		name:    "reward short of stake reward",
		inputs:  []*wire.TxOut{{Value: 100 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{{Value: 101*coin - 1, PkScript: vault}},
		code:    ErrVaultRewardAmount,
	}, {
		name:    "reward paid to another script",
		inputs:  []*wire.TxOut{{Value: 100 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{{Value: 101 * coin, PkScript: plain}},
		code:    ErrVaultRewardScript,
	}, {
		name:    "reward paid to another vault",
		inputs:  []*wire.TxOut{{Value: 100 * coin, PkScript: vault}},
		outputs: []*wire.TxOut{{Value: 101 * coin, PkScript: otherVault}},
		code:    ErrVaultRewardScript,
	}, {
		name:    "inputs from two vaults",
		inputs:  []*wire.TxOut{{Value: 100 * coin, PkScript: vault}, {Value: 100 * coin, PkScript: otherVault}},
		outputs: []*wire.TxOut{{Value: 201 * coin, PkScript: vault}},
		assert:  true,
	}}

	for _, test := range tests {
		prevOuts := txscript.NewMultiPrevOutFetcher(nil)
		ops := make([]wire.OutPoint, len(test.inputs))
		for i, in := range test.inputs {
			ops[i] = wire.OutPoint{Hash: chainhash.Hash{byte(i + 1)}, Index: uint32(i)}
			prevOuts.AddPrevOut(ops[i], in)
		}
		tx := coinstakeTx(ops, test.outputs...)

		err := CheckCoinstakeForVaults(tx, rewards, prevOuts, params)
		switch {
		case test.ok:
			require.NoError(t, err, test.name)
		case test.assert:
			var assertErr AssertError
			require.ErrorAs(t, err, &assertErr, test.name)
		default:
			require.True(t, IsErrorCode(err, test.code), "%s: got %v", test.name, err)
			require.True(t, IsErrorKind(err, RuleViolation), test.name)
		}
	}
}

func TestCheckCoinstakeForVaultsShape(t *testing.T) {
	params := regtestParams()
	prevOuts := txscript.NewMultiPrevOutFetcher(nil)

	notCoinstake := wire.NewMsgTx(1)
	notCoinstake.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.Hash{1}}, nil, nil))
	notCoinstake.AddTxOut(wire.NewTxOut(coin, []byte{txscript.OP_TRUE}))
	err := CheckCoinstakeForVaults(notCoinstake, BlockRewards{}, prevOuts, params)
	require.True(t, IsErrorCode(err, ErrNoCoinstake), "got %v", err)
	require.True(t, IsErrorKind(err, MalformedInput))

	unknown := coinstakeTx([]wire.OutPoint{{Hash: chainhash.Hash{2}}},
		wire.NewTxOut(coin, []byte{txscript.OP_TRUE}))
	err = CheckCoinstakeForVaults(unknown, BlockRewards{}, prevOuts, params)
	require.True(t, IsErrorCode(err, ErrMissingTxOut), "got %v", err)
}

// TestConnectVaultStake stakes a vault output through the staker path and
// checks the reward rules are enforced on connection.
func TestConnectVaultStake(t *testing.T) {
	rewards := BlockRewards{StakeReward: 2 * coin, MasternodeReward: coin}
	h := newTestHarness(t, regtestParams(), func(cfg *Config) {
		cfg.ExpectedRewards = func(int32) BlockRewards { return rewards }
	})

	owner, staker := newKey(t), newKey(t)
	vault := testVaultScript(t,
		btcutil.Hash160(owner.PubKey().SerializeCompressed()),
		btcutil.Hash160(staker.PubKey().SerializeCompressed()))
	f := h.fund(staker, vault, 20000*coin, 20000*coin)
	h.advance(h.matureBlocks())

	stake := func(out *wire.TxOut) *wire.MsgBlock {
		coinstake := coinstakeTx([]wire.OutPoint{f.outPoint(0)}, out)
		signInput(t, coinstake, 0, vault, staker, txscript.OP_0)
		return h.coinstakeBlock(coinstake, alwaysHitBits)
	}

	// Paying the reward elsewhere is rejected.
	block := stake(wire.NewTxOut(20002*coin, payToPubKeyHash(t, staker)))
	h.store.addBlock(block)
	_, err := h.chain.ConnectBlock(block)
	require.True(t, IsErrorCode(err, ErrVaultRewardScript), "got %v", err)

	tx := block.Transactions[1]
	err = h.chain.CheckCoinstakeForVaults(tx, rewards)
	require.True(t, IsErrorCode(err, ErrVaultRewardScript), "got %v", err)

	// Paying it back to the vault is accepted.
	info := h.connect(stake(wire.NewTxOut(20002*coin, vault)))
	require.True(t, info.ProofOfStake)

	// Only coinstakes are checked.
	err = h.chain.CheckCoinstakeForVaults(f.funding, rewards)
	require.True(t, IsErrorCode(err, ErrNoCoinstake), "got %v", err)
}

// TestConnectVaultStakeZeroReward ensures a zero stake reward still binds vault
// coinstakes to their vault script and input value.
func TestConnectVaultStakeZeroReward(t *testing.T) {
	h := newTestHarness(t, regtestParams(), func(cfg *Config) {
		cfg.ExpectedRewards = func(int32) BlockRewards { return BlockRewards{} }
	})

	owner, staker := newKey(t), newKey(t)
	vault := testVaultScript(t,
		btcutil.Hash160(owner.PubKey().SerializeCompressed()),
		btcutil.Hash160(staker.PubKey().SerializeCompressed()))
	f := h.fund(staker, vault, 20000*coin)
	h.advance(h.matureBlocks())

	stake := func(out *wire.TxOut) *wire.MsgBlock {
		coinstake := coinstakeTx([]wire.OutPoint{f.outPoint(0)}, out)
		signInput(t, coinstake, 0, vault, staker, txscript.OP_0)
		return h.coinstakeBlock(coinstake, alwaysHitBits)
	}

	block := stake(wire.NewTxOut(20000*coin, payToPubKeyHash(t, staker)))
	h.store.addBlock(block)
	_, err := h.chain.ConnectBlock(block)
	require.True(t, IsErrorCode(err, ErrVaultRewardScript), "got %v", err)

	block = stake(wire.NewTxOut(19999*coin, vault))
	h.store.addBlock(block)
	_, err = h.chain.ConnectBlock(block)
	require.True(t, IsErrorCode(err, ErrVaultRewardAmount), "got %v", err)

	info := h.connect(stake(wire.NewTxOut(20000*coin, vault)))
	require.True(t, info.ProofOfStake)
}
