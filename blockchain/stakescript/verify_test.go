// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2021-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stakescript

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

const testAmount = 5000 * 1e8

func newKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key
}

func payToPubKeyHash(t *testing.T, key *btcec.PrivateKey) []byte {
	t.Helper()
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(key.PubKey().SerializeCompressed())).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)
	return script
}

func vaultScript(t *testing.T, owner, staker *btcec.PrivateKey) []byte {
	t.Helper()
	script, err := NewStakingVaultScript(
		btcutil.Hash160(owner.PubKey().SerializeCompressed()),
		btcutil.Hash160(staker.PubKey().SerializeCompressed()))
	require.NoError(t, err)
	return script
}

// spendingTx returns a transaction spending a single output.  When coinstake
// is set the outputs follow the coinstake marker layout.
func spendingTx(coinstake bool, payTo []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{0x01}, 0), nil, nil))
	if coinstake {
		tx.AddTxOut(wire.NewTxOut(0, nil))
	}
	tx.AddTxOut(wire.NewTxOut(testAmount, payTo))
	return tx
}

// sign fills in the signature script of input 0, appending the selector when
// one is given.
func sign(t *testing.T, tx *wire.MsgTx, pkScript []byte, key *btcec.PrivateKey, selector ...byte) {
	t.Helper()
	sig, err := txscript.RawTxInSignature(tx, 0, pkScript, txscript.SigHashAll, key)
	require.NoError(t, err)

	builder := txscript.NewScriptBuilder().
		AddData(sig).
		AddData(key.PubKey().SerializeCompressed())
	for _, op := range selector {
		builder.AddOp(op)
	}
	sigScript, err := builder.Script()
	require.NoError(t, err)
	tx.TxIn[0].SignatureScript = sigScript
}

func verify(v *Verifier, tx *wire.MsgTx, pkScript []byte, flags ScriptFlags) error {
	return v.VerifyScript(tx.TxIn[0].SignatureScript, pkScript, flags, SigContext{
		Tx:       tx,
		Amount:   testAmount,
		PrevOuts: txscript.NewCannedPrevOutputFetcher(pkScript, testAmount),
	})
}

func TestVerifyPayToPubKeyHash(t *testing.T) {
	key := newKey(t)
	pkScript := payToPubKeyHash(t, key)
	v := NewVerifier(100)

	tx := spendingTx(true, pkScript)
	sign(t, tx, pkScript, key)
	require.NoError(t, verify(v, tx, pkScript, POSScriptVerifyFlags))
	require.NoError(t, verify(v, tx, pkScript, PreVaultForkFlags(POSScriptVerifyFlags)))

	// A signature from another key must not verify.
	other := spendingTx(true, pkScript)
	sign(t, other, pkScript, newKey(t))
	require.Error(t, verify(v, other, pkScript, POSScriptVerifyFlags))

	// Tampering with the outputs invalidates the signature.
	tx.TxOut[1].Value--
	require.Error(t, verify(v, tx, pkScript, POSScriptVerifyFlags))
}

func TestVerifyStakingVault(t *testing.T) {
	owner, staker := newKey(t), newKey(t)
	pkScript := vaultScript(t, owner, staker)
	v := NewVerifier(100)

	tests := []struct {
		name      string
		coinstake bool
		key       *btcec.PrivateKey
		selector  byte
		flags     ScriptFlags
		wantErr   error
		fails     bool
	}{{
		name:      "staker in coinstake after fork",
		coinstake: true,
		key:       staker,
		selector:  txscript.OP_0,
		flags:     POSScriptVerifyFlags,
	}, {
		name:     "staker outside coinstake after fork",
		key:      staker,
		selector: txscript.OP_0,
		flags:    POSScriptVerifyFlags,
		wantErr:  ErrNotCoinstake,
		fails:    true,
	}, {
		name:      "staker in coinstake before fork",
		coinstake: true,
		key:       staker,
		selector:  txscript.OP_0,
		flags:     PreVaultForkFlags(POSScriptVerifyFlags),
		fails:     true,
	}, {
		name:     "owner outside coinstake after fork",
		key:      owner,
		selector: txscript.OP_1,
		flags:    POSScriptVerifyFlags,
	}, {
		name:      "owner in coinstake before fork",
		coinstake: true,
		key:       owner,
		selector:  txscript.OP_1,
		flags:     PreVaultForkFlags(POSScriptVerifyFlags),
	}, {
		name:      "staker key on owner branch",
		coinstake: true,
		key:       staker,
		selector:  txscript.OP_1,
		flags:     POSScriptVerifyFlags,
		fails:     true,
	}}

	for _, test := range tests {
		tx := spendingTx(test.coinstake, pkScript)
		sign(t, tx, pkScript, test.key, test.selector)
		err := verify(v, tx, pkScript, test.flags)
		if !test.fails {
			require.NoError(t, err, test.name)
			continue
		}
		require.Error(t, err, test.name)
		if test.wantErr != nil {
			require.ErrorIs(t, err, test.wantErr, test.name)
		}
	}
}

func TestVerifySigScriptMismatch(t *testing.T) {
	key := newKey(t)
	pkScript := payToPubKeyHash(t, key)
	tx := spendingTx(true, pkScript)
	sign(t, tx, pkScript, key)

	v := NewVerifier(0)
	err := v.VerifyScript([]byte{txscript.OP_1}, pkScript, POSScriptVerifyFlags,
		SigContext{Tx: tx, Amount: testAmount})
	require.ErrorIs(t, err, ErrSigScriptMismatch)

	err = v.VerifyScript(tx.TxIn[0].SignatureScript, pkScript, POSScriptVerifyFlags,
		SigContext{Tx: tx, InputIndex: 3})
	require.Error(t, err)

	// Without a fetcher the verified input alone is enough for a legacy
	// signature hash.
	err = v.VerifyScript(tx.TxIn[0].SignatureScript, pkScript, POSScriptVerifyFlags,
		SigContext{Tx: tx, Amount: testAmount})
	require.NoError(t, err)
}
