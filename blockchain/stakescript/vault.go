// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2021-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stakescript

import (
	"bytes"
	"errors"

	"github.com/btcsuite/btcd/txscript"
)

// OP_REQUIRE_COINSTAKE reuses OP_NOP10.  Once the staking vault fork is
// active it fails script execution unless the spending transaction is a
// coinstake.
const OP_REQUIRE_COINSTAKE = txscript.OP_NOP10

// vaultScriptLen is the length of a staking vault script:
//
//	OP_IF <20 byte owner hash>
//	OP_ELSE OP_REQUIRE_COINSTAKE <20 byte staker hash>
//	OP_ENDIF OP_OVER OP_HASH160 OP_EQUALVERIFY OP_CHECKSIG
const vaultScriptLen = 1 + 21 + 1 + 1 + 21 + 1 + 4

// ErrBadKeyHash is returned when a vault script is requested for a key hash
// that is not exactly 20 bytes.
var ErrBadKeyHash = errors.New("key hash must be 20 bytes")

// StakingVault describes the two parties of a staking vault script.  The
// owner may spend the coins in any transaction while the staker may only spend
// them in a coinstake.
type StakingVault struct {
	OwnerKeyHash  []byte
	StakerKeyHash []byte
}

// NewStakingVaultScript returns the vault script for the given owner and
// staker public key hashes.
func NewStakingVaultScript(ownerKeyHash, stakerKeyHash []byte) ([]byte, error) {
	if len(ownerKeyHash) != 20 || len(stakerKeyHash) != 20 {
		return nil, ErrBadKeyHash
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_IF).
		AddData(ownerKeyHash).
		AddOp(txscript.OP_ELSE).
		AddOp(OP_REQUIRE_COINSTAKE).
		AddData(stakerKeyHash).
		AddOp(txscript.OP_ENDIF).
		AddOp(txscript.OP_OVER).
		AddOp(txscript.OP_HASH160).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// ParseStakingVaultScript returns the parties of a vault script.  The second
// return value is false when the script does not match the template.
func ParseStakingVaultScript(script []byte) (*StakingVault, bool) {
	if len(script) != vaultScriptLen {
		return nil, false
	}

	expected := []byte{txscript.OP_IF, txscript.OP_DATA_20}
	if !bytes.HasPrefix(script, expected) {
		return nil, false
	}
	tail := script[22:]
	if tail[0] != txscript.OP_ELSE || tail[1] != OP_REQUIRE_COINSTAKE ||
		tail[2] != txscript.OP_DATA_20 {
		return nil, false
	}
	if !bytes.Equal(tail[23:], []byte{txscript.OP_ENDIF, txscript.OP_OVER,
		txscript.OP_HASH160, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG}) {
		return nil, false
	}

	return &StakingVault{
		OwnerKeyHash:  append([]byte(nil), script[2:22]...),
		StakerKeyHash: append([]byte(nil), tail[3:23]...),
	}, true
}

// IsStakingVaultScript returns whether the script is a staking vault script.
func IsStakingVaultScript(script []byte) bool {
	_, ok := ParseStakingVaultScript(script)
	return ok
}

// selectsStakerPath returns whether a signature script spending a vault
// script takes the staker branch, which is the case when its final push is
// false.
func selectsStakerPath(sigScript []byte) bool {
	var last []byte
	var pushes int
	tokenizer := txscript.MakeScriptTokenizer(0, sigScript)
	for tokenizer.Next() {
		pushes++
		switch op := tokenizer.Opcode(); {
		case op == txscript.OP_0:
			last = nil
		case op >= txscript.OP_1 && op <= txscript.OP_16:
			last = []byte{op - txscript.OP_1 + 1}
		case op == txscript.OP_1NEGATE:
			last = []byte{0x81}
		default:
			last = tokenizer.Data()
		}
	}
	if tokenizer.Err() != nil || pushes == 0 {
		return false
	}

	return !castToBool(last)
}

// castToBool mirrors the script engine conversion of stack items to booleans.
func castToBool(v []byte) bool {
	for i := range v {
		if v[i] != 0 {
			// Negative 0 is also considered false.
			if i == len(v)-1 && v[i] == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}
