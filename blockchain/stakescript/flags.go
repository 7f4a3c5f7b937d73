// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2021-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stakescript

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/txscript"
)

// ScriptFlags is a bitmask defining the checks performed when verifying a
// coinstake input script.
type ScriptFlags uint32

const (
	// ScriptVerifyStrictEncoding requires signatures and public keys to be
	// strictly encoded.
	ScriptVerifyStrictEncoding ScriptFlags = 1 << iota

	// ScriptVerifyDERSignatures requires strict DER signatures.
	ScriptVerifyDERSignatures

	// ScriptVerifyLowS requires signatures to use the low S value.
	ScriptVerifyLowS

	// ScriptDiscourageUpgradableNops fails execution of any reserved NOP,
	// including OP_REQUIRE_COINSTAKE.
	ScriptDiscourageUpgradableNops

	// ScriptVerifyCheckLockTimeVerify enables OP_CHECKLOCKTIMEVERIFY.
	ScriptVerifyCheckLockTimeVerify

	// ScriptRequireCoinstake gives OP_REQUIRE_COINSTAKE its meaning: the
	// staker branch of a vault script only verifies inside a coinstake.
	ScriptRequireCoinstake
)

// POSScriptVerifyFlags are the flags used when verifying the kernel input of
// a coinstake after the staking vault fork.
const POSScriptVerifyFlags = ScriptVerifyStrictEncoding |
	ScriptVerifyDERSignatures |
	ScriptVerifyLowS |
	ScriptVerifyCheckLockTimeVerify |
	ScriptRequireCoinstake

// PreVaultForkFlags returns the flag set in force before the staking vault
// fork: OP_REQUIRE_COINSTAKE has no meaning and upgradable NOPs are rejected.
func PreVaultForkFlags(flags ScriptFlags) ScriptFlags {
	return (flags &^ ScriptRequireCoinstake) | ScriptDiscourageUpgradableNops
}

var flagStrings = []struct {
	flag ScriptFlags
	name string
}{
	{ScriptVerifyStrictEncoding, "STRICTENC"},
	{ScriptVerifyDERSignatures, "DERSIG"},
	{ScriptVerifyLowS, "LOW_S"},
	{ScriptDiscourageUpgradableNops, "DISCOURAGE_UPGRADABLE_NOPS"},
	{ScriptVerifyCheckLockTimeVerify, "CHECKLOCKTIMEVERIFY"},
	{ScriptRequireCoinstake, "REQUIRE_COINSTAKE"},
}

// String returns the flag set as a comma separated list of names.
func (f ScriptFlags) String() string {
	var names []string
	for _, fs := range flagStrings {
		if f&fs.flag != 0 {
			names = append(names, fs.name)
			f &^= fs.flag
		}
	}
	if f != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(f)))
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, ",")
}

// engineFlags translates the flag set into the flags understood by the
// script engine.  ScriptRequireCoinstake has no engine counterpart and is
// enforced by the Verifier itself.
func (f ScriptFlags) engineFlags() txscript.ScriptFlags {
	var flags txscript.ScriptFlags
	if f&ScriptVerifyStrictEncoding != 0 {
		flags |= txscript.ScriptVerifyStrictEncoding
	}
	if f&ScriptVerifyDERSignatures != 0 {
		flags |= txscript.ScriptVerifyDERSignatures
	}
	if f&ScriptVerifyLowS != 0 {
		flags |= txscript.ScriptVerifyLowS
	}
	if f&ScriptDiscourageUpgradableNops != 0 {
		flags |= txscript.ScriptDiscourageUpgradableNops
	}
	if f&ScriptVerifyCheckLockTimeVerify != 0 {
		flags |= txscript.ScriptVerifyCheckLockTimeVerify
	}
	return flags
}
