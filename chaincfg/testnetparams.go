// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"
)

// TestNetParams defines the network parameters for the test network.
var TestNetParams = Params{
	Name: "testnet",
	Net:  0x788da0df,

	// Chain parameters
	GenesisBlock: &testNetGenesisBlock,
	GenesisHash:  &testNetGenesisHash,
	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1e0fffff,

	// Stake modifier parameters
	StakeTargetSpacing:    60,
	ModifierInterval:      60,
	ModifierIntervalRatio: 3,
	FirstStakeModifier:    0x7374616b656d6f64,

	// Kernel parameters
	StakeMinAge:             60 * 60,
	StakeMaxAge:             60 * 60 * 24 * 7,
	MaxKernelCombinedInputs: 20,
	VaultMinSplitValue:      10000 * Coin,

	// The test network has no stake modifier checkpoints.
	StakeModifierCheckpoints:      map[int32]uint32{},
	StakeModifierCheckpointPolicy: CheckpointStrict,

	ForkActivationTimes: map[Fork]time.Time{
		ForkStakingVaults: time.Unix(1591798387, 0),
	},
}

// RegressionNetParams defines the network parameters for the regression test
// network.  Not to be confused with the test network, this network is
// sometimes simply called "regtest".
var RegressionNetParams = Params{
	Name: "regtest",
	Net:  0xac7ecfa1,

	// Chain parameters
	GenesisBlock: &regTestGenesisBlock,
	GenesisHash:  &regTestGenesisHash,
	PowLimit:     regressionPowLimit,
	PowLimitBits: 0x207fffff,

	// Stake modifier parameters
	StakeTargetSpacing:    60,
	ModifierInterval:      60,
	ModifierIntervalRatio: 3,
	FirstStakeModifier:    0x7374616b656d6f64,

	// Kernel parameters
	StakeMinAge:             0,
	StakeMaxAge:             60 * 60 * 24 * 7,
	MaxKernelCombinedInputs: 20,
	VaultMinSplitValue:      10000 * Coin,

	StakeModifierCheckpoints:      map[int32]uint32{},
	StakeModifierCheckpointPolicy: CheckpointStrict,

	// Every fork is active from genesis on the regression test network.
	ForkActivationTimes: map[Fork]time.Time{
		ForkStakingVaults: time.Unix(0, 0),
	},
}
