// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"
)

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name: "mainnet",
	Net:  0x8f8da0df,

	// Chain parameters
	GenesisBlock: &genesisBlock,
	GenesisHash:  &genesisHash,
	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1e0fffff,

	// Stake modifier parameters
	StakeTargetSpacing:    60,
	ModifierInterval:      60,
	ModifierIntervalRatio: 3,
	FirstStakeModifier:    0x7374616b656d6f64, // "stakemod"

	// Kernel parameters
	StakeMinAge:             60 * 60,
	StakeMaxAge:             60 * 60 * 24 * 7,
	MaxKernelCombinedInputs: 20,
	VaultMinSplitValue:      10000 * Coin,

	StakeModifierCheckpoints: map[int32]uint32{
		0: 0xfd11f4e7,
	},
	StakeModifierCheckpointPolicy: CheckpointLenient,

	ForkActivationTimes: map[Fork]time.Time{
		ForkStakingVaults: time.Unix(1617624000, 0), // 2021-04-05 12:00:00 +0000 UTC
	},
}
