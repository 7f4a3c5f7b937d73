// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"errors"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Coin is the number of base units in one coin.
const Coin int64 = 100000000

// These variables are the chain proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int.  It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value a block can have for
	// the main network.  It is the value 2^236 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	// regressionPowLimit is the highest proof of work value a block can
	// have for the regression test network.  It is the value 2^255 - 1.
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// Fork identifies a protocol upgrade whose activation changes consensus
// behaviour.
type Fork int

const (
	// ForkStakingVaults enables OP_REQUIRE_COINSTAKE semantics and lifts
	// the discouragement of upgradable NOPs in coinstake script checks.
	ForkStakingVaults Fork = iota

	// numForks is the number of known forks.  It must be the last entry.
	numForks
)

// forkStrings maps forks back to their names for pretty printing.
var forkStrings = map[Fork]string{
	ForkStakingVaults: "StakingVaults",
}

// String returns the fork as a human-readable name.
func (f Fork) String() string {
	if s, ok := forkStrings[f]; ok {
		return s
	}
	return "UnknownFork"
}

// CheckpointPolicy selects how a stake modifier checksum that disagrees with a
// hard checkpoint is handled when a new block index entry is connected.
type CheckpointPolicy uint8

const (
	// CheckpointLenient logs the mismatch and keeps the entry.  This is
	// the historical behaviour of the network and is required to validate
	// the existing chain bit for bit.
	CheckpointLenient CheckpointPolicy = iota

	// CheckpointStrict rejects the entry with a consensus mismatch error.
	CheckpointStrict
)

// String returns the policy as a human-readable name.
func (p CheckpointPolicy) String() string {
	switch p {
	case CheckpointLenient:
		return "lenient"
	case CheckpointStrict:
		return "strict"
	}
	return "unknown"
}

// Params defines a network by its parameters.  These parameters may be used by
// applications to differentiate networks as well as addresses and keys for one
// network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.BitcoinNet

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is the starting block hash.
	GenesisHash *chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// StakeTargetSpacing is the desired number of seconds between blocks.
	// It only sizes the candidate buffer of the stake modifier selection.
	StakeTargetSpacing int64

	// ModifierInterval is the length in seconds of the time bucket within
	// which the stake modifier may change at most once.
	ModifierInterval int64

	// ModifierIntervalRatio controls how strongly the early selection
	// rounds are biased toward recent candidate blocks.
	ModifierIntervalRatio int64

	// FirstStakeModifier is the modifier assigned to the block at height 1.
	FirstStakeModifier uint64

	// StakeMinAge is the minimum age in seconds a coin must reach before
	// it can be staked.
	StakeMinAge int64

	// StakeMaxAge caps the coin age in seconds that contributes weight to
	// a kernel.
	StakeMaxAge int64

	// MaxKernelCombinedInputs is the maximum number of inputs a coinstake
	// may combine into a single kernel.
	MaxKernelCombinedInputs int

	// VaultMinSplitValue is the minimum value each of the two outputs must
	// carry when a vault stake reward is split.
	VaultMinSplitValue int64

	// StakeModifierCheckpoints maps heights to the expected stake modifier
	// checksum at that height.
	StakeModifierCheckpoints map[int32]uint32

	// StakeModifierCheckpointPolicy decides whether a checkpoint mismatch
	// is only reported or rejects the block index entry.
	StakeModifierCheckpointPolicy CheckpointPolicy

	// ForkActivationTimes maps each fork to the block timestamp from which
	// it is active.  Forks missing from the map are never active.
	ForkActivationTimes map[Fork]time.Time
}

// IsForkActive returns whether the fork is active for a block with the given
// timestamp.
func (p *Params) IsForkActive(fork Fork, blockTime time.Time) bool {
	activation, ok := p.ForkActivationTimes[fork]
	if !ok {
		return false
	}
	return !blockTime.Before(activation)
}

// StakeModifierCheckpoint returns the registered stake modifier checksum for
// the height, if any.
func (p *Params) StakeModifierCheckpoint(height int32) (uint32, bool) {
	checksum, ok := p.StakeModifierCheckpoints[height]
	return checksum, ok
}

var (
	// ErrDuplicateNet describes an error where the parameters for a network
	// could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes an error where the parameters for a network
	// could not be found.
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = make(map[wire.BitcoinNet]*Params)

// Register registers the network parameters for a network.  This may error
// with ErrDuplicateNet if the network is already registered (either due to a
// previous Register call, or the network being one of the default networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Net] = params
	return nil
}

// ParamsForNet returns the registered parameters for the network.
func ParamsForNet(net wire.BitcoinNet) (*Params, error) {
	params, ok := registeredNets[net]
	if !ok {
		return nil, ErrUnknownNet
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if
// there is an error.  This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&TestNetParams)
	mustRegister(&RegressionNetParams)
}
