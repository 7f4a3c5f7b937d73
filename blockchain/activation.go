// Copyright (c) 2021-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// timeActivation activates forks by block timestamp using the activation
// times of the network parameters.
type timeActivation struct {
	params *chaincfg.Params
}

// NewTimeActivation returns an ActivationState driven by the fork activation
// times of the given network.
func NewTimeActivation(params *chaincfg.Params) ActivationState {
	return &timeActivation{params: params}
}

// IsActive returns whether the fork is active for the block with the given
// header.
//
// This is part of the ActivationState interface.
func (a *timeActivation) IsActive(header *wire.BlockHeader, fork chaincfg.Fork) bool {
	return a.params.IsForkActive(fork, header.Timestamp)
}
