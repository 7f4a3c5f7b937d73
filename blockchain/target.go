// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "math/big"

// CompactToBig expands the compact target encoding of a block header.  The
// high byte is a base 256 exponent and the low 23 bits the mantissa, so the
// target is mantissa * 256^(exponent-3).
//
// Targets are unsigned, so the sign bit of the encoding is ignored.
func CompactToBig(compact uint32) *big.Int {
	mantissa := int64(compact & 0x007fffff)
	exponent := uint(compact >> 24)

	if exponent <= 3 {
		return big.NewInt(mantissa >> (8 * (3 - exponent)))
	}
	target := big.NewInt(mantissa)
	return target.Lsh(target, 8*(exponent-3))
}
