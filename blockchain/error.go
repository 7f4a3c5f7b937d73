// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
)

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorKind classifies an ErrorCode into the broad class of failure callers
// are expected to branch on.
type ErrorKind int

// These constants identify the error kinds a RuleError can belong to.
const (
	// LookupFailure indicates a referenced block, transaction or ancestor
	// could not be found.  It is typically transient during sync.
	LookupFailure ErrorKind = iota

	// MalformedInput indicates a transaction or block has the wrong shape.
	MalformedInput

	// CryptographicFailure indicates a script or signature check failed.
	CryptographicFailure

	// ConsensusMismatch indicates a stake modifier checksum disagrees with
	// a hard checkpoint.
	ConsensusMismatch

	// RuleViolation indicates a reward amount, script or split constraint
	// was not met.
	RuleViolation
)

var errorKindStrings = map[ErrorKind]string{
	LookupFailure:        "LookupFailure",
	MalformedInput:       "MalformedInput",
	CryptographicFailure: "CryptographicFailure",
	ConsensusMismatch:    "ConsensusMismatch",
	RuleViolation:        "RuleViolation",
}

// String returns the ErrorKind as a human-readable name.
func (k ErrorKind) String() string {
	if s := errorKindStrings[k]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorKind (%d)", int(k))
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrMissingParent indicates that the parent of a block is not in the
	// block index.
	ErrMissingParent ErrorCode = iota

	// ErrMissingAncestor indicates an ancestor referenced while walking
	// the index could not be resolved.
	ErrMissingAncestor

	// ErrMissingTxOut indicates a transaction input references an output
	// that either does not exist or could not be resolved.
	ErrMissingTxOut

	// ErrMissingConfirmingBlock indicates the block that confirmed a staked
	// output is not in the block index or could not be read.
	ErrMissingConfirmingBlock

	// ErrKernelNotYetValid indicates the stake modifier needed to hash a
	// kernel is not yet known.  This happens when the chain has not caught
	// up far enough past the block confirming the staked output.
	ErrKernelNotYetValid

	// ErrNoCoinstake indicates the second transaction of a block that
	// claims to be proof of stake is not a coinstake.
	ErrNoCoinstake

	// ErrTooManyStakeInputs indicates a coinstake combines more inputs
	// than allowed into a single kernel.
	ErrTooManyStakeInputs

	// ErrStakeInputScriptMismatch indicates a secondary coinstake input
	// pays to a different script than the kernel input.
	ErrStakeInputScriptMismatch

	// ErrBadTxOutIndex indicates an input references an output index that
	// is out of range for the referenced transaction.
	ErrBadTxOutIndex

	// ErrDuplicateBlock indicates a block with the same hash already
	// exists in the block index.
	ErrDuplicateBlock

	// ErrUnexpectedGenesis indicates a block without a parent that is not
	// the genesis block of the configured network.
	ErrUnexpectedGenesis

	// ErrCoinstakeScriptFailed indicates the script or signature of the
	// kernel input failed to verify.
	ErrCoinstakeScriptFailed

	// ErrKernelTargetMiss indicates the kernel hash is above the weighted
	// proof-of-stake target.
	ErrKernelTargetMiss

	// ErrKernelTimeViolation indicates the kernel timestamp precedes the
	// confirming block or the staked output is younger than the minimum
	// stake age.
	ErrKernelTimeViolation

	// ErrStakeModifierCheckpoint indicates a stake modifier checksum that
	// disagrees with a hard checkpoint.
	ErrStakeModifierCheckpoint

	// ErrVaultRewardScript indicates a vault stake reward is not paid back
	// to the vault script.
	ErrVaultRewardScript

	// ErrVaultRewardAmount indicates a vault stake reward pays back less
	// than the staked value plus the expected stake reward.
	ErrVaultRewardAmount

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMissingParent:            "ErrMissingParent",
	ErrMissingAncestor:          "ErrMissingAncestor",
	ErrMissingTxOut:             "ErrMissingTxOut",
	ErrMissingConfirmingBlock:   "ErrMissingConfirmingBlock",
	ErrKernelNotYetValid:        "ErrKernelNotYetValid",
	ErrNoCoinstake:              "ErrNoCoinstake",
	ErrTooManyStakeInputs:       "ErrTooManyStakeInputs",
	ErrStakeInputScriptMismatch: "ErrStakeInputScriptMismatch",
	ErrBadTxOutIndex:            "ErrBadTxOutIndex",
	ErrDuplicateBlock:           "ErrDuplicateBlock",
	ErrUnexpectedGenesis:        "ErrUnexpectedGenesis",
	ErrCoinstakeScriptFailed:    "ErrCoinstakeScriptFailed",
	ErrKernelTargetMiss:         "ErrKernelTargetMiss",
	ErrKernelTimeViolation:      "ErrKernelTimeViolation",
	ErrStakeModifierCheckpoint:  "ErrStakeModifierCheckpoint",
	ErrVaultRewardScript:        "ErrVaultRewardScript",
	ErrVaultRewardAmount:        "ErrVaultRewardAmount",
}

// errorCodeKinds maps every ErrorCode to the ErrorKind it belongs to.
var errorCodeKinds = map[ErrorCode]ErrorKind{
	ErrMissingParent:            LookupFailure,
	ErrMissingAncestor:          LookupFailure,
	ErrMissingTxOut:             LookupFailure,
	ErrMissingConfirmingBlock:   LookupFailure,
	ErrKernelNotYetValid:        LookupFailure,
	ErrNoCoinstake:              MalformedInput,
	ErrTooManyStakeInputs:       MalformedInput,
	ErrStakeInputScriptMismatch: MalformedInput,
	ErrBadTxOutIndex:            MalformedInput,
	ErrDuplicateBlock:           MalformedInput,
	ErrUnexpectedGenesis:        MalformedInput,
	ErrCoinstakeScriptFailed:    CryptographicFailure,
	ErrKernelTargetMiss:         CryptographicFailure,
	ErrKernelTimeViolation:      RuleViolation,
	ErrStakeModifierCheckpoint:  ConsensusMismatch,
	ErrVaultRewardScript:        RuleViolation,
	ErrVaultRewardAmount:        RuleViolation,
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Kind returns the class of failure the error code belongs to.
func (e ErrorCode) Kind() ErrorKind {
	return errorCodeKinds[e]
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules.  The caller can use type assertions to determine if a failure was
// specifically due to a rule violation and access the ErrorCode field to
// ascertain the specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
	Err         error     // Underlying cause, if any
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying cause of the rule error.
func (e RuleError) Unwrap() error {
	return e.Err
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// wrapRuleError creates a RuleError that carries the passed cause.
func wrapRuleError(c ErrorCode, desc string, err error) RuleError {
	return RuleError{ErrorCode: c, Description: desc, Err: err}
}

// ErrorKindOf returns the kind of the first RuleError found in the error chain.
// The second return value is false when the chain holds no RuleError.
func ErrorKindOf(err error) (ErrorKind, bool) {
	var rerr RuleError
	if !errors.As(err, &rerr) {
		return 0, false
	}
	return rerr.ErrorCode.Kind(), true
}

// IsErrorKind returns whether the error chain holds a RuleError of the given
// kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	k, ok := ErrorKindOf(err)
	return ok && k == kind
}

// IsErrorCode returns whether the error chain holds a RuleError with the given
// error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var rerr RuleError
	return errors.As(err, &rerr) && rerr.ErrorCode == c
}
