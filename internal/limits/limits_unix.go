// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build unix

// Package limits raises process resource limits needed by the storage
// engines.
package limits

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	fileLimitWant = 2048
	fileLimitMin  = 1024
)

// SetLimits raises the open file limit to fileLimitWant, or as close to it
// as the hard limit allows, failing when fewer than fileLimitMin descriptors
// are available.
func SetLimits() error {
	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return errors.Wrap(err, "getrlimit")
	}
	if rLimit.Cur > fileLimitWant {
		return nil
	}
	if rLimit.Max < fileLimitMin {
		return errors.Errorf("need at least %v file descriptors", fileLimitMin)
	}
	if rLimit.Max < fileLimitWant {
		rLimit.Cur = rLimit.Max
	} else {
		rLimit.Cur = fileLimitWant
	}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		// try min value
		rLimit.Cur = fileLimitMin
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
			return errors.Wrap(err, "setrlimit")
		}
	}
	return nil
}
