// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

func TestSupportedSubsystems(t *testing.T) {
	require.Equal(t, []string{"BCDB", "CHAN", "SCRP", "SVFY"}, SupportedSubsystems())
}

func TestSetLogLevels(t *testing.T) {
	defer SetLogLevels("info")

	SetLogLevels("debug")
	for id, logger := range SubsystemLoggers {
		require.Equal(t, btclog.LevelDebug, logger.Level(), id)
	}

	SetLogLevel("CHAN", "trace")
	require.Equal(t, btclog.LevelTrace, chanLog.Level())
	require.Equal(t, btclog.LevelDebug, bcdbLog.Level())

	// Unknown subsystems are ignored and unknown levels fall back to info.
	SetLogLevel("NOPE", "trace")
	SetLogLevel("SCRP", "loud")
	require.Equal(t, btclog.LevelInfo, scrpLog.Level())
}

func TestInitLogRotator(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "stakeverify.log")
	require.NoError(t, InitLogRotator(logFile))
	defer func() {
		LogRotator.Close()
		LogRotator = nil
	}()

	_, err := os.Stat(filepath.Dir(logFile))
	require.NoError(t, err)
}

func TestPickNoun(t *testing.T) {
	require.Equal(t, "block", PickNoun(1, "block", "blocks"))
	require.Equal(t, "blocks", PickNoun(0, "block", "blocks"))
	require.Equal(t, "blocks", PickNoun(2, "block", "blocks"))
}

func TestParseAndSetDebugLevels(t *testing.T) {
	defer SetLogLevels("info")

	require.NoError(t, ParseAndSetDebugLevels("warn"))
	require.Equal(t, btclog.LevelWarn, SvfyLog.Level())

	require.NoError(t, ParseAndSetDebugLevels("CHAN=trace,BCDB=error"))
	require.Equal(t, btclog.LevelTrace, chanLog.Level())
	require.Equal(t, btclog.LevelError, bcdbLog.Level())
	require.Equal(t, btclog.LevelWarn, scrpLog.Level())

	for _, bad := range []string{"loud", "CHAN=loud", "NOPE=info", "CHAN", "CHAN=info=x", "CHAN=info,"} {
		require.Error(t, ParseAndSetDebugLevels(bad), bad)
	}
}
