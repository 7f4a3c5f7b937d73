// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/TheGreat22/Divi/database"
	_ "github.com/TheGreat22/Divi/database/engine/bboltdb"
	_ "github.com/TheGreat22/Divi/database/engine/leveldb"
	_ "github.com/TheGreat22/Divi/database/engine/pebbledb"
	divilog "github.com/TheGreat22/Divi/internal/log"
	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	defaultDbType      = "leveldb"
	defaultLogLevel    = "info"
	defaultLogFilename = "stakeverify.log"
	defaultProgress    = 10
)

var (
	diviHomeDir    = btcutil.AppDataDir("divi", false)
	defaultDataDir = filepath.Join(diviHomeDir, "data")
	defaultLogDir  = filepath.Join(diviHomeDir, "logs")
	knownDbTypes   = database.SupportedDrivers()
)

// config defines the configuration options for stakeverify.
//
// See loadConfig for details on the configuration load process.
type config struct {
	DataDir           string `short:"b" long:"datadir" description:"Location of the block store"`
	LogDir            string `long:"logdir" description:"Directory to log output"`
	DbType            string `long:"dbtype" description:"Database backend of the block store"`
	InFile            string `short:"i" long:"infile" description:"File of blocks to verify and add to the store -- the stored chain is verified when omitted"`
	Progress          int    `short:"p" long:"progress" description:"Show a progress message each time this number of seconds have passed -- Use 0 to disable progress announcements"`
	RegressionTest    bool   `long:"regtest" description:"Use the regression test network"`
	TestNet           bool   `long:"testnet" description:"Use the test network"`
	StrictCheckpoints bool   `long:"strictcheckpoints" description:"Reject blocks whose stake modifier checksum disagrees with a checkpoint instead of logging a warning"`
	StakeReward       string `long:"stakereward" description:"Stake reward in DIVI that coinstakes spending staking vaults must pay back -- vault rules are not checked when empty"`
	DebugLevel        string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	ShowVersion       bool   `short:"V" long:"version" description:"Display version information and exit"`

	params      *chaincfg.Params
	stakeReward *int64
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(diviHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// parseAmount parses a decimal DIVI amount into its smallest units.
func parseAmount(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errors.Errorf("negative amount %v", amount)
	}
	units := d.Mul(decimal.NewFromInt(chaincfg.Coin))
	if !units.Equal(units.Truncate(0)) {
		return 0, errors.Errorf("amount %v is more precise than the "+
			"smallest unit", amount)
	}
	if units.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, errors.Errorf("amount %v is too large", amount)
	}
	return units.IntPart(), nil
}

// loadConfig initializes and parses the config using the passed command line
// options.
func loadConfig(args []string) (*config, error) {
	// Default config.
	cfg := config{
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DbType:     defaultDbType,
		Progress:   defaultProgress,
		DebugLevel: defaultLogLevel,
	}

	// Parse command line options.
	parser := flags.NewParser(&cfg, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, err
	}
	if cfg.ShowVersion {
		return &cfg, nil
	}

	// Multiple networks can't be selected simultaneously.
	funcName := "loadConfig"
	cfg.params = &chaincfg.MainNetParams
	numNets := 0
	if cfg.TestNet {
		numNets++
		cfg.params = &chaincfg.TestNetParams
	}
	if cfg.RegressionTest {
		numNets++
		cfg.params = &chaincfg.RegressionNetParams
	}
	if numNets > 1 {
		str := "%s: The testnet and regtest params can't be used " +
			"together -- choose one of the two"
		return nil, fmt.Errorf(str, funcName)
	}

	// The checkpoint policy is applied to a private copy so the network
	// defaults stay intact.
	params := *cfg.params
	if cfg.StrictCheckpoints {
		params.StakeModifierCheckpointPolicy = chaincfg.CheckpointStrict
	}
	cfg.params = &params

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "%s: The specified database type [%v] is invalid -- " +
			"supported types %v"
		return nil, fmt.Errorf(str, funcName, cfg.DbType, knownDbTypes)
	}

	if cfg.StakeReward != "" {
		stakeReward, err := parseAmount(cfg.StakeReward)
		if err != nil {
			str := "%s: The specified stake reward [%v] is invalid: %v"
			return nil, fmt.Errorf(str, funcName, cfg.StakeReward, err)
		}
		cfg.stakeReward = &stakeReward
	}

	// Namespace the data and log directories per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), params.Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), params.Name)

	// Special show command to list supported subsystems.
	if cfg.DebugLevel == "show" {
		return &cfg, nil
	}
	if err := divilog.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, fmt.Errorf("%s: %v", funcName, err)
	}

	// Ensure the specified block file exists.
	if cfg.InFile != "" && !fileExists(cfg.InFile) {
		str := "%s: The specified block file [%v] does not exist"
		return nil, fmt.Errorf(str, funcName, cfg.InFile)
	}

	return &cfg, nil
}
