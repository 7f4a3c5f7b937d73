// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// stakeverify replays a stored Divi chain, or imports a file of blocks into
// the store, assigning stake modifiers and checksums and verifying the kernel
// of every proof-of-stake block along the way.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TheGreat22/Divi/blockchain"
	"github.com/TheGreat22/Divi/database"
	"github.com/TheGreat22/Divi/internal/limits"
	divilog "github.com/TheGreat22/Divi/internal/log"
	"github.com/TheGreat22/Divi/internal/version"
)

const (
	// blockDbNamePrefix is the prefix for the block store directory.
	blockDbNamePrefix = "blocks"
)

var log = divilog.SvfyLog

// loadBlockStore opens the block store, creating it when it does not exist
// yet and blocks are about to be imported.
func loadBlockStore(cfg *config) (*database.Store, error) {
	// The database name is based on the database type.
	dbName := blockDbNamePrefix + "_" + cfg.DbType
	dbPath := filepath.Join(cfg.DataDir, dbName)

	log.Infof("Loading block store from '%s'", dbPath)
	if fileExists(dbPath) || cfg.InFile == "" {
		return database.Open(cfg.DbType, dbPath)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, err
	}
	return database.Create(cfg.DbType, dbPath)
}

// logSummary logs the stake state of the best chain.
func logSummary(chain *blockchain.Chain, stats verifyStats) {
	tip := chain.BestSnapshot()
	log.Infof("Verified %d %s (%d proof-of-stake, %d stake %s generated, "+
		"%d checkpoint %s)", stats.blocks,
		divilog.PickNoun(uint64(stats.blocks), "block", "blocks"),
		stats.proofOfStake, stats.modifiers,
		divilog.PickNoun(uint64(stats.modifiers), "modifier", "modifiers"),
		stats.checkpointMismatch,
		divilog.PickNoun(uint64(stats.checkpointMismatch), "mismatch", "mismatches"))
	log.Infof("Best block %v (height %d, %s), stake modifier %016x, "+
		"checksum %08x", tip.Hash, tip.Height, tip.Timestamp,
		tip.StakeModifier, tip.StakeModifierChecksum)
	if side := sideBlockCount(chain); side > 0 {
		log.Infof("%d %s off the best chain", side,
			divilog.PickNoun(uint64(side), "block", "blocks"))
	}
}

// sideBlockCount returns the number of connected blocks that are not on the
// best chain.
func sideBlockCount(chain *blockchain.Chain) int {
	return chain.BlockCount() - int(chain.BestHeight()) - 1
}

// realMain is the real main function for the utility.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func realMain() error {
	// Load configuration and parse command line.
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if cfg.ShowVersion {
		fmt.Printf("stakeverify version %s\n", version.String())
		return nil
	}
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", divilog.SupportedSubsystems())
		return nil
	}

	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	if err := divilog.InitLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer divilog.LogRotator.Close()

	log.Infof("Version %s, network %s, checkpoint policy %s",
		version.String(), cfg.params.Name,
		cfg.params.StakeModifierCheckpointPolicy)

	store, err := loadBlockStore(cfg)
	if err != nil {
		log.Errorf("Failed to load block store: %v", err)
		return err
	}
	defer store.Close()

	chain, err := newChain(cfg.params, store, cfg.stakeReward)
	if err != nil {
		log.Errorf("Failed to create chain: %v", err)
		return err
	}

	start := time.Now()
	stats, err := replayStore(chain, store)
	if err != nil {
		log.Errorf("Failed to verify stored chain: %v", err)
		return err
	}
	log.Infof("Replayed %d stored %s in %s", stats.blocks,
		divilog.PickNoun(uint64(stats.blocks), "block", "blocks"),
		time.Since(start).Truncate(time.Millisecond))

	if cfg.InFile != "" {
		fi, err := os.Open(cfg.InFile)
		if err != nil {
			log.Errorf("Failed to open file %v: %v", cfg.InFile, err)
			return err
		}
		defer fi.Close()

		log.Info("Starting import")
		importer := newBlockImporter(chain, store, cfg.params.Net,
			time.Duration(cfg.Progress)*time.Second, fi)
		results := <-importer.Import()
		stats.add(results.stats)
		if results.err != nil {
			log.Errorf("%v", results.err)
			return results.err
		}
		log.Infof("Processed a total of %d blocks (%d imported, %d "+
			"already known, %d off the best chain)",
			results.blocksProcessed, results.blocksImported,
			results.blocksProcessed-results.blocksImported,
			results.sideBlocks)
	}

	logSummary(chain, stats)
	return nil
}

func main() {
	// Up some limits.
	if err := limits.SetLimits(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set limits: %v\n", err)
		os.Exit(1)
	}

	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		os.Exit(1)
	}
}
