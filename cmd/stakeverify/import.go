// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/TheGreat22/Divi/blockchain"
	"github.com/TheGreat22/Divi/database"
	divilog "github.com/TheGreat22/Divi/internal/log"
	"github.com/btcsuite/btcd/wire"
)

// importResults houses the stats and result as an import operation.
type importResults struct {
	blocksProcessed int64
	blocksImported  int64
	sideBlocks      int64
	stats           verifyStats
	err             error
}

// blockImporter houses information about an ongoing import from a block data
// file to the block store.
type blockImporter struct {
	store             *database.Store
	chain             *blockchain.Chain
	net               wire.BitcoinNet
	progress          time.Duration
	r                 io.Reader
	processQueue      chan []byte
	doneChan          chan bool
	errChan           chan error
	quit              chan struct{}
	wg                sync.WaitGroup
	blocksProcessed   int64
	blocksImported    int64
	sideBlocks        int64
	stats             verifyStats
	receivedLogBlocks int64
	receivedLogTx     int64
	lastHeight        int32
	lastBlockTime     time.Time
	lastLogTime       time.Time
}

// readBlock reads the next block from the input file.
func (bi *blockImporter) readBlock() ([]byte, error) {
	// The block file format is:
	//  <network> <block length> <serialized block>
	var net uint32
	err := binary.Read(bi.r, binary.LittleEndian, &net)
	if err != nil {
		if err != io.EOF {
			return nil, err
		}

		// No block and no error means there are no more blocks to read.
		return nil, nil
	}
	if net != uint32(bi.net) {
		return nil, fmt.Errorf("network mismatch -- got %x, want %x",
			net, uint32(bi.net))
	}

	// Read the block length and ensure it is sane.
	var blockLen uint32
	if err := binary.Read(bi.r, binary.LittleEndian, &blockLen); err != nil {
		return nil, err
	}
	if blockLen > wire.MaxBlockPayload {
		return nil, fmt.Errorf("block payload of %d bytes is larger "+
			"than the max allowed %d bytes", blockLen,
			wire.MaxBlockPayload)
	}

	serializedBlock := make([]byte, blockLen)
	if _, err := io.ReadFull(bi.r, serializedBlock); err != nil {
		return nil, err
	}

	return serializedBlock, nil
}

// processBlock deserializes the raw block, connects it to the chain, which
// assigns its stake modifier and verifies its kernel, and stores it.  Already
// known blocks are skipped.  Returns whether the block was imported.
func (bi *blockImporter) processBlock(serializedBlock []byte) (bool, error) {
	var block wire.MsgBlock
	if err := block.Deserialize(bytes.NewReader(serializedBlock)); err != nil {
		return false, err
	}

	// update progress statistics
	bi.lastBlockTime = block.Header.Timestamp
	bi.receivedLogTx += int64(len(block.Transactions))

	prevTip := bi.chain.BestSnapshot()
	info, err := bi.chain.ConnectBlock(&block)
	if blockchain.IsErrorCode(err, blockchain.ErrDuplicateBlock) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	bi.stats.record(info)
	bi.lastHeight = info.Height

	tip := bi.chain.BestSnapshot()
	if tip.Hash != info.Hash {
		bi.sideBlocks++
		log.Debugf("Block %v (height %d) does not extend the best chain",
			info.Hash, info.Height)
		return true, bi.store.PutSideBlock(&block)
	}
	if err := bi.store.PutBlock(&block, info.Height); err != nil {
		return false, err
	}
	if prevTip != nil && block.Header.PrevBlock != prevTip.Hash {
		if err := reindexBestChain(bi.chain, bi.store, info.Height-1); err != nil {
			return false, err
		}
	}
	return true, nil
}

// reindexBestChain points the height index of the store at the best chain
// again after a reorganization, walking down from height until both agree.
func reindexBestChain(chain *blockchain.Chain, store *database.Store, height int32) error {
	for ; height >= 0; height-- {
		want, err := chain.BlockHashByHeight(height)
		if err != nil {
			return err
		}
		have, err := store.BlockHashByHeight(height)
		if err != nil && !database.IsNotFound(err) {
			return err
		}
		if have != nil && *have == *want {
			return nil
		}
		block, err := store.FetchBlock(want)
		if err != nil {
			return err
		}
		if err := store.PutBlock(block, height); err != nil {
			return err
		}
		log.Infof("Reorganized height %d to block %v", height, want)
	}
	return nil
}

// readHandler is the main handler for reading blocks from the import file.
// This allows block processing to take place in parallel with block reads.
// It must be run as a goroutine.
func (bi *blockImporter) readHandler() {
out:
	for {
		// Read the next block from the file and if anything goes wrong
		// notify the status handler with the error and bail.
		serializedBlock, err := bi.readBlock()
		if err != nil {
			select {
			case bi.errChan <- fmt.Errorf("Error reading from input "+
				"file: %v", err.Error()):
			case <-bi.quit:
			}
			break out
		}

		// A nil block with no error means we're done.
		if serializedBlock == nil {
			break out
		}

		// Send the block or quit if we've been signalled to exit by
		// the status handler due to an error elsewhere.
		select {
		case bi.processQueue <- serializedBlock:
		case <-bi.quit:
			break out
		}
	}

	// Close the processing channel to signal no more blocks are coming.
	close(bi.processQueue)
	bi.wg.Done()
}

// logProgress logs block progress as an information message.  In order to
// prevent spam, it limits logging to one message every progress interval
// with duration and totals included.
func (bi *blockImporter) logProgress() {
	bi.receivedLogBlocks++

	now := time.Now()
	duration := now.Sub(bi.lastLogTime)
	if bi.progress <= 0 || duration < bi.progress {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	tDuration := duration.Truncate(10 * time.Millisecond)

	log.Infof("Processed %d %s in the last %s (%d %s, height %d, %s)",
		bi.receivedLogBlocks,
		divilog.PickNoun(uint64(bi.receivedLogBlocks), "block", "blocks"),
		tDuration, bi.receivedLogTx,
		divilog.PickNoun(uint64(bi.receivedLogTx), "transaction", "transactions"),
		bi.lastHeight, bi.lastBlockTime)

	bi.receivedLogBlocks = 0
	bi.receivedLogTx = 0
	bi.lastLogTime = now
}

// processHandler is the main handler for processing blocks.  This allows block
// processing to take place in parallel with block reads from the import file.
// It must be run as a goroutine.
func (bi *blockImporter) processHandler() {
out:
	for {
		select {
		case serializedBlock, ok := <-bi.processQueue:
			// We're done when the channel is closed.
			if !ok {
				break out
			}

			bi.blocksProcessed++
			imported, err := bi.processBlock(serializedBlock)
			if err != nil {
				select {
				case bi.errChan <- err:
				case <-bi.quit:
				}
				break out
			}

			if imported {
				bi.blocksImported++
			}

			bi.logProgress()

		case <-bi.quit:
			break out
		}
	}
	bi.wg.Done()
}

// statusHandler waits for updates from the import operation and notifies
// the passed doneChan with the results of the import.  It also causes all
// goroutines to exit if an error is reported from any of them.
func (bi *blockImporter) statusHandler(resultsChan chan *importResults) {
	var err error
	select {
	// An error from either of the goroutines means we're done so signal
	// all goroutines to quit and wait for them before reporting.
	case err = <-bi.errChan:
		close(bi.quit)
		<-bi.doneChan

	// The import finished normally.
	case <-bi.doneChan:
	}

	resultsChan <- &importResults{
		blocksProcessed: bi.blocksProcessed,
		blocksImported:  bi.blocksImported,
		sideBlocks:      bi.sideBlocks,
		stats:           bi.stats,
		err:             err,
	}
}

// Import is the core function which handles importing the blocks from the file
// associated with the block importer to the store.  It returns a channel on
// which the results will be returned when the operation has completed.
func (bi *blockImporter) Import() chan *importResults {
	// Start up the read and process handling goroutines.  This setup allows
	// blocks to be read from disk in parallel while being processed.
	bi.wg.Add(2)
	go bi.readHandler()
	go bi.processHandler()

	// Wait for the import to finish in a separate goroutine and signal
	// the status handler when done.
	go func() {
		bi.wg.Wait()
		bi.doneChan <- true
	}()

	// Start the status handler and return the result channel that it will
	// send the results on when the import is done.
	resultChan := make(chan *importResults, 1)
	go bi.statusHandler(resultChan)
	return resultChan
}

// newBlockImporter returns a new importer which reads blocks of the given
// network from r into the chain and store.
func newBlockImporter(chain *blockchain.Chain, store *database.Store,
	net wire.BitcoinNet, progress time.Duration, r io.Reader) *blockImporter {

	return &blockImporter{
		store:        store,
		chain:        chain,
		net:          net,
		progress:     progress,
		r:            r,
		processQueue: make(chan []byte, 2),
		doneChan:     make(chan bool),
		errChan:      make(chan error),
		quit:         make(chan struct{}),
		lastLogTime:  time.Now(),
	}
}
