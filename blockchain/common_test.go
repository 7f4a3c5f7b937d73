// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"testing"
	"time"

	"github.com/TheGreat22/Divi/chaincfg"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

const (
	// alwaysHitBits is a target so large that every kernel meets it.
	alwaysHitBits = 0x207fffff

	// alwaysMissBits is a target of one, which no kernel meets.
	alwaysMissBits = 0x03000001

	testStakeValue = 1000 * chaincfg.Coin
)

var errNotFound = errors.New("not found")

// storedTx is a transaction held by the fake store along with the hash of the
// block confirming it, which is nil for unconfirmed transactions.
type storedTx struct {
	tx    *wire.MsgTx
	block *chainhash.Hash
}

// fakeStore is an in-memory BlockReader and TxLookup.
type fakeStore struct {
	blocks map[chainhash.Hash]*wire.MsgBlock
	txs    map[chainhash.Hash]storedTx
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blocks: make(map[chainhash.Hash]*wire.MsgBlock),
		txs:    make(map[chainhash.Hash]storedTx),
	}
}

func (s *fakeStore) FetchBlock(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	block, ok := s.blocks[*hash]
	if !ok {
		return nil, errNotFound
	}
	return block, nil
}

func (s *fakeStore) FetchTransaction(txid *chainhash.Hash, allowUnconfirmed bool) (*wire.MsgTx, *chainhash.Hash, error) {
	entry, ok := s.txs[*txid]
	if !ok || (entry.block == nil && !allowUnconfirmed) {
		return nil, nil, errNotFound
	}
	return entry.tx, entry.block, nil
}

func (s *fakeStore) addBlock(block *wire.MsgBlock) {
	hash := block.BlockHash()
	s.blocks[hash] = block
	for _, tx := range block.Transactions {
		s.txs[tx.TxHash()] = storedTx{tx: tx, block: &hash}
	}
}

func (s *fakeStore) addUnconfirmed(tx *wire.MsgTx) {
	s.txs[tx.TxHash()] = storedTx{tx: tx}
}

// testHarness drives a chain over a fake store.  Blocks are spaced by the
// stake target spacing of the parameters unless a timestamp is given.
type testHarness struct {
	t      *testing.T
	params *chaincfg.Params
	store  *fakeStore
	chain  *Chain
	tip    *wire.MsgBlock
	nonce  uint32
}

// regtestParams returns a copy of the regression test parameters that can be
// modified by a test.
func regtestParams() *chaincfg.Params {
	params := chaincfg.RegressionNetParams
	params.StakeModifierCheckpoints = make(map[int32]uint32)
	return &params
}

// newTestHarness returns a harness with the genesis block of params connected.
func newTestHarness(t *testing.T, params *chaincfg.Params, configure ...func(*Config)) *testHarness {
	t.Helper()

	store := newFakeStore()
	config := &Config{
		ChainParams:  params,
		Blocks:       store,
		Transactions: store,
	}
	for _, f := range configure {
		f(config)
	}
	chain, err := New(config)
	require.NoError(t, err)

	h := &testHarness{t: t, params: params, store: store, chain: chain}
	h.connect(params.GenesisBlock)
	return h
}

// newBlock returns a block extending parent with a unique coinbase followed by
// the given transactions.
func (h *testHarness) newBlock(parent *wire.MsgBlock, timestamp time.Time, bits uint32, txs ...*wire.MsgTx) *wire.MsgBlock {
	h.nonce++
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		SignatureScript:  []byte{byte(h.nonce), byte(h.nonce >> 8), byte(h.nonce >> 16), 0x51},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(wire.NewTxOut(0, nil))

	block := wire.NewMsgBlock(&wire.BlockHeader{
		Version:    1,
		PrevBlock:  parent.BlockHash(),
		MerkleRoot: coinbase.TxHash(),
		Timestamp:  timestamp,
		Bits:       bits,
		Nonce:      h.nonce,
	})
	block.AddTransaction(coinbase)
	for _, tx := range txs {
		block.AddTransaction(tx)
	}
	return block
}

// nextBlock returns a proof-of-work block extending the harness tip by one
// spacing.
func (h *testHarness) nextBlock(txs ...*wire.MsgTx) *wire.MsgBlock {
	spacing := time.Duration(h.params.StakeTargetSpacing) * time.Second
	return h.newBlock(h.tip, h.tip.Header.Timestamp.Add(spacing),
		h.params.PowLimitBits, txs...)
}

// connect stores and connects the block, requiring success.  The harness tip
// follows the best chain.
func (h *testHarness) connect(block *wire.MsgBlock) *BlockStakeInfo {
	h.t.Helper()

	h.store.addBlock(block)
	info, err := h.chain.ConnectBlock(block)
	require.NoError(h.t, err)
	if best := h.chain.BestSnapshot(); best.Hash == info.Hash {
		h.tip = block
	}
	return info
}

// advance connects n proof-of-work blocks on the tip and returns the stake
// info of the last one.
func (h *testHarness) advance(n int) *BlockStakeInfo {
	h.t.Helper()

	var info *BlockStakeInfo
	for i := 0; i < n; i++ {
		info = h.connect(h.nextBlock())
	}
	return info
}

// node returns the index node of the block.
func (h *testHarness) node(block *wire.MsgBlock) *blockNode {
	hash := block.BlockHash()
	node := h.chain.index.LookupNode(&hash)
	require.NotNil(h.t, node)
	return node
}

// stakeFixture is an output owned by key confirmed in a connected block.
type stakeFixture struct {
	key      *btcec.PrivateKey
	pkScript []byte
	funding  *wire.MsgTx
	confirm  *wire.MsgBlock
}

func newKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key
}

func payToPubKeyHash(t *testing.T, key *btcec.PrivateKey) []byte {
	t.Helper()
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(key.PubKey().SerializeCompressed())).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)
	return script
}

// fundingTx returns a transaction paying each of values to pkScript.
func (h *testHarness) fundingTx(pkScript []byte, values ...int64) *wire.MsgTx {
	h.nonce++
	tx := wire.NewMsgTx(1)
	prevHash := chainhash.HashH([]byte{byte(h.nonce), byte(h.nonce >> 8), 0xfe})
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, 0), nil, nil))
	for _, value := range values {
		tx.AddTxOut(wire.NewTxOut(value, pkScript))
	}
	return tx
}

// fund confirms outputs of the given values paying to pkScript in a new block
// on the tip.
func (h *testHarness) fund(key *btcec.PrivateKey, pkScript []byte, values ...int64) *stakeFixture {
	funding := h.fundingTx(pkScript, values...)
	confirm := h.nextBlock(funding)
	h.connect(confirm)
	return &stakeFixture{
		key:      key,
		pkScript: pkScript,
		funding:  funding,
		confirm:  confirm,
	}
}

// matureBlocks returns the number of blocks to connect after a confirmation
// for the kernel stake modifier of the confirmed outputs to be known.
func (h *testHarness) matureBlocks() int {
	return int(h.chain.StakeModifierSelectionInterval()/h.params.StakeTargetSpacing) + 4
}

// outPoint returns the outpoint of output index of the funding transaction.
func (f *stakeFixture) outPoint(index uint32) wire.OutPoint {
	hash := f.funding.TxHash()
	return *wire.NewOutPoint(&hash, index)
}

// coinstakeTx returns an unsigned coinstake spending prevOuts.
func coinstakeTx(prevOuts []wire.OutPoint, outs ...*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	for i := range prevOuts {
		tx.AddTxIn(wire.NewTxIn(&prevOuts[i], nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(0, nil))
	for _, out := range outs {
		tx.AddTxOut(out)
	}
	return tx
}

// signInput signs input idx of tx spending pkScript with key, appending the
// given opcodes to the signature script.
func signInput(t *testing.T, tx *wire.MsgTx, idx int, pkScript []byte, key *btcec.PrivateKey, ops ...byte) {
	t.Helper()

	sig, err := txscript.RawTxInSignature(tx, idx, pkScript, txscript.SigHashAll, key)
	require.NoError(t, err)
	builder := txscript.NewScriptBuilder().
		AddData(sig).
		AddData(key.PubKey().SerializeCompressed())
	for _, op := range ops {
		builder.AddOp(op)
	}
	sigScript, err := builder.Script()
	require.NoError(t, err)
	tx.TxIn[idx].SignatureScript = sigScript
}

// stakeBlock returns a proof-of-stake block on the tip whose coinstake spends
// output 0 of the fixture back to its script, signed by the fixture key.
func (h *testHarness) stakeBlock(f *stakeFixture, bits uint32) *wire.MsgBlock {
	coinstake := coinstakeTx([]wire.OutPoint{f.outPoint(0)},
		wire.NewTxOut(f.funding.TxOut[0].Value+chaincfg.Coin, f.pkScript))
	signInput(h.t, coinstake, 0, f.pkScript, f.key)
	return h.coinstakeBlock(coinstake, bits)
}

// coinstakeBlock returns a block on the tip one spacing later carrying the
// coinstake.
func (h *testHarness) coinstakeBlock(coinstake *wire.MsgTx, bits uint32) *wire.MsgBlock {
	spacing := time.Duration(h.params.StakeTargetSpacing) * time.Second
	return h.newBlock(h.tip, h.tip.Header.Timestamp.Add(spacing), bits,
		coinstake)
}

// newStakeHarness returns a harness holding an output of testStakeValue at
// index 0 of the fixture, followed by twenty one coin outputs to the same
// script, with enough blocks on top for it to stake.
func newStakeHarness(t *testing.T, params *chaincfg.Params, configure ...func(*Config)) (*testHarness, *stakeFixture) {
	t.Helper()

	h := newTestHarness(t, params, configure...)
	key := newKey(t)
	values := []int64{testStakeValue}
	for i := 0; i < 20; i++ {
		values = append(values, chaincfg.Coin)
	}
	f := h.fund(key, payToPubKeyHash(t, key), values...)
	h.advance(h.matureBlocks())
	return h, f
}

// stubGenerator is a ProofOfStakeGenerator returning a fixed result.
type stubGenerator struct {
	hash chainhash.Hash
	err  error
}

func (g stubGenerator) ComputeAndVerifyProofOfStake(*StakingData, uint32) (chainhash.Hash, error) {
	return g.hash, g.err
}
