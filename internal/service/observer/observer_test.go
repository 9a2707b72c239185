package observer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"deposit-core/internal/model"
	"deposit-core/internal/service/chainfeed"
	"deposit-core/internal/service/deposit"
	"deposit-core/internal/service/registry"
	"deposit-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChainID = big.NewInt(11155111)

// fakeFeed serves canned chain data.
type fakeFeed struct {
	mu       sync.Mutex
	height   uint64
	blocks   map[uint64]*types.Block
	headers  map[uint64]*types.Header
	receipts map[common.Hash]*types.Receipt
	blockErr map[uint64]error
	subErr   error
	stream   chan *types.Header
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		blocks:   make(map[uint64]*types.Block),
		headers:  make(map[uint64]*types.Header),
		receipts: make(map[common.Hash]*types.Receipt),
		blockErr: make(map[uint64]error),
		stream:   make(chan *types.Header, 16),
	}
}

func (f *fakeFeed) Subscribe(ctx context.Context) (<-chan *types.Header, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.stream, nil
}

func (f *fakeFeed) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := number.Uint64()
	if err := f.blockErr[n]; err != nil {
		return nil, err
	}
	b, ok := f.blocks[n]
	if !ok {
		return nil, fmt.Errorf("%w: block %d", chainfeed.ErrFeedUnavailable, n)
	}
	return b, nil
}

func (f *fakeFeed) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := number.Uint64()
	if h, ok := f.headers[n]; ok {
		return h, nil
	}
	if b, ok := f.blocks[n]; ok {
		return b.Header(), nil
	}
	return nil, fmt.Errorf("%w: header %d", chainfeed.ErrFeedUnavailable, n)
}

func (f *fakeFeed) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[txHash]; ok {
		return r, nil
	}
	return nil, chainfeed.ErrNotYetMined
}

func (f *fakeFeed) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height, nil
}

func (f *fakeFeed) ChainID() *big.Int { return testChainID }

func (f *fakeFeed) setHeight(h uint64) {
	f.mu.Lock()
	f.height = h
	f.mu.Unlock()
}

// fakeStore is an in-memory transfer ledger with the same transition
// semantics as the gorm-backed store.
type fakeStore struct {
	mu        sync.Mutex
	deposits  map[string]*model.Deposit
	order     []string
	wallets   map[uint64]model.Wallet
	required  map[uint64]int
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		deposits: make(map[string]*model.Deposit),
		wallets:  make(map[uint64]model.Wallet),
		required: make(map[uint64]int),
	}
}

func (s *fakeStore) Create(ctx context.Context, d *model.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.deposits[d.TxHash]; ok {
		return deposit.ErrDuplicate
	}
	cp := *d
	s.deposits[d.TxHash] = &cp
	s.order = append(s.order, d.TxHash)
	return nil
}

func (s *fakeStore) get(txHash string) (*model.Deposit, error) {
	d, ok := s.deposits[txHash]
	if !ok {
		return nil, deposit.ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) withWallet(d *model.Deposit) model.Deposit {
	cp := *d
	if w, ok := s.wallets[d.WalletID]; ok {
		wcp := w
		cp.Wallet = &wcp
	}
	return cp
}

func (s *fakeStore) ListUnconfirmed(ctx context.Context) ([]model.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Deposit
	for _, h := range s.order {
		d := s.deposits[h]
		if d.Status == model.StatusPending || d.Status == model.StatusConfirming {
			out = append(out, s.withWallet(d))
		}
	}
	return out, nil
}

func (s *fakeStore) ListRecentWithBlockHash(ctx context.Context, limit int) ([]model.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Deposit
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		d := s.deposits[s.order[i]]
		if d.BlockHash == nil || d.Status.IsTerminal() {
			continue
		}
		out = append(out, s.withWallet(d))
	}
	return out, nil
}

func (s *fakeStore) ApplyConfirmations(ctx context.Context, txHash string, confirmations int64, required int) (*model.Deposit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.get(txHash)
	if err != nil {
		return nil, false, err
	}
	changed := d.ApplyConfirmations(confirmations, required)
	cp := *d
	return &cp, changed, nil
}

func (s *fakeStore) MarkOrphaned(ctx context.Context, txHash string) (*model.Deposit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.get(txHash)
	if err != nil {
		return nil, false, err
	}
	changed := d.MarkOrphaned()
	cp := *d
	return &cp, changed, nil
}

func (s *fakeStore) RequiredConfirmations(ctx context.Context, networkID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.required[networkID]; ok {
		return r, nil
	}
	return 0, deposit.ErrNetworkNotFound
}

// fakeNotifier records deliveries.
type notification struct {
	kind          string
	address       string
	txHash        string
	confirmations int64
	status        model.DepositStatus
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
	fail  bool
}

func (n *fakeNotifier) record(nt notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("sink unavailable")
	}
	n.calls = append(n.calls, nt)
	return nil
}

func (n *fakeNotifier) NotifyObserved(ctx context.Context, address string, dep *model.Deposit) error {
	return n.record(notification{kind: "observed", address: address, txHash: dep.TxHash})
}

func (n *fakeNotifier) NotifyConfirmationChanged(ctx context.Context, address string, txHash string, confirmations int64, status model.DepositStatus) error {
	return n.record(notification{kind: "confirmation", address: address, txHash: txHash, confirmations: confirmations, status: status})
}

func (n *fakeNotifier) NotifyOrphaned(ctx context.Context, address string, dep *model.Deposit) error {
	return n.record(notification{kind: "orphaned", address: address, txHash: dep.TxHash})
}

func (n *fakeNotifier) byKind(kind string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, c := range n.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

type fakeBook struct{ snap *registry.Snapshot }

func (b *fakeBook) Current() *registry.Snapshot { return b.snap }

// test fixture

type fixture struct {
	feed     *fakeFeed
	store    *fakeStore
	notifier *fakeNotifier
	monitor  *Monitor
	key      *ecdsa.PrivateKey
	watched  common.Address
}

const watchedHex = "0x40ceeede9fa9ee09e594affb63cfc4994af5b14e"

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	feed := newFakeFeed()
	store := newFakeStore()
	store.wallets[1] = model.Wallet{ID: 1, UserID: 1, Address: watchedHex, BlockchainNetworkID: 1}

	book := &fakeBook{snap: registry.NewSnapshot([]registry.WalletRef{
		{WalletID: 1, UserID: 1, NetworkID: 1, Address: watchedHex, RequiredConfirmations: 12},
	})}

	n := &fakeNotifier{}
	m := New(feed, store, book, n, Config{DefaultRequiredConfirmations: 12, ReorgBatchSize: 100})

	return &fixture{
		feed:     feed,
		store:    store,
		notifier: n,
		monitor:  m,
		key:      key,
		watched:  common.HexToAddress(watchedHex),
	}
}

func (f *fixture) signedTx(t *testing.T, nonce uint64, to *common.Address, valueWei *big.Int) *types.Transaction {
	t.Helper()
	signer := types.LatestSignerForChainID(testChainID)
	return types.MustSignNewTx(f.key, signer, &types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    valueWei,
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
}

func makeBlock(number uint64, txs ...*types.Transaction) *types.Block {
	header := &types.Header{Number: new(big.Int).SetUint64(number)}
	return types.NewBlockWithHeader(header).WithBody(types.Body{Transactions: txs})
}

// ingestion

func TestIngestionRecordsMatchingTransfer(t *testing.T) {
	f := newFixture(t)
	tx := f.signedTx(t, 0, &f.watched, big.NewInt(1500000000000000000)) // 1.5 ether
	block := makeBlock(95, tx)
	f.feed.blocks[95] = block

	f.monitor.processBlock(context.Background(), block.Header())

	d, ok := f.store.deposits[tx.Hash().Hex()]
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, d.Status)
	assert.EqualValues(t, 0, d.Confirmations)
	assert.Equal(t, "1.5", d.Amount.String())
	require.NotNil(t, d.BlockNumber)
	assert.EqualValues(t, 95, *d.BlockNumber)
	require.NotNil(t, d.BlockHash)
	assert.Equal(t, block.Hash().Hex(), *d.BlockHash)
	require.NotNil(t, d.FromAddress)
	assert.Equal(t, crypto.PubkeyToAddress(f.key.PublicKey), common.HexToAddress(*d.FromAddress))

	observed := f.notifier.byKind("observed")
	require.Len(t, observed, 1)
	assert.Equal(t, watchedHex, observed[0].address)
}

func TestIngestionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tx := f.signedTx(t, 0, &f.watched, big.NewInt(1500000000000000000))
	block := makeBlock(95, tx)
	f.feed.blocks[95] = block

	// Duplicate delivery of the same block.
	f.monitor.processBlock(context.Background(), block.Header())
	f.monitor.processBlock(context.Background(), block.Header())

	assert.Len(t, f.store.deposits, 1)
	assert.Len(t, f.notifier.byKind("observed"), 1)
}

func TestIngestionSkipsIrrelevantTransactions(t *testing.T) {
	f := newFixture(t)
	other := common.HexToAddress("0x1111111111111111111111111111111111111111")
	toOther := f.signedTx(t, 0, &other, big.NewInt(1))
	contractCreation := f.signedTx(t, 1, nil, big.NewInt(1))
	block := makeBlock(10, toOther, contractCreation)
	f.feed.blocks[10] = block

	f.monitor.processBlock(context.Background(), block.Header())

	assert.Empty(t, f.store.deposits)
	assert.Empty(t, f.notifier.calls)
}

func TestIngestionSkipsRevertedTransaction(t *testing.T) {
	f := newFixture(t)
	tx := f.signedTx(t, 0, &f.watched, big.NewInt(1))
	block := makeBlock(20, tx)
	f.feed.blocks[20] = block
	f.feed.receipts[tx.Hash()] = &types.Receipt{Status: types.ReceiptStatusFailed}

	f.monitor.processBlock(context.Background(), block.Header())

	assert.Empty(t, f.store.deposits)
}

func TestIngestionBlockFetchFailureSkipsBlock(t *testing.T) {
	f := newFixture(t)
	f.feed.blockErr[30] = fmt.Errorf("%w: rpc down", chainfeed.ErrFeedUnavailable)

	f.monitor.processBlock(context.Background(), &types.Header{Number: big.NewInt(30)})

	assert.Empty(t, f.store.deposits)
}

func TestIngestionNotifierFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = true
	tx := f.signedTx(t, 0, &f.watched, big.NewInt(1))
	block := makeBlock(40, tx)
	f.feed.blocks[40] = block

	f.monitor.processBlock(context.Background(), block.Header())

	assert.Len(t, f.store.deposits, 1, "ledger write survives a failed push")
}

// confirmations

func seedDeposit(f *fixture, txHash string, blockNumber uint64, blockHash string, status model.DepositStatus, confirmations int64) {
	d := &model.Deposit{
		WalletID:            1,
		TxHash:              txHash,
		Status:              status,
		Confirmations:       confirmations,
		BlockchainNetworkID: 1,
		BlockNumber:         &blockNumber,
		BlockHash:           &blockHash,
	}
	f.store.deposits[txHash] = d
	f.store.order = append(f.store.order, txHash)
}

const (
	txA  = "0x" + "aa" + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	blk1 = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

func TestConfirmationCompletesAtThreshold(t *testing.T) {
	// height 100, block 95, required 5 -> 5 confirmations, completed
	f := newFixture(t)
	f.store.required[1] = 5
	seedDeposit(f, txA, 95, blk1, model.StatusPending, 0)
	f.feed.setHeight(100)

	require.NoError(t, f.monitor.updateConfirmations(context.Background()))

	d := f.store.deposits[txA]
	assert.EqualValues(t, 5, d.Confirmations)
	assert.Equal(t, model.StatusCompleted, d.Status)

	updates := f.notifier.byKind("confirmation")
	require.Len(t, updates, 1)
	assert.Equal(t, watchedHex, updates[0].address)
	assert.EqualValues(t, 5, updates[0].confirmations)
	assert.Equal(t, model.StatusCompleted, updates[0].status)
}

func TestConfirmationBelowThresholdConfirming(t *testing.T) {
	// Same transfer with required 10 stays confirming.
	f := newFixture(t)
	f.store.required[1] = 10
	seedDeposit(f, txA, 95, blk1, model.StatusPending, 0)
	f.feed.setHeight(100)

	require.NoError(t, f.monitor.updateConfirmations(context.Background()))

	d := f.store.deposits[txA]
	assert.EqualValues(t, 5, d.Confirmations)
	assert.Equal(t, model.StatusConfirming, d.Status)
}

func TestConfirmationDefaultsWhenNetworkUnknown(t *testing.T) {
	// No network record: the default of 12 applies instead of stalling.
	f := newFixture(t)
	seedDeposit(f, txA, 95, blk1, model.StatusPending, 0)
	f.feed.setHeight(107) // 12 confirmations

	require.NoError(t, f.monitor.updateConfirmations(context.Background()))

	assert.Equal(t, model.StatusCompleted, f.store.deposits[txA].Status)
}

func TestConfirmationsMonotonicWhileHeightGrows(t *testing.T) {
	f := newFixture(t)
	f.store.required[1] = 20
	seedDeposit(f, txA, 95, blk1, model.StatusPending, 0)

	var last int64
	for _, height := range []uint64{100, 105, 105, 110} {
		f.feed.setHeight(height)
		require.NoError(t, f.monitor.updateConfirmations(context.Background()))
		d := f.store.deposits[txA]
		assert.GreaterOrEqual(t, d.Confirmations, last)
		last = d.Confirmations
	}
	assert.EqualValues(t, 15, last)

	// Three distinct counts, so exactly three update notifications.
	assert.Len(t, f.notifier.byKind("confirmation"), 3)
}

func TestConfirmationSkipsUnchangedCount(t *testing.T) {
	f := newFixture(t)
	f.store.required[1] = 20
	seedDeposit(f, txA, 95, blk1, model.StatusConfirming, 5)
	f.feed.setHeight(100) // still 5

	require.NoError(t, f.monitor.updateConfirmations(context.Background()))

	assert.Empty(t, f.notifier.byKind("confirmation"))
}

// reorg detection

func TestReorgMarksDepositOrphaned(t *testing.T) {
	f := newFixture(t)
	seedDeposit(f, txA, 50, blk1, model.StatusConfirming, 3)
	// Canonical block at height 50 now has a different hash.
	f.feed.headers[50] = &types.Header{Number: big.NewInt(50), GasLimit: 42}

	require.NoError(t, f.monitor.scanForReorgs(context.Background()))

	d := f.store.deposits[txA]
	assert.Equal(t, model.StatusOrphaned, d.Status)
	assert.EqualValues(t, 3, d.Confirmations, "confirmation count untouched")

	orphaned := f.notifier.byKind("orphaned")
	require.Len(t, orphaned, 1)
	assert.Equal(t, watchedHex, orphaned[0].address)

	// A later confirmation tick leaves the orphan alone.
	f.feed.setHeight(500)
	require.NoError(t, f.monitor.updateConfirmations(context.Background()))
	assert.Equal(t, model.StatusOrphaned, f.store.deposits[txA].Status)
	assert.EqualValues(t, 3, f.store.deposits[txA].Confirmations)
}

func TestReorgMatchingHashNoAction(t *testing.T) {
	f := newFixture(t)
	header := &types.Header{Number: big.NewInt(50)}
	seedDeposit(f, txA, 50, header.Hash().Hex(), model.StatusCompleted, 30)
	f.feed.headers[50] = header

	require.NoError(t, f.monitor.scanForReorgs(context.Background()))

	assert.Equal(t, model.StatusCompleted, f.store.deposits[txA].Status)
	assert.Empty(t, f.notifier.byKind("orphaned"))
}

func TestReorgLookupFailureSkipsDeposit(t *testing.T) {
	f := newFixture(t)
	seedDeposit(f, txA, 60, blk1, model.StatusConfirming, 2)
	// No header at 60: lookup fails, deposit skipped this cycle.

	require.NoError(t, f.monitor.scanForReorgs(context.Background()))

	assert.Equal(t, model.StatusConfirming, f.store.deposits[txA].Status)
}

func TestLoopFailuresAreCounted(t *testing.T) {
	// Metrics are registered before Start, the same order main wires them:
	// the supervised loops must observe the initialized global.
	monitor.Init()

	feed := newFakeFeed()
	feed.subErr = errors.New("subscription refused")
	book := &fakeBook{snap: registry.NewSnapshot(nil)}
	m := New(feed, newFakeStore(), book, &fakeNotifier{}, Config{
		ConfirmInterval: time.Hour,
		ReorgInterval:   time.Hour,
		RetryBackoff:    time.Millisecond,
	})

	before := testutil.ToFloat64(monitor.Business.LoopErrorsTotal.WithLabelValues("ingestion"))

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Wait()

	after := testutil.ToFloat64(monitor.Business.LoopErrorsTotal.WithLabelValues("ingestion"))
	assert.Greater(t, after, before)
}

func TestReorgScanIsIdempotent(t *testing.T) {
	f := newFixture(t)
	seedDeposit(f, txA, 50, blk1, model.StatusCompleted, 30)
	f.feed.headers[50] = &types.Header{Number: big.NewInt(50), GasLimit: 42}

	require.NoError(t, f.monitor.scanForReorgs(context.Background()))
	require.NoError(t, f.monitor.scanForReorgs(context.Background()))

	// Terminal rows leave the scan batch, so one orphan notification total.
	assert.Len(t, f.notifier.byKind("orphaned"), 1)
}
