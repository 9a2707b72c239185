// Package observer runs the chain-observation engine: three supervised
// loops that ingest new blocks, track confirmation depth, and detect
// reorganizations, sharing only the chain feed, the ledger store, and the
// monitored-address snapshot.
package observer

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"deposit-core/internal/model"
	"deposit-core/internal/service/notifier"
	"deposit-core/internal/service/registry"
	"deposit-core/pkg/logger"
	"deposit-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ChainFeed is the upstream boundary: a restartable header stream plus
// on-demand lookups. chainfeed.EthFeed is the production implementation.
type ChainFeed interface {
	Subscribe(ctx context.Context) (<-chan *types.Header, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID() *big.Int
}

// DepositStore is the slice of the ledger the loops need. deposit.Store is
// the production implementation.
type DepositStore interface {
	Create(ctx context.Context, d *model.Deposit) error
	ListUnconfirmed(ctx context.Context) ([]model.Deposit, error)
	ListRecentWithBlockHash(ctx context.Context, limit int) ([]model.Deposit, error)
	ApplyConfirmations(ctx context.Context, txHash string, confirmations int64, required int) (*model.Deposit, bool, error)
	MarkOrphaned(ctx context.Context, txHash string) (*model.Deposit, bool, error)
	RequiredConfirmations(ctx context.Context, networkID uint64) (int, error)
}

// AddressBook hands out the current monitored-address snapshot.
type AddressBook interface {
	Current() *registry.Snapshot
}

type Config struct {
	ConfirmInterval              time.Duration
	ReorgInterval                time.Duration
	ReorgBatchSize               int
	RetryBackoff                 time.Duration
	DefaultRequiredConfirmations int
}

func (c *Config) applyDefaults() {
	if c.ConfirmInterval <= 0 {
		c.ConfirmInterval = 15 * time.Second
	}
	if c.ReorgInterval <= 0 {
		c.ReorgInterval = 60 * time.Second
	}
	if c.ReorgBatchSize <= 0 {
		c.ReorgBatchSize = 100
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 5 * time.Second
	}
	if c.DefaultRequiredConfirmations <= 0 {
		c.DefaultRequiredConfirmations = 12
	}
}

// Monitor owns the three loops for the lifetime of the process.
type Monitor struct {
	feed     ChainFeed
	store    DepositStore
	addrs    AddressBook
	notifier notifier.Notifier
	cfg      Config
	signer   types.Signer

	wg sync.WaitGroup
}

func New(feed ChainFeed, store DepositStore, addrs AddressBook, n notifier.Notifier, cfg Config) *Monitor {
	cfg.applyDefaults()
	return &Monitor{
		feed:     feed,
		store:    store,
		addrs:    addrs,
		notifier: n,
		cfg:      cfg,
		signer:   types.LatestSignerForChainID(feed.ChainID()),
	}
}

// Start launches the loops. They run until ctx is cancelled; use Wait to
// block on their shutdown.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(3)
	go m.runSupervised(ctx, "ingestion", m.runIngestion)
	go m.runSupervised(ctx, "confirmations", m.runConfirmations)
	go m.runSupervised(ctx, "reorg_scan", m.runReorgScan)
}

func (m *Monitor) Wait() {
	m.wg.Wait()
}

// runSupervised keeps one loop alive for the process lifetime. A returned
// error or a panic is contained and logged, then the loop restarts after a
// fixed backoff. Only context cancellation ends the task, and no task's
// failure stops the others.
func (m *Monitor) runSupervised(ctx context.Context, name string, fn func(context.Context) error) {
	defer m.wg.Done()

	for {
		err := m.runContained(ctx, fn)
		if ctx.Err() != nil {
			logger.Info("loop stopped", zap.String("loop", name))
			return
		}
		if err != nil {
			logger.Error("loop failed, restarting after backoff",
				zap.String("loop", name), zap.Error(err))
			if monitor.Business != nil {
				monitor.Business.LoopErrorsTotal.WithLabelValues(name).Inc()
			}
		}

		select {
		case <-ctx.Done():
			logger.Info("loop stopped", zap.String("loop", name))
			return
		case <-time.After(m.cfg.RetryBackoff):
		}
	}
}

func (m *Monitor) runContained(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
