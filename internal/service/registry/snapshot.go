package registry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"deposit-core/internal/model"
	"deposit-core/pkg/logger"
	"deposit-core/pkg/monitor"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WalletRef is what the loops need to know about a monitored address.
type WalletRef struct {
	WalletID              uint64
	UserID                uint64
	NetworkID             uint64
	Address               string // canonical lowercase
	RequiredConfirmations int
}

// Snapshot is an immutable view of the monitored-address set. Loops hold a
// reference per iteration; lookups are lock-free.
type Snapshot struct {
	wallets  map[string]WalletRef
	loadedAt time.Time
}

// NewSnapshot builds an immutable snapshot from wallet refs, keyed by
// canonical address.
func NewSnapshot(refs []WalletRef) *Snapshot {
	m := make(map[string]WalletRef, len(refs))
	for _, r := range refs {
		m[r.Address] = r
	}
	return &Snapshot{wallets: m, loadedAt: time.Now()}
}

// Lookup resolves a canonical lowercase address.
func (s *Snapshot) Lookup(address string) (WalletRef, bool) {
	ref, ok := s.wallets[address]
	return ref, ok
}

func (s *Snapshot) Len() int {
	return len(s.wallets)
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Cache loads the registry and swaps immutable snapshots atomically, so
// wallets registered after startup become visible at the next refresh
// instead of the next restart.
type Cache struct {
	db  *gorm.DB
	cur atomic.Pointer[Snapshot]
}

func NewCache(db *gorm.DB) *Cache {
	c := &Cache{db: db}
	c.cur.Store(&Snapshot{wallets: map[string]WalletRef{}})
	return c
}

// Current never returns nil.
func (c *Cache) Current() *Snapshot {
	return c.cur.Load()
}

// Refresh rebuilds the snapshot from active wallets on active networks.
func (c *Cache) Refresh(ctx context.Context) error {
	var wallets []model.Wallet
	err := c.db.WithContext(ctx).
		Preload("BlockchainNetwork").
		Joins("JOIN blockchain_networks ON blockchain_networks.id = wallets.blockchain_network_id").
		Where("wallets.is_active = ? AND blockchain_networks.is_active = ?", true, true).
		Find(&wallets).Error
	if err != nil {
		return fmt.Errorf("load monitored wallets: %w", err)
	}

	refs := make([]WalletRef, 0, len(wallets))
	for _, w := range wallets {
		ref := WalletRef{
			WalletID:  w.ID,
			UserID:    w.UserID,
			NetworkID: w.BlockchainNetworkID,
			Address:   w.Address,
		}
		if w.BlockchainNetwork != nil {
			ref.RequiredConfirmations = w.BlockchainNetwork.ConfirmationsRequired
		}
		refs = append(refs, ref)
	}

	snap := NewSnapshot(refs)
	c.cur.Store(snap)
	if monitor.Business != nil {
		monitor.Business.MonitoredWallets.Set(float64(snap.Len()))
	}
	logger.Info("monitored wallet snapshot refreshed", zap.Int("wallets", snap.Len()))
	return nil
}

// ScheduleRefresh registers a periodic refresh on the given cron. Refresh
// failures are logged and retried on the next tick; the loops keep using the
// previous snapshot in the meantime.
func (c *Cache) ScheduleRefresh(cr *cron.Cron, every time.Duration) error {
	spec := fmt.Sprintf("@every %s", every)
	_, err := cr.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.Refresh(ctx); err != nil {
			logger.Error("snapshot refresh failed", zap.Error(err))
		}
	})
	return err
}
