package observer

import (
	"context"
	"math/big"
	"time"

	"deposit-core/pkg/logger"
	"deposit-core/pkg/monitor"

	"go.uber.org/zap"
)

// runReorgScan verifies, on a coarser interval, that the block each recent
// deposit was recorded under is still canonical.
func (m *Monitor) runReorgScan(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.ReorgInterval)
	defer ticker.Stop()
	logger.Info("reorg scan started", zap.Duration("interval", m.cfg.ReorgInterval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.scanForReorgs(ctx); err != nil {
				logger.Error("reorg scan failed", zap.Error(err))
				if monitor.Business != nil {
					monitor.Business.LoopErrorsTotal.WithLabelValues("reorg_scan").Inc()
				}
			}
		}
	}
}

func (m *Monitor) scanForReorgs(ctx context.Context) error {
	deposits, err := m.store.ListRecentWithBlockHash(ctx, m.cfg.ReorgBatchSize)
	if err != nil {
		return err
	}

	for i := range deposits {
		d := &deposits[i]
		if d.BlockNumber == nil || d.BlockHash == nil {
			continue
		}

		header, err := m.feed.HeaderByNumber(ctx, new(big.Int).SetUint64(*d.BlockNumber))
		if err != nil {
			// Transient: skip this deposit this cycle.
			logger.Warn("canonical header lookup failed",
				zap.String("tx_hash", d.TxHash), zap.Error(err))
			continue
		}

		canonical := header.Hash().Hex()
		if canonical == *d.BlockHash {
			continue
		}

		logger.Warn("reorg detected",
			zap.String("tx_hash", d.TxHash),
			zap.Uint64("block", *d.BlockNumber),
			zap.String("recorded_hash", *d.BlockHash),
			zap.String("canonical_hash", canonical))

		updated, changed, err := m.store.MarkOrphaned(ctx, d.TxHash)
		if err != nil {
			logger.Error("orphan transition failed",
				zap.String("tx_hash", d.TxHash), zap.Error(err))
			continue
		}
		if !changed {
			continue
		}

		if monitor.Business != nil {
			monitor.Business.DepositsOrphanedTotal.Inc()
		}

		if d.Wallet == nil {
			continue
		}
		if err := m.notifier.NotifyOrphaned(ctx, d.Wallet.Address, updated); err != nil {
			logger.Warn("orphan notification failed",
				zap.String("tx_hash", updated.TxHash), zap.Error(err))
		}
	}
	return nil
}
