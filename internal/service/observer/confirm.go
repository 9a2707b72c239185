package observer

import (
	"context"
	"time"

	"deposit-core/pkg/logger"
	"deposit-core/pkg/monitor"

	"go.uber.org/zap"
)

// runConfirmations recomputes confirmation depth for all live deposits on a
// fixed interval.
func (m *Monitor) runConfirmations(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.ConfirmInterval)
	defer ticker.Stop()
	logger.Info("confirmation loop started", zap.Duration("interval", m.cfg.ConfirmInterval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.updateConfirmations(ctx); err != nil {
				logger.Error("confirmation tick failed", zap.Error(err))
				if monitor.Business != nil {
					monitor.Business.LoopErrorsTotal.WithLabelValues("confirmations").Inc()
				}
			}
		}
	}
}

func (m *Monitor) updateConfirmations(ctx context.Context) error {
	deposits, err := m.store.ListUnconfirmed(ctx)
	if err != nil {
		return err
	}
	if len(deposits) == 0 {
		return nil
	}

	// One height read per batch so every row sees the same snapshot.
	height, err := m.feed.BlockNumber(ctx)
	if err != nil {
		return err
	}

	required := make(map[uint64]int)
	for i := range deposits {
		d := &deposits[i]
		if d.BlockNumber == nil {
			continue
		}

		confirmations := int64(height) - int64(*d.BlockNumber)
		if confirmations == d.Confirmations {
			continue
		}

		updated, changed, err := m.store.ApplyConfirmations(
			ctx, d.TxHash, confirmations, m.requiredFor(ctx, required, d.BlockchainNetworkID))
		if err != nil {
			logger.Error("confirmation update failed",
				zap.String("tx_hash", d.TxHash), zap.Error(err))
			continue
		}
		if !changed {
			continue // orphaned since the batch was loaded, or a no-op
		}

		if monitor.Business != nil {
			monitor.Business.ConfirmationUpdatesTotal.Inc()
		}
		logger.Info("confirmations updated",
			zap.String("tx_hash", updated.TxHash),
			zap.Int64("confirmations", updated.Confirmations),
			zap.String("status", string(updated.Status)))

		if d.Wallet == nil {
			continue
		}
		if err := m.notifier.NotifyConfirmationChanged(
			ctx, d.Wallet.Address, updated.TxHash, updated.Confirmations, updated.Status); err != nil {
			logger.Warn("confirmation notification failed",
				zap.String("tx_hash", updated.TxHash), zap.Error(err))
		}
	}
	return nil
}

// requiredFor resolves the network threshold once per batch, falling back
// to the default rather than stalling the whole batch on one bad lookup.
func (m *Monitor) requiredFor(ctx context.Context, cache map[uint64]int, networkID uint64) int {
	if v, ok := cache[networkID]; ok {
		return v
	}

	req, err := m.store.RequiredConfirmations(ctx, networkID)
	if err != nil || req <= 0 {
		req = m.cfg.DefaultRequiredConfirmations
	}
	cache[networkID] = req
	return req
}
