package observer

import (
	"context"
	"errors"
	"math/big"

	"deposit-core/internal/model"
	"deposit-core/internal/service/chainfeed"
	"deposit-core/internal/service/deposit"
	"deposit-core/internal/service/registry"
	"deposit-core/pkg/ethtext"
	"deposit-core/pkg/logger"
	"deposit-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// runIngestion consumes the header stream one block at a time, in feed
// order, and appends matching transfers to the ledger.
func (m *Monitor) runIngestion(ctx context.Context) error {
	headers, err := m.feed.Subscribe(ctx)
	if err != nil {
		return err
	}
	logger.Info("ingestion loop started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case h, ok := <-headers:
			if !ok {
				// The feed closes the stream only on cancellation.
				return nil
			}
			m.processBlock(ctx, h)
		}
	}
}

func (m *Monitor) processBlock(ctx context.Context, header *types.Header) {
	block, err := m.feed.BlockByNumber(ctx, header.Number)
	if err != nil {
		// Accepted gap: no watermark, no retry. The block's transactions
		// are dropped and the stream moves on.
		logger.Error("block fetch failed, skipping block",
			zap.String("number", header.Number.String()), zap.Error(err))
		if monitor.Business != nil {
			monitor.Business.BlocksSkippedTotal.Inc()
		}
		return
	}

	snap := m.addrs.Current()
	logger.Debug("processing block",
		zap.Uint64("number", block.NumberU64()),
		zap.Int("txs", len(block.Transactions())))

	for _, tx := range block.Transactions() {
		if err := m.processTransaction(ctx, snap, block, tx); err != nil {
			// One bad transaction never aborts the rest of the block.
			logger.Error("transaction processing failed",
				zap.String("tx_hash", tx.Hash().Hex()), zap.Error(err))
		}
	}
}

func (m *Monitor) processTransaction(ctx context.Context, snap *registry.Snapshot, block *types.Block, tx *types.Transaction) error {
	to := tx.To()
	if to == nil {
		return nil // contract creation
	}

	address := ethtext.NormalizeAddress(to.Hex())
	ref, ok := snap.Lookup(address)
	if !ok {
		return nil
	}

	// Best-effort receipt check: drop reverted transactions, proceed when
	// the receipt simply is not there yet.
	receipt, err := m.feed.TransactionReceipt(ctx, tx.Hash())
	switch {
	case err == nil:
		if receipt.Status == types.ReceiptStatusFailed {
			logger.Debug("skipping reverted transaction",
				zap.String("tx_hash", tx.Hash().Hex()))
			return nil
		}
	case errors.Is(err, chainfeed.ErrNotYetMined):
		// Inclusion in the block implies it will be mined.
	default:
		logger.Debug("receipt unavailable, recording anyway",
			zap.String("tx_hash", tx.Hash().Hex()), zap.Error(err))
	}

	blockNumber := block.NumberU64()
	blockHash := block.Hash().Hex()

	d := &model.Deposit{
		WalletID:            ref.WalletID,
		TxHash:              ethtext.NormalizeTxHash(tx.Hash().Hex()),
		Amount:              decimal.NewFromBigInt(new(big.Int).Set(tx.Value()), -18), // wei -> ether
		Confirmations:       0,
		Status:              model.StatusPending,
		BlockchainNetworkID: ref.NetworkID,
		BlockNumber:         &blockNumber,
		BlockHash:           &blockHash,
	}
	if from, err := types.Sender(m.signer, tx); err == nil {
		f := ethtext.NormalizeAddress(from.Hex())
		d.FromAddress = &f
	}

	if err := m.store.Create(ctx, d); err != nil {
		if errors.Is(err, deposit.ErrDuplicate) {
			return nil // feed replay, first sighting wins
		}
		return err
	}

	if monitor.Business != nil {
		monitor.Business.DepositsObservedTotal.Inc()
	}
	logger.Info("deposit detected",
		zap.String("tx_hash", d.TxHash),
		zap.String("wallet", address),
		zap.String("amount", d.Amount.String()),
		zap.Uint64("block", blockNumber))

	if err := m.notifier.NotifyObserved(ctx, address, d); err != nil {
		// Best-effort push; the ledger row is the source of truth.
		logger.Warn("deposit notification failed",
			zap.String("tx_hash", d.TxHash), zap.Error(err))
	}
	return nil
}
