// Package deposit owns all reads and writes of the transfer ledger. The
// engine is the only writer; the HTTP API reads through the same store.
package deposit

import (
	"context"
	"errors"
	"fmt"

	"deposit-core/internal/model"
	"deposit-core/pkg/ethtext"

	"gorm.io/gorm"
)

var (
	ErrDuplicate       = errors.New("deposit already recorded for this transaction hash")
	ErrNotFound        = errors.New("deposit not found")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrNetworkNotFound = errors.New("blockchain network not found")
	ErrInvalidTxHash   = errors.New("invalid transaction hash format")
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new deposit row. The transaction hash is the idempotency
// key: a second sighting of the same hash returns ErrDuplicate and leaves
// the first-seen row untouched.
func (s *Store) Create(ctx context.Context, d *model.Deposit) error {
	d.TxHash = ethtext.NormalizeTxHash(d.TxHash)
	if !ethtext.IsValidTxHash(d.TxHash) {
		return ErrInvalidTxHash
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Deposit{}).
		Where("tx_hash = ?", d.TxHash).Count(&count).Error; err != nil {
		return fmt.Errorf("deposit lookup: %w", err)
	}
	if count > 0 {
		return ErrDuplicate
	}

	if err := s.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("id = ?", d.WalletID).Count(&count).Error; err != nil {
		return fmt.Errorf("wallet lookup: %w", err)
	}
	if count == 0 {
		return ErrWalletNotFound
	}

	if err := s.db.WithContext(ctx).Model(&model.BlockchainNetwork{}).
		Where("id = ?", d.BlockchainNetworkID).Count(&count).Error; err != nil {
		return fmt.Errorf("network lookup: %w", err)
	}
	if count == 0 {
		return ErrNetworkNotFound
	}

	return s.db.WithContext(ctx).Create(d).Error
}

// GetByTxHash returns the deposit recorded under a (normalized) hash.
func (s *Store) GetByTxHash(ctx context.Context, txHash string) (*model.Deposit, error) {
	txHash = ethtext.NormalizeTxHash(txHash)

	var d model.Deposit
	err := s.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListUnconfirmed returns every deposit the confirmation loop still tracks,
// with the owning wallet loaded so notifications can be addressed.
func (s *Store) ListUnconfirmed(ctx context.Context) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := s.db.WithContext(ctx).
		Preload("Wallet").
		Where("status IN ?", model.LiveStatuses()).
		Find(&deposits).Error
	return deposits, err
}

// ListRecentWithBlockHash returns the reorg-scan batch: the most recent
// deposits that carry a block hash and have not reached a terminal state.
func (s *Store) ListRecentWithBlockHash(ctx context.Context, limit int) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := s.db.WithContext(ctx).
		Preload("Wallet").
		Where("block_hash IS NOT NULL").
		Where("status IN ?", model.NonTerminalStatuses()).
		Order("id DESC").
		Limit(limit).
		Find(&deposits).Error
	return deposits, err
}

// ApplyConfirmations re-reads the row and advances it through the aggregate
// transition, so a deposit orphaned since the batch was loaded stays
// orphaned. Returns the row and whether anything was persisted.
func (s *Store) ApplyConfirmations(ctx context.Context, txHash string, confirmations int64, required int) (*model.Deposit, bool, error) {
	d, err := s.GetByTxHash(ctx, txHash)
	if err != nil {
		return nil, false, err
	}

	if !d.ApplyConfirmations(confirmations, required) {
		return d, false, nil
	}

	// Status-guarded write: an orphan transition landing between the read
	// above and this update wins, and RowsAffected reports the loss.
	res := s.db.WithContext(ctx).Model(&model.Deposit{}).
		Where("id = ?", d.ID).
		Where("status IN ?", model.LiveStatuses()).
		Updates(map[string]interface{}{
			"confirmations": d.Confirmations,
			"status":        d.Status,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return d, false, nil
	}
	return d, true, nil
}

// MarkOrphaned demotes a deposit whose recording block left the canonical
// chain. The transition is sticky; repeated calls are no-ops.
func (s *Store) MarkOrphaned(ctx context.Context, txHash string) (*model.Deposit, bool, error) {
	d, err := s.GetByTxHash(ctx, txHash)
	if err != nil {
		return nil, false, err
	}

	if !d.MarkOrphaned() {
		return d, false, nil
	}

	res := s.db.WithContext(ctx).Model(&model.Deposit{}).
		Where("id = ?", d.ID).
		Where("status IN ?", model.NonTerminalStatuses()).
		Updates(map[string]interface{}{"status": d.Status})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return d, false, nil
	}
	return d, true, nil
}

// RequiredConfirmations resolves a network's confirmation threshold.
func (s *Store) RequiredConfirmations(ctx context.Context, networkID uint64) (int, error) {
	var network model.BlockchainNetwork
	err := s.db.WithContext(ctx).First(&network, networkID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNetworkNotFound
	}
	if err != nil {
		return 0, err
	}
	return network.ConfirmationsRequired, nil
}

// ListByWallet pages a wallet's deposits, newest first. Read path for the API.
func (s *Store) ListByWallet(ctx context.Context, walletID uint64, offset, limit int) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&deposits).Error
	return deposits, err
}
