package registry

import (
	"context"
	"errors"
	"fmt"

	"deposit-core/internal/model"
	"deposit-core/pkg/ethtext"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user email already registered")
	ErrNetworkNotFound = errors.New("blockchain network not found")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrWalletExists    = errors.New("wallet address already registered")
	ErrInvalidAddress  = errors.New("invalid address format")
)

// Admin is the write surface of the wallet registry: the record API creates
// networks and wallets through it, the engine only ever reads them.
type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) *Admin {
	return &Admin{db: db}
}

// CreateUser registers the owner a wallet must reference. Email is the
// natural key.
func (a *Admin) CreateUser(ctx context.Context, u *model.User) error {
	var count int64
	if err := a.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if count > 0 {
		return ErrUserExists
	}

	return a.db.WithContext(ctx).Create(u).Error
}

func (a *Admin) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := a.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (a *Admin) CreateNetwork(ctx context.Context, n *model.BlockchainNetwork) error {
	return a.db.WithContext(ctx).Create(n).Error
}

func (a *Admin) ListNetworks(ctx context.Context) ([]model.BlockchainNetwork, error) {
	var networks []model.BlockchainNetwork
	err := a.db.WithContext(ctx).Order("id").Find(&networks).Error
	return networks, err
}

// RegisterWallet stores a wallet under its canonical lowercase address. The
// wallet becomes visible to the engine at the next snapshot refresh.
func (a *Admin) RegisterWallet(ctx context.Context, w *model.Wallet) error {
	w.Address = ethtext.NormalizeAddress(w.Address)
	if !ethtext.IsValidAddress(w.Address) {
		return ErrInvalidAddress
	}

	var count int64
	if err := a.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", w.UserID).Count(&count).Error; err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}

	if err := a.db.WithContext(ctx).Model(&model.BlockchainNetwork{}).
		Where("id = ?", w.BlockchainNetworkID).Count(&count).Error; err != nil {
		return fmt.Errorf("network lookup: %w", err)
	}
	if count == 0 {
		return ErrNetworkNotFound
	}

	if err := a.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("address = ?", w.Address).Count(&count).Error; err != nil {
		return fmt.Errorf("wallet lookup: %w", err)
	}
	if count > 0 {
		return ErrWalletExists
	}

	return a.db.WithContext(ctx).Create(w).Error
}

// ListWallets returns registered wallets, optionally scoped to one user
// (userID 0 means all users).
func (a *Admin) ListWallets(ctx context.Context, userID uint64) ([]model.Wallet, error) {
	q := a.db.WithContext(ctx).Preload("BlockchainNetwork").Order("id")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}

	var wallets []model.Wallet
	err := q.Find(&wallets).Error
	return wallets, err
}

func (a *Admin) GetWallet(ctx context.Context, id uint64) (*model.Wallet, error) {
	var w model.Wallet
	err := a.db.WithContext(ctx).Preload("BlockchainNetwork").First(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
