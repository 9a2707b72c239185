package handler

import (
	"context"

	"deposit-core/internal/model"
)

// Registry is the write/read surface the admin handlers need.
// registry.Admin is the production implementation.
type Registry interface {
	CreateUser(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateNetwork(ctx context.Context, n *model.BlockchainNetwork) error
	ListNetworks(ctx context.Context) ([]model.BlockchainNetwork, error)
	RegisterWallet(ctx context.Context, w *model.Wallet) error
	ListWallets(ctx context.Context, userID uint64) ([]model.Wallet, error)
	GetWallet(ctx context.Context, id uint64) (*model.Wallet, error)
}

// DepositReader is the ledger's read path. deposit.Store is the production
// implementation; the API never writes deposits.
type DepositReader interface {
	GetByTxHash(ctx context.Context, txHash string) (*model.Deposit, error)
	ListByWallet(ctx context.Context, walletID uint64, offset, limit int) ([]model.Deposit, error)
}
