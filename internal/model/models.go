package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User owns wallets. Managed by the record API, read-only to the engine.
type User struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	FirstName string         `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(255);not null" json:"last_name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Wallets []Wallet `gorm:"foreignKey:UserID" json:"wallets,omitempty"`
}

// BlockchainNetwork holds per-chain configuration, most importantly the
// confirmation depth a deposit needs before it counts as final.
type BlockchainNetwork struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                  string    `gorm:"type:varchar(255);not null" json:"name"`
	ChainID               int64     `gorm:"not null;index" json:"chain_id"`
	RpcUrl                string    `gorm:"type:varchar(512);not null" json:"rpc_url"`
	WsUrl                 string    `gorm:"type:varchar(512);not null" json:"ws_url"`
	ConfirmationsRequired int       `gorm:"not null;default:12" json:"confirmations_required"`
	BlockTime             int       `gorm:"not null;default:12" json:"block_time"`
	IsActive              bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
}

// Wallet is a monitored deposit address. The engine loads active wallets on
// active networks into its address snapshot and never writes them.
type Wallet struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              uint64    `gorm:"not null;index" json:"user_id"`
	Address             string    `gorm:"type:varchar(42);not null;uniqueIndex" json:"address"` // canonical lowercase hex
	BlockchainNetworkID uint64    `gorm:"not null" json:"blockchain_network_id"`
	Label               string    `gorm:"type:varchar(255)" json:"label,omitempty"`
	IsActive            bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	BlockchainNetwork *BlockchainNetwork `gorm:"foreignKey:BlockchainNetworkID" json:"blockchain_network,omitempty"`
}

// Deposit is an observed incoming transfer, keyed by transaction hash.
// Created once by the ingestion loop; thereafter mutated only through the
// transition methods in status.go.
type Deposit struct {
	ID                  uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	WalletID            uint64          `gorm:"not null;index" json:"wallet_id"`
	TxHash              string          `gorm:"type:varchar(66);not null;uniqueIndex" json:"tx_hash"`
	Amount              decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`
	Confirmations       int64           `gorm:"not null;default:0" json:"confirmations"`
	Status              DepositStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	BlockchainNetworkID uint64          `gorm:"not null" json:"blockchain_network_id"`
	BlockNumber         *uint64         `json:"block_number,omitempty"`
	BlockHash           *string         `gorm:"type:varchar(66)" json:"block_hash,omitempty"` // kept for reorg detection
	FromAddress         *string         `gorm:"type:varchar(42)" json:"from_address,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`

	Wallet *Wallet `gorm:"foreignKey:WalletID" json:"wallet,omitempty"`
}

func (User) TableName() string              { return "users" }
func (BlockchainNetwork) TableName() string { return "blockchain_networks" }
func (Wallet) TableName() string            { return "wallets" }
func (Deposit) TableName() string           { return "deposits" }
