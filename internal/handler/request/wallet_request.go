package request

// RegisterWalletRequest puts an address under monitoring.
type RegisterWalletRequest struct {
	UserID              uint64 `json:"user_id" binding:"required"`
	Address             string `json:"address" binding:"required"`
	BlockchainNetworkID uint64 `json:"blockchain_network_id" binding:"required"`
	Label               string `json:"label" binding:"omitempty,max=255"`
}
