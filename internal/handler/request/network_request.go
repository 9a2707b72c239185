package request

// CreateNetworkRequest registers a blockchain network the engine can track.
type CreateNetworkRequest struct {
	Name                  string `json:"name" binding:"required,max=255"`
	ChainID               int64  `json:"chain_id" binding:"required"`
	RpcUrl                string `json:"rpc_url" binding:"required,url"`
	WsUrl                 string `json:"ws_url" binding:"required"`
	ConfirmationsRequired int    `json:"confirmations_required" binding:"omitempty,min=1"`
	BlockTime             int    `json:"block_time" binding:"omitempty,min=1"`
}
