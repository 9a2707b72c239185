package event

// Event types carried on the deposit_events topic. The push-relay process
// fans each event out to live subscribers of WalletAddress.
const (
	TypeDepositDetected    = "deposit_detected"
	TypeConfirmationUpdate = "confirmation_update"
	TypeDepositOrphaned    = "deposit_orphaned"
)

// DepositEvent is the envelope for every engine notification.
type DepositEvent struct {
	Type          string         `json:"type"`
	WalletAddress string         `json:"wallet_address"`
	Data          DepositPayload `json:"data"`
}

// DepositPayload carries the deposit snapshot the subscriber sees.
type DepositPayload struct {
	TxHash        string  `json:"tx_hash"`
	Amount        string  `json:"amount,omitempty"` // decimal string
	Confirmations int64   `json:"confirmations"`
	Status        string  `json:"status"`
	BlockNumber   *uint64 `json:"block_number,omitempty"`
	FromAddress   *string `json:"from_address,omitempty"`
	Message       string  `json:"message,omitempty"`
}
