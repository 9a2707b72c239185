package model

// AllModels lists every table the schema owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&BlockchainNetwork{},
		&Wallet{},
		&Deposit{},
	}
}
