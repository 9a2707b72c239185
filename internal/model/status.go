package model

// DepositStatus is the deposit state machine:
//
//	pending -> confirming -> completed
//
// orphaned is terminal and reachable from any of the three live states.
// failed is terminal and reserved for reverted transactions; no code path
// assigns it today, but the guard below already treats it as absorbing.
type DepositStatus string

const (
	StatusPending    DepositStatus = "pending"
	StatusConfirming DepositStatus = "confirming"
	StatusCompleted  DepositStatus = "completed"
	StatusFailed     DepositStatus = "failed"
	StatusOrphaned   DepositStatus = "orphaned"
)

// IsTerminal reports whether the status absorbs all later transitions.
func (s DepositStatus) IsTerminal() bool {
	return s == StatusOrphaned || s == StatusFailed
}

// LiveStatuses are the states the confirmation loop may still advance.
func LiveStatuses() []DepositStatus {
	return []DepositStatus{StatusPending, StatusConfirming}
}

// NonTerminalStatuses additionally includes completed, which a reorg can
// still demote. Guarded writes use these sets so a concurrent terminal
// transition wins at the SQL level too, not just in memory.
func NonTerminalStatuses() []DepositStatus {
	return []DepositStatus{StatusPending, StatusConfirming, StatusCompleted}
}

// StatusForConfirmations maps a confirmation depth onto the live status.
func StatusForConfirmations(confirmations int64, required int) DepositStatus {
	switch {
	case confirmations >= int64(required):
		return StatusCompleted
	case confirmations > 0:
		return StatusConfirming
	default:
		return StatusPending
	}
}

// ApplyConfirmations advances the deposit to the state implied by the new
// confirmation count. It refuses to touch terminal deposits, which is what
// keeps a late confirmation write from resurrecting an orphan. Returns true
// if anything changed.
func (d *Deposit) ApplyConfirmations(confirmations int64, required int) bool {
	if d.Status.IsTerminal() {
		return false
	}

	next := StatusForConfirmations(confirmations, required)
	if confirmations == d.Confirmations && next == d.Status {
		return false
	}

	d.Confirmations = confirmations
	d.Status = next
	return true
}

// MarkOrphaned demotes the deposit after its recording block was reorged
// out. The confirmation count is left as-is. Returns false if the deposit
// is already terminal.
func (d *Deposit) MarkOrphaned() bool {
	if d.Status.IsTerminal() {
		return false
	}
	d.Status = StatusOrphaned
	return true
}
