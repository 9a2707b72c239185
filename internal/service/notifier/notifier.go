package notifier

import (
	"context"
	"encoding/json"

	"deposit-core/internal/event"
	"deposit-core/internal/model"
	"deposit-core/internal/service/mq"
)

// Notifier delivers deposit lifecycle events keyed by wallet address.
// Delivery is best-effort: a failed push never rolls back the ledger write
// that triggered it, so callers log the error and move on.
type Notifier interface {
	NotifyObserved(ctx context.Context, address string, dep *model.Deposit) error
	NotifyConfirmationChanged(ctx context.Context, address string, txHash string, confirmations int64, status model.DepositStatus) error
	NotifyOrphaned(ctx context.Context, address string, dep *model.Deposit) error
}

// MQNotifier publishes events to the message bus the push relay consumes.
type MQNotifier struct {
	producer mq.Producer
	topic    string
}

func NewMQNotifier(producer mq.Producer, topic string) *MQNotifier {
	return &MQNotifier{producer: producer, topic: topic}
}

func (n *MQNotifier) NotifyObserved(ctx context.Context, address string, dep *model.Deposit) error {
	return n.publish(ctx, address, event.DepositEvent{
		Type:          event.TypeDepositDetected,
		WalletAddress: address,
		Data: event.DepositPayload{
			TxHash:        dep.TxHash,
			Amount:        dep.Amount.String(),
			Confirmations: dep.Confirmations,
			Status:        string(dep.Status),
			BlockNumber:   dep.BlockNumber,
			FromAddress:   dep.FromAddress,
		},
	})
}

func (n *MQNotifier) NotifyConfirmationChanged(ctx context.Context, address string, txHash string, confirmations int64, status model.DepositStatus) error {
	return n.publish(ctx, address, event.DepositEvent{
		Type:          event.TypeConfirmationUpdate,
		WalletAddress: address,
		Data: event.DepositPayload{
			TxHash:        txHash,
			Confirmations: confirmations,
			Status:        string(status),
		},
	})
}

func (n *MQNotifier) NotifyOrphaned(ctx context.Context, address string, dep *model.Deposit) error {
	return n.publish(ctx, address, event.DepositEvent{
		Type:          event.TypeDepositOrphaned,
		WalletAddress: address,
		Data: event.DepositPayload{
			TxHash:        dep.TxHash,
			Confirmations: dep.Confirmations,
			Status:        string(dep.Status),
			BlockNumber:   dep.BlockNumber,
			Message:       "transaction orphaned due to blockchain reorganization",
		},
	})
}

func (n *MQNotifier) publish(ctx context.Context, address string, ev event.DepositEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.producer.Publish(ctx, n.topic, address, payload)
}
