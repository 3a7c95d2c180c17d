package wallet

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stake-harbor/stake_harbor/internal/notification"
)

// Service exposes the user-facing wallet operations on top of the ledger.
type Service struct {
	ledger   Ledger
	notifier notification.Notifier
}

// NewService builds a wallet service instance.
func NewService(ledger Ledger, notifier notification.Notifier) *Service {
	return &Service{ledger: ledger, notifier: notifier}
}

// Ledger exposes the underlying ledger to sibling services. All mutations
// still flow through its atomic operations.
func (s *Service) Ledger() Ledger {
	return s.ledger
}

// Balance returns the wallet row for the user and currency.
func (s *Service) Balance(ctx context.Context, userID, currency string) (Wallet, error) {
	return s.ledger.Balance(ctx, userID, currency)
}

// Entries lists recent ledger entries for the user's wallet.
func (s *Service) Entries(ctx context.Context, userID, currency string, limit int) ([]Entry, error) {
	return s.ledger.Entries(ctx, userID, currency, limit)
}

// TransferInput captures a user-to-user transfer.
type TransferInput struct {
	FromUserID string
	ToUserID   string
	Currency   string
	Amount     decimal.Decimal
}

// Transfer moves available funds between two users, recording a transfer_out
// entry on the sender and a transfer_in entry on the recipient.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (Wallet, error) {
	if !input.Amount.IsPositive() {
		return Wallet{}, ErrInvalidAmount
	}
	if input.FromUserID == input.ToUserID {
		return Wallet{}, fmt.Errorf("cannot transfer to self: %w", ErrInvalidAmount)
	}

	from, err := s.ledger.Debit(ctx, input.FromUserID, input.Currency, input.Amount, EntryTransferOut,
		map[string]string{"to_user": input.ToUserID})
	if err != nil {
		return Wallet{}, err
	}
	if _, err := s.ledger.Credit(ctx, input.ToUserID, input.Currency, input.Amount, EntryTransferIn,
		map[string]string{"from_user": input.FromUserID}); err != nil {
		// Return the debited funds; the sender must never lose value on a
		// failed credit leg.
		if _, refundErr := s.ledger.Credit(ctx, input.FromUserID, input.Currency, input.Amount, EntryTransferIn,
			map[string]string{"refund_for": input.ToUserID}); refundErr != nil {
			return Wallet{}, fmt.Errorf("credit failed (%v) and refund failed: %w", err, refundErr)
		}
		return Wallet{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransfer,
			Destination: input.ToUserID,
			Body:        fmt.Sprintf("You received %s %s", input.Amount, input.Currency),
		})
	}

	return from, nil
}
