// Package transaction prepares and atomically applies ledger entries.
//
// Core flow:
//   - Preparer builds immutable deposit/withdraw descriptors and composes a
//     transfer into a paired withdraw+deposit descriptor set.
//   - Service persists a batch of descriptors, aggregates per-wallet net
//     deltas, applies them through the Regulator port, and dispatches one
//     created event per entry, all-or-nothing.
//
// The package enforces deterministic behavior using typed domain errors from
// the walletcore root package.
package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two ledger entry types.
type Kind string

const (
	// KindDeposit credits a wallet; descriptor amounts are >= 0.
	KindDeposit Kind = "deposit"
	// KindWithdraw debits a wallet; descriptor amounts are <= 0.
	KindWithdraw Kind = "withdraw"
)

// TransferStatus tags a transfer with its business intent.
type TransferStatus string

const (
	// StatusTransfer marks a plain wallet-to-wallet movement.
	StatusTransfer TransferStatus = "transfer"
	// StatusPaid marks a transfer settling a purchase.
	StatusPaid TransferStatus = "paid"
	// StatusRefund marks a transfer reversing a previous payment.
	StatusRefund TransferStatus = "refund"
	// StatusGift marks a transfer given without consideration.
	StatusGift TransferStatus = "gift"
)

// Descriptor is an immutable ledger entry before persistence. Withdraw
// amounts are stored negative; deposit amounts non-negative. Descriptors are
// consumed exactly once by Service.Apply and then discarded.
type Descriptor struct {
	ID         string          `json:"id"`
	HolderType string          `json:"holderType"`
	HolderID   string          `json:"holderId"`
	WalletID   string          `json:"walletId"`
	Kind       Kind            `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	Confirmed  bool            `json:"confirmed"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// TransferDescriptor pairs exactly one withdraw and one deposit descriptor.
// Both legs carry the same fee; the discount is the amount forgiven to the
// source before the deposit amount was derived.
type TransferDescriptor struct {
	ID           string          `json:"id"`
	FromWalletID string          `json:"fromWalletId"`
	ToWalletID   string          `json:"toWalletId"`
	Discount     decimal.Decimal `json:"discount"`
	Fee          decimal.Decimal `json:"fee"`
	Withdraw     Descriptor      `json:"withdraw"`
	Deposit      Descriptor      `json:"deposit"`
	Status       TransferStatus  `json:"status"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}

// Transaction is the persisted counterpart of a Descriptor, as returned by
// the Store. Rows are never mutated after creation.
type Transaction struct {
	ID         string          `json:"id"`
	HolderType string          `json:"holderType"`
	HolderID   string          `json:"holderId"`
	WalletID   string          `json:"walletId"`
	Kind       Kind            `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	Confirmed  bool            `json:"confirmed"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// CreatedEvent notifies observers that one ledger entry was committed. It is
// dispatched only after every balance delta in the batch has been applied.
type CreatedEvent struct {
	TransactionID string          `json:"transactionId"`
	WalletID      string          `json:"walletId"`
	Kind          Kind            `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Confirmed     bool            `json:"confirmed"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewCreatedEvent assembles the created event for a persisted row.
func NewCreatedEvent(row Transaction) CreatedEvent {
	return CreatedEvent{
		TransactionID: row.ID,
		WalletID:      row.WalletID,
		Kind:          row.Kind,
		Amount:        row.Amount,
		Fee:           row.Fee,
		Confirmed:     row.Confirmed,
		CreatedAt:     row.CreatedAt,
	}
}

// Option carries per-entry extras: a custom identifier (empty means
// generated), metadata, and an optional confirmed flag (nil means confirmed).
type Option struct {
	ID        string         `json:"id,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	Confirmed *bool          `json:"confirmed,omitempty"`
}

func (o Option) confirmed() bool {
	return o.Confirmed == nil || *o.Confirmed
}

// Extra carries transfer-level extras plus independent options for the
// withdraw and deposit legs, so the two legs of one transfer can be
// individually confirmed and tagged.
type Extra struct {
	ID       string         `json:"id,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Withdraw Option         `json:"withdraw"`
	Deposit  Option         `json:"deposit"`
}

// orDefault resolves a possibly-nil Extra into concrete leg options.
func (e *Extra) orDefault() Extra {
	if e == nil {
		return Extra{}
	}

	return *e
}
