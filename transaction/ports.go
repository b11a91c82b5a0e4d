package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ringkubd/walletcore/wallet"
)

// Store persists ledger entries. CreateAll is all-or-nothing: either every
// descriptor becomes a row or none does, and the returned slice correlates
// 1:1 in order with the input. Implementations enforce identifier uniqueness
// so that replaying a batch with already-persisted IDs fails instead of
// duplicating entries.
type Store interface {
	CreateAll(ctx context.Context, descriptors []Descriptor) ([]Transaction, error)
}

// Regulator applies a signed net delta to one wallet's balance. The call
// must be atomic per wallet: concurrent increases against the same wallet
// serialize inside the implementation (row lock, compare-and-swap loop, or a
// process-wide mutex). The delta is always passed, never a precomputed
// absolute balance. On success the implementation updates w.Balance.
type Regulator interface {
	Increase(ctx context.Context, w *wallet.Wallet, delta decimal.Decimal) error
}

// Dispatcher delivers created events to observers. Delivery guarantees are
// the dispatcher's concern; the engine fires and forgets.
type Dispatcher interface {
	Dispatch(ctx context.Context, event CreatedEvent)
}

// DiscountPolicy resolves the discount the destination grants the source on
// a transfer. It returns zero when no relation exists and never a negative
// value.
type DiscountPolicy interface {
	Discount(from, to *wallet.Wallet) decimal.Decimal
}

// Clock supplies descriptor timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies globally unique descriptor identifiers.
type IDGenerator interface {
	NewID() string
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

type zeroDiscount struct{}

func (zeroDiscount) Discount(_, _ *wallet.Wallet) decimal.Decimal {
	return decimal.Zero
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, CreatedEvent) {}
