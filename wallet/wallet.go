// Package wallet defines the account entity the accounting engines operate
// on: a balance scoped to a fixed decimal precision, an owning holder
// reference, and an optional set of fee capabilities.
package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ringkubd/walletcore"
)

// FeePolicy carries the fee percentages a wallet charges per operation kind.
// Percentages are in [0, 100]; values outside that range are a caller
// contract violation and are not validated here.
type FeePolicy struct {
	Percent         decimal.Decimal `json:"percent"`
	DepositPercent  decimal.Decimal `json:"depositPercent"`
	WithdrawPercent decimal.Decimal `json:"withdrawPercent"`
}

// HolderRef is the polymorphic reference to the entity owning a wallet.
type HolderRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Wallet is an account with a balance, a fixed decimal scale, and an
// optional fee capability set. A nil capability field means "no fee" or
// "no clamp", never an error.
//
// Balance is mutated only through the application engine's Regulator port;
// preparation logic never touches it.
type Wallet struct {
	ID            string           `json:"id"`
	HolderType    string           `json:"holderType"`
	HolderID      string           `json:"holderId"`
	DecimalPlaces int32            `json:"decimalPlaces"`
	Balance       decimal.Decimal  `json:"balance"`
	Fee           *FeePolicy       `json:"fee,omitempty"`
	MinFee        *decimal.Decimal `json:"minFee,omitempty"`
	MaxFee        *decimal.Decimal `json:"maxFee,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Holder returns the owning holder reference.
func (w *Wallet) Holder() HolderRef {
	return HolderRef{Type: w.HolderType, ID: w.HolderID}
}

// CheckPositive fails with an INVALID_AMOUNT domain error when amount is not
// strictly positive. It runs before any arithmetic in the preparation paths.
func CheckPositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return walletcore.NewDomainError(walletcore.ErrorInvalidAmount, "amount", "amount must be greater than zero")
	}

	return nil
}

// CheckNonNegative fails with an INVALID_AMOUNT domain error when amount is
// negative. Zero is allowed; transfer legs use this where a discount may
// floor the deposit amount at zero.
func CheckNonNegative(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return walletcore.NewDomainError(walletcore.ErrorInvalidAmount, "amount", "amount must not be negative")
	}

	return nil
}

// ValidateFeeBounds rejects fee configurations where the minimum clamp
// exceeds the maximum. The fee engine itself applies minimum before maximum
// unconditionally, so an unvalidated min>max policy silently yields the
// maximum; loaders that want to surface the misconfiguration call this at
// account-load time.
func ValidateFeeBounds(w *Wallet) error {
	if w.MinFee != nil && w.MaxFee != nil && w.MinFee.GreaterThan(*w.MaxFee) {
		return walletcore.NewDomainError(walletcore.ErrorInvalidInput, "minFee", "minimum fee exceeds maximum fee")
	}

	return nil
}
