// Package tax computes operation fees from a wallet's fee-policy capability.
//
// A wallet without a fee policy pays zero. Otherwise the fee is the policy
// percentage of the amount, floored at the wallet's decimal scale, then
// clamped to the optional minimum and maximum bounds. Minimum is applied
// before maximum, so a policy where minimum exceeds maximum yields the
// maximum; use wallet.ValidateFeeBounds to reject such configurations at
// load time.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ringkubd/walletcore/safe"
	"github.com/ringkubd/walletcore/wallet"
)

// Calculator derives fees from wallet fee policies. The zero value is ready
// to use; the engine is pure and stateless.
type Calculator struct{}

// NewCalculator returns a fee calculator.
func NewCalculator() Calculator {
	return Calculator{}
}

// Fee returns the kind-agnostic fee for amount on w.
func (Calculator) Fee(w *wallet.Wallet, amount decimal.Decimal) decimal.Decimal {
	fee := decimal.Zero
	if w.Fee != nil {
		fee = safe.PercentOf(amount, w.Fee.Percent, w.DecimalPlaces)
	}

	return clamp(w, fee)
}

// DepositFee returns the fee for depositing amount on w.
func (Calculator) DepositFee(w *wallet.Wallet, amount decimal.Decimal) decimal.Decimal {
	fee := decimal.Zero
	if w.Fee != nil {
		fee = safe.PercentOf(amount, w.Fee.DepositPercent, w.DecimalPlaces)
	}

	return clamp(w, fee)
}

// WithdrawFee returns the fee for withdrawing amount from w.
func (Calculator) WithdrawFee(w *wallet.Wallet, amount decimal.Decimal) decimal.Decimal {
	fee := decimal.Zero
	if w.Fee != nil {
		fee = safe.PercentOf(amount, w.Fee.WithdrawPercent, w.DecimalPlaces)
	}

	return clamp(w, fee)
}

// clamp applies the minimum bound, then the maximum. Last write wins when
// both apply.
func clamp(w *wallet.Wallet, fee decimal.Decimal) decimal.Decimal {
	if w.MinFee != nil {
		fee = safe.Max(fee, *w.MinFee)
	}

	if w.MaxFee != nil {
		fee = safe.Min(fee, *w.MaxFee)
	}

	return fee
}
