package transaction

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ringkubd/walletcore/safe"
	"github.com/ringkubd/walletcore/tax"
	"github.com/ringkubd/walletcore/wallet"
)

// Preparer builds immutable transaction descriptors. It holds no mutable
// state and is safe for concurrent use.
type Preparer struct {
	taxes     tax.Calculator
	discounts DiscountPolicy
	clock     Clock
	ids       IDGenerator
	logger    *zap.Logger
}

// NewPreparer returns a descriptor preparer. Without options it generates
// UUID identifiers, stamps UTC time, applies no discounts, and stays silent.
func NewPreparer(opts ...EngineOption) *Preparer {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Preparer{
		taxes:     tax.NewCalculator(),
		discounts: cfg.discounts,
		clock:     cfg.clock,
		ids:       cfg.ids,
		logger:    cfg.logger,
	}
}

// Deposit builds a deposit descriptor for amount on w. Fails with
// INVALID_AMOUNT when amount is not strictly positive; the check runs before
// any arithmetic.
func (p *Preparer) Deposit(w *wallet.Wallet, amount, fee decimal.Decimal, opt Option) (Descriptor, error) {
	if err := wallet.CheckPositive(amount); err != nil {
		return Descriptor{}, err
	}

	return p.assemble(w, KindDeposit, amount, fee, opt), nil
}

// Withdraw builds a withdraw descriptor for amount from w. The amount is
// validated positive first and negated afterwards, so the stored amount is
// always <= 0.
func (p *Preparer) Withdraw(w *wallet.Wallet, amount, fee decimal.Decimal, opt Option) (Descriptor, error) {
	if err := wallet.CheckPositive(amount); err != nil {
		return Descriptor{}, err
	}

	return p.assemble(w, KindWithdraw, amount.Neg(), fee, opt), nil
}

// Transfer composes a paired withdraw+deposit descriptor set for moving
// amount from one wallet to another. The orchestration order is a
// correctness contract:
//
//  1. discount = DiscountPolicy(from, to)
//  2. fee from the destination's policy, on the nominal amount — the fee is
//     always charged per the receiving wallet, never the sender's policy
//  3. amount - discount at the destination's decimal scale
//  4. deposit amount floors at zero; an oversized discount never produces a
//     negative deposit
//  5. withdraw amount = deposit amount + fee at the source's decimal scale
//
// The nominal amount must be strictly positive, but the legs themselves may
// land at zero: a discount larger than the amount floors the deposit at zero
// and the source still pays the fee. Both legs carry the same fee. Leg
// options come from extra (nil applies defaults to both legs). Self-transfer
// is legal and still produces two entries.
func (p *Preparer) Transfer(from, to *wallet.Wallet, status TransferStatus, amount decimal.Decimal, extra *Extra) (TransferDescriptor, error) {
	if err := wallet.CheckPositive(amount); err != nil {
		return TransferDescriptor{}, err
	}

	discount := p.discounts.Discount(from, to)
	fee := p.taxes.Fee(to, amount)

	afterDiscount := safe.SubAt(amount, discount, to.DecimalPlaces)
	depositAmount := safe.Max(afterDiscount, decimal.Zero)
	withdrawAmount := safe.AddAt(depositAmount, fee, from.DecimalPlaces)

	ext := extra.orDefault()

	withdraw, err := p.withdrawLeg(from, withdrawAmount, fee, ext.Withdraw)
	if err != nil {
		return TransferDescriptor{}, err
	}

	deposit, err := p.depositLeg(to, depositAmount, fee, ext.Deposit)
	if err != nil {
		return TransferDescriptor{}, err
	}

	id := ext.ID
	if id == "" {
		id = p.ids.NewID()
	}

	p.logger.Debug("prepared transfer",
		zap.String("transfer_id", id),
		zap.String("from_wallet", from.ID),
		zap.String("to_wallet", to.ID),
		zap.String("deposit_amount", depositAmount.String()),
		zap.String("withdraw_amount", withdrawAmount.String()),
		zap.String("fee", fee.String()),
		zap.String("discount", discount.String()),
	)

	return TransferDescriptor{
		ID:           id,
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Discount:     discount,
		Fee:          fee,
		Withdraw:     withdraw,
		Deposit:      deposit,
		Status:       status,
		Metadata:     ext.Meta,
	}, nil
}

// depositLeg builds the deposit side of a transfer. Unlike Deposit it
// accepts a zero amount, which arises when the discount floors the deposit.
func (p *Preparer) depositLeg(w *wallet.Wallet, amount, fee decimal.Decimal, opt Option) (Descriptor, error) {
	if err := wallet.CheckNonNegative(amount); err != nil {
		return Descriptor{}, err
	}

	return p.assemble(w, KindDeposit, amount, fee, opt), nil
}

// withdrawLeg builds the withdraw side of a transfer. A zero amount is legal
// when the deposit floored at zero and the destination charges no fee.
func (p *Preparer) withdrawLeg(w *wallet.Wallet, amount, fee decimal.Decimal, opt Option) (Descriptor, error) {
	if err := wallet.CheckNonNegative(amount); err != nil {
		return Descriptor{}, err
	}

	return p.assemble(w, KindWithdraw, amount.Neg(), fee, opt), nil
}

func (p *Preparer) assemble(w *wallet.Wallet, kind Kind, amount, fee decimal.Decimal, opt Option) Descriptor {
	id := opt.ID
	if id == "" {
		id = p.ids.NewID()
	}

	now := p.clock.Now()

	return Descriptor{
		ID:         id,
		HolderType: w.HolderType,
		HolderID:   w.HolderID,
		WalletID:   w.ID,
		Kind:       kind,
		Amount:     amount,
		Fee:        fee,
		Confirmed:  opt.confirmed(),
		Metadata:   opt.Meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
