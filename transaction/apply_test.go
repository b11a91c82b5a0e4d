package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringkubd/walletcore"
	"github.com/ringkubd/walletcore/memstore"
	"github.com/ringkubd/walletcore/pointers"
	"github.com/ringkubd/walletcore/transaction"
	"github.com/ringkubd/walletcore/wallet"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type harness struct {
	store      *memstore.Store
	regulator  *memstore.Regulator
	dispatcher *memstore.Dispatcher
	service    *transaction.Service
}

func newHarness(opts ...transaction.EngineOption) *harness {
	h := &harness{
		store:      memstore.NewStore(),
		regulator:  memstore.NewRegulator(),
		dispatcher: memstore.NewDispatcher(),
	}

	base := []transaction.EngineOption{transaction.WithDispatcher(h.dispatcher)}
	h.service = transaction.NewService(h.store, h.regulator, append(base, opts...)...)

	return h
}

func userWallet(id string, places int32) *wallet.Wallet {
	return &wallet.Wallet{
		ID:            id,
		HolderType:    "user",
		HolderID:      "holder-" + id,
		DecimalPlaces: places,
	}
}

func mustPrepare(t *testing.T, h *harness, w *wallet.Wallet, kind transaction.Kind, amount string, id string) transaction.Descriptor {
	t.Helper()

	var (
		descriptor transaction.Descriptor
		err        error
	)

	opt := transaction.Option{ID: id}

	if kind == transaction.KindDeposit {
		descriptor, err = h.service.Preparer().Deposit(w, dec(amount), decimal.Zero, opt)
	} else {
		descriptor, err = h.service.Preparer().Withdraw(w, dec(amount), decimal.Zero, opt)
	}

	require.NoError(t, err)

	return descriptor
}

func TestApplyAggregatesNetDeltaPerWallet(t *testing.T) {
	h := newHarness()
	w := userWallet("w1", 2)

	batch := []transaction.Descriptor{
		mustPrepare(t, h, w, transaction.KindDeposit, "10", "t1"),
		mustPrepare(t, h, w, transaction.KindWithdraw, "3", "t2"),
		mustPrepare(t, h, w, transaction.KindDeposit, "2", "t3"),
	}

	rows, err := h.service.Apply(context.Background(), map[string]*wallet.Wallet{"w1": w}, batch)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Three entries {+10, -3, +2} land as one combined +9 delta.
	assert.True(t, dec("9").Equal(w.Balance), "balance = %s", w.Balance)

	// Same final balance as applying the sum once.
	single := userWallet("w2", 2)
	one := mustPrepare(t, h, single, transaction.KindDeposit, "9", "t4")

	_, err = h.service.Apply(context.Background(), map[string]*wallet.Wallet{"w2": single}, []transaction.Descriptor{one})
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(single.Balance))
}

func TestApplyDispatchesEventsInInputOrder(t *testing.T) {
	h := newHarness()
	w1 := userWallet("w1", 2)
	w2 := userWallet("w2", 2)

	batch := []transaction.Descriptor{
		mustPrepare(t, h, w1, transaction.KindWithdraw, "30", "t1"),
		mustPrepare(t, h, w2, transaction.KindDeposit, "30", "t2"),
		mustPrepare(t, h, w1, transaction.KindDeposit, "5", "t3"),
	}

	wallets := map[string]*wallet.Wallet{"w1": w1, "w2": w2}

	_, err := h.service.Apply(context.Background(), wallets, batch)
	require.NoError(t, err)

	events := h.dispatcher.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "t1", events[0].TransactionID)
	assert.Equal(t, "t2", events[1].TransactionID)
	assert.Equal(t, "t3", events[2].TransactionID)
	assert.Equal(t, transaction.KindWithdraw, events[0].Kind)
	assert.True(t, dec("-30").Equal(events[0].Amount))
}

func TestApplyAtomicOnPersistenceFailure(t *testing.T) {
	h := newHarness()
	w1 := userWallet("w1", 2)
	w2 := userWallet("w2", 2)

	batch := []transaction.Descriptor{
		mustPrepare(t, h, w1, transaction.KindDeposit, "10", "t1"),
		mustPrepare(t, h, w1, transaction.KindWithdraw, "4", "t2"),
		mustPrepare(t, h, w2, transaction.KindDeposit, "7", "t3"),
		mustPrepare(t, h, w2, transaction.KindWithdraw, "1", "t4"),
		mustPrepare(t, h, w1, transaction.KindDeposit, "2", "t5"),
	}

	h.store.FailNext(errors.New("disk full"))

	_, err := h.service.Apply(context.Background(), map[string]*wallet.Wallet{"w1": w1, "w2": w2}, batch)

	var domainErr walletcore.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, walletcore.ErrorPersistenceFailure, domainErr.Code)

	// No balance changed and no notification fired for any of the five.
	assert.True(t, w1.Balance.IsZero())
	assert.True(t, w2.Balance.IsZero())
	assert.Empty(t, h.dispatcher.Events())
	assert.Zero(t, h.store.Len())
}

func TestApplyRejectsUnknownWalletBeforePersisting(t *testing.T) {
	h := newHarness()
	w1 := userWallet("w1", 2)
	orphan := userWallet("w9", 2)

	batch := []transaction.Descriptor{
		mustPrepare(t, h, w1, transaction.KindDeposit, "10", "t1"),
		mustPrepare(t, h, orphan, transaction.KindDeposit, "10", "t2"),
	}

	_, err := h.service.Apply(context.Background(), map[string]*wallet.Wallet{"w1": w1}, batch)

	var domainErr walletcore.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, walletcore.ErrorAccountNotFound, domainErr.Code)
	assert.Equal(t, "descriptors[1].walletId", domainErr.Field)

	assert.Zero(t, h.store.Len(), "nothing persists when the batch inputs mismatch")
	assert.True(t, w1.Balance.IsZero())
}

func TestApplyRejectsEmptyInputs(t *testing.T) {
	h := newHarness()
	w := userWallet("w1", 2)
	descriptor := mustPrepare(t, h, w, transaction.KindDeposit, "10", "t1")

	tests := []struct {
		name        string
		wallets     map[string]*wallet.Wallet
		descriptors []transaction.Descriptor
		field       string
	}{
		{name: "no descriptors", wallets: map[string]*wallet.Wallet{"w1": w}, field: "descriptors"},
		{name: "no wallets", descriptors: []transaction.Descriptor{descriptor}, field: "wallets"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := h.service.Apply(context.Background(), tt.wallets, tt.descriptors)

			var domainErr walletcore.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, walletcore.ErrorInvalidInput, domainErr.Code)
			assert.Equal(t, tt.field, domainErr.Field)
		})
	}
}

func TestApplyRecordMismatch(t *testing.T) {
	h := newHarness()
	w := userWallet("w1", 2)
	descriptor := mustPrepare(t, h, w, transaction.KindDeposit, "10", "t1")

	imposter := userWallet("w2", 2)

	// The batch key says w1 but the resolved wallet is w2.
	_, err := h.service.Apply(context.Background(), map[string]*wallet.Wallet{"w1": imposter}, []transaction.Descriptor{descriptor})

	var domainErr walletcore.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, walletcore.ErrorRecordMismatch, domainErr.Code)
	assert.Empty(t, h.dispatcher.Events())
}

func TestApplyRegulatorFailureKeepsEarlierDeltas(t *testing.T) {
	h := newHarness()
	w1 := userWallet("w1", 2)
	w2 := userWallet("w2", 2)

	batch := []transaction.Descriptor{
		mustPrepare(t, h, w1, transaction.KindDeposit, "10", "t1"),
		mustPrepare(t, h, w2, transaction.KindDeposit, "20", "t2"),
	}

	h.regulator.FailFor("w2", errors.New("lock timeout"))

	_, err := h.service.Apply(context.Background(), map[string]*wallet.Wallet{"w1": w1, "w2": w2}, batch)

	var domainErr walletcore.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, walletcore.ErrorRegulatorFailure, domainErr.Code)

	// Fail-fast without compensation: the wallet regulated first keeps its
	// delta, and no event is dispatched for any entry.
	assert.True(t, dec("10").Equal(w1.Balance))
	assert.True(t, w2.Balance.IsZero())
	assert.Empty(t, h.dispatcher.Events())
}

func TestApplyDuplicateReplayIsRejected(t *testing.T) {
	h := newHarness()
	w := userWallet("w1", 2)

	batch := []transaction.Descriptor{mustPrepare(t, h, w, transaction.KindDeposit, "10", "t1")}
	wallets := map[string]*wallet.Wallet{"w1": w}

	_, err := h.service.Apply(context.Background(), wallets, batch)
	require.NoError(t, err)
	require.True(t, dec("10").Equal(w.Balance))

	// Replaying the same identifiers must not double-count.
	_, err = h.service.Apply(context.Background(), wallets, batch)

	var domainErr walletcore.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, walletcore.ErrorPersistenceFailure, domainErr.Code)
	assert.True(t, dec("10").Equal(w.Balance))
	assert.Len(t, h.dispatcher.Events(), 1)
}

func TestMakeOneSubtractsKindFee(t *testing.T) {
	tests := []struct {
		name            string
		kind            transaction.Kind
		amount          string
		expectedAmount  string
		expectedFee     string
		expectedBalance string
	}{
		{name: "deposit", kind: transaction.KindDeposit, amount: "100", expectedAmount: "90", expectedFee: "10", expectedBalance: "90"},
		{name: "withdraw", kind: transaction.KindWithdraw, amount: "100", expectedAmount: "-80", expectedFee: "20", expectedBalance: "-80"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			w := userWallet("w1", 2)
			w.Fee = &wallet.FeePolicy{
				DepositPercent:  dec("10"),
				WithdrawPercent: dec("20"),
			}

			row, err := h.service.MakeOne(context.Background(), w, tt.kind, dec(tt.amount), transaction.Option{})
			require.NoError(t, err)

			assert.Equal(t, tt.kind, row.Kind)
			assert.True(t, dec(tt.expectedAmount).Equal(row.Amount), "amount = %s", row.Amount)
			assert.True(t, dec(tt.expectedFee).Equal(row.Fee))
			assert.True(t, row.Confirmed)
			assert.True(t, dec(tt.expectedBalance).Equal(w.Balance), "balance = %s", w.Balance)

			persisted, ok := h.store.Get(row.ID)
			require.True(t, ok)
			assert.Equal(t, row, persisted)
			require.Len(t, h.dispatcher.Events(), 1)
			assert.Equal(t, row.ID, h.dispatcher.Events()[0].TransactionID)
		})
	}
}

func TestMakeOneRejectsUnknownKind(t *testing.T) {
	h := newHarness()

	_, err := h.service.MakeOne(context.Background(), userWallet("w1", 2), transaction.Kind("exchange"), dec("10"), transaction.Option{})

	var domainErr walletcore.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, walletcore.ErrorInvalidInput, domainErr.Code)
}

func TestMakeOneFailsWhenFeeConsumesAmount(t *testing.T) {
	h := newHarness()
	w := userWallet("w1", 2)
	w.MinFee = pointers.To(dec("100"))

	// The clamped fee equals the whole amount, leaving a zero entry.
	_, err := h.service.Deposit(context.Background(), w, dec("100"), transaction.Option{})

	var domainErr walletcore.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, walletcore.ErrorInvalidAmount, domainErr.Code)
	assert.Zero(t, h.store.Len())
	assert.True(t, w.Balance.IsZero())
}

func TestServiceTransferEndToEnd(t *testing.T) {
	h := newHarness(transaction.WithDiscountPolicy(staticDiscount{amount: dec("30")}))

	from := userWallet("src", 2)
	from.Balance = dec("1000")
	to := userWallet("dst", 2)
	to.Fee = &wallet.FeePolicy{Percent: dec("10")}

	transfer, rows, err := h.service.Transfer(context.Background(), from, to, transaction.StatusPaid, dec("100"), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, dec("10").Equal(transfer.Fee))
	assert.True(t, dec("30").Equal(transfer.Discount))

	// Source pays deposit(70) + fee(10); destination receives 70.
	assert.True(t, dec("920").Equal(from.Balance), "source = %s", from.Balance)
	assert.True(t, dec("70").Equal(to.Balance), "destination = %s", to.Balance)

	events := h.dispatcher.Events()
	require.Len(t, events, 2)
	assert.Equal(t, transfer.Withdraw.ID, events[0].TransactionID)
	assert.Equal(t, transfer.Deposit.ID, events[1].TransactionID)
}

func TestServiceTransferToSameWalletNetsToZero(t *testing.T) {
	h := newHarness()
	w := userWallet("w1", 2)
	w.Balance = dec("55")

	transfer, rows, err := h.service.Transfer(context.Background(), w, w, transaction.StatusTransfer, dec("10"), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Two entries, one wallet, combined delta zero.
	assert.True(t, dec("55").Equal(w.Balance))
	assert.Len(t, h.dispatcher.Events(), 2)
	assert.True(t, dec("-10").Equal(transfer.Withdraw.Amount))
	assert.True(t, dec("10").Equal(transfer.Deposit.Amount))
}

type staticDiscount struct {
	amount decimal.Decimal
}

func (d staticDiscount) Discount(_, _ *wallet.Wallet) decimal.Decimal {
	return d.amount
}
