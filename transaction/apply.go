package transaction

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ringkubd/walletcore"
	"github.com/ringkubd/walletcore/safe"
	"github.com/ringkubd/walletcore/tax"
	"github.com/ringkubd/walletcore/wallet"
)

// Service atomically applies batches of descriptors: persist, aggregate
// per-wallet net deltas, regulate balances, dispatch created events. The
// service holds no mutable state and is safe for concurrent use; per-wallet
// mutual exclusion during balance application is the Regulator's contract.
type Service struct {
	store     Store
	regulator Regulator

	dispatcher Dispatcher
	preparer   *Preparer
	taxes      tax.Calculator
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewService returns an application engine over the given store and
// regulator. The dispatcher, discount policy, clock, identifier source,
// logger, and tracer are injected through options.
func NewService(store Store, regulator Regulator, opts ...EngineOption) *Service {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Service{
		store:      store,
		regulator:  regulator,
		dispatcher: cfg.dispatcher,
		preparer: &Preparer{
			taxes:     tax.NewCalculator(),
			discounts: cfg.discounts,
			clock:     cfg.clock,
			ids:       cfg.ids,
			logger:    cfg.logger,
		},
		taxes:  tax.NewCalculator(),
		logger: cfg.logger,
		tracer: cfg.tracer,
	}
}

// Preparer exposes the descriptor preparer this service was built with, for
// callers that stage descriptors before applying them as one batch.
func (s *Service) Preparer() *Preparer {
	return s.preparer
}

// Apply persists the batch, applies the aggregated balance deltas, and
// dispatches one created event per entry, in that order. Observers therefore
// never see an event for an entry whose balance effect is not yet visible,
// and a persistence failure never leaves balances mutated.
//
// Preconditions: wallets and descriptors are non-empty, and every
// descriptor's wallet key is present in wallets; violations surface before
// any side effect. A batch key whose resolved wallet carries a different ID
// is a programming-contract violation and aborts with RECORD_MISMATCH.
//
// A regulator failure aborts fail-fast: wallets regulated earlier in the
// same call keep their deltas, and no event is dispatched. There is no
// compensation here; callers needing batch-wide balance atomicity must
// supply a Regulator that is transactional across the batch.
//
// Returns the persisted rows keyed by transaction identifier.
func (s *Service) Apply(ctx context.Context, wallets map[string]*wallet.Wallet, descriptors []Descriptor) (map[string]Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "transaction.apply", trace.WithAttributes(
		attribute.Int("descriptors", len(descriptors)),
		attribute.Int("wallets", len(wallets)),
	))
	defer span.End()

	if len(descriptors) == 0 {
		return nil, s.fail(span, walletcore.NewDomainError(walletcore.ErrorInvalidInput, "descriptors", "at least one descriptor is required"))
	}

	if len(wallets) == 0 {
		return nil, s.fail(span, walletcore.NewDomainError(walletcore.ErrorInvalidInput, "wallets", "at least one wallet is required"))
	}

	for i, descriptor := range descriptors {
		if _, ok := wallets[descriptor.WalletID]; !ok {
			return nil, s.fail(span, walletcore.NewDomainError(
				walletcore.ErrorAccountNotFound,
				fmt.Sprintf("descriptors[%d].walletId", i),
				"descriptor wallet is not present in the batch wallet set",
			))
		}
	}

	rows, err := s.store.CreateAll(ctx, descriptors)
	if err != nil {
		s.logger.Error("persist batch",
			zap.Int("descriptors", len(descriptors)),
			zap.Error(err),
		)

		return nil, s.fail(span, walletcore.WrapDomainError(walletcore.ErrorPersistenceFailure, "descriptors", "persisting batch", err))
	}

	if len(rows) != len(descriptors) {
		return nil, s.fail(span, walletcore.NewDomainError(
			walletcore.ErrorPersistenceFailure,
			"descriptors",
			fmt.Sprintf("store returned %d rows for %d descriptors", len(rows), len(descriptors)),
		))
	}

	totals, order := sums(descriptors)

	for _, walletID := range order {
		w := wallets[walletID]
		if w == nil || w.ID != walletID {
			return nil, s.fail(span, walletcore.NewDomainError(walletcore.ErrorRecordMismatch, "wallets."+walletID, "resolved wallet does not match its batch key"))
		}

		if err := s.regulator.Increase(ctx, w, totals[walletID]); err != nil {
			s.logger.Error("apply net delta",
				zap.String("wallet_id", walletID),
				zap.String("delta", totals[walletID].String()),
				zap.Error(err),
			)

			return nil, s.fail(span, walletcore.WrapDomainError(walletcore.ErrorRegulatorFailure, "wallets."+walletID, "applying net delta", err))
		}
	}

	byID := make(map[string]Transaction, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	for _, row := range rows {
		s.dispatcher.Dispatch(ctx, NewCreatedEvent(row))
	}

	s.logger.Debug("applied batch",
		zap.Int("entries", len(rows)),
		zap.Int("wallets", len(totals)),
	)

	return byID, nil
}

// MakeOne computes the kind-specific fee, subtracts it from the nominal
// amount at the wallet's scale, prepares a single descriptor, and applies it
// as a one-entry batch.
func (s *Service) MakeOne(ctx context.Context, w *wallet.Wallet, kind Kind, amount decimal.Decimal, opt Option) (Transaction, error) {
	var fee decimal.Decimal

	switch kind {
	case KindDeposit:
		fee = s.taxes.DepositFee(w, amount)
	case KindWithdraw:
		fee = s.taxes.WithdrawFee(w, amount)
	default:
		return Transaction{}, walletcore.NewDomainError(walletcore.ErrorInvalidInput, "kind", "kind must be deposit or withdraw")
	}

	net := safe.SubAt(amount, fee, w.DecimalPlaces)

	var (
		descriptor Descriptor
		err        error
	)

	if kind == KindDeposit {
		descriptor, err = s.preparer.Deposit(w, net, fee, opt)
	} else {
		descriptor, err = s.preparer.Withdraw(w, net, fee, opt)
	}

	if err != nil {
		return Transaction{}, err
	}

	rows, err := s.Apply(ctx, map[string]*wallet.Wallet{w.ID: w}, []Descriptor{descriptor})
	if err != nil {
		return Transaction{}, err
	}

	return rows[descriptor.ID], nil
}

// Deposit credits amount (minus the deposit fee) to w as a single entry.
func (s *Service) Deposit(ctx context.Context, w *wallet.Wallet, amount decimal.Decimal, opt Option) (Transaction, error) {
	return s.MakeOne(ctx, w, KindDeposit, amount, opt)
}

// Withdraw debits amount (minus the withdraw fee) from w as a single entry.
func (s *Service) Withdraw(ctx context.Context, w *wallet.Wallet, amount decimal.Decimal, opt Option) (Transaction, error) {
	return s.MakeOne(ctx, w, KindWithdraw, amount, opt)
}

// Transfer prepares a transfer and applies both legs as one batch. It
// returns the transfer descriptor and the persisted rows keyed by
// transaction identifier.
func (s *Service) Transfer(ctx context.Context, from, to *wallet.Wallet, status TransferStatus, amount decimal.Decimal, extra *Extra) (TransferDescriptor, map[string]Transaction, error) {
	transfer, err := s.preparer.Transfer(from, to, status, amount, extra)
	if err != nil {
		return TransferDescriptor{}, nil, err
	}

	wallets := map[string]*wallet.Wallet{
		from.ID: from,
		to.ID:   to,
	}

	rows, err := s.Apply(ctx, wallets, []Descriptor{transfer.Withdraw, transfer.Deposit})
	if err != nil {
		return TransferDescriptor{}, nil, err
	}

	return transfer, rows, nil
}

// sums aggregates signed amounts per wallet key. A wallet touched by several
// entries in one batch receives one combined delta: applying N entries must
// produce the same final balance as applying their per-wallet sum once. The
// returned order is first-touch order over the descriptors, keeping delta
// application deterministic.
func sums(descriptors []Descriptor) (map[string]decimal.Decimal, []string) {
	totals := make(map[string]decimal.Decimal, len(descriptors))
	order := make([]string, 0, len(descriptors))

	for _, descriptor := range descriptors {
		total, seen := totals[descriptor.WalletID]
		if !seen {
			order = append(order, descriptor.WalletID)
		}

		totals[descriptor.WalletID] = total.Add(descriptor.Amount)
	}

	return totals, order
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
