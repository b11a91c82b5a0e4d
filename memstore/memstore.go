// Package memstore provides in-memory implementations of the transaction
// collaborator ports. They honor the same contracts the engines rely on —
// all-or-nothing persistence with identifier uniqueness, per-wallet
// serialized balance regulation, ordered event capture — and serve as both
// test doubles and a starting point for real integrations.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ringkubd/walletcore/transaction"
	"github.com/ringkubd/walletcore/wallet"
)

// Store keeps persisted transactions in memory, keyed by identifier.
// Duplicate identifiers are rejected for the whole batch, which is what
// makes replaying an already-applied batch surface a persistence failure
// instead of double-counting.
type Store struct {
	mu       sync.Mutex
	rows     map[string]transaction.Transaction
	failNext error
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{rows: make(map[string]transaction.Transaction)}
}

// FailNext makes the next CreateAll call fail with err, once.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNext = err
}

// CreateAll persists every descriptor or none. The returned rows correlate
// 1:1 in order with the descriptors.
func (s *Store) CreateAll(_ context.Context, descriptors []transaction.Descriptor) ([]transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil

		return nil, err
	}

	seen := make(map[string]struct{}, len(descriptors))

	for _, descriptor := range descriptors {
		if _, dup := s.rows[descriptor.ID]; dup {
			return nil, fmt.Errorf("transaction %q already persisted", descriptor.ID)
		}

		if _, dup := seen[descriptor.ID]; dup {
			return nil, fmt.Errorf("duplicate transaction id %q in batch", descriptor.ID)
		}

		seen[descriptor.ID] = struct{}{}
	}

	rows := make([]transaction.Transaction, len(descriptors))
	for i, descriptor := range descriptors {
		row := transaction.Transaction{
			ID:         descriptor.ID,
			HolderType: descriptor.HolderType,
			HolderID:   descriptor.HolderID,
			WalletID:   descriptor.WalletID,
			Kind:       descriptor.Kind,
			Amount:     descriptor.Amount,
			Fee:        descriptor.Fee,
			Confirmed:  descriptor.Confirmed,
			Metadata:   descriptor.Metadata,
			CreatedAt:  descriptor.CreatedAt,
			UpdatedAt:  descriptor.UpdatedAt,
		}
		s.rows[row.ID] = row
		rows[i] = row
	}

	return rows, nil
}

// Get returns the persisted row with the given identifier.
func (s *Store) Get(id string) (transaction.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]

	return row, ok
}

// Len returns the number of persisted rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.rows)
}

// Regulator applies balance deltas under a store-wide mutex, satisfying the
// per-wallet serialization contract.
type Regulator struct {
	mu       sync.Mutex
	failures map[string]error
}

// NewRegulator returns an in-memory balance regulator.
func NewRegulator() *Regulator {
	return &Regulator{failures: make(map[string]error)}
}

// FailFor makes every Increase for the given wallet fail with err.
func (r *Regulator) FailFor(walletID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures[walletID] = err
}

// Increase applies the signed delta to the wallet's balance.
func (r *Regulator) Increase(_ context.Context, w *wallet.Wallet, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failures[w.ID]; err != nil {
		return err
	}

	w.Balance = w.Balance.Add(delta)

	return nil
}

// Dispatcher records created events in dispatch order.
type Dispatcher struct {
	mu     sync.Mutex
	events []transaction.CreatedEvent
}

// NewDispatcher returns an event-recording dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Dispatch appends the event to the record.
func (d *Dispatcher) Dispatch(_ context.Context, event transaction.CreatedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events = append(d.events, event)
}

// Events returns a copy of the recorded events in dispatch order.
func (d *Dispatcher) Events() []transaction.CreatedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]transaction.CreatedEvent, len(d.events))
	copy(out, d.events)

	return out
}
