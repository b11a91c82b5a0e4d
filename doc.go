// Package walletcore is the accounting core of a wallet ledger.
//
// The core is split across three engines:
//   - tax computes fees from a wallet's fee-policy capability, clamped to
//     configured minimum/maximum bounds.
//   - transaction.Preparer builds immutable deposit/withdraw descriptors and
//     composes a transfer (discount + fee + rounding) into a paired
//     withdraw/deposit descriptor set.
//   - transaction.Service persists a batch of descriptors, aggregates
//     per-wallet net deltas, applies them to balances, and emits one created
//     event per entry, all-or-nothing.
//
// All monetary values are shopspring decimals; arithmetic is exact at each
// wallet's configured decimal scale. Storage, balance regulation, and event
// dispatch are consumed through narrow ports; memstore provides in-memory
// reference implementations.
//
// This root package holds the typed domain errors shared by all subpackages.
package walletcore
