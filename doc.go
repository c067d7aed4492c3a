// Package brokerage implements a single-account brokerage ledger. It tracks
// the cash and share positions of one user, refuses any movement that would
// leave the account insolvent, and keeps an append-only history of every
// movement that is sufficient to rebuild the balances.
//
// The core functionalities include:
//   - Account: the stateful engine. Deposits, withdrawals, buys and sells are
//     validated, applied and recorded atomically under one lock.
//   - Transactions: immutable records of each ledger event, carrying the cash
//     balance and the holdings that resulted from it.
//   - Money: exact 2-digit decimal amounts, never binary floating point.
//   - Price lookup: a pluggable capability used to value and trade securities,
//     with a static table by default and an HTTP quote service.
//   - Data persistence: encoding and decoding of accounts and ledgers to and
//     from JSON and JSONL, verified by replaying the ledger.
//
// This package serves as the foundational logic for the `brk` command-line
// tool, which is only a thin presentation layer on top of it.
package brokerage
