package brokerage

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Record is the portable representation of an Account. Monetary values are
// exact decimal strings and timestamps RFC 3339 strings, so a Record survives
// a JSON round trip without any loss.
type Record struct {
	UserID           string        `json:"user_id"`
	Currency         string        `json:"currency"`
	Cash             Money         `json:"cash"`
	Holdings         Holdings      `json:"holdings"`
	InitialDeposit   Money         `json:"initial_deposit"`
	TotalDeposits    Money         `json:"total_deposits"`
	TotalWithdrawals Money         `json:"total_withdrawals"`
	Ledger           []Transaction `json:"ledger"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Record. Each
// ledger entry is decoded into its concrete transaction type.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var temp struct {
		plain
		Ledger []json.RawMessage `json:"ledger"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*r = Record(temp.plain)
	r.Ledger = make([]Transaction, 0, len(temp.Ledger))
	for i, raw := range temp.Ledger {
		tx, err := decodeTransaction(raw)
		if err != nil {
			return fmt.Errorf("ledger entry #%d: %w", i+1, err)
		}
		r.Ledger = append(r.Ledger, tx)
	}
	return nil
}

// Record returns a consistent portable copy of the account.
func (a *Account) Record() Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	ledger := make([]Transaction, len(a.ledger))
	copy(ledger, a.ledger)
	return Record{
		UserID:           a.userID,
		Currency:         a.currency,
		Cash:             a.cash,
		Holdings:         a.holdings.Clone(),
		InitialDeposit:   a.initialDeposit,
		TotalDeposits:    a.totalDeposits,
		TotalWithdrawals: a.totalWithdrawals,
		Ledger:           ledger,
	}
}

// FromRecord rebuilds an Account from its portable representation.
//
// Balances are not taken from the record: the ledger is replayed and every
// transaction's resulting snapshot, as well as the record's own balances and
// totals, must agree with the replay. Any disagreement is an
// ErrInvalidTransaction. opts are applied as in NewAccount.
func FromRecord(r Record, opts ...Option) (*Account, error) {
	a, err := newAccount(r.UserID, r.Currency, opts...)
	if err != nil {
		return nil, err
	}
	if r.InitialDeposit.IsNegative() {
		return nil, invalidf("initial deposit must not be negative, got %s", r.InitialDeposit)
	}
	a.initialDeposit = r.InitialDeposit
	if err := checkOpening(r); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(r.Ledger))
	for i, tx := range r.Ledger {
		if tx == nil {
			return nil, invalidf("ledger entry #%d is missing", i+1)
		}
		if _, dup := seen[tx.ID()]; dup {
			return nil, invalidf("ledger entry #%d: duplicate transaction id %q", i+1, tx.ID())
		}
		seen[tx.ID()] = struct{}{}
		if err := a.replay(tx); err != nil {
			return nil, fmt.Errorf("ledger entry #%d: %w", i+1, err)
		}
	}

	switch {
	case !r.Cash.Equal(a.cash):
		return nil, invalidf("record cash %s differs from the ledger balance %s", r.Cash, a.cash)
	case !r.Holdings.Equal(a.holdings):
		return nil, invalidf("record holdings %v differ from the ledger holdings %v", r.Holdings, a.holdings)
	case !r.TotalDeposits.Equal(a.totalDeposits):
		return nil, invalidf("record total deposits %s differ from the ledger total %s", r.TotalDeposits, a.totalDeposits)
	case !r.TotalWithdrawals.Equal(a.totalWithdrawals):
		return nil, invalidf("record total withdrawals %s differ from the ledger total %s", r.TotalWithdrawals, a.totalWithdrawals)
	}
	return a, nil
}

// checkOpening verifies that the initial deposit of r is recorded as the
// first ledger entry: a deposit noted InitialDepositNote of the same amount.
// A zero initial deposit has no such entry.
func checkOpening(r Record) error {
	var first Deposit
	opening := false
	if len(r.Ledger) > 0 {
		first, opening = r.Ledger[0].(Deposit)
		opening = opening && first.note == InitialDepositNote
	}
	switch {
	case r.InitialDeposit.IsPositive() && !opening:
		return invalidf("initial deposit %s is not recorded as the first ledger entry", r.InitialDeposit)
	case opening && !first.amount.Equal(r.InitialDeposit):
		return invalidf("first ledger entry deposits %s, the initial deposit is %s", first.amount, r.InitialDeposit)
	}
	return nil
}

// replay applies a recorded transaction to a. It is only used while the
// account is not shared yet, so it does not lock.
func (a *Account) replay(tx Transaction) error {
	switch v := tx.(type) {
	case Deposit:
		a.cash = a.cash.Add(v.amount)
		a.totalDeposits = a.totalDeposits.Add(v.amount)
	case Withdraw:
		if a.cash.LessThan(v.amount) {
			return fmt.Errorf("%w: withdrawal %s overdraws cash balance %s", ErrInvalidTransaction, v.amount, a.cash)
		}
		a.cash = a.cash.Sub(v.amount)
		a.totalWithdrawals = a.totalWithdrawals.Add(v.amount)
	case Buy:
		if a.cash.LessThan(v.amount) {
			return fmt.Errorf("%w: purchase %s overdraws cash balance %s", ErrInvalidTransaction, v.amount, a.cash)
		}
		held := a.holdings[v.symbol]
		if held > math.MaxInt64-v.quantity {
			return invalidf("position in %s would overflow", v.symbol)
		}
		a.cash = a.cash.Sub(v.amount)
		a.holdings[v.symbol] = held + v.quantity
	case Sell:
		held := a.holdings[v.symbol]
		if held < v.quantity {
			return fmt.Errorf("%w: sale of %d %s exceeds position %d", ErrInvalidTransaction, v.quantity, v.symbol, held)
		}
		if held == v.quantity {
			delete(a.holdings, v.symbol)
		} else {
			a.holdings[v.symbol] = held - v.quantity
		}
		a.cash = a.cash.Add(v.amount)
	default:
		return invalidf("unsupported transaction type %T", tx)
	}

	if !tx.CashBalance().Equal(a.cash) {
		return invalidf("transaction %s records cash %s, the ledger gives %s", tx.ID(), tx.CashBalance(), a.cash)
	}
	if !tx.Holdings().Equal(a.holdings) {
		return invalidf("transaction %s records holdings %v, the ledger gives %v", tx.ID(), tx.Holdings(), a.holdings)
	}
	a.ledger = append(a.ledger, tx)
	return nil
}

// EncodeAccount writes the account record as an indented JSON document.
func EncodeAccount(w io.Writer, a *Account) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.Record()); err != nil {
		return fmt.Errorf("failed to encode account %q: %w", a.UserID(), err)
	}
	return nil
}

// DecodeAccount reads an account record written by EncodeAccount and
// rebuilds the Account with FromRecord.
func DecodeAccount(r io.Reader, opts ...Option) (*Account, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("cannot decode account: %w", err)
	}
	return FromRecord(rec, opts...)
}
