package brokerage

import (
	"errors"
	"fmt"
)

// ErrAccount is the base of every error returned by an Account.
var ErrAccount = errors.New("account error")

// The three kinds of account errors. They all wrap ErrAccount.
var (
	// ErrInvalidTransaction reports malformed or out-of-range input: non
	// positive amounts or quantities, unknown symbols, inexact monetary
	// values, unknown transaction ids.
	ErrInvalidTransaction = fmt.Errorf("%w: invalid transaction", ErrAccount)
	// ErrInsufficientFunds reports a withdrawal or purchase that would drive cash negative.
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient funds", ErrAccount)
	// ErrInsufficientShares reports a sale larger than the position held.
	ErrInsufficientShares = fmt.Errorf("%w: insufficient shares", ErrAccount)
)

// ErrorKind classifies errors into the closed set of account error kinds.
type ErrorKind int

const (
	NoError ErrorKind = iota
	InvalidTransaction
	InsufficientFunds
	InsufficientShares
	OtherError
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case InvalidTransaction:
		return "invalid transaction"
	case InsufficientFunds:
		return "insufficient funds"
	case InsufficientShares:
		return "insufficient shares"
	default:
		return "other"
	}
}

// KindOf returns the kind of err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, ErrInvalidTransaction):
		return InvalidTransaction
	case errors.Is(err, ErrInsufficientFunds):
		return InsufficientFunds
	case errors.Is(err, ErrInsufficientShares):
		return InsufficientShares
	default:
		return OtherError
	}
}

// invalidf returns an ErrInvalidTransaction with a formatted message.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransaction, fmt.Sprintf(format, args...))
}
