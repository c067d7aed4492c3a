package brokerage

import (
	"fmt"
	"time"
)

// TxType identifies the kind of a ledger event.
type TxType string

// Transaction types recorded in the ledger.
const (
	TypeDeposit  TxType = "deposit"
	TypeWithdraw TxType = "withdraw"
	TypeBuy      TxType = "buy"
	TypeSell     TxType = "sell"
)

// TxTypes lists every transaction type, in a stable order.
var TxTypes = []TxType{TypeDeposit, TypeWithdraw, TypeBuy, TypeSell}

// ParseTxType parses a transaction type name.
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(s); t {
	case TypeDeposit, TypeWithdraw, TypeBuy, TypeSell:
		return t, nil
	default:
		return "", invalidf("unknown transaction type %q", s)
	}
}

// Transaction is an immutable record of one ledger event.
//
// The concrete types are Deposit, Withdraw, Buy and Sell. Besides the event
// itself, a Transaction carries the cash balance and the holdings of the
// account right after it was applied, so that the ledger can be audited
// without any other state.
type Transaction interface {
	ID() string      // ID returns the unique identifier assigned at creation.
	What() TxType    // What returns the transaction type.
	When() time.Time // When returns the UTC time of the event.
	Note() string    // Note returns the optional free text.
	// Amount returns the cash moved by the transaction, always positive.
	Amount() Money
	// Total returns price times quantity for trades, the amount otherwise.
	Total() Money
	// CashBalance returns the account cash right after the transaction.
	CashBalance() Money
	// Holdings returns a copy of the account holdings right after the transaction.
	Holdings() Holdings
	Equal(Transaction) bool

	base() baseTx
}

// baseTx holds the fields common to every transaction.
type baseTx struct {
	id       string
	what     TxType
	when     time.Time
	note     string
	amount   Money
	cash     Money
	holdings Holdings // nil when the account holds nothing.
}

func (t baseTx) ID() string         { return t.id }
func (t baseTx) What() TxType       { return t.what }
func (t baseTx) When() time.Time    { return t.when }
func (t baseTx) Note() string       { return t.note }
func (t baseTx) Amount() Money      { return t.amount }
func (t baseTx) Total() Money       { return t.amount }
func (t baseTx) CashBalance() Money { return t.cash }
func (t baseTx) Holdings() Holdings { return t.holdings.Clone() }
func (t baseTx) base() baseTx       { return t }

func (t baseTx) equal(o baseTx) bool {
	return t.id == o.id &&
		t.what == o.what &&
		t.when.Equal(o.when) &&
		t.note == o.note &&
		t.amount.Equal(o.amount) &&
		t.cash.Equal(o.cash) &&
		t.holdings.Equal(o.holdings)
}

// tradeTx is the component for transactions on a security (buy, sell).
type tradeTx struct {
	baseTx
	symbol   string
	quantity int64
	price    Money
}

// Symbol returns the normalized ticker symbol.
func (t tradeTx) Symbol() string { return t.symbol }

// Quantity returns the number of shares traded.
func (t tradeTx) Quantity() int64 { return t.quantity }

// PricePerShare returns the unit price the trade was executed at.
func (t tradeTx) PricePerShare() Money { return t.price }

// Total returns price per share times quantity.
func (t tradeTx) Total() Money { return t.price.Mul(t.quantity) }

func (t tradeTx) equal(o tradeTx) bool {
	return t.baseTx.equal(o.baseTx) && t.symbol == o.symbol && t.quantity == o.quantity && t.price.Equal(o.price)
}

// Deposit records cash added to the account.
type Deposit struct{ baseTx }

func (t Deposit) Equal(other Transaction) bool {
	o, ok := other.(Deposit)
	return ok && t.baseTx.equal(o.baseTx)
}

func (t Deposit) MarshalJSON() ([]byte, error) { return marshalTransaction(t) }

func (t Deposit) String() string {
	return fmt.Sprintf("deposit %s on %s", t.amount, t.when.Format(time.RFC3339))
}

// Withdraw records cash removed from the account.
type Withdraw struct{ baseTx }

func (t Withdraw) Equal(other Transaction) bool {
	o, ok := other.(Withdraw)
	return ok && t.baseTx.equal(o.baseTx)
}

func (t Withdraw) MarshalJSON() ([]byte, error) { return marshalTransaction(t) }

func (t Withdraw) String() string {
	return fmt.Sprintf("withdraw %s on %s", t.amount, t.when.Format(time.RFC3339))
}

// Buy records a purchase of shares paid from the account cash.
type Buy struct{ tradeTx }

func (t Buy) Equal(other Transaction) bool {
	o, ok := other.(Buy)
	return ok && t.tradeTx.equal(o.tradeTx)
}

func (t Buy) MarshalJSON() ([]byte, error) { return marshalTransaction(t) }

func (t Buy) String() string {
	return fmt.Sprintf("buy %d %s at %s on %s", t.quantity, t.symbol, t.price, t.when.Format(time.RFC3339))
}

// Sell records a sale of shares credited to the account cash.
type Sell struct{ tradeTx }

func (t Sell) Equal(other Transaction) bool {
	o, ok := other.(Sell)
	return ok && t.tradeTx.equal(o.tradeTx)
}

func (t Sell) MarshalJSON() ([]byte, error) { return marshalTransaction(t) }

func (t Sell) String() string {
	return fmt.Sprintf("sell %d %s at %s on %s", t.quantity, t.symbol, t.price, t.when.Format(time.RFC3339))
}

// marshalTransaction writes the fields of tx in the ledger schema order.
func marshalTransaction(tx Transaction) ([]byte, error) {
	b := tx.base()
	var w jsonObjectWriter
	w.Append("id", b.id)
	w.Append("type", b.what)
	w.Append("amount", b.amount)
	var trade tradeTx
	switch v := tx.(type) {
	case Buy:
		trade = v.tradeTx
	case Sell:
		trade = v.tradeTx
	}
	if trade.symbol != "" {
		w.Append("symbol", trade.symbol)
		w.Append("quantity", trade.quantity)
		w.Append("price_per_share", trade.price)
	}
	w.Append("total", tx.Total())
	w.Append("timestamp", b.when)
	w.Optional("note", b.note)
	w.Append("resulting_cash_balance", b.cash)
	if len(b.holdings) > 0 {
		w.Append("resulting_holdings_snapshot", b.holdings)
	}
	return w.MarshalJSON()
}
