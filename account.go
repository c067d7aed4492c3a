package brokerage

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is the account currency used when none is given.
const DefaultCurrency = "USD"

// InitialDepositNote is the note of the deposit recorded by NewAccount.
const InitialDepositNote = "initial_deposit"

// Option customizes a single Account operation.
type Option func(*options)

type options struct {
	when   time.Time
	note   string
	prices PriceLookup
}

// At sets the time of the recorded transaction. It defaults to now.
func At(t time.Time) Option { return func(o *options) { o.when = t } }

// WithNote attaches a free text note to the recorded transaction.
func WithNote(note string) Option { return func(o *options) { o.note = note } }

// WithPrices sets the PriceLookup used by the operation. Passed to NewAccount
// it sets the account default, used by every operation that does not
// override it.
func WithPrices(p PriceLookup) Option { return func(o *options) { o.prices = p } }

// Account is the ledger of a single user: a cash balance, share holdings, and
// the ordered list of transactions that produced them.
//
// All methods are safe for concurrent use. Every state change and every read
// of the mutable state happens under a single exclusive lock, so a balance
// check and the mutation it guards are atomic.
type Account struct {
	userID   string
	currency string
	prices   PriceLookup
	now      func() time.Time
	newID    func() string

	mu               sync.Mutex
	cash             Money
	holdings         Holdings
	initialDeposit   Money
	totalDeposits    Money
	totalWithdrawals Money
	ledger           []Transaction
}

// NewAccount creates the account of userID in currency (DefaultCurrency if
// empty).
//
// A positive initialDeposit is recorded as the first transaction of the
// ledger, a deposit noted InitialDepositNote. It is also the baseline of
// ProfitLossFromInitial. At sets the time of that deposit and WithPrices the
// default PriceLookup of the account.
func NewAccount(userID string, initialDeposit Money, currency string, opts ...Option) (*Account, error) {
	a, err := newAccount(userID, currency, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.open(initialDeposit, a.resolve(opts)); err != nil {
		return nil, err
	}
	return a, nil
}

// open sets the initial deposit of a new account and records it, when
// positive, as the first transaction of the ledger.
func (a *Account) open(initial Money, o options) error {
	if initial.IsNegative() {
		return invalidf("initial deposit must not be negative, got %s", initial)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialDeposit = initial
	if initial.IsPositive() {
		o.note = InitialDepositNote
		a.applyDeposit(initial, o)
	}
	return nil
}

// newAccount returns an empty account, with no transactions.
func newAccount(userID, currency string, opts ...Option) (*Account, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidf("user id must not be empty")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if err := ValidateCurrency(currency); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	prices := o.prices
	if prices == nil {
		prices = DefaultPrices
	}
	return &Account{
		userID:   userID,
		currency: currency,
		prices:   prices,
		now:      time.Now,
		newID:    uuid.NewString,
		holdings: make(Holdings),
		ledger:   make([]Transaction, 0),
	}, nil
}

// resolve applies opts over the account defaults.
func (a *Account) resolve(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.when.IsZero() {
		o.when = a.now()
	}
	o.when = o.when.UTC()
	if o.prices == nil {
		o.prices = a.prices
	}
	return o
}

// newBase returns the common part of a transaction applied just now.
// The caller must hold a.mu.
func (a *Account) newBase(what TxType, amount Money, o options) baseTx {
	b := baseTx{
		id:     a.newID(),
		what:   what,
		when:   o.when,
		note:   o.note,
		amount: amount,
		cash:   a.cash,
	}
	if len(a.holdings) > 0 {
		b.holdings = a.holdings.Clone()
	}
	return b
}

func validateAmount(amount Money) error {
	if !amount.IsPositive() {
		return invalidf("amount must be greater than zero, got %s", amount)
	}
	return nil
}

func validateTrade(symbol string, quantity int64) (string, error) {
	s := normalizeSymbol(symbol)
	if s == "" {
		return "", invalidf("symbol must not be empty")
	}
	if quantity <= 0 {
		return "", invalidf("quantity must be greater than zero, got %d", quantity)
	}
	return s, nil
}

// Deposit adds amount to the cash balance. The note InitialDepositNote is
// reserved for the deposit recorded by NewAccount.
func (a *Account) Deposit(amount Money, opts ...Option) (Deposit, error) {
	if err := validateAmount(amount); err != nil {
		return Deposit{}, err
	}
	o := a.resolve(opts)
	if o.note == InitialDepositNote {
		return Deposit{}, invalidf("note %q is reserved for the initial deposit", o.note)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applyDeposit(amount, o), nil
}

// applyDeposit must be called with a.mu held.
func (a *Account) applyDeposit(amount Money, o options) Deposit {
	a.cash = a.cash.Add(amount)
	a.totalDeposits = a.totalDeposits.Add(amount)
	tx := Deposit{a.newBase(TypeDeposit, amount, o)}
	a.ledger = append(a.ledger, tx)
	return tx
}

// Withdraw removes amount from the cash balance. It fails with
// ErrInsufficientFunds if the balance is lower than amount.
func (a *Account) Withdraw(amount Money, opts ...Option) (Withdraw, error) {
	if err := validateAmount(amount); err != nil {
		return Withdraw{}, err
	}
	o := a.resolve(opts)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cash.LessThan(amount) {
		return Withdraw{}, fmt.Errorf("%w: cannot withdraw %s, cash balance is %s", ErrInsufficientFunds, amount, a.cash)
	}
	a.cash = a.cash.Sub(amount)
	a.totalWithdrawals = a.totalWithdrawals.Add(amount)
	tx := Withdraw{a.newBase(TypeWithdraw, amount, o)}
	a.ledger = append(a.ledger, tx)
	return tx, nil
}

// Buy purchases quantity shares of symbol at the price given by the price
// lookup, and pays for them from the cash balance. It fails with
// ErrInsufficientFunds if the cash balance does not cover the cost.
//
// The price is resolved before the account is locked.
func (a *Account) Buy(symbol string, quantity int64, opts ...Option) (Buy, error) {
	sym, err := validateTrade(symbol, quantity)
	if err != nil {
		return Buy{}, err
	}
	o := a.resolve(opts)
	price, err := resolvePrice(o.prices, sym)
	if err != nil {
		return Buy{}, err
	}
	cost := price.Mul(quantity)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cash.LessThan(cost) {
		return Buy{}, fmt.Errorf("%w: cannot buy %d %s for %s, cash balance is %s", ErrInsufficientFunds, quantity, sym, cost, a.cash)
	}
	held := a.holdings[sym]
	if held > math.MaxInt64-quantity {
		return Buy{}, invalidf("position in %s would overflow", sym)
	}
	a.cash = a.cash.Sub(cost)
	a.holdings[sym] = held + quantity
	tx := Buy{tradeTx{baseTx: a.newBase(TypeBuy, cost, o), symbol: sym, quantity: quantity, price: price}}
	a.ledger = append(a.ledger, tx)
	return tx, nil
}

// Sell sells quantity shares of symbol at the price given by the price lookup
// and credits the proceeds to the cash balance. It fails with
// ErrInsufficientShares if fewer shares are held, in which case the price
// lookup is not consulted.
func (a *Account) Sell(symbol string, quantity int64, opts ...Option) (Sell, error) {
	sym, err := validateTrade(symbol, quantity)
	if err != nil {
		return Sell{}, err
	}
	o := a.resolve(opts)

	a.mu.Lock()
	defer a.mu.Unlock()
	held := a.holdings[sym]
	if held < quantity {
		return Sell{}, fmt.Errorf("%w: cannot sell %d %s, position is only %d", ErrInsufficientShares, quantity, sym, held)
	}
	price, err := resolvePrice(o.prices, sym)
	if err != nil {
		return Sell{}, err
	}
	proceeds := price.Mul(quantity)

	if remaining := held - quantity; remaining > 0 {
		a.holdings[sym] = remaining
	} else {
		delete(a.holdings, sym)
	}
	a.cash = a.cash.Add(proceeds)
	tx := Sell{tradeTx{baseTx: a.newBase(TypeSell, proceeds, o), symbol: sym, quantity: quantity, price: price}}
	a.ledger = append(a.ledger, tx)
	return tx, nil
}

// UserID returns the owner of the account.
func (a *Account) UserID() string { return a.userID }

// Currency returns the account currency code.
func (a *Account) Currency() string { return a.currency }

// CashBalance returns the current cash balance.
func (a *Account) CashBalance() Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Holdings returns a copy of the current holdings.
func (a *Account) Holdings() Holdings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holdings.Clone()
}

// InitialDeposit returns the amount the account was opened with.
func (a *Account) InitialDeposit() Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialDeposit
}

// TotalDeposits returns the sum of all deposits, the initial one included.
func (a *Account) TotalDeposits() Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalDeposits
}

// TotalWithdrawals returns the sum of all withdrawals.
func (a *Account) TotalWithdrawals() Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalWithdrawals
}

// Len returns the number of transactions in the ledger.
func (a *Account) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ledger)
}

// state is a consistent copy of the balances of an account.
type state struct {
	cash             Money
	holdings         Holdings
	initialDeposit   Money
	totalDeposits    Money
	totalWithdrawals Money
}

func (a *Account) snapshot() state {
	a.mu.Lock()
	defer a.mu.Unlock()
	return state{
		cash:             a.cash,
		holdings:         a.holdings.Clone(),
		initialDeposit:   a.initialDeposit,
		totalDeposits:    a.totalDeposits,
		totalWithdrawals: a.totalWithdrawals,
	}
}

// valuate values each position of h, each line rounded on its own, and
// returns the positions in symbol order with their sum.
func valuate(h Holdings, prices PriceLookup) ([]Position, Money, error) {
	positions := make([]Position, 0, len(h))
	var total Money
	for _, sym := range h.Symbols() {
		price, err := resolvePrice(prices, sym)
		if err != nil {
			return nil, Money{}, err
		}
		p := Position{Symbol: sym, Quantity: h[sym], Price: price, Value: price.Mul(h[sym])}
		positions = append(positions, p)
		total = total.Add(p.Value)
	}
	return positions, total, nil
}

// PortfolioValue returns the market value of the holdings.
//
// The holdings are read under the lock, prices are then resolved without it.
func (a *Account) PortfolioValue(opts ...Option) (Money, error) {
	o := a.resolve(opts)
	_, value, err := valuate(a.snapshot().holdings, o.prices)
	return value, err
}

// equity returns the total equity of s.
func (s state) equity(prices PriceLookup) (Money, error) {
	_, value, err := valuate(s.holdings, prices)
	if err != nil {
		return Money{}, err
	}
	return s.cash.Add(value), nil
}

// TotalEquity returns the cash balance plus the portfolio value, both taken
// from the same state of the account.
func (a *Account) TotalEquity(opts ...Option) (Money, error) {
	o := a.resolve(opts)
	return a.snapshot().equity(o.prices)
}

// ProfitLossFromInitial returns the total equity minus the initial deposit:
// the absolute return since the account was opened.
func (a *Account) ProfitLossFromInitial(opts ...Option) (Money, error) {
	o := a.resolve(opts)
	s := a.snapshot()
	equity, err := s.equity(o.prices)
	if err != nil {
		return Money{}, err
	}
	return equity.Sub(s.initialDeposit), nil
}

// ProfitLossFromNetDeposits returns the total equity minus the net
// contributed capital (total deposits minus total withdrawals).
func (a *Account) ProfitLossFromNetDeposits(opts ...Option) (Money, error) {
	o := a.resolve(opts)
	s := a.snapshot()
	equity, err := s.equity(o.prices)
	if err != nil {
		return Money{}, err
	}
	return equity.Sub(s.totalDeposits.Sub(s.totalWithdrawals)), nil
}

// Transactions returns, in ledger order, the transactions accepted by all
// filters. Without filters, it returns the whole ledger.
func (a *Account) Transactions(filters ...Filter) []Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make([]Transaction, 0, len(a.ledger))
	for _, tx := range a.ledger {
		if acceptAll(tx, filters) {
			result = append(result, tx)
		}
	}
	return result
}

// Transaction returns the transaction with the given id, or an
// ErrInvalidTransaction if there is none.
func (a *Account) Transaction(id string) (Transaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, tx := range a.ledger {
		if tx.ID() == id {
			return tx, nil
		}
	}
	return nil, invalidf("transaction with id %q not found", id)
}
