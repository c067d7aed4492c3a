package brokerage

import "time"

// Position is the valuation of the shares held in one security.
type Position struct {
	Symbol   string
	Quantity int64
	Price    Money // unit price used for the valuation
	Value    Money // Price times Quantity
}

// Valuation is a consistent view of an account valued at a set of prices:
// every figure derives from the same state of the account.
type Valuation struct {
	UserID    string
	Currency  string
	Time      time.Time // when the valuation was made
	Cash      Money
	Positions []Position // in symbol order

	PortfolioValue            Money
	TotalEquity               Money
	InitialDeposit            Money
	TotalDeposits             Money
	TotalWithdrawals          Money
	NetDeposits               Money // TotalDeposits - TotalWithdrawals
	ProfitLossFromInitial     Money
	ProfitLossFromNetDeposits Money
}

// Valuate values the account. WithPrices selects the price lookup, At the
// time reported in the valuation.
func (a *Account) Valuate(opts ...Option) (Valuation, error) {
	o := a.resolve(opts)
	s := a.snapshot()
	positions, value, err := valuate(s.holdings, o.prices)
	if err != nil {
		return Valuation{}, err
	}
	equity := s.cash.Add(value)
	net := s.totalDeposits.Sub(s.totalWithdrawals)
	return Valuation{
		UserID:                    a.userID,
		Currency:                  a.currency,
		Time:                      o.when,
		Cash:                      s.cash,
		Positions:                 positions,
		PortfolioValue:            value,
		TotalEquity:               equity,
		InitialDeposit:            s.initialDeposit,
		TotalDeposits:             s.totalDeposits,
		TotalWithdrawals:          s.totalWithdrawals,
		NetDeposits:               net,
		ProfitLossFromInitial:     equity.Sub(s.initialDeposit),
		ProfitLossFromNetDeposits: equity.Sub(net),
	}, nil
}
