package renderer

import (
	"fmt"

	"github.com/etnz/brokerage"
)

// Ledger is a list of transactions of an account, as rendered by
// RenderTransactions.
type Ledger struct {
	UserID       string
	Currency     string
	Transactions []brokerage.Transaction
}

// RenderTransactions renders transactions as a table, in the given order.
func RenderTransactions(l *Ledger) string {
	partials := map[string]string{
		"transaction_rows": "transaction_rows.md",
	}
	return renderTemplate("transactions", "transactions.md", partials, l)
}

// Detail is a single transaction of an account, as rendered by
// RenderTransaction.
type Detail struct {
	Currency    string
	Transaction brokerage.Transaction
}

// RenderTransaction renders every field of a single transaction.
func RenderTransaction(d *Detail) string {
	return renderTemplate("transaction", "transaction.md", nil, d)
}

// Transaction describes a transaction in one line of plain text.
func Transaction(tx brokerage.Transaction, currency string) string {
	switch v := tx.(type) {
	case brokerage.Buy:
		return fmt.Sprintf("Bought %d %s at %s for %s", v.Quantity(), v.Symbol(), v.PricePerShare().Format(currency), v.Total().Format(currency))
	case brokerage.Sell:
		return fmt.Sprintf("Sold %d %s at %s for %s", v.Quantity(), v.Symbol(), v.PricePerShare().Format(currency), v.Total().Format(currency))
	case brokerage.Deposit:
		return fmt.Sprintf("Deposited %s", v.Amount().Format(currency))
	case brokerage.Withdraw:
		return fmt.Sprintf("Withdrew %s", v.Amount().Format(currency))
	default:
		return string(tx.What())
	}
}
