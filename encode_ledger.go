package brokerage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// txRecord is the persisted shape of every transaction type. It is only used
// for decoding: absent fields of cash transactions decode to zero values.
type txRecord struct {
	ID                   string    `json:"id"`
	Type                 TxType    `json:"type"`
	Amount               Money     `json:"amount"`
	Symbol               string    `json:"symbol"`
	Quantity             int64     `json:"quantity"`
	PricePerShare        *Money    `json:"price_per_share"`
	Total                Money     `json:"total"`
	Timestamp            time.Time `json:"timestamp"`
	Note                 string    `json:"note"`
	ResultingCashBalance Money     `json:"resulting_cash_balance"`
	ResultingHoldings    Holdings  `json:"resulting_holdings_snapshot"`
}

// decodeTransaction decodes a single transaction and checks that its fields
// form a valid combination for its type.
func decodeTransaction(data []byte) (Transaction, error) {
	var r txRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: cannot decode transaction %s: %w", ErrInvalidTransaction, data, err)
	}
	if r.ID == "" {
		return nil, invalidf("transaction id is missing in %s", data)
	}
	if r.Timestamp.IsZero() {
		return nil, invalidf("transaction %s: timestamp is missing", r.ID)
	}
	if !r.Amount.IsPositive() {
		return nil, invalidf("transaction %s: amount must be positive, got %s", r.ID, r.Amount)
	}
	if r.ResultingCashBalance.IsNegative() {
		return nil, invalidf("transaction %s: negative resulting cash balance %s", r.ID, r.ResultingCashBalance)
	}
	for sym, qty := range r.ResultingHoldings {
		if qty <= 0 {
			return nil, invalidf("transaction %s: holding of %s must be positive, got %d", r.ID, sym, qty)
		}
	}

	base := baseTx{
		id:     r.ID,
		what:   r.Type,
		when:   r.Timestamp.UTC(),
		note:   r.Note,
		amount: r.Amount,
		cash:   r.ResultingCashBalance,
	}
	if len(r.ResultingHoldings) > 0 {
		base.holdings = r.ResultingHoldings
	}

	switch r.Type {
	case TypeDeposit, TypeWithdraw:
		if r.Symbol != "" || r.Quantity != 0 || r.PricePerShare != nil {
			return nil, invalidf("transaction %s: a %s cannot have a symbol, a quantity or a price", r.ID, r.Type)
		}
		if !r.Total.Equal(r.Amount) {
			return nil, invalidf("transaction %s: total %s differs from amount %s", r.ID, r.Total, r.Amount)
		}
		if r.Type == TypeDeposit {
			return Deposit{base}, nil
		}
		return Withdraw{base}, nil

	case TypeBuy, TypeSell:
		trade := tradeTx{baseTx: base, symbol: normalizeSymbol(r.Symbol), quantity: r.Quantity}
		if trade.symbol == "" || trade.symbol != r.Symbol {
			return nil, invalidf("transaction %s: invalid symbol %q", r.ID, r.Symbol)
		}
		if r.Quantity <= 0 {
			return nil, invalidf("transaction %s: quantity must be positive, got %d", r.ID, r.Quantity)
		}
		if r.PricePerShare == nil || !r.PricePerShare.IsPositive() {
			return nil, invalidf("transaction %s: price per share is missing or not positive", r.ID)
		}
		trade.price = *r.PricePerShare
		if total := trade.Total(); !total.Equal(r.Total) || !total.Equal(r.Amount) {
			return nil, invalidf("transaction %s: amount %s and total %s differ from %d x %s", r.ID, r.Amount, r.Total, r.Quantity, trade.price)
		}
		if r.Type == TypeBuy {
			return Buy{trade}, nil
		}
		return Sell{trade}, nil

	default:
		return nil, invalidf("transaction %s: unknown transaction type %q", r.ID, r.Type)
	}
}

// DecodeLedger decodes transactions from a stream of JSONL data, one
// transaction per line, and returns them in stream order.
func DecodeLedger(r io.Reader) ([]Transaction, error) {
	txs := make([]Transaction, 0)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		tx, err := decodeTransaction(lineBytes)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return txs, nil
}

// EncodeTransaction marshals a single transaction to JSON and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction %s: %w", tx.ID(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeLedger writes transactions in JSONL format, in the given order.
func EncodeLedger(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}
