package brokerage

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// busyAccount returns an account exercising every transaction type.
func busyAccount(t *testing.T) *Account {
	t.Helper()
	a := newTestAccount(t, "5000")
	mustDo(t)(a.Buy("AAPL", 4))
	mustDo(t)(a.Buy("GOOGL", 1, WithNote("long term")))
	mustDo(t)(a.Sell("AAPL", 4))
	mustDo(t)(a.Withdraw(MustParseMoney("123.45")))
	mustDo(t)(a.Deposit(MustParseMoney("0.05")))
	return a
}

func TestEncodeAccount_RoundTrip(t *testing.T) {
	a := busyAccount(t)

	var buf bytes.Buffer
	if err := EncodeAccount(&buf, a); err != nil {
		t.Fatalf("EncodeAccount() failed: %v", err)
	}
	b, err := DecodeAccount(&buf)
	if err != nil {
		t.Fatalf("DecodeAccount() failed: %v", err)
	}

	if diff := cmp.Diff(a.Record(), b.Record()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if b.UserID() != "alice" || b.Currency() != "USD" {
		t.Errorf("got user %q currency %q, want alice USD", b.UserID(), b.Currency())
	}
	if got := b.CashBalance(); got.String() != "2176.60" {
		t.Errorf("CashBalance() = %s, want 2176.60", got)
	}

	// the decoded account keeps working.
	if _, err := b.Sell("GOOGL", 1); err != nil {
		t.Errorf("Sell() on the decoded account failed: %v", err)
	}
}

func TestEncodeAccount_Format(t *testing.T) {
	a := newTestAccount(t, "100")
	var buf bytes.Buffer
	if err := EncodeAccount(&buf, a); err != nil {
		t.Fatalf("EncodeAccount() failed: %v", err)
	}
	want := `{
  "user_id": "alice",
  "currency": "USD",
  "cash": "100.00",
  "holdings": {},
  "initial_deposit": "100.00",
  "total_deposits": "100.00",
  "total_withdrawals": "0.00",
  "ledger": [
    {
      "id": "tx-001",
      "type": "deposit",
      "amount": "100.00",
      "total": "100.00",
      "timestamp": "2025-03-03T09:30:00Z",
      "note": "initial_deposit",
      "resulting_cash_balance": "100.00"
    }
  ]
}
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("EncodeAccount() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRecord_Rejects(t *testing.T) {
	testCases := []struct {
		name   string
		tamper func(r *Record)
	}{
		{"cash", func(r *Record) { r.Cash = r.Cash.Add(Cents(1)) }},
		{"holdings", func(r *Record) { r.Holdings["AAPL"] = 1 }},
		{"total deposits", func(r *Record) { r.TotalDeposits = Cents(1) }},
		{"total withdrawals", func(r *Record) { r.TotalWithdrawals = Money{} }},
		{"negative initial deposit", func(r *Record) { r.InitialDeposit = MustParseMoney("-1") }},
		{"empty user", func(r *Record) { r.UserID = "" }},
		{"dropped transaction", func(r *Record) { r.Ledger = append(r.Ledger[:1], r.Ledger[2:]...) }},
		{"duplicated transaction", func(r *Record) { r.Ledger = append(r.Ledger, r.Ledger[len(r.Ledger)-1]) }},
		{"reordered transactions", func(r *Record) { r.Ledger[3], r.Ledger[4] = r.Ledger[4], r.Ledger[3] }},
		{"nil transaction", func(r *Record) { r.Ledger[0] = nil }},
		{"initial deposit without ledger", func(r *Record) {
			r.Ledger, r.Cash, r.Holdings = nil, Money{}, Holdings{}
			r.TotalDeposits, r.TotalWithdrawals = Money{}, Money{}
		}},
		{"initial deposit differs", func(r *Record) { r.InitialDeposit = MustParseMoney("4000") }},
		{"initial deposit dropped", func(r *Record) { r.InitialDeposit = Money{} }},
		{"initial deposit not first", func(r *Record) {
			// a plain deposit of the same amount does not open the account.
			d := r.Ledger[0].(Deposit)
			d.note = ""
			r.Ledger[0] = d
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := busyAccount(t).Record()
			tc.tamper(&r)
			if _, err := FromRecord(r); KindOf(err) != InvalidTransaction {
				t.Errorf("FromRecord() error = %v, want an invalid transaction", err)
			}
		})
	}
}

func TestFromRecord_PositionOverflow(t *testing.T) {
	cent := Cents(1)
	cash := MustParseMoney("100000000000000000")
	huge := Buy{tradeTx{symbol: "AAPL", quantity: math.MaxInt64, price: cent}}
	huge.baseTx = baseTx{id: "b1", what: TypeBuy, when: t0, amount: huge.Total()}
	huge.cash = cash.Sub(huge.amount)
	huge.holdings = Holdings{"AAPL": math.MaxInt64}
	one := Buy{tradeTx{symbol: "AAPL", quantity: 1, price: cent}}
	one.baseTx = baseTx{id: "b2", what: TypeBuy, when: t0, amount: cent}
	one.cash = huge.cash.Sub(cent)
	one.holdings = Holdings{"AAPL": math.MinInt64} // what a wrapped position looks like

	r := Record{
		UserID:   "alice",
		Currency: "USD",
		Ledger: []Transaction{
			Deposit{baseTx{id: "d1", what: TypeDeposit, when: t0, amount: cash, cash: cash}},
			huge,
			one,
		},
	}
	_, err := FromRecord(r)
	if KindOf(err) != InvalidTransaction || !strings.Contains(err.Error(), "overflow") {
		t.Errorf("FromRecord() error = %v, want an overflow invalid transaction", err)
	}
}

func TestFromRecord_SnapshotMismatch(t *testing.T) {
	r := busyAccount(t).Record()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(r); err != nil {
		t.Fatal(err)
	}
	// the first purchase now claims a different resulting balance.
	tampered := strings.Replace(buf.String(), `"resulting_cash_balance":"4400.00"`, `"resulting_cash_balance":"4500.00"`, 1)
	if tampered == buf.String() {
		t.Fatalf("test record does not contain the expected balance:\n%s", buf.String())
	}
	if _, err := DecodeAccount(strings.NewReader(tampered)); KindOf(err) != InvalidTransaction {
		t.Errorf("DecodeAccount() error = %v, want an invalid transaction", err)
	}
}

func TestDecodeAccount_Errors(t *testing.T) {
	testCases := []struct {
		name string
		in   string
	}{
		{"not json", `hello`},
		{"bad money", `{"user_id":"a","currency":"USD","cash":"1.2.3","ledger":[]}`},
		{"huge exponent", `{"user_id":"a","currency":"USD","cash":"0","initial_deposit":"1e60000000","ledger":[]}`},
		{"huge number", `{"user_id":"a","currency":"USD","cash":1e-60000000,"ledger":[]}`},
		{"initial deposit not in ledger", `{"user_id":"a","currency":"USD","cash":"0","holdings":{},"initial_deposit":"5000.00","ledger":[]}`},
		{"unknown type", `{"user_id":"a","currency":"USD","cash":"0","ledger":[{"id":"1","type":"gift","amount":"1","total":"1","timestamp":"2025-01-01T00:00:00Z","resulting_cash_balance":"1"}]}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeAccount(strings.NewReader(tc.in)); err == nil {
				t.Errorf("DecodeAccount(%s) succeeded, want an error", tc.in)
			}
		})
	}
}
