package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func xfer(account uint64, amount, date string) Txn {
	return Txn{AccountID: account, Type: TypeXfer, Amount: amt(amount), Date: day(date)}
}

func countTxns(m map[uint64][]Txn) int {
	var n int
	for _, txns := range m {
		n += len(txns)
	}
	return n
}

func TestMatchTransfers(t *testing.T) {
	t.Run("exactPair", func(t *testing.T) {
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100", "2024-01-01")},
			2: {xfer(2, "100", "2024-01-01")},
		}
		pairs, remaining := matchTransfers(byAccount)
		if len(pairs) != 1 {
			t.Fatalf("pairs = %+v, want one", pairs)
		}
		p := pairs[0]
		if p.Source.AccountID != 1 || p.Sink.AccountID != 2 {
			t.Errorf("pair accounts = %d -> %d, want 1 -> 2", p.Source.AccountID, p.Sink.AccountID)
		}
		if !p.Sink.Amount.Equal(p.Source.Amount.Neg()) {
			t.Errorf("amounts do not negate: %v, %v", p.Source.Amount, p.Sink.Amount)
		}
		if countTxns(remaining) != 0 {
			t.Errorf("remaining = %+v, want empty", remaining)
		}
	})

	t.Run("ambiguousSinksUnmatched", func(t *testing.T) {
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100", "2024-01-01")},
			2: {xfer(2, "100", "2024-01-01")},
			3: {xfer(3, "100", "2024-01-01")},
		}
		pairs, remaining := matchTransfers(byAccount)
		if len(pairs) != 0 {
			t.Errorf("ambiguous source matched anyway: %+v", pairs)
		}
		if countTxns(remaining) != 3 {
			t.Errorf("remaining = %+v, want all three", remaining)
		}
	})

	t.Run("sameAccountNeverPairs", func(t *testing.T) {
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100", "2024-01-01"), xfer(1, "100", "2024-01-01")},
		}
		pairs, remaining := matchTransfers(byAccount)
		if len(pairs) != 0 {
			t.Errorf("same-account pair formed: %+v", pairs)
		}
		if countTxns(remaining) != 2 {
			t.Errorf("remaining = %+v, want both legs", remaining)
		}
	})

	t.Run("differentDateNeverPairs", func(t *testing.T) {
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100", "2024-01-01")},
			2: {xfer(2, "100", "2024-01-02")},
		}
		pairs, _ := matchTransfers(byAccount)
		if len(pairs) != 0 {
			t.Errorf("cross-date pair formed: %+v", pairs)
		}
	})

	t.Run("amountMustNegateExactly", func(t *testing.T) {
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100.00", "2024-01-01")},
			2: {xfer(2, "99.99", "2024-01-01")},
		}
		pairs, _ := matchTransfers(byAccount)
		if len(pairs) != 0 {
			t.Errorf("inexact amounts paired: %+v", pairs)
		}
	})

	t.Run("nonTransferTypeIgnored", func(t *testing.T) {
		debit := Txn{AccountID: 1, Type: TypeDebit, Amount: amt("-100"), Date: day("2024-01-01")}
		byAccount := map[uint64][]Txn{
			1: {debit},
			2: {xfer(2, "100", "2024-01-01")},
		}
		pairs, remaining := matchTransfers(byAccount)
		if len(pairs) != 0 {
			t.Errorf("non-XFER transaction paired: %+v", pairs)
		}
		if countTxns(remaining) != 2 {
			t.Errorf("remaining = %+v, want both", remaining)
		}
	})

	t.Run("consumedSinkNotReused", func(t *testing.T) {
		// Two sources compete for one sink; the first takes it, the second
		// is left with zero candidates.
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100", "2024-01-01")},
			2: {xfer(2, "-100", "2024-01-01")},
			3: {xfer(3, "100", "2024-01-01")},
		}
		pairs, remaining := matchTransfers(byAccount)
		if len(pairs) != 1 {
			t.Fatalf("pairs = %+v, want exactly one", pairs)
		}
		if countTxns(remaining) != 1 {
			t.Errorf("remaining = %+v, want one leftover source", remaining)
		}
	})

	t.Run("multiplePairsAcrossAccounts", func(t *testing.T) {
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100", "2024-01-01"), xfer(1, "-50", "2024-01-02")},
			2: {xfer(2, "100", "2024-01-01")},
			3: {xfer(3, "50", "2024-01-02")},
		}
		pairs, remaining := matchTransfers(byAccount)
		if len(pairs) != 2 {
			t.Fatalf("pairs = %+v, want two", pairs)
		}
		if countTxns(remaining) != 0 {
			t.Errorf("remaining = %+v, want empty", remaining)
		}
	})

	t.Run("inputNotMutated", func(t *testing.T) {
		byAccount := map[uint64][]Txn{
			1: {xfer(1, "-100", "2024-01-01")},
			2: {xfer(2, "100", "2024-01-01")},
		}
		matchTransfers(byAccount)
		if len(byAccount[1]) != 1 || len(byAccount[2]) != 1 {
			t.Errorf("input map was mutated: %+v", byAccount)
		}
	})
}
