package main

import (
	"testing"
)

func TestMapTrnType(t *testing.T) {
	cases := []struct {
		in   string
		want TxnType
	}{
		{"DEBIT", TypeDebit},
		{"pos", TypeDebit},
		{"CREDIT", TypeCredit},
		{"DIRECTDEP", TypeCredit},
		{"XFER", TypeXfer},
		{"FEE", TypeFee},
		{"SRVCHG", TypeFee},
		{"ATM", TypeATM},
		{"OTHER", TypeOther},
		{"SOMETHING_NEW", TypeOther},
	}
	for _, tc := range cases {
		if got := mapTrnType(tc.in); got != tc.want {
			t.Errorf("mapTrnType(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCleanDefault(t *testing.T) {
	desc, typ := cleanDefault(rawTxn{Name: "STARBUCKS", Memo: "TORONTO ON", Type: "DEBIT"})
	if desc != "STARBUCKS TORONTO ON" || typ != TypeDebit {
		t.Errorf("cleanDefault = (%q, %v)", desc, typ)
	}

	desc, _ = cleanDefault(rawTxn{Name: "STARBUCKS"})
	if desc != "STARBUCKS" {
		t.Errorf("name-only clean = %q", desc)
	}

	desc, _ = cleanDefault(rawTxn{Memo: "TORONTO ON"})
	if desc != "TORONTO ON" {
		t.Errorf("memo-only clean = %q", desc)
	}
}

func TestCleanRBC(t *testing.T) {
	// RBC truncates NAME and repeats it at the head of MEMO.
	desc, _ := cleanRBC(rawTxn{Name: "SHOPPERS DRUG MAR", Memo: "SHOPPERS DRUG MART #0123"})
	if desc != "SHOPPERS DRUG MART #0123" {
		t.Errorf("cleanRBC = %q, want the memo alone", desc)
	}

	desc, _ = cleanRBC(rawTxn{Name: "E-TRANSFER", Memo: "JOHN DOE"})
	if desc != "E-TRANSFER JOHN DOE" {
		t.Errorf("cleanRBC without repetition = %q", desc)
	}
}

func TestCleanTangerine(t *testing.T) {
	desc, _ := cleanTangerine(rawTxn{Name: "POS PURCHASE", Memo: "A&W #0352"})
	if desc != "A&W #0352" {
		t.Errorf("cleanTangerine = %q, want the memo", desc)
	}

	desc, _ = cleanTangerine(rawTxn{Name: "MONTHLY FEE"})
	if desc != "MONTHLY FEE" {
		t.Errorf("cleanTangerine without memo = %q", desc)
	}
}

func TestCleanerDispatch(t *testing.T) {
	r := rawTxn{Name: "POS PURCHASE", Memo: "A&W #0352", Type: "POS"}

	desc, _ := cleanerFor(bankTangerine)(r)
	if desc != "A&W #0352" {
		t.Errorf("tangerine dispatch = %q", desc)
	}
	desc, _ = cleanerFor("some-unknown-bank")(r)
	if desc != "POS PURCHASE A&W #0352" {
		t.Errorf("default dispatch = %q", desc)
	}
}
