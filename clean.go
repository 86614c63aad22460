package main

import (
	"strings"
)

// A cleaner folds the bank-specific NAME/MEMO fields of a raw statement
// transaction into the single description the tokenizer consumes, and maps
// the TRNTYPE tag onto the coarse transaction type. Cleaners are pure.
type cleaner func(r rawTxn) (string, TxnType)

// Known bank identifiers with quirks worth special-casing.
const (
	bankRBC       = "0003"
	bankTangerine = "0614"
)

var cleaners = map[string]cleaner{
	bankRBC:       cleanRBC,
	bankTangerine: cleanTangerine,
}

func cleanerFor(bankID string) cleaner {
	if c, ok := cleaners[bankID]; ok {
		return c
	}
	return cleanDefault
}

func mapTrnType(s string) TxnType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBIT", "POS", "PAYMENT", "CHECK", "REPEATPMT":
		return TypeDebit
	case "CREDIT", "DEP", "DIRECTDEP", "INT", "DIV":
		return TypeCredit
	case "XFER":
		return TypeXfer
	case "FEE", "SRVCHG":
		return TypeFee
	case "ATM", "CASH":
		return TypeATM
	default:
		return TypeOther
	}
}

func joinNameMemo(name, memo string) string {
	name = strings.TrimSpace(name)
	memo = strings.TrimSpace(memo)
	switch {
	case len(name) == 0:
		return memo
	case len(memo) == 0:
		return name
	default:
		return name + " " + memo
	}
}

func cleanDefault(r rawTxn) (string, TxnType) {
	return joinNameMemo(r.Name, r.Memo), mapTrnType(r.Type)
}

// RBC repeats the truncated NAME at the start of MEMO; keep whichever side
// carries the longer text and drop the repetition.
func cleanRBC(r rawTxn) (string, TxnType) {
	name := strings.TrimSpace(r.Name)
	memo := strings.TrimSpace(r.Memo)
	if len(memo) > 0 && strings.HasPrefix(strings.ToLower(memo), strings.ToLower(name)) {
		return memo, mapTrnType(r.Type)
	}
	return joinNameMemo(name, memo), mapTrnType(r.Type)
}

// Tangerine puts the merchant in MEMO and a generic label in NAME.
func cleanTangerine(r rawTxn) (string, TxnType) {
	memo := strings.TrimSpace(r.Memo)
	if len(memo) > 0 {
		return memo, mapTrnType(r.Type)
	}
	return strings.TrimSpace(r.Name), mapTrnType(r.Type)
}
