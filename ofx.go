package main

import (
	"bytes"
	"os"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// rawTxn is one statement transaction as decoded from an OFX file, before any
// cleaning or categorization.
type rawTxn struct {
	FitID  string
	Date   time.Time
	Amount decimal.Decimal
	Type   string // TRNTYPE tag as written by the bank
	Name   string
	Memo   string
}

// statement is one account's batch within a statement file: the account
// identity, the ledger (ending) balance, and the raw transactions.
type statement struct {
	BankID        string
	AcctID        string
	AcctType      string
	EndingBalance decimal.Decimal
	Txns          []rawTxn
}

// parseOFX decodes an OFX document (1.x SGML or 2.x XML) and returns one
// batch per bank or credit card statement found in it.
func parseOFX(data []byte) ([]statement, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode OFX")
	}

	var stmts []statement
	for _, msg := range resp.Bank {
		sr, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		st, err := convertStatement(
			sr.BankAcctFrom.BankID.String(),
			sr.BankAcctFrom.AcctID.String(),
			sr.BankAcctFrom.AcctType.String(),
			sr.BalAmt, sr.BankTranList)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	for _, msg := range resp.CreditCard {
		sr, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		st, err := convertStatement(
			"", sr.CCAcctFrom.AcctID.String(), "CREDITCARD",
			sr.BalAmt, sr.BankTranList)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

func convertStatement(bankID, acctID, acctType string, bal ofxgo.Amount, list *ofxgo.TransactionList) (statement, error) {
	ending, err := ofxAmount(bal)
	if err != nil {
		return statement{}, errors.Wrapf(err, "bad ledger balance for account %v", acctID)
	}
	st := statement{
		BankID:        bankID,
		AcctID:        acctID,
		AcctType:      acctType,
		EndingBalance: ending,
	}
	if list == nil {
		return st, nil
	}
	st.Txns = make([]rawTxn, 0, len(list.Transactions))
	for _, tr := range list.Transactions {
		amt, err := ofxAmount(tr.TrnAmt)
		if err != nil {
			return statement{}, errors.Wrapf(err, "bad amount on txn %v of account %v", tr.FiTID, acctID)
		}
		st.Txns = append(st.Txns, rawTxn{
			FitID:  tr.FiTID.String(),
			Date:   ofxDate(tr.DtPosted),
			Amount: amt,
			Type:   tr.TrnType.String(),
			Name:   tr.Name.String(),
			Memo:   tr.Memo.String(),
		})
	}
	return st, nil
}

// ofxDate keeps the posting date as the bank wrote it, dropping intraday time
// and timezone, so transfer legs posted on the same date compare equal.
func ofxDate(d ofxgo.Date) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func ofxAmount(a ofxgo.Amount) (decimal.Decimal, error) {
	return decimal.NewFromString(a.String())
}

// loadStatements parses each named OFX file and returns all batches found.
func loadStatements(paths []string) ([]statement, error) {
	var all []statement
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read statement file %v", p)
		}
		stmts, err := parseOFX(data)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse %v", p)
		}
		all = append(all, stmts...)
	}
	return all, nil
}
