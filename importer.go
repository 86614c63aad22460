package main

import (
	"log"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultSubBatchSize = 100

type importStats struct {
	Imported   int
	Duplicates int
	Transfers  int
	ByCategory map[string]int
}

// txnBatcher runs read-write units of work against the store. Satisfied by
// *store; tests substitute wrappers to exercise failure paths.
type txnBatcher interface {
	Batch(fn func(*storeTx) error) error
}

// importer sequences balance reconstruction, duplicate rejection,
// categorization and transfer detection for each statement batch.
type importer struct {
	store     txnBatcher
	engine    *ruleEngine
	matcher   *overlapMatcher
	tok       *tokenizer
	chooser   categoryChooser
	batchSize int
}

func newImporter(s *store, engine *ruleEngine, matcher *overlapMatcher, tok *tokenizer, chooser categoryChooser) *importer {
	return &importer{
		store:     s,
		engine:    engine,
		matcher:   matcher,
		tok:       tok,
		chooser:   chooser,
		batchSize: defaultSubBatchSize,
	}
}

// buildTxns cleans a statement's raw transactions and reconstructs running
// balances by working backward from the known ending balance: the initial
// balance is the ending balance minus the batch total, then each transaction
// in date order carries the post-transaction running balance. Same-date
// transactions keep their statement order.
func buildTxns(stmt statement, acct Account) []Txn {
	clean := cleanerFor(stmt.BankID)
	txns := make([]Txn, 0, len(stmt.Txns))
	total := decimal.Zero
	for _, r := range stmt.Txns {
		desc, typ := clean(r)
		txns = append(txns, Txn{
			AccountID: acct.ID,
			FitID:     r.FitID,
			Date:      r.Date,
			Amount:    r.Amount,
			Desc:      desc,
			Type:      typ,
		})
		total = total.Add(r.Amount)
	}
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

	running := stmt.EndingBalance.Sub(total)
	for i := range txns {
		running = running.Add(txns[i].Amount)
		txns[i].Balance = running
	}
	return txns
}

// importStatements imports each statement batch, then matches transfers
// across everything newly imported in this run. Failure of a sub-batch rolls
// that sub-batch back and aborts the run; earlier sub-batches stay committed.
func (im *importer) importStatements(stmts []statement) (importStats, error) {
	stats := importStats{ByCategory: make(map[string]int)}
	newly := make(map[uint64][]Txn)
	catNames := make(map[uint64]string) // txn id -> category name, this run only

	for _, stmt := range stmts {
		var acct Account
		err := im.store.Batch(func(st *storeTx) error {
			var err error
			acct, err = st.GetOrCreateAccount(Account{
				BankID: stmt.BankID,
				Number: stmt.AcctID,
				Type:   stmt.AcctType,
			})
			return err
		})
		if err != nil {
			return stats, errors.Wrapf(err, "unable to resolve account %v/%v", stmt.BankID, stmt.AcctID)
		}

		txns := buildTxns(stmt, acct)
		for start := 0; start < len(txns); start += im.batchSize {
			end := min(start+im.batchSize, len(txns))

			var imported []Txn
			var names []string
			var dups int
			err := im.store.Batch(func(st *storeTx) error {
				imported, names, dups = imported[:0], names[:0], 0
				for _, t := range txns[start:end] {
					dup, err := st.IsDuplicate(t.AccountID, t.Date, t.Amount, t.Desc)
					if err != nil {
						return err
					}
					if dup {
						dups++
						continue
					}
					tokens := im.tok.normalize(t.Desc)
					cat, err := st.GetOrCreateCategory(im.categorize(st, t, tokens))
					if err != nil {
						return err
					}
					t.CategoryID = cat.ID
					t, err = st.InsertTxn(t)
					if err != nil {
						return err
					}
					if err := st.InsertTokens(t.ID, tokenSlice(tokens)); err != nil {
						return err
					}
					imported = append(imported, t)
					names = append(names, cat.Name)
				}
				return nil
			})
			if err != nil {
				return stats, errors.Wrapf(err, "sub-batch %d-%d of account %v failed", start, end, stmt.AcctID)
			}

			stats.Imported += len(imported)
			stats.Duplicates += dups
			for i, t := range imported {
				stats.ByCategory[names[i]]++
				catNames[t.ID] = names[i]
			}
			newly[acct.ID] = append(newly[acct.ID], imported...)
		}
	}

	pairs, _ := matchTransfers(newly)
	if len(pairs) > 0 {
		err := im.store.Batch(func(st *storeTx) error {
			transferCat, err := st.GetOrCreateCategory(catTransfer)
			if err != nil {
				return err
			}
			for _, p := range pairs {
				for _, leg := range []Txn{p.Source, p.Sink} {
					tokens := tokenSlice(im.tok.normalize(leg.Desc))
					if err := st.Recategorize(leg.ID, transferCat.ID, tokens); err != nil {
						return err
					}
				}
				if _, err := st.InsertTransfer(p.Source.ID, p.Sink.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return stats, errors.Wrap(err, "transfer pass failed")
		}
		stats.Transfers = len(pairs)
		for _, p := range pairs {
			for _, leg := range []Txn{p.Source, p.Sink} {
				stats.ByCategory[catNames[leg.ID]]--
				stats.ByCategory[catTransfer]++
			}
		}
	}
	return stats, nil
}

// categorize resolves a category name for one transaction: keyword rules
// first when auto-categorize is on, then the overlap matcher, then the
// interactive chooser. A lone overlap match is taken as-is; several matches
// go to the chooser as candidates. Refusal leaves the transaction UNKNOWN.
func (im *importer) categorize(st *storeTx, t Txn, tokens map[string]bool) string {
	if im.engine.autoCategorize {
		if name, ok := im.engine.findMatchingCategory(tokens); ok {
			return name
		}
	}
	matches := im.matcher.findMatchingCategories(st, tokens)
	switch {
	case len(matches) == 1:
		return matches[0].Category.Name
	case len(matches) > 1:
		candidates := make([]Category, len(matches))
		for i, m := range matches {
			candidates[i] = m.Category
		}
		if name, ok := im.chooser.chooseCategory(t, candidates, im.existingCategories(st)); ok {
			return name
		}
		return catUnknown
	}
	if name, ok := im.chooser.chooseAnyCategory(t, im.existingCategories(st)); ok {
		return name
	}
	return catUnknown
}

// existingCategories lists every category for the chooser. The listing is a
// convenience, not a correctness requirement: a failed read is logged and the
// chooser starts from the persisted shortcuts alone.
func (im *importer) existingCategories(st *storeTx) []Category {
	existing, err := st.Categories()
	if err != nil {
		log.Printf("categorize: unable to list categories: %v", err)
		return nil
	}
	return existing
}

// retokenize recomputes token sets for stored transactions that have none,
// used after the normalization rules change.
func (im *importer) retokenize() (int, error) {
	var count int
	err := im.store.Batch(func(st *storeTx) error {
		missing, err := st.TransactionsMissingTokens()
		if err != nil {
			return err
		}
		for _, t := range missing {
			if err := st.InsertTokens(t.ID, tokenSlice(im.tok.normalize(t.Desc))); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}
