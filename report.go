package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

func printImportReport(stats importStats) {
	fmt.Println()
	color.New(color.BgBlue, color.FgWhite).Printf(" IMPORT ")
	fmt.Printf(" %d imported, %d duplicates skipped, %d transfers matched\n",
		stats.Imported, stats.Duplicates, stats.Transfers)

	names := make([]string, 0, len(stats.ByCategory))
	for name, n := range stats.ByCategory {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		color.New(color.FgYellow).Printf("  %-30s", name)
		fmt.Printf(" %4d\n", stats.ByCategory[name])
	}
	fmt.Println()
}

// exportCSV writes every persisted transaction with its resolved category and
// account to a CSV file.
func exportCSV(s *store, fpath string) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrapf(err, "unable to create %v", fpath)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "account", "description", "amount", "balance", "category", "fitid"}); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	err = s.View(func(st *storeTx) error {
		txns, err := st.Txns()
		if err != nil {
			return err
		}
		sort.Slice(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })

		accounts := make(map[uint64]Account)
		all, err := st.Accounts()
		if err != nil {
			return err
		}
		for _, a := range all {
			accounts[a.ID] = a
		}

		for _, t := range txns {
			cat, ok, err := st.CategoryByID(t.CategoryID)
			if err != nil {
				return err
			}
			if !ok {
				cat = Category{Name: catUnknown}
			}
			row := []string{
				t.Date.Format("2006-01-02"),
				accounts[t.AccountID].Number,
				t.Desc,
				t.Amount.StringFixed(2),
				t.Balance.StringFixed(2),
				cat.Name,
				t.FitID,
			}
			if err := w.Write(row); err != nil {
				return errors.Wrap(err, "write csv row")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}

// printRecent shows the last few transactions per account with colored
// amounts, mirroring the bank statement view.
func printRecent(s *store, limit int) error {
	return s.View(func(st *storeTx) error {
		txns, err := st.Txns()
		if err != nil {
			return err
		}
		sort.Slice(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })
		if len(txns) > limit {
			txns = txns[len(txns)-limit:]
		}
		for _, t := range txns {
			cat, _, err := st.CategoryByID(t.CategoryID)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %-40.40s ", t.Date.Format("2006/01/02"), t.Desc)
			amountColor(t.Amount).Printf("%10s", t.Amount.StringFixed(2))
			fmt.Printf("  %s\n", cat.Name)
		}
		return nil
	})
}
