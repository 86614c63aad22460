package main

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Reserved categories. UNKNOWN marks transactions that could not be
// categorized; TRANSFER marks a confirmed leg of an inter-account transfer.
const (
	catUnknown  = "UNKNOWN"
	catTransfer = "TRANSFER"
)

type TxnType string

const (
	TypeDebit  TxnType = "DEBIT"
	TypeCredit TxnType = "CREDIT"
	TypeXfer   TxnType = "XFER"
	TypeFee    TxnType = "FEE"
	TypeATM    TxnType = "ATM"
	TypeOther  TxnType = "OTHER"
)

// An Account is identified by its bank identifier and account number.
type Account struct {
	ID     uint64
	BankID string
	Number string
	Type   string
}

type Category struct {
	ID   uint64
	Name string // stored uppercase, unique
}

// Txn is a categorized transaction. The record is immutable after import
// except for its category assignment.
type Txn struct {
	ID         uint64
	AccountID  uint64
	FitID      string
	Date       time.Time
	Amount     decimal.Decimal
	Desc       string
	Type       TxnType
	Balance    decimal.Decimal // account balance after this txn posted
	CategoryID uint64
}

// A Transfer links the two legs of one movement of funds between accounts.
type Transfer struct {
	ID       uint64
	SourceID uint64
	SinkID   uint64
}

// tokenMatch is one row of the token index bulk lookup: a previously
// categorized transaction sharing at least one token with a search set.
type tokenMatch struct {
	TxnID         uint64
	CategoryID    uint64
	MatchingCount int
	TotalCount    int
}

var (
	bucketAccounts     = []byte("accounts")
	bucketAccountIndex = []byte("accountIndex") // bankID|number -> account id
	bucketCategories   = []byte("categories")
	bucketCategoryIdx  = []byte("categoryNames") // NAME -> category id
	bucketTxns         = []byte("txns")
	bucketTokens       = []byte("tokens") // txn id -> []string
	bucketTransfers    = []byte("transfers")
)

var allBuckets = [][]byte{
	bucketAccounts, bucketAccountIndex, bucketCategories,
	bucketCategoryIdx, bucketTxns, bucketTokens, bucketTransfers,
}

type store struct {
	db *bolt.DB
}

// openStore opens or creates the bolt database at fpath, creates the buckets,
// and seeds the reserved UNKNOWN and TRANSFER categories.
func openStore(fpath string) (*store, error) {
	db, err := bolt.Open(fpath, 0o600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open boltdb at %v", fpath)
	}
	s := &store{db: db}
	err = s.Batch(func(st *storeTx) error {
		for _, name := range allBuckets {
			if _, err := st.tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "unable to create bucket %s", name)
			}
		}
		for _, name := range []string{catUnknown, catTransfer} {
			if _, err := st.GetOrCreateCategory(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *store) Close() error { return s.db.Close() }

// Batch runs fn inside a single read-write unit of work. The transaction
// commits when fn returns nil and rolls back when it returns an error, so a
// failing sub-batch never leaves partial writes behind.
func (s *store) Batch(fn func(*storeTx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

// View runs fn inside a read-only unit of work.
func (s *store) View(fn func(*storeTx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

// storeTx exposes the typed store operations available inside one unit of
// work. All reads and writes during an import go through it.
type storeTx struct {
	tx *bolt.Tx
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Wrap(err, "gob encode")
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return errors.Wrap(gob.NewDecoder(bytes.NewReader(data)).Decode(v), "gob decode")
}

func accountKey(bankID, number string) []byte {
	return []byte(bankID + "|" + number)
}

// GetOrCreateAccount resolves an account by (bank id, account number),
// creating it on first sight.
func (st *storeTx) GetOrCreateAccount(a Account) (Account, error) {
	idx := st.tx.Bucket(bucketAccountIndex)
	if v := idx.Get(accountKey(a.BankID, a.Number)); v != nil {
		return st.accountByID(binary.BigEndian.Uint64(v))
	}
	b := st.tx.Bucket(bucketAccounts)
	id, err := b.NextSequence()
	if err != nil {
		return Account{}, errors.Wrap(err, "account sequence")
	}
	a.ID = id
	val, err := encodeGob(a)
	if err != nil {
		return Account{}, err
	}
	if err := b.Put(itob(id), val); err != nil {
		return Account{}, errors.Wrap(err, "put account")
	}
	if err := idx.Put(accountKey(a.BankID, a.Number), itob(id)); err != nil {
		return Account{}, errors.Wrap(err, "put account index")
	}
	return a, nil
}

func (st *storeTx) accountByID(id uint64) (Account, error) {
	v := st.tx.Bucket(bucketAccounts).Get(itob(id))
	if v == nil {
		return Account{}, errors.Errorf("no account with id %d", id)
	}
	var a Account
	return a, decodeGob(v, &a)
}

// Accounts returns all known accounts.
func (st *storeTx) Accounts() ([]Account, error) {
	var out []Account
	err := st.tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
		var a Account
		if err := decodeGob(v, &a); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	return out, err
}

func normalizeCategoryName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// GetOrCreateCategory resolves a category by its case-normalized name,
// creating it the first time the name is used.
func (st *storeTx) GetOrCreateCategory(name string) (Category, error) {
	name = normalizeCategoryName(name)
	if len(name) == 0 {
		name = catUnknown
	}
	if c, ok, err := st.CategoryByName(name); err != nil || ok {
		return c, err
	}
	b := st.tx.Bucket(bucketCategories)
	id, err := b.NextSequence()
	if err != nil {
		return Category{}, errors.Wrap(err, "category sequence")
	}
	c := Category{ID: id, Name: name}
	val, err := encodeGob(c)
	if err != nil {
		return Category{}, err
	}
	if err := b.Put(itob(id), val); err != nil {
		return Category{}, errors.Wrap(err, "put category")
	}
	if err := st.tx.Bucket(bucketCategoryIdx).Put([]byte(name), itob(id)); err != nil {
		return Category{}, errors.Wrap(err, "put category index")
	}
	return c, nil
}

func (st *storeTx) CategoryByName(name string) (Category, bool, error) {
	v := st.tx.Bucket(bucketCategoryIdx).Get([]byte(normalizeCategoryName(name)))
	if v == nil {
		return Category{}, false, nil
	}
	c, ok, err := st.CategoryByID(binary.BigEndian.Uint64(v))
	if err == nil && !ok {
		return Category{}, false, errors.Errorf("category index points at missing id for %q", name)
	}
	return c, ok, err
}

func (st *storeTx) CategoryByID(id uint64) (Category, bool, error) {
	v := st.tx.Bucket(bucketCategories).Get(itob(id))
	if v == nil {
		return Category{}, false, nil
	}
	var c Category
	if err := decodeGob(v, &c); err != nil {
		return Category{}, false, err
	}
	return c, true, nil
}

// Categories returns all categories, reserved ones included.
func (st *storeTx) Categories() ([]Category, error) {
	var out []Category
	err := st.tx.Bucket(bucketCategories).ForEach(func(k, v []byte) error {
		var c Category
		if err := decodeGob(v, &c); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// InsertTxn persists a new transaction and assigns its id. A transaction must
// carry a category id; persisting an uncategorized transaction is a bug.
func (st *storeTx) InsertTxn(t Txn) (Txn, error) {
	if t.CategoryID == 0 {
		return Txn{}, errors.Errorf("refusing to insert uncategorized txn: %v", t.Desc)
	}
	b := st.tx.Bucket(bucketTxns)
	id, err := b.NextSequence()
	if err != nil {
		return Txn{}, errors.Wrap(err, "txn sequence")
	}
	t.ID = id
	if err := st.putTxn(t); err != nil {
		return Txn{}, err
	}
	return t, nil
}

func (st *storeTx) putTxn(t Txn) error {
	val, err := encodeGob(t)
	if err != nil {
		return err
	}
	return errors.Wrap(st.tx.Bucket(bucketTxns).Put(itob(t.ID), val), "put txn")
}

func (st *storeTx) TxnByID(id uint64) (Txn, bool, error) {
	v := st.tx.Bucket(bucketTxns).Get(itob(id))
	if v == nil {
		return Txn{}, false, nil
	}
	var t Txn
	if err := decodeGob(v, &t); err != nil {
		return Txn{}, false, err
	}
	return t, true, nil
}

func (st *storeTx) forEachTxn(fn func(Txn) error) error {
	return st.tx.Bucket(bucketTxns).ForEach(func(k, v []byte) error {
		var t Txn
		if err := decodeGob(v, &t); err != nil {
			return err
		}
		return fn(t)
	})
}

// Txns returns all persisted transactions.
func (st *storeTx) Txns() ([]Txn, error) {
	var out []Txn
	err := st.forEachTxn(func(t Txn) error {
		out = append(out, t)
		return nil
	})
	return out, err
}

// IsDuplicate reports whether a transaction with the same account, date,
// amount and description has already been persisted. Re-importing the same
// statement is expected to hit this for every transaction.
func (st *storeTx) IsDuplicate(accountID uint64, date time.Time, amount decimal.Decimal, desc string) (bool, error) {
	var dup bool
	err := st.forEachTxn(func(t Txn) error {
		if !dup && t.AccountID == accountID && t.Date.Equal(date) &&
			t.Amount.Equal(amount) && t.Desc == desc {
			dup = true
		}
		return nil
	})
	return dup, err
}

// InsertTokens stores the token set for a transaction, replacing any prior
// entry. Tokens and the transaction itself are always written inside the same
// unit of work.
func (st *storeTx) InsertTokens(txnID uint64, tokens []string) error {
	val, err := encodeGob(tokens)
	if err != nil {
		return err
	}
	return errors.Wrap(st.tx.Bucket(bucketTokens).Put(itob(txnID), val), "put tokens")
}

func (st *storeTx) GetTokens(txnID uint64) ([]string, error) {
	v := st.tx.Bucket(bucketTokens).Get(itob(txnID))
	if v == nil {
		return nil, nil
	}
	var tokens []string
	return tokens, decodeGob(v, &tokens)
}

func (st *storeTx) DeleteTokens(txnID uint64) error {
	return errors.Wrap(st.tx.Bucket(bucketTokens).Delete(itob(txnID)), "delete tokens")
}

// FindTransactionsWithMatchingTokens returns, for every stored transaction
// sharing at least one token with the search set, its category and the
// overlap counts the matcher needs. Transactions assigned excludeCategoryID
// are never returned.
func (st *storeTx) FindTransactionsWithMatchingTokens(search map[string]bool, excludeCategoryID uint64) ([]tokenMatch, error) {
	if len(search) == 0 {
		return nil, nil
	}
	var out []tokenMatch
	err := st.tx.Bucket(bucketTokens).ForEach(func(k, v []byte) error {
		var stored []string
		if err := decodeGob(v, &stored); err != nil {
			return err
		}
		var matching int
		for _, tok := range stored {
			if search[tok] {
				matching++
			}
		}
		if matching == 0 {
			return nil
		}
		txnID := binary.BigEndian.Uint64(k)
		t, ok, err := st.TxnByID(txnID)
		if err != nil {
			return err
		}
		if !ok || t.CategoryID == excludeCategoryID {
			return nil
		}
		out = append(out, tokenMatch{
			TxnID:         txnID,
			CategoryID:    t.CategoryID,
			MatchingCount: matching,
			TotalCount:    len(stored),
		})
		return nil
	})
	return out, err
}

// TransactionsMissingTokens returns transactions that have no token index
// entry, used to recompute tokens after normalization rules change.
func (st *storeTx) TransactionsMissingTokens() ([]Txn, error) {
	tokens := st.tx.Bucket(bucketTokens)
	var out []Txn
	err := st.forEachTxn(func(t Txn) error {
		if tokens.Get(itob(t.ID)) == nil {
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

// Recategorize reassigns a transaction's category and regenerates its token
// index entry, keeping the two writes in one unit of work.
func (st *storeTx) Recategorize(txnID, categoryID uint64, tokens []string) error {
	t, ok, err := st.TxnByID(txnID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("no txn with id %d", txnID)
	}
	t.CategoryID = categoryID
	if err := st.putTxn(t); err != nil {
		return err
	}
	if err := st.DeleteTokens(txnID); err != nil {
		return err
	}
	return st.InsertTokens(txnID, tokens)
}

// InsertTransfer links the two legs of a matched transfer.
func (st *storeTx) InsertTransfer(sourceID, sinkID uint64) (Transfer, error) {
	b := st.tx.Bucket(bucketTransfers)
	id, err := b.NextSequence()
	if err != nil {
		return Transfer{}, errors.Wrap(err, "transfer sequence")
	}
	tr := Transfer{ID: id, SourceID: sourceID, SinkID: sinkID}
	val, err := encodeGob(tr)
	if err != nil {
		return Transfer{}, err
	}
	if err := b.Put(itob(id), val); err != nil {
		return Transfer{}, errors.Wrap(err, "put transfer")
	}
	return tr, nil
}

// Transfers returns all persisted transfers.
func (st *storeTx) Transfers() ([]Transfer, error) {
	var out []Transfer
	err := st.tx.Bucket(bucketTransfers).ForEach(func(k, v []byte) error {
		var tr Transfer
		if err := decodeGob(v, &tr); err != nil {
			return err
		}
		out = append(out, tr)
		return nil
	})
	return out, err
}
