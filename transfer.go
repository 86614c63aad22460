package main

import (
	"sort"
	"time"
)

// transferPair is a matched transfer: the source leg (negative amount) and
// the sink leg (positive amount) in another account.
type transferPair struct {
	Source Txn
	Sink   Txn
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// matchTransfers pairs transfer-flagged transactions across accounts. A
// source pairs with a sink only when they posted on the same date, the
// amounts negate exactly, and the accounts differ. A source with zero or more
// than one qualifying sink stays unmatched: ambiguity is never resolved by
// picking an arbitrary candidate. Returns the matched pairs and the remaining
// unmatched transactions per account; the input map is not mutated.
func matchTransfers(byAccount map[uint64][]Txn) ([]transferPair, map[uint64][]Txn) {
	type ref struct {
		acct uint64
		pos  int
	}
	var sources, sinks []ref

	// Walk accounts in a fixed order so pairing is deterministic.
	accts := make([]uint64, 0, len(byAccount))
	for id := range byAccount {
		accts = append(accts, id)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i] < accts[j] })

	for _, id := range accts {
		for pos, t := range byAccount[id] {
			if t.Type != TypeXfer {
				continue
			}
			switch {
			case t.Amount.Sign() < 0:
				sources = append(sources, ref{id, pos})
			case t.Amount.Sign() > 0:
				sinks = append(sinks, ref{id, pos})
			}
		}
	}

	consumed := make(map[ref]bool)
	var pairs []transferPair

	// A single pass suffices: matches are exact, and consumed sinks are
	// never reconsidered.
	for _, src := range sources {
		s := byAccount[src.acct][src.pos]
		var candidate ref
		var count int
		for _, snk := range sinks {
			if consumed[snk] || snk.acct == src.acct {
				continue
			}
			k := byAccount[snk.acct][snk.pos]
			if !sameDay(s.Date, k.Date) || !k.Amount.Equal(s.Amount.Neg()) {
				continue
			}
			candidate = snk
			count++
		}
		if count != 1 {
			continue
		}
		consumed[src] = true
		consumed[candidate] = true
		pairs = append(pairs, transferPair{
			Source: s,
			Sink:   byAccount[candidate.acct][candidate.pos],
		})
	}

	remaining := make(map[uint64][]Txn, len(byAccount))
	for id, txns := range byAccount {
		rest := make([]Txn, 0, len(txns))
		for pos, t := range txns {
			if !consumed[ref{id, pos}] {
				rest = append(rest, t)
			}
		}
		remaining[id] = rest
	}
	return pairs, remaining
}
