package payoff

import "sort"

// Order returns the input indices in waterfall priority order.
//
//   - Avalanche: APR descending
//   - Snowball: balance ascending
//
// Ties keep input order. The input slice is not modified.
func Order(debts []DebtRecord, strategy Strategy) []int {
	idx := make([]int, len(debts))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		da, db := debts[idx[a]], debts[idx[b]]
		if strategy == Snowball {
			return da.Balance.LessThan(db.Balance)
		}
		return da.APR.GreaterThan(db.APR)
	})
	return idx
}

// OrderDebts returns a reordered copy of debts.
func OrderDebts(debts []DebtRecord, strategy Strategy) []DebtRecord {
	out := make([]DebtRecord, 0, len(debts))
	for _, i := range Order(debts, strategy) {
		out = append(out, debts[i])
	}
	return out
}
