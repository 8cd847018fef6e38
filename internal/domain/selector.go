package domain

import "sort"

// SelectBestPair returns the pair with the deepest USD liquidity. Missing
// liquidity counts as zero and equal liquidity keeps input order.
func SelectBestPair(doc *MarketData) (Pair, bool) {
	if doc == nil || len(doc.Pairs) == 0 {
		return Pair{}, false
	}
	pairs := make([]Pair, len(doc.Pairs))
	copy(pairs, doc.Pairs)
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].LiquidityUSD() > pairs[j].LiquidityUSD()
	})
	return pairs[0], true
}
