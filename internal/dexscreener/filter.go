package dexscreener

import "encoding/json"

// FilterByChain keeps only the items whose chainId matches chain. Dexscreener
// list endpoints return either a bare array or an object wrapping the array
// (under "profiles" or "pairs"); both shapes are accepted and the filtered
// result is always a bare array. ok is false when raw has neither shape.
func FilterByChain(raw []byte, chain string) ([]byte, bool) {
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return marshalMatching(toAny(arr), chain)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, field := range []string{"profiles", "pairs"} {
			if items, ok := obj[field].([]any); ok {
				return marshalMatching(items, chain)
			}
		}
	}
	return nil, false
}

func marshalMatching(items []any, chain string) ([]byte, bool) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if v, ok := m["chainId"].(string); ok && v == chain {
				out = append(out, m)
			}
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, false
	}
	return b, true
}

func toAny(arr []map[string]any) []any {
	out := make([]any, len(arr))
	for i, m := range arr {
		out[i] = m
	}
	return out
}

// TrendingItem is the subset of a trending entry the cache warmer needs.
type TrendingItem struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

// ParseTrending extracts chain/address pairs from a trending document.
func ParseTrending(raw []byte) ([]TrendingItem, error) {
	var items []TrendingItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Profiles []TrendingItem `json:"profiles"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Profiles, nil
}
