package types

import (
	"fmt"
	"sort"
)

// AssetValues accumulates amounts per asset key.
type AssetValues map[AssetKey]uint64

// Add adds the asset's amount to its key. The map is left unchanged on overflow.
func (v AssetValues) Add(a Asset) error {
	key := a.Key()
	sum, ok := AddAmount(v[key], a.Amount)
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrAmountOverflow)
	}
	v[key] = sum
	return nil
}

// Equal reports whether both sides hold the same non-zero amount for every key.
func (v AssetValues) Equal(o AssetValues) bool {
	for k, a := range v {
		if a != o[k] {
			return false
		}
	}
	for k, b := range o {
		if b != v[k] {
			return false
		}
	}
	return true
}

// UnionKeys returns the keys present in either map, sorted.
func (v AssetValues) UnionKeys(o AssetValues) []AssetKey {
	seen := make(map[AssetKey]struct{}, len(v)+len(o))
	keys := make([]AssetKey, 0, len(v)+len(o))
	for _, m := range []AssetValues{v, o} {
		for k := range m {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
