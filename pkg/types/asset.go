package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrAmountOverflow is returned when summing asset amounts exceeds uint64.
var ErrAmountOverflow = errors.New("asset amount overflow")

// AssetKind distinguishes the native fungible token from named items.
type AssetKind uint8

const (
	AssetToken AssetKind = 0x00 // Native fungible token
	AssetItem  AssetKind = 0x01 // Named asset minted by a creation transaction
)

// String returns a human-readable name for the asset kind.
func (k AssetKind) String() string {
	switch k {
	case AssetToken:
		return "token"
	case AssetItem:
		return "item"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Asset is a tagged amount carried by a transaction output.
//
// For items, ID is the genesis hash: the ID of the creation transaction
// that minted it. Freshly minted items carry a zero ID until the output is
// stored, at which point FixGenesis fills it in. Metadata is only allowed
// at creation.
type Asset struct {
	Kind     AssetKind
	Amount   uint64
	ID       Hash
	Metadata []byte
}

// Token returns an amount of the native token.
func Token(amount uint64) Asset {
	return Asset{Kind: AssetToken, Amount: amount}
}

// Item returns an amount of the item minted by the given genesis transaction.
func Item(amount uint64, genesis Hash) Asset {
	return Asset{Kind: AssetItem, Amount: amount, ID: genesis}
}

// IsToken reports whether the asset is the native token.
func (a Asset) IsToken() bool { return a.Kind == AssetToken }

// IsItem reports whether the asset is a named item.
func (a Asset) IsItem() bool { return a.Kind == AssetItem }

// Key returns the balancing key of the asset.
func (a Asset) Key() AssetKey {
	if a.Kind == AssetToken {
		return AssetKey{Kind: AssetToken}
	}
	return AssetKey{Kind: a.Kind, ID: a.ID}
}

// FixGenesis returns a copy of a freshly minted item with its genesis
// hash set. Tokens and items that already carry an ID are returned as-is.
func (a Asset) FixGenesis(genesis Hash) Asset {
	if a.Kind == AssetItem && a.ID.IsZero() {
		a.ID = genesis
	}
	return a
}

// Equal reports whether two assets are identical, metadata included.
func (a Asset) Equal(b Asset) bool {
	return a.Kind == b.Kind && a.Amount == b.Amount && a.ID == b.ID &&
		bytes.Equal(a.Metadata, b.Metadata)
}

// String returns "amount kind[:id]".
func (a Asset) String() string {
	return fmt.Sprintf("%d %s", a.Amount, a.Key())
}

type assetJSON struct {
	Kind     string `json:"kind"`
	Amount   uint64 `json:"amount"`
	ID       *Hash  `json:"id,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

// MarshalJSON encodes the asset with a hex ID and hex metadata.
func (a Asset) MarshalJSON() ([]byte, error) {
	j := assetJSON{Kind: a.Kind.String(), Amount: a.Amount}
	if a.Kind == AssetItem {
		id := a.ID
		j.ID = &id
	}
	if len(a.Metadata) > 0 {
		j.Metadata = hex.EncodeToString(a.Metadata)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes an asset produced by MarshalJSON.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var j assetJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	switch j.Kind {
	case "token":
		a.Kind = AssetToken
	case "item":
		a.Kind = AssetItem
	default:
		return fmt.Errorf("unknown asset kind %q", j.Kind)
	}
	a.Amount = j.Amount
	a.ID = Hash{}
	if j.ID != nil {
		a.ID = *j.ID
	}
	a.Metadata = nil
	if j.Metadata != "" {
		b, err := hex.DecodeString(j.Metadata)
		if err != nil {
			return fmt.Errorf("invalid metadata hex: %w", err)
		}
		a.Metadata = b
	}
	return nil
}

// AssetKey identifies a token type for balancing purposes.
type AssetKey struct {
	Kind AssetKind
	ID   Hash
}

// String returns "token" or "item:<genesis hex>".
func (k AssetKey) String() string {
	if k.Kind == AssetToken {
		return k.Kind.String()
	}
	return k.Kind.String() + ":" + k.ID.String()
}

// Less orders keys by kind, then by ID bytes.
func (k AssetKey) Less(o AssetKey) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	return bytes.Compare(k.ID[:], o.ID[:]) < 0
}

// AddAmount returns a+b, or false if the sum overflows.
func AddAmount(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// SubAmount returns a-b, or false if b > a.
func SubAmount(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// SaturatingAdd returns a+b clamped to math.MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	if sum, ok := AddAmount(a, b); ok {
		return sum
	}
	return math.MaxUint64
}
