package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestAsset_Key(t *testing.T) {
	genesis := Hash{0x42}

	if Token(5).Key() != (AssetKey{Kind: AssetToken}) {
		t.Error("token key should have zero ID")
	}
	if got := Item(1, genesis).Key(); got.ID != genesis || got.Kind != AssetItem {
		t.Errorf("item key = %v", got)
	}
	// Items with different genesis hashes never balance against each other.
	if Item(1, genesis).Key() == Item(1, Hash{0x43}).Key() {
		t.Error("distinct items should have distinct keys")
	}
}

func TestAsset_FixGenesis(t *testing.T) {
	genesis := Hash{0x01}

	minted := Asset{Kind: AssetItem, Amount: 3}
	if got := minted.FixGenesis(genesis); got.ID != genesis {
		t.Errorf("minted item ID = %s, want %s", got.ID, genesis)
	}

	existing := Item(3, Hash{0x02})
	if got := existing.FixGenesis(genesis); got.ID != existing.ID {
		t.Error("existing genesis hash should be kept")
	}

	if got := Token(3).FixGenesis(genesis); !got.ID.IsZero() {
		t.Error("token should not receive a genesis hash")
	}
}

func TestAsset_JSON(t *testing.T) {
	a := Asset{Kind: AssetItem, Amount: 2, ID: Hash{0x09}, Metadata: []byte("deed")}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var got Asset
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(a) {
		t.Errorf("got %+v, want %+v", got, a)
	}

	if err := json.Unmarshal([]byte(`{"kind":"data","amount":1}`), &got); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestAmountArithmetic(t *testing.T) {
	if _, ok := AddAmount(math.MaxUint64, 1); ok {
		t.Error("AddAmount should report overflow")
	}
	if sum, ok := AddAmount(2, 3); !ok || sum != 5 {
		t.Errorf("AddAmount(2, 3) = %d, %v", sum, ok)
	}
	if _, ok := SubAmount(1, 2); ok {
		t.Error("SubAmount should report underflow")
	}
	if got := SaturatingAdd(math.MaxUint64-1, 5); got != math.MaxUint64 {
		t.Errorf("SaturatingAdd = %d, want max", got)
	}
}

func TestAssetValues_AddAndEqual(t *testing.T) {
	genesis := Hash{0x07}

	in := AssetValues{}
	out := AssetValues{}
	for _, a := range []Asset{Token(5), Token(5), Item(1, genesis)} {
		if err := in.Add(a); err != nil {
			t.Fatal(err)
		}
	}
	for _, a := range []Asset{Token(10), Item(1, genesis)} {
		if err := out.Add(a); err != nil {
			t.Fatal(err)
		}
	}
	if !in.Equal(out) {
		t.Errorf("in %v should equal out %v", in, out)
	}

	if err := out.Add(Token(1)); err != nil {
		t.Fatal(err)
	}
	if in.Equal(out) {
		t.Error("values should differ after extra token")
	}

	keys := in.UnionKeys(out)
	if len(keys) != 2 || keys[0].Kind != AssetToken {
		t.Errorf("UnionKeys = %v", keys)
	}
}

func TestAssetValues_Overflow(t *testing.T) {
	v := AssetValues{}
	if err := v.Add(Token(math.MaxUint64)); err != nil {
		t.Fatal(err)
	}
	err := v.Add(Token(1))
	if !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}
	if v[AssetKey{Kind: AssetToken}] != math.MaxUint64 {
		t.Error("failed add should leave the value unchanged")
	}
}
