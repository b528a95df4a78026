package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// druidTrade builds a two-leg trade: alice pays 10 tokens to bob, bob
// pays one sword to alice.
func druidTrade(t *testing.T) []*Transaction {
	t.Helper()
	alice, bob := newKey(t), newKey(t)
	sword := types.Item(1, types.Hash{0x5e})

	aliceTx := NewBuilder().
		AddInput(types.Outpoint{TxID: types.Hash{0xa1}}).
		AddOutput(types.Token(10), p2pkh(bob)).
		Build()
	bobTx := NewBuilder().
		AddInput(types.Outpoint{TxID: types.Hash{0xb1}}).
		AddOutput(sword, p2pkh(alice)).
		Build()

	info := DruidInfo{
		Druid:        "DRUID0x01",
		Participants: 2,
		Expectations: []Expectation{
			{From: InputsAddress(testHasher, aliceTx), To: addrOf(bob), Asset: types.Token(10)},
			{From: InputsAddress(testHasher, bobTx), To: addrOf(alice), Asset: sword},
		},
	}
	aliceInfo, bobInfo := info, info
	aliceTx.Druid = &aliceInfo
	bobTx.Druid = &bobInfo
	return []*Transaction{aliceTx, bobTx}
}

func TestValidateDruid_Valid(t *testing.T) {
	if err := ValidateDruid(testHasher, druidTrade(t)); err != nil {
		t.Fatalf("ValidateDruid: %v", err)
	}
}

func TestValidateDruid_ExpectationNotMet(t *testing.T) {
	txs := druidTrade(t)
	txs[1].Outputs[0].Asset.Amount = 2
	if err := ValidateDruid(testHasher, txs); !errors.Is(err, ErrDruidExpectation) {
		t.Fatalf("expected ErrDruidExpectation, got: %v", err)
	}
}

func TestValidateDruid_WrongPayer(t *testing.T) {
	txs := druidTrade(t)
	txs[0].Inputs[0].PrevOut.Index = 9
	if err := ValidateDruid(testHasher, txs); !errors.Is(err, ErrDruidExpectation) {
		t.Fatalf("expected ErrDruidExpectation, got: %v", err)
	}
}

func TestValidateDruid_Participants(t *testing.T) {
	txs := druidTrade(t)
	for _, tx := range txs {
		tx.Druid.Participants = 3
	}
	if err := ValidateDruid(testHasher, txs); !errors.Is(err, ErrDruidParticipants) {
		t.Fatalf("expected ErrDruidParticipants, got: %v", err)
	}
}

func TestValidateDruid_DuplicateLeg(t *testing.T) {
	txs := druidTrade(t)
	txs[0].Druid.Expectations = txs[0].Druid.Expectations[:1]
	txs[1] = txs[0]
	if err := ValidateDruid(testHasher, txs); !errors.Is(err, ErrDruidDuplicateLeg) {
		t.Fatalf("expected ErrDruidDuplicateLeg, got: %v", err)
	}
}

func TestValidateDruid_Mismatch(t *testing.T) {
	txs := druidTrade(t)
	txs[1].Druid.Druid = "other"
	if err := ValidateDruid(testHasher, txs); !errors.Is(err, ErrDruidMismatch) {
		t.Fatalf("expected ErrDruidMismatch, got: %v", err)
	}

	txs[1].Druid = nil
	if err := ValidateDruid(testHasher, txs); !errors.Is(err, ErrDruidMismatch) {
		t.Fatalf("expected ErrDruidMismatch for a leg without DRUID, got: %v", err)
	}
	if err := ValidateDruid(testHasher, nil); !errors.Is(err, ErrDruidMismatch) {
		t.Fatalf("expected ErrDruidMismatch for no legs, got: %v", err)
	}
}
