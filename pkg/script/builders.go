package script

import (
	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Class identifies the standard template a script matches.
type Class uint8

const (
	ClassNonStandard Class = iota
	ClassP2PKH             // Pay to public key hash
	ClassP2SH              // Pay to script hash
	ClassMultisig          // Bare m-of-n multisig
	ClassBurn              // Provably unspendable
	ClassCreate            // Asset creation
	ClassCoinbase          // Block reward
)

// String returns a human-readable name for the class.
func (c Class) String() string {
	switch c {
	case ClassP2PKH:
		return "P2PKH"
	case ClassP2SH:
		return "P2SH"
	case ClassMultisig:
		return "Multisig"
	case ClassBurn:
		return "Burn"
	case ClassCreate:
		return "Create"
	case ClassCoinbase:
		return "Coinbase"
	default:
		return "NonStandard"
	}
}

// Classify reports which standard template s matches.
func Classify(s Script) Class {
	switch {
	case IsP2PKH(s):
		return ClassP2PKH
	case IsP2SH(s):
		return ClassP2SH
	case isMultisig(s):
		return ClassMultisig
	case IsBurn(s):
		return ClassBurn
	case IsCreate(s):
		return ClassCreate
	case IsCoinbase(s):
		return ClassCoinbase
	default:
		return ClassNonStandard
	}
}

// =============================================================================
// Pay to public key hash
// =============================================================================

// P2PKHLock locks to the holder of the key whose address is addr.
func P2PKHLock(addr types.Address) Script {
	return New(Op(OpDup), Op(OpHash256), Bytes(addr[:]), Op(OpEqualVerify), Op(OpCheckSig))
}

// P2PKHUnlock spends a P2PKH output.
func P2PKHUnlock(sig, pubKey []byte) Script {
	return New(Sig(sig), PubKey(pubKey))
}

// IsP2PKH reports whether s is a P2PKH locking script.
func IsP2PKH(s Script) bool {
	_, ok := p2pkhAddress(s)
	return ok
}

// ExtractAddress returns the address a P2PKH or P2SH locking script pays to.
func ExtractAddress(s Script) (types.Address, bool) {
	if h, ok := P2SHHash(s); ok {
		return types.Address(h), true
	}
	return p2pkhAddress(s)
}

func p2pkhAddress(s Script) (types.Address, bool) {
	e := s.entries
	if len(e) != 5 ||
		!isOp(e[0], OpDup) || !isOp(e[1], OpHash256) ||
		e[2].Kind != KindBytes || len(e[2].Data) != types.AddressSize ||
		!isOp(e[3], OpEqualVerify) || !isOp(e[4], OpCheckSig) {
		return types.Address{}, false
	}
	var addr types.Address
	copy(addr[:], e[2].Data)
	return addr, true
}

// =============================================================================
// Multisig
// =============================================================================

// MultisigLock requires m valid signatures from pubKeys, in key order.
func MultisigLock(m int, pubKeys ...[]byte) Script {
	entries := make([]Entry, 0, len(pubKeys)+3)
	entries = append(entries, Num(uint64(m)))
	for _, pk := range pubKeys {
		entries = append(entries, PubKey(pk))
	}
	entries = append(entries, Num(uint64(len(pubKeys))), Op(OpCheckMultiSig))
	return New(entries...)
}

// MultisigUnlock spends a multisig output. Signatures must be ordered like
// the keys they match.
func MultisigUnlock(sigs ...[]byte) Script {
	entries := make([]Entry, len(sigs))
	for i, sig := range sigs {
		entries[i] = Sig(sig)
	}
	return New(entries...)
}

func isMultisig(s Script) bool {
	e := s.entries
	if len(e) < 4 || !isOp(e[len(e)-1], OpCheckMultiSig) {
		return false
	}
	m, n := e[0], e[len(e)-2]
	if m.Kind != KindNum || n.Kind != KindNum {
		return false
	}
	if n.Num == 0 || n.Num > config.MaxPubKeysPerMultisig || m.Num == 0 || m.Num > n.Num {
		return false
	}
	if uint64(len(e)-3) != n.Num {
		return false
	}
	for _, k := range e[1 : len(e)-2] {
		if k.Kind != KindPubKey {
			return false
		}
	}
	return true
}

// =============================================================================
// Pay to script hash
// =============================================================================

// P2SHAddress returns the hash a P2SH output commits to for redeem.
func P2SHAddress(redeem Script) types.Hash {
	return crypto.Sha3(redeem.Encode())
}

// P2SHLock locks to whoever reveals a redeem script hashing to h and
// satisfies it.
func P2SHLock(h types.Hash) Script {
	return New(Op(OpSha3), Bytes(h[:]), Op(OpEqual))
}

// P2SHUnlock pushes the redeem script's arguments followed by its encoding.
func P2SHUnlock(redeem Script, args ...Entry) Script {
	entries := make([]Entry, 0, len(args)+1)
	entries = append(entries, args...)
	entries = append(entries, Bytes(redeem.Encode()))
	return New(entries...)
}

// P2SHHash returns the committed hash if s is a P2SH locking script.
func P2SHHash(s Script) (types.Hash, bool) {
	e := s.entries
	if len(e) != 3 || !isOp(e[0], OpSha3) || !isOp(e[2], OpEqual) ||
		e[1].Kind != KindBytes || len(e[1].Data) != types.HashSize {
		return types.Hash{}, false
	}
	var h types.Hash
	copy(h[:], e[1].Data)
	return h, true
}

// IsP2SH reports whether s is a P2SH locking script.
func IsP2SH(s Script) bool {
	_, ok := P2SHHash(s)
	return ok
}

// =============================================================================
// Burn, create, coinbase
// =============================================================================

// BurnLock makes an output unspendable.
func BurnLock() Script {
	return New(Op(OpBurn))
}

// IsBurn reports whether s is the burn template.
func IsBurn(s Script) bool {
	return len(s.entries) == 1 && isOp(s.entries[0], OpBurn)
}

// CreateScript authorizes asset creation at height by the holder of pubKey.
// The signature covers the creating transaction's signing hash.
func CreateScript(height uint64, sig, pubKey []byte) Script {
	return New(Op(OpCreate), Num(height), Op(OpDrop), Sig(sig), PubKey(pubKey), Op(OpCheckSig))
}

// IsCreate reports whether s has the shape of a creation script.
func IsCreate(s Script) bool {
	e := s.entries
	return len(e) == 6 &&
		isOp(e[0], OpCreate) && e[1].Kind == KindNum && isOp(e[2], OpDrop) &&
		e[3].Kind == KindSignature && e[4].Kind == KindPubKey && isOp(e[5], OpCheckSig)
}

// CreateHeight returns the height committed to by a creation script.
func CreateHeight(s Script) (uint64, bool) {
	if !IsCreate(s) {
		return 0, false
	}
	return s.entries[1].Num, true
}

// CoinbaseScript is the unlocking script of a block reward input. The height
// makes otherwise identical coinbase transactions distinct.
func CoinbaseScript(height uint64) Script {
	return New(Num(height), Op(OpDrop), Op(Op1))
}

// IsCoinbase reports whether s is a coinbase script.
func IsCoinbase(s Script) bool {
	_, ok := CoinbaseHeight(s)
	return ok
}

// CoinbaseHeight returns the height committed to by a coinbase script.
func CoinbaseHeight(s Script) (uint64, bool) {
	e := s.entries
	if len(e) != 3 || e[0].Kind != KindNum || !isOp(e[1], OpDrop) || !isOp(e[2], Op1) {
		return 0, false
	}
	return e[0].Num, true
}

func isOp(e Entry, op Opcode) bool {
	return e.Kind == KindOp && e.Op == op
}
