package utxo

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// Commitment computes a Merkle root over all UTXOs in the store. Each UTXO
// is hashed over its outpoint and stored form, the hashes are sorted, and
// the tree is built from them. An empty set commits to the zero hash.
func Commitment(store *Store, h crypto.Hasher) (types.Hash, error) {
	var hashes []types.Hash
	err := store.ForEach(func(u *UTXO) error {
		hashes = append(hashes, hashUTXO(u, h))
		return nil
	})
	if err != nil {
		return types.Hash{}, fmt.Errorf("utxo commitment: %w", err)
	}
	slices.SortFunc(hashes, func(a, b types.Hash) int {
		return bytes.Compare(a[:], b[:])
	})
	return merkle.Root(hashes, h), nil
}

func hashUTXO(u *UTXO, h crypto.Hasher) types.Hash {
	enc := u.encode()
	w := wire.NewWriter(types.HashSize + 4 + len(enc))
	w.Outpoint(u.Outpoint)
	w.Fixed(enc)
	return h.Hash(w.Bytes())
}
