// Package merkle builds binary Merkle trees over transaction IDs and
// produces self-contained membership proofs.
//
// Leaves are hashed as H(0x00 || id) and interior nodes as
// H(0x01 || left || right). A node without a sibling is carried up to the
// next level unchanged, so a list and the same list with its last element
// repeated have different roots.
package merkle

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Domain tags.
const (
	tagLeaf = 0x00
	tagNode = 0x01
)

// Tree is a fully materialized Merkle tree. levels[0] holds the hashed
// leaves and the last level holds the root.
type Tree struct {
	hasher crypto.Hasher
	leaves []types.Hash
	levels [][]types.Hash
}

// LeafHash returns the level-0 node for a leaf.
func LeafHash(h crypto.Hasher, leaf types.Hash) types.Hash {
	return crypto.HashTagged(h, tagLeaf, leaf[:])
}

// NodeHash returns the parent of two sibling nodes.
func NodeHash(h crypto.Hasher, left, right types.Hash) types.Hash {
	return crypto.HashTagged(h, tagNode, left[:], right[:])
}

// Build constructs the tree over leaves in order. The leaves are copied.
func Build(leaves []types.Hash, h crypto.Hasher) *Tree {
	t := &Tree{hasher: h, leaves: append([]types.Hash(nil), leaves...)}
	if len(leaves) == 0 {
		return t
	}

	level := make([]types.Hash, len(leaves))
	for i, leaf := range leaves {
		level[i] = LeafHash(h, leaf)
	}
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i == len(level)-1 {
				next = append(next, level[i])
				continue
			}
			next = append(next, NodeHash(h, level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t
}

// Root computes the Merkle root of leaves. The root of no leaves is the
// zero hash.
func Root(leaves []types.Hash, h crypto.Hasher) types.Hash {
	return Build(leaves, h).Root()
}

// Root returns the tree's root, or the zero hash for an empty tree.
func (t *Tree) Root() types.Hash {
	if len(t.levels) == 0 {
		return types.Hash{}
	}
	return t.levels[len(t.levels)-1][0]
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int { return len(t.leaves) }

// Prove returns a membership proof for the leaf at index.
func (t *Tree) Prove(index int) (*Proof, error) {
	n := len(t.leaves)
	if n == 0 {
		return nil, &ProofError{Index: index, LeafCount: n, Err: ErrEmptyTree}
	}
	if index < 0 || index >= n {
		return nil, &ProofError{Index: index, LeafCount: n, Err: ErrIndexOutOfRange}
	}

	p := &Proof{
		Index:     uint32(index),
		LeafCount: uint32(n),
		Leaf:      t.leaves[index],
	}
	idx := index
	for _, level := range t.levels[:len(t.levels)-1] {
		if sib := idx ^ 1; sib < len(level) {
			side := SideRight
			if idx&1 == 1 {
				side = SideLeft
			}
			p.Path = append(p.Path, Step{Hash: level[sib], Side: side})
		}
		idx /= 2
	}
	return p, nil
}
