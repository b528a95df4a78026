package merkle

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// Proof errors.
var (
	ErrEmptyTree       = errors.New("tree has no leaves")
	ErrIndexOutOfRange = errors.New("leaf index out of range")
	ErrPathLength      = errors.New("proof path has wrong length")
	ErrSide            = errors.New("sibling side does not match leaf index")
	ErrRootMismatch    = errors.New("proof does not lead to root")
)

// maxPathLength bounds a path for any 32-bit leaf count.
const maxPathLength = 32

// ProofError reports why a proof could not be built or did not verify.
type ProofError struct {
	Index     int
	LeafCount int
	Err       error
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("merkle proof for leaf %d of %d: %v", e.Index, e.LeafCount, e.Err)
}

func (e *ProofError) Unwrap() error { return e.Err }

// Side says which side of the running hash a sibling sits on.
type Side uint8

const (
	SideRight Side = 0x00 // Sibling is the right child
	SideLeft  Side = 0x01 // Sibling is the left child
)

// String returns "left" or "right".
func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Step is one sibling on the path from a leaf to the root.
type Step struct {
	Hash types.Hash `json:"hash"`
	Side Side       `json:"side"`
}

// Proof shows that Leaf is a leaf of the tree under some root. Levels where
// the running node has no sibling contribute no step.
//
// The root does not commit to the leaf count. Index and LeafCount are
// supplied by the prover and only checked for consistency with the path,
// so a verified proof establishes membership of Leaf, not its position: a
// node carried up past a level is reachable under more than one
// (Index, LeafCount) pair. Callers that need the position must know the
// leaf count from elsewhere, such as the block's transaction count.
type Proof struct {
	Index     uint32     `json:"index"`
	LeafCount uint32     `json:"leaf_count"`
	Leaf      types.Hash `json:"leaf"`
	Path      []Step     `json:"path"`
}

// Verify reports whether p proves membership under root. Malformed proofs
// return false.
func Verify(p *Proof, root types.Hash, h crypto.Hasher) bool {
	return Check(p, root, h) == nil
}

// Check is Verify with the reason for a rejection as a *ProofError.
func Check(p *Proof, root types.Hash, h crypto.Hasher) error {
	if p == nil {
		return &ProofError{Err: ErrEmptyTree}
	}
	fail := func(err error) error {
		return &ProofError{Index: int(p.Index), LeafCount: int(p.LeafCount), Err: err}
	}
	if p.LeafCount == 0 {
		return fail(ErrEmptyTree)
	}
	if p.Index >= p.LeafCount {
		return fail(ErrIndexOutOfRange)
	}

	node := LeafHash(h, p.Leaf)
	idx, width := uint64(p.Index), uint64(p.LeafCount)
	steps := p.Path
	for width > 1 {
		if sib := idx ^ 1; sib < width {
			if len(steps) == 0 {
				return fail(ErrPathLength)
			}
			step := steps[0]
			steps = steps[1:]
			if idx&1 == 1 {
				if step.Side != SideLeft {
					return fail(ErrSide)
				}
				node = NodeHash(h, step.Hash, node)
			} else {
				if step.Side != SideRight {
					return fail(ErrSide)
				}
				node = NodeHash(h, node, step.Hash)
			}
		}
		idx /= 2
		width = (width + 1) / 2
	}
	if len(steps) != 0 {
		return fail(ErrPathLength)
	}
	if node != root {
		return fail(ErrRootMismatch)
	}
	return nil
}

// =============================================================================
// Encoding
// =============================================================================

// Encoding: index(4) | leaf_count(4) | leaf(32) | steps(compact) | (side(1) | hash(32))...

// Encode returns the canonical versioned encoding of the proof.
func (p *Proof) Encode() []byte {
	w := wire.NewWriter(1 + 4 + 4 + types.HashSize + 1 + len(p.Path)*(1+types.HashSize))
	w.Version()
	w.U32(p.Index)
	w.U32(p.LeafCount)
	w.Hash(p.Leaf)
	w.CompactSize(uint64(len(p.Path)))
	for _, s := range p.Path {
		w.U8(uint8(s.Side))
		w.Hash(s.Hash)
	}
	return w.Bytes()
}

// DecodeProof parses a versioned proof encoding. It checks the format
// only; use Verify to check the proof itself.
func DecodeProof(b []byte) (*Proof, error) {
	r := wire.NewReader("merkle proof", b)
	if err := r.Version(); err != nil {
		return nil, err
	}
	p := &Proof{}
	var err error
	if p.Index, err = r.U32(); err != nil {
		return nil, err
	}
	if p.LeafCount, err = r.U32(); err != nil {
		return nil, err
	}
	if p.Leaf, err = r.Hash(); err != nil {
		return nil, err
	}
	n, err := r.CompactSize(maxPathLength)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		p.Path = make([]Step, n)
	}
	for i := range p.Path {
		side, err := r.U8()
		if err != nil {
			return nil, err
		}
		if Side(side) > SideLeft {
			return nil, r.Fail(wire.ErrInvalidValue)
		}
		p.Path[i].Side = Side(side)
		if p.Path[i].Hash, err = r.Hash(); err != nil {
			return nil, err
		}
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return p, nil
}
