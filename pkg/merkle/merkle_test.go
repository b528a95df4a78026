package merkle

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

var h = crypto.SHA3Hasher{}

func leaves(n int) []types.Hash {
	out := make([]types.Hash, n)
	for i := range out {
		out[i] = crypto.Sha3([]byte{byte(i), byte(i >> 8)})
	}
	return out
}

func TestRoot_Empty(t *testing.T) {
	if root := Root(nil, h); !root.IsZero() {
		t.Errorf("empty root = %s, want zero", root)
	}
}

func TestRoot_SingleLeaf(t *testing.T) {
	l := leaves(1)
	if got, want := Root(l, h), LeafHash(h, l[0]); got != want {
		t.Errorf("root = %s, want %s", got, want)
	}
}

func TestRoot_OddCarriesForward(t *testing.T) {
	l := leaves(3)
	want := NodeHash(h, NodeHash(h, LeafHash(h, l[0]), LeafHash(h, l[1])), LeafHash(h, l[2]))
	if got := Root(l, h); got != want {
		t.Errorf("root = %s, want %s", got, want)
	}
}

func TestRoot_DuplicateTailDiffers(t *testing.T) {
	for n := 1; n <= 9; n++ {
		l := leaves(n)
		dup := append(append([]types.Hash(nil), l...), l[n-1])
		if Root(l, h) == Root(dup, h) {
			t.Errorf("n=%d: duplicating the last leaf kept the root", n)
		}
	}
}

func TestRoot_OrderMatters(t *testing.T) {
	l := leaves(2)
	swapped := []types.Hash{l[1], l[0]}
	if Root(l, h) == Root(swapped, h) {
		t.Error("swapping leaves kept the root")
	}
}

func TestBuild_CopiesLeaves(t *testing.T) {
	l := leaves(4)
	tree := Build(l, h)
	root := tree.Root()
	l[0] = types.Hash{}
	p, err := tree.Prove(0)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !Verify(p, root, h) {
		t.Error("tree changed when the caller's slice did")
	}
}

func TestProve_EveryIndex(t *testing.T) {
	for n := 1; n <= 17; n++ {
		tree := Build(leaves(n), h)
		root := tree.Root()
		for i := 0; i < n; i++ {
			p, err := tree.Prove(i)
			if err != nil {
				t.Fatalf("n=%d i=%d: Prove: %v", n, i, err)
			}
			if !Verify(p, root, h) {
				t.Errorf("n=%d i=%d: proof does not verify", n, i)
			}
		}
	}
}

// A carried node verifies under more than one claimed position; the proof
// binds the leaf, not its index.
func TestVerify_CarriedNodePosition(t *testing.T) {
	tree := Build(leaves(3), h)
	p, err := tree.Prove(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Path) != 1 || p.Path[0].Side != SideLeft {
		t.Fatalf("path = %+v, want one left sibling", p.Path)
	}
	alias := *p
	alias.Index, alias.LeafCount = 1, 2
	if !Verify(&alias, tree.Root(), h) {
		t.Fatal("carried leaf should also verify as index 1 of 2")
	}
	alias.Leaf = leaves(4)[3]
	if Verify(&alias, tree.Root(), h) {
		t.Fatal("other leaf must not verify")
	}
}

func TestProve_Errors(t *testing.T) {
	_, err := Build(nil, h).Prove(0)
	if !errors.Is(err, ErrEmptyTree) {
		t.Errorf("expected ErrEmptyTree, got: %v", err)
	}
	var pe *ProofError
	if !errors.As(err, &pe) {
		t.Errorf("expected *ProofError, got %T", err)
	}

	tree := Build(leaves(3), h)
	for _, i := range []int{-1, 3} {
		if _, err := tree.Prove(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("index %d: expected ErrIndexOutOfRange, got: %v", i, err)
		}
	}
}

func TestCheck_Tampering(t *testing.T) {
	tree := Build(leaves(6), h)
	root := tree.Root()
	proof := func() *Proof {
		p, err := tree.Prove(4)
		if err != nil {
			t.Fatalf("Prove: %v", err)
		}
		return p
	}

	tests := []struct {
		name   string
		mutate func(p *Proof, root *types.Hash)
		want   error
	}{
		{"leaf bit", func(p *Proof, _ *types.Hash) { p.Leaf[0] ^= 1 }, ErrRootMismatch},
		{"sibling bit", func(p *Proof, _ *types.Hash) { p.Path[0].Hash[31] ^= 0x80 }, ErrRootMismatch},
		{"root bit", func(_ *Proof, r *types.Hash) { r[5] ^= 1 }, ErrRootMismatch},
		{"side", func(p *Proof, _ *types.Hash) { p.Path[0].Side = SideLeft }, ErrSide},
		{"index", func(p *Proof, _ *types.Hash) { p.Index = 5 }, ErrSide},
		{"index past count", func(p *Proof, _ *types.Hash) { p.Index = 6 }, ErrIndexOutOfRange},
		{"zero count", func(p *Proof, _ *types.Hash) { p.LeafCount = 0 }, ErrEmptyTree},
		{"extra step", func(p *Proof, _ *types.Hash) { p.Path = append(p.Path, p.Path[0]) }, ErrPathLength},
		{"missing step", func(p *Proof, _ *types.Hash) { p.Path = p.Path[:len(p.Path)-1] }, ErrPathLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r := proof(), root
			tt.mutate(p, &r)
			err := Check(p, r, h)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
			if Verify(p, r, h) {
				t.Error("Verify accepted a tampered proof")
			}
		})
	}
}

func TestVerify_Nil(t *testing.T) {
	if Verify(nil, types.Hash{}, h) {
		t.Error("nil proof verified")
	}
}

func TestVerify_OtherHasher(t *testing.T) {
	tree := Build(leaves(4), h)
	p, _ := tree.Prove(1)
	if Verify(p, tree.Root(), crypto.BLAKE3Hasher{}) {
		t.Error("proof verified under a different hasher")
	}
}

func TestProof_EncodeDecode(t *testing.T) {
	tree := Build(leaves(11), h)
	p, err := tree.Prove(10)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	got, err := DecodeProof(p.Encode())
	if err != nil {
		t.Fatalf("DecodeProof: %v", err)
	}
	if got.Index != p.Index || got.LeafCount != p.LeafCount || got.Leaf != p.Leaf || len(got.Path) != len(p.Path) {
		t.Fatalf("decoded %+v, want %+v", got, p)
	}
	for i := range p.Path {
		if got.Path[i] != p.Path[i] {
			t.Errorf("step %d = %+v, want %+v", i, got.Path[i], p.Path[i])
		}
	}
	if !Verify(got, tree.Root(), h) {
		t.Error("decoded proof does not verify")
	}
}

func TestDecodeProof_Malformed(t *testing.T) {
	p, _ := Build(leaves(2), h).Prove(0)
	enc := p.Encode()

	badSide := append([]byte(nil), enc...)
	badSide[1+4+4+32+1] = 0x02

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, wire.ErrUnexpectedEOF},
		{"truncated", enc[:len(enc)-1], wire.ErrUnexpectedEOF},
		{"trailing", append(append([]byte(nil), enc...), 0), wire.ErrTrailingBytes},
		{"side", badSide, wire.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeProof(tt.data); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
		})
	}
}

func FuzzDecodeProof(f *testing.F) {
	p, _ := Build(leaves(5), h).Prove(2)
	f.Add(p.Encode())
	f.Add([]byte{})
	root := Build(leaves(5), h).Root()

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := DecodeProof(data)
		if err != nil {
			return
		}
		Verify(p, root, h)
		if string(p.Encode()) != string(data) {
			t.Fatal("re-encoding differs")
		}
	})
}
