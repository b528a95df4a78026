package ledger

import (
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/merkle"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
)

// Each entity's Encode method produces the input these functions accept.

// DecodeTransaction parses a transaction encoding.
func DecodeTransaction(b []byte) (*tx.Transaction, error) { return tx.Decode(b) }

// DecodeOutput parses an output encoding.
func DecodeOutput(b []byte) (tx.Output, error) { return tx.DecodeOutput(b) }

// DecodeBlock parses a block encoding.
func DecodeBlock(b []byte) (*block.Block, error) { return block.Decode(b) }

// DecodeHeader parses a block header encoding.
func DecodeHeader(b []byte) (*block.Header, error) { return block.DecodeHeader(b) }

// DecodeScript parses a script encoding.
func DecodeScript(b []byte) (script.Script, error) { return script.Decode(b) }

// DecodeMerkleProof parses a Merkle proof encoding.
func DecodeMerkleProof(b []byte) (*merkle.Proof, error) { return merkle.DecodeProof(b) }
