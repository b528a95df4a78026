package tx

import (
	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/Klingon-tech/klingnet-ledger/pkg/wire"
)

// Encoding (after the version byte):
//
//	version(4) | kind(1) | inputs(compact) | input... | outputs(compact) | output... | druid?
//	input:  prevout(36) | unlock script
//	output: asset | locktime(8) | drs?(1) [+ hash(32)] | lock script
//	asset:  kind(1) | amount(8) | id(32) | metadata(compact + bytes)
//	druid:  present(1) [+ druid(compact + bytes) | participants(4) | expectations(compact) | expectation...]
//	expectation: from(32) | to(32) | asset

// Encode returns the canonical versioned encoding.
func (t *Transaction) Encode() []byte {
	w := wire.NewWriter(t.encodedSize(false) + 1)
	w.Version()
	t.EncodeTo(w)
	return w.Bytes()
}

// EncodeTo appends the transaction body (no version prefix) to w.
func (t *Transaction) EncodeTo(w *wire.Writer) {
	t.encode(w, false)
}

// EncodedSize returns the length of Encode's output.
func (t *Transaction) EncodedSize() int {
	return t.encodedSize(false) + 1
}

func (t *Transaction) encode(w *wire.Writer, signing bool) {
	w.U32(t.Version)
	w.U8(uint8(t.Kind))
	w.CompactSize(uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		w.Outpoint(in.PrevOut)
		signingUnlock(in, signing).EncodeTo(w)
	}
	w.CompactSize(uint64(len(t.Outputs)))
	for i := range t.Outputs {
		t.Outputs[i].EncodeTo(w)
	}
	w.Bool(t.Druid != nil)
	if t.Druid != nil {
		t.Druid.encodeTo(w)
	}
}

func signingUnlock(in Input, signing bool) script.Script {
	switch {
	case !signing:
		return in.Unlock
	case in.PrevOut.IsZero():
		return in.Unlock.WithoutSignatures()
	default:
		return script.Script{}
	}
}

func (t *Transaction) encodedSize(signing bool) int {
	n := 4 + 1 + wire.CompactSizeLen(uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		n += 36 + signingUnlock(in, signing).EncodedSize()
	}
	n += wire.CompactSizeLen(uint64(len(t.Outputs)))
	for i := range t.Outputs {
		n += t.Outputs[i].EncodedSize()
	}
	n++
	if t.Druid != nil {
		n += t.Druid.encodedSize()
	}
	return n
}

// Decode parses a versioned transaction encoding.
func Decode(b []byte) (*Transaction, error) {
	r := wire.NewReader("transaction", b)
	if err := r.Version(); err != nil {
		return nil, err
	}
	t, err := DecodeFrom(r)
	if err != nil {
		return nil, err
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeFrom reads a transaction body from r.
func DecodeFrom(r *wire.Reader) (*Transaction, error) {
	t := &Transaction{}
	var err error
	if t.Version, err = r.U32(); err != nil {
		return nil, err
	}
	kind, err := r.U8()
	if err != nil {
		return nil, err
	}
	t.Kind = Kind(kind)
	if t.Kind > KindCoinbase {
		return nil, r.Fail(wire.ErrInvalidValue)
	}

	nIn, err := r.CompactSize(config.MaxTxInputs)
	if err != nil {
		return nil, err
	}
	if nIn > 0 {
		t.Inputs = make([]Input, nIn)
	}
	for i := range t.Inputs {
		if t.Inputs[i].PrevOut, err = r.Outpoint(); err != nil {
			return nil, err
		}
		if t.Inputs[i].Unlock, err = script.DecodeFrom(r); err != nil {
			return nil, err
		}
	}

	nOut, err := r.CompactSize(config.MaxTxOutputs)
	if err != nil {
		return nil, err
	}
	if nOut > 0 {
		t.Outputs = make([]Output, nOut)
	}
	for i := range t.Outputs {
		if t.Outputs[i], err = DecodeOutputFrom(r); err != nil {
			return nil, err
		}
	}

	hasDruid, err := r.Bool()
	if err != nil {
		return nil, err
	}
	if hasDruid {
		if t.Druid, err = decodeDruid(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// =============================================================================
// Outputs
// =============================================================================

// EncodeTo appends the output body (no version prefix) to w.
func (o *Output) EncodeTo(w *wire.Writer) {
	writeAsset(w, o.Asset)
	w.U64(o.LockTime)
	w.Bool(!o.DRSBlockHash.IsZero())
	if !o.DRSBlockHash.IsZero() {
		w.Hash(o.DRSBlockHash)
	}
	o.Lock.EncodeTo(w)
}

// EncodedSize returns the length of EncodeTo's output.
func (o *Output) EncodedSize() int {
	n := assetSize(o.Asset) + 8 + 1 + o.Lock.EncodedSize()
	if !o.DRSBlockHash.IsZero() {
		n += types.HashSize
	}
	return n
}

// Encode returns the canonical versioned encoding of the output.
func (o *Output) Encode() []byte {
	w := wire.NewWriter(o.EncodedSize() + 1)
	w.Version()
	o.EncodeTo(w)
	return w.Bytes()
}

// DecodeOutput parses a versioned output encoding.
func DecodeOutput(b []byte) (Output, error) {
	r := wire.NewReader("output", b)
	if err := r.Version(); err != nil {
		return Output{}, err
	}
	o, err := DecodeOutputFrom(r)
	if err != nil {
		return Output{}, err
	}
	if err := r.Finish(); err != nil {
		return Output{}, err
	}
	return o, nil
}

// DecodeOutputFrom reads an output body from r.
func DecodeOutputFrom(r *wire.Reader) (Output, error) {
	var o Output
	var err error
	if o.Asset, err = readAsset(r); err != nil {
		return Output{}, err
	}
	if o.LockTime, err = r.U64(); err != nil {
		return Output{}, err
	}
	hasDRS, err := r.Bool()
	if err != nil {
		return Output{}, err
	}
	if hasDRS {
		if o.DRSBlockHash, err = r.Hash(); err != nil {
			return Output{}, err
		}
		// A present hash must not be zero, or re-encoding would drop it.
		if o.DRSBlockHash.IsZero() {
			return Output{}, r.Fail(wire.ErrInvalidValue)
		}
	}
	if o.Lock, err = script.DecodeFrom(r); err != nil {
		return Output{}, err
	}
	return o, nil
}

// =============================================================================
// Assets and DRUID
// =============================================================================

func writeAsset(w *wire.Writer, a types.Asset) {
	w.U8(uint8(a.Kind))
	w.U64(a.Amount)
	w.Hash(a.ID)
	w.VarBytes(a.Metadata)
}

func assetSize(a types.Asset) int {
	return 1 + 8 + types.HashSize + wire.CompactSizeLen(uint64(len(a.Metadata))) + len(a.Metadata)
}

func readAsset(r *wire.Reader) (types.Asset, error) {
	var a types.Asset
	kind, err := r.U8()
	if err != nil {
		return a, err
	}
	a.Kind = types.AssetKind(kind)
	if a.Kind > types.AssetItem {
		return a, r.Fail(wire.ErrInvalidValue)
	}
	if a.Amount, err = r.U64(); err != nil {
		return a, err
	}
	if a.ID, err = r.Hash(); err != nil {
		return a, err
	}
	if a.Metadata, err = r.VarBytes(config.MaxMetadataBytes); err != nil {
		return a, err
	}
	return a, nil
}

func (d *DruidInfo) encodeTo(w *wire.Writer) {
	w.VarBytes([]byte(d.Druid))
	w.U32(d.Participants)
	w.CompactSize(uint64(len(d.Expectations)))
	for _, e := range d.Expectations {
		w.Hash(e.From)
		w.Fixed(e.To[:])
		writeAsset(w, e.Asset)
	}
}

func (d *DruidInfo) encodedSize() int {
	n := wire.CompactSizeLen(uint64(len(d.Druid))) + len(d.Druid) + 4 +
		wire.CompactSizeLen(uint64(len(d.Expectations)))
	for _, e := range d.Expectations {
		n += types.HashSize + types.AddressSize + assetSize(e.Asset)
	}
	return n
}

func decodeDruid(r *wire.Reader) (*DruidInfo, error) {
	d := &DruidInfo{}
	id, err := r.VarBytes(config.MaxDruidSize)
	if err != nil {
		return nil, err
	}
	d.Druid = string(id)
	if d.Participants, err = r.U32(); err != nil {
		return nil, err
	}
	n, err := r.CompactSize(config.MaxDruidExpectations)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		d.Expectations = make([]Expectation, n)
	}
	for i := range d.Expectations {
		e := &d.Expectations[i]
		if e.From, err = r.Hash(); err != nil {
			return nil, err
		}
		to, err := r.Fixed(types.AddressSize)
		if err != nil {
			return nil, err
		}
		copy(e.To[:], to)
		if e.Asset, err = readAsset(r); err != nil {
			return nil, err
		}
	}
	return d, nil
}
