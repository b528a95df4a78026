package utxo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
	"github.com/Klingon-tech/klingnet-ledger/pkg/script"
	"github.com/Klingon-tech/klingnet-ledger/pkg/tx"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
)

// Key prefixes for the UTXO store.
var (
	prefixUTXO = []byte("u/") // u/<txid><index> -> encoded UTXO
	prefixAddr = []byte("a/") // a/<address><txid><index> -> marker (index)
	prefixItem = []byte("i/") // i/<genesis><txid><index> -> marker (item index)
	keyTip     = []byte("m/tip")
)

const outpointSize = types.HashSize + 4

var indexMarker = []byte{1}

// Store implements Set backed by a storage.DB.
type Store struct {
	db     storage.DB
	logger zerolog.Logger
}

// NewStore creates a new UTXO store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db, logger: log.UTXO}
}

// DB returns the underlying database.
func (s *Store) DB() storage.DB { return s.db }

func appendOutpoint(key []byte, op types.Outpoint) []byte {
	key = append(key, op.TxID[:]...)
	return binary.BigEndian.AppendUint32(key, op.Index)
}

func indexKey(prefix []byte, id [32]byte, op types.Outpoint) []byte {
	key := make([]byte, 0, len(prefix)+len(id)+outpointSize)
	key = append(key, prefix...)
	key = append(key, id[:]...)
	return appendOutpoint(key, op)
}

// utxoKey builds a storage key for an outpoint: "u/" + txid(32) + index(4).
func utxoKey(op types.Outpoint) []byte {
	return appendOutpoint(append(make([]byte, 0, len(prefixUTXO)+outpointSize), prefixUTXO...), op)
}

// outpointAt parses the outpoint that ends an index key.
func outpointAt(key []byte) (types.Outpoint, bool) {
	if len(key) < outpointSize {
		return types.Outpoint{}, false
	}
	tail := key[len(key)-outpointSize:]
	var op types.Outpoint
	copy(op.TxID[:], tail[:types.HashSize])
	op.Index = binary.BigEndian.Uint32(tail[types.HashSize:])
	return op, true
}

// secondaryKeys returns the index keys an output is listed under.
func secondaryKeys(u *UTXO) [][]byte {
	var keys [][]byte
	if addr, ok := script.ExtractAddress(u.Output.Lock); ok {
		keys = append(keys, indexKey(prefixAddr, addr, u.Outpoint))
	}
	if a := u.Output.Asset; a.IsItem() && !a.ID.IsZero() {
		keys = append(keys, indexKey(prefixItem, a.ID, u.Outpoint))
	}
	return keys
}

// Get retrieves a UTXO by its outpoint.
func (s *Store) Get(outpoint types.Outpoint) (*UTXO, error) {
	data, err := s.db.Get(utxoKey(outpoint))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, outpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("utxo get: %w", err)
	}
	u, err := decodeUTXO(outpoint, data)
	if err != nil {
		return nil, fmt.Errorf("utxo %s: %w", outpoint, err)
	}
	return u, nil
}

// Put stores a UTXO and updates the secondary indexes.
func (s *Store) Put(u *UTXO) error {
	b := storage.NewBatch(s.db)
	s.put(b, u)
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}
	return nil
}

func (s *Store) put(b storage.Batch, u *UTXO) {
	b.Put(utxoKey(u.Outpoint), u.encode())
	for _, k := range secondaryKeys(u) {
		b.Put(k, indexMarker)
	}
}

// Delete removes a UTXO and its index entries. Deleting a missing outpoint
// is not an error.
func (s *Store) Delete(outpoint types.Outpoint) error {
	u, err := s.Get(outpoint)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	b := storage.NewBatch(s.db)
	s.delete(b, u)
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo delete: %w", err)
	}
	return nil
}

func (s *Store) delete(b storage.Batch, u *UTXO) {
	for _, k := range secondaryKeys(u) {
		b.Delete(k)
	}
	b.Delete(utxoKey(u.Outpoint))
}

// Has checks if a UTXO exists for the given outpoint.
func (s *Store) Has(outpoint types.Outpoint) (bool, error) {
	return s.db.Has(utxoKey(outpoint))
}

// HasOutput implements tx.OutputSource. Storage errors read as absent.
func (s *Store) HasOutput(op types.Outpoint) bool {
	ok, err := s.Has(op)
	if err != nil {
		s.logger.Warn().Err(err).Str("outpoint", op.String()).Msg("UTXO lookup failed")
	}
	return ok
}

// GetOutput implements tx.OutputSource.
func (s *Store) GetOutput(op types.Outpoint) (tx.Output, error) {
	u, err := s.Get(op)
	if err != nil {
		return tx.Output{}, err
	}
	return u.Output, nil
}

// ForEach iterates over all UTXOs in outpoint order.
func (s *Store) ForEach(fn func(*UTXO) error) error {
	return s.db.ForEach(prefixUTXO, func(key, value []byte) error {
		op, ok := outpointAt(key)
		if !ok {
			return fmt.Errorf("malformed utxo key %x", key)
		}
		u, err := decodeUTXO(op, value)
		if err != nil {
			return fmt.Errorf("utxo %s: %w", op, err)
		}
		return fn(u)
	})
}

// Count returns the number of stored UTXOs.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.ForEach(prefixUTXO, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// scanIndex loads every UTXO listed under prefix. Index entries whose
// UTXO is gone are skipped.
func (s *Store) scanIndex(prefix []byte) ([]*UTXO, error) {
	var ops []types.Outpoint
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		if op, ok := outpointAt(key[len(prefix):]); ok {
			ops = append(ops, op)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}

	utxos := make([]*UTXO, 0, len(ops))
	for _, op := range ops {
		u, err := s.Get(op)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, u)
	}
	return utxos, nil
}

// GetByAddress returns all UTXOs whose lock pays addr, either P2PKH or
// P2SH.
func (s *Store) GetByAddress(addr types.Address) ([]*UTXO, error) {
	return s.scanIndex(append(append([]byte(nil), prefixAddr...), addr[:]...))
}

// GetByItem returns all UTXOs holding the item with the given genesis hash.
func (s *Store) GetByItem(genesis types.Hash) ([]*UTXO, error) {
	return s.scanIndex(append(append([]byte(nil), prefixItem...), genesis[:]...))
}

// Assets sums the assets held by addr per asset key.
func (s *Store) Assets(addr types.Address) (types.AssetValues, error) {
	utxos, err := s.GetByAddress(addr)
	if err != nil {
		return nil, err
	}
	vals := make(types.AssetValues)
	for _, u := range utxos {
		if err := vals.Add(u.Output.Asset); err != nil {
			return nil, fmt.Errorf("utxo %s: %w", u.Outpoint, err)
		}
	}
	return vals, nil
}

// Tip returns the height of the last applied block and whether one was.
func (s *Store) Tip() (uint64, bool, error) {
	b, err := s.db.Get(keyTip)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(b) != 8 {
		return 0, false, fmt.Errorf("malformed tip record (%d bytes)", len(b))
	}
	return binary.BigEndian.Uint64(b), true, nil
}

// ClearAll removes all UTXOs, their indexes and the tip record.
func (s *Store) ClearAll() error {
	b := storage.NewBatch(s.db)
	for _, prefix := range [][]byte{prefixUTXO, prefixAddr, prefixItem} {
		err := s.db.ForEach(prefix, func(key, _ []byte) error {
			return b.Delete(key)
		})
		if err != nil {
			return fmt.Errorf("scan prefix %s: %w", prefix, err)
		}
	}
	b.Delete(keyTip)
	return b.Commit()
}
