package store

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/stitchfork/seqbond/symbol"
)

// BoltStore is the embedded authoritative store, backed by a single bbolt
// file. Each namespace owns a forward bucket (text -> id) and a reverse
// bucket (id -> text); ordinals come from the forward bucket's sequence.
//
// bbolt serializes writers, so Mint's read-check-create runs inside one
// write transaction and two concurrent mints of the same text cannot both
// create a row.
type BoltStore struct {
	db *bolt.DB
}

// BoltOptions configures OpenBolt.
type BoltOptions struct {
	// Timeout bounds the wait for the file lock. Zero waits forever.
	Timeout time.Duration
	// NoSync trades durability for speed. Tests only.
	NoSync bool
}

// OpenBolt opens (creating if needed) the store file at path.
func OpenBolt(path string, optFns ...func(*BoltOptions)) (*BoltStore, error) {
	opts := BoltOptions{Timeout: 5 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, path, err)
	}
	db.NoSync = opts.NoSync

	// Create all namespace buckets up front so the read path never has to
	// special-case their absence.
	err = db.Update(func(tx *bolt.Tx) error {
		for _, ns := range symbol.Namespaces() {
			if _, err := tx.CreateBucketIfNotExists(fwdBucket(ns)); err != nil {
				return err
			}
			if _, err := tx.CreateBucketIfNotExists(revBucket(ns)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init buckets: %w", ErrUnavailable, err)
	}

	return &BoltStore{db: db}, nil
}

func fwdBucket(ns symbol.Namespace) []byte { return []byte("fwd:" + ns.String()) }
func revBucket(ns symbol.Namespace) []byte { return []byte("rev:" + ns.String()) }

// Lookup implements Store.
func (s *BoltStore) Lookup(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	var id symbol.ID
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(fwdBucket(ns)).Get([]byte(text))
		if v == nil {
			return nil
		}
		parsed, err := symbol.IDFromBinary(v)
		if err != nil {
			return err
		}
		id, found = parsed, true
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: lookup: %w", ErrUnavailable, err)
	}
	return id, found, nil
}

// Text implements Store.
func (s *BoltStore) Text(ctx context.Context, id symbol.ID) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if !id.Namespace().Valid() {
		return "", false, fmt.Errorf("invalid namespace in id %s", id)
	}

	var text string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(revBucket(id.Namespace())).Get(id.AppendBinary(nil))
		if v != nil {
			text, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: text: %w", ErrUnavailable, err)
	}
	return text, found, nil
}

// Mint implements Store. The forward and reverse rows are written in one
// transaction; a minted identifier is never observable without its
// reverse mapping.
func (s *BoltStore) Mint(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !ns.Valid() {
		return 0, fmt.Errorf("invalid namespace %s", ns)
	}
	if text == "" {
		return 0, fmt.Errorf("empty symbol text")
	}

	var id symbol.ID
	err := s.db.Update(func(tx *bolt.Tx) error {
		fwd := tx.Bucket(fwdBucket(ns))
		if v := fwd.Get([]byte(text)); v != nil {
			parsed, err := symbol.IDFromBinary(v)
			if err != nil {
				return err
			}
			id = parsed
			return nil
		}

		ord, err := fwd.NextSequence()
		if err != nil {
			return err
		}
		id = symbol.MakeID(ns, ord)

		if err := fwd.Put([]byte(text), id.AppendBinary(nil)); err != nil {
			return err
		}
		return tx.Bucket(revBucket(ns)).Put(id.AppendBinary(nil), []byte(text))
	})
	if err != nil {
		return 0, fmt.Errorf("%w: mint: %w", ErrUnavailable, err)
	}
	return id, nil
}

// PrefixState implements Store.
func (s *BoltStore) PrefixState(ctx context.Context, ns symbol.Namespace, prefix string) (PrefixState, symbol.ID, error) {
	if err := ctx.Err(); err != nil {
		return PrefixNone, 0, err
	}

	var state PrefixState
	var id symbol.ID
	err := s.db.View(func(tx *bolt.Tx) error {
		fwd := tx.Bucket(fwdBucket(ns))

		if v := fwd.Get([]byte(prefix)); v != nil {
			parsed, err := symbol.IDFromBinary(v)
			if err != nil {
				return err
			}
			state, id = PrefixComplete, parsed
			return nil
		}

		// Partial only counts at a unit boundary: "the" extends
		// "the<sep>quick" but not "theory".
		boundary := []byte(prefix + symbol.UnitSep)
		c := fwd.Cursor()
		if k, _ := c.Seek(boundary); k != nil && bytes.HasPrefix(k, boundary) {
			state = PrefixPartial
		}
		return nil
	})
	if err != nil {
		return PrefixNone, 0, fmt.Errorf("%w: prefix state: %w", ErrUnavailable, err)
	}
	return state, id, nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
