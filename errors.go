package seqbond

import (
	"errors"
	"fmt"

	"github.com/stitchfork/seqbond/blobstore"
	"github.com/stitchfork/seqbond/store"
	"github.com/stitchfork/seqbond/symbol"
)

var (
	// ErrNotFound is returned when a requested scope archive or symbol
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine is closed")

	// ErrStoreUnavailable indicates the authoritative store could not be
	// reached after retries.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoBlobStore is returned by archive operations when no blob
	// store was configured.
	ErrNoBlobStore = errors.New("no blob store configured")
)

// ErrUnknownSymbol indicates an identifier with no reverse mapping in
// the cache or the store.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnknownSymbol struct {
	ID    symbol.ID
	cause error
}

func (e *ErrUnknownSymbol) Error() string {
	return fmt.Sprintf("unknown symbol: %s", e.ID)
}

func (e *ErrUnknownSymbol) Unwrap() error { return e.cause }

// ErrUnresolvedSpans indicates an encode over input containing spans no
// handler or fallback could resolve.
type ErrUnresolvedSpans struct {
	Spans []string
}

func (e *ErrUnresolvedSpans) Error() string {
	return fmt.Sprintf("%d unresolved spans, first %q", len(e.Spans), e.Spans[0])
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Backend state normalization.
	if errors.Is(err, store.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return err
}
