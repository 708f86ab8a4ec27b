package resolver

import (
	"errors"
	"fmt"

	"github.com/stitchfork/seqbond/symbol"
)

// ErrNoMatch is returned by a handler when the store holds no row for the
// key. The resolver turns it into a cached negative where the namespace
// permits, otherwise into an *ErrUnresolvableSymbol.
var ErrNoMatch = errors.New("no match")

// ErrUnresolvableSymbol indicates a key that the namespace's handler could
// not resolve and whose namespace does not cache negatives.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnresolvableSymbol struct {
	Namespace symbol.Namespace
	Key       string
	cause     error
}

func (e *ErrUnresolvableSymbol) Error() string {
	return fmt.Sprintf("unresolvable symbol %q in namespace %s", e.Key, e.Namespace)
}

func (e *ErrUnresolvableSymbol) Unwrap() error { return e.cause }
