package cfr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies the fatal and non-fatal error conditions the core
// can surface, per the engine's error handling design.
type ErrorKind int

const (
	// IllegalGameState: Actions() returned empty at a Player node, or
	// Act() was called with an action not in Actions(). Indicates a
	// programming error in the Game implementation.
	IllegalGameState ErrorKind = iota
	// ArityMismatch: a previously-visited info-set key reappeared with
	// a different number of actions. Indicates an aliasing bug in
	// InfoSetKey (two distinguishable states mapped to the same key).
	ArityMismatch
	// NumericalInvariant: strategy_sum summed to zero for a record
	// that emission reports as visited, or a NaN was detected in
	// accumulated regret.
	NumericalInvariant
	// SnapshotIO: the configured output sink failed while writing a
	// snapshot. Training state is left untouched; the caller decides
	// whether to retry or abort.
	SnapshotIO
)

func (k ErrorKind) String() string {
	switch k {
	case IllegalGameState:
		return "IllegalGameState"
	case ArityMismatch:
		return "ArityMismatch"
	case NumericalInvariant:
		return "NumericalInvariant"
	case SnapshotIO:
		return "SnapshotIO"
	default:
		return "ErrorKind(?)"
	}
}

// CFRError is a typed error carrying one of the Kind values above. The
// three fatal kinds are raised as panics wrapping a *CFRError (matching
// the engine's treatment of the traversal kernel as a pure function that
// either succeeds or indicates a programming error in its caller);
// SnapshotIO is returned normally, wrapped with errors.Wrap so the
// underlying sink error remains inspectable via errors.Cause.
type CFRError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CFRError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CFRError) Unwrap() error {
	return e.Err
}

func illegalGameState(format string, args ...interface{}) error {
	return &CFRError{Kind: IllegalGameState, Message: fmt.Sprintf(format, args...)}
}

func arityMismatch(key string, want, got int) error {
	return &CFRError{
		Kind:    ArityMismatch,
		Message: fmt.Sprintf("info-set %q: expected arity %d, node reports %d", key, want, got),
	}
}

// ArityMismatchError constructs the same error arityMismatch does, for
// InfoSetTable implementations outside this package, such as store/ldbstore.
func ArityMismatchError(key string, want, got int) error {
	return arityMismatch(key, want, got)
}

// IllegalGameStateError constructs the same error illegalGameState does,
// for InfoSetTable implementations outside this package, such as
// store/ldbstore.
func IllegalGameStateError(format string, args ...interface{}) error {
	return illegalGameState(format, args...)
}

func numericalInvariant(format string, args ...interface{}) error {
	return &CFRError{Kind: NumericalInvariant, Message: fmt.Sprintf(format, args...)}
}

func snapshotIOError(err error) error {
	return errors.Wrap(&CFRError{Kind: SnapshotIO, Message: "writing snapshot", Err: err}, "cfr: snapshot sink failed")
}
