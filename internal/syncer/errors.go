package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexjbarnes/clip-sync/internal/alist"
)

// Kind classifies a SyncError for callers that map outcomes to exit
// codes or messages.
type Kind int

const (
	// KindAuth is a rejected login or token. Never retried.
	KindAuth Kind = iota

	// KindNotFound is a missing remote object or directory.
	KindNotFound

	// KindNoContent means the slot holds no file entries at all.
	KindNoContent

	// KindServer is a non-success answer from the remote store that
	// survived the retry budget.
	KindServer

	// KindTransport is a network-layer or local I/O failure that
	// survived the retry budget.
	KindTransport

	// KindEmptyContent is a zero-byte upload source or download result.
	KindEmptyContent
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindNoContent:
		return "no_content"
	case KindServer:
		return "server"
	case KindEmptyContent:
		return "empty_content"
	default:
		return "transport"
	}
}

// ErrNoContent means the slot directory exists but holds no files.
var ErrNoContent = errors.New("clipboard slot is empty")

// ErrEmptyContent means a transfer produced zero bytes, which is never
// treated as success.
var ErrEmptyContent = errors.New("empty content")

// SyncError is the single error type crossing the engine boundary. All
// lower-level failures are folded into one of these with the underlying
// kind attached.
type SyncError struct {
	Op   string // "push" or "pull"
	Kind Kind
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// fail wraps err into a SyncError, deriving the kind from the error chain.
func fail(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: classify(err), Err: err}
}

// classify derives a Kind from an error chain.
func classify(err error) Kind {
	switch {
	case alist.IsAuth(err):
		return KindAuth
	case errors.Is(err, ErrNoContent):
		return KindNoContent
	case errors.Is(err, ErrEmptyContent):
		return KindEmptyContent
	case errors.Is(err, alist.ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return KindTransport
	case alist.IsTransient(err):
		return KindTransport
	default:
		return KindServer
	}
}
