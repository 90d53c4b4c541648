package repositories

import (
	"context"
	"fmt"

	"github.com/vitrine-atacado/api/internal/domain"
)

// CartRepository owns cart persistence. Writes are synchronous write-through:
// when Save returns nil the cart is durably stored and a subsequent Get
// reflects it.
type CartRepository interface {
	// Get returns the cart for the session, or a not-found RepositoryError.
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	// Save stores the full cart document, replacing any previous state.
	Save(ctx context.Context, cart domain.Cart) error
	// Delete removes the cart; deleting an absent cart is not an error.
	Delete(ctx context.Context, sessionID string) error
	// List returns carts ordered by most recent update, with the total count.
	List(ctx context.Context, skip, limit int) ([]domain.Cart, int, error)
	// Close releases the underlying client resources.
	Close() error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsUnavailable() bool
}

// ErrorKind categorises a repository failure.
type ErrorKind int

const (
	// KindInternal marks unexpected failures that do not fit another kind.
	KindInternal ErrorKind = iota
	// KindNotFound marks lookups for documents that do not exist.
	KindNotFound
	// KindUnavailable marks backend connectivity or timeout failures.
	KindUnavailable
)

// Error is the concrete RepositoryError implementation shared by backends.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op
	}
	return "repository error"
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e Error) Unwrap() error { return e.Err }

// IsNotFound reports whether the error marks a missing document.
func (e Error) IsNotFound() bool { return e.Kind == KindNotFound }

// IsUnavailable reports whether the error marks a backend availability failure.
func (e Error) IsUnavailable() bool { return e.Kind == KindUnavailable }

// NewNotFound builds a not-found error for the given operation.
func NewNotFound(op string) Error {
	return Error{Op: op, Kind: KindNotFound}
}

// NewUnavailable wraps a backend failure for the given operation.
func NewUnavailable(op string, err error) Error {
	return Error{Op: op, Kind: KindUnavailable, Err: err}
}

// NewInternal wraps an unexpected failure for the given operation.
func NewInternal(op string, err error) Error {
	return Error{Op: op, Kind: KindInternal, Err: err}
}
