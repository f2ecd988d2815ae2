package isolation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store executes against. Transactions
// (pgx.Tx) satisfy it too, so a store can run inside an ambient transaction.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store executes statements after running them through the interceptor
// chain. One store is shared by all requests; per-request state (active
// organization, bypass) travels on the context.
type Store struct {
	db           DB
	interceptors []Interceptor
}

// StoreOption configures a store.
type StoreOption func(*Store)

// WithInterceptor appends interceptors to the chain. The tenant filter is
// always first so later interceptors observe the scoped statement.
func WithInterceptor(interceptors ...Interceptor) StoreOption {
	return func(s *Store) {
		s.interceptors = append(s.interceptors, interceptors...)
	}
}

// NewStore creates a statement executor over db. The tenant filter is
// registered unconditionally; it is the point of this package.
func NewStore(db DB, opts ...StoreOption) *Store {
	s := &Store{
		db:           db,
		interceptors: []Interceptor{TenantFilter()},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) prepare(ctx context.Context, stmt *Statement) (string, []any, error) {
	if stmt == nil {
		return "", nil, ErrNilStatement
	}
	for _, entity := range stmt.Entities() {
		if entity == nil {
			continue
		}
		if !entity.registered {
			return "", nil, fmt.Errorf("%w: %s", ErrEntityNotRegistered, entity.Name)
		}
	}
	for _, interceptor := range s.interceptors {
		if err := interceptor.BeforeExecute(ctx, stmt); err != nil {
			return "", nil, fmt.Errorf("isolation: interceptor: %w", err)
		}
	}
	query, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("isolation: render statement: %w", err)
	}
	return query, args, nil
}

// Query executes a read statement and returns the row set.
func (s *Store) Query(ctx context.Context, stmt *Statement) (pgx.Rows, error) {
	query, args, err := s.prepare(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return s.db.Query(ctx, query, args...)
}

// QueryRow executes a read statement expected to return at most one row.
// A row filtered out by tenant scoping surfaces as pgx.ErrNoRows on Scan,
// indistinguishable from a row that does not exist.
func (s *Store) QueryRow(ctx context.Context, stmt *Statement) pgx.Row {
	query, args, err := s.prepare(ctx, stmt)
	if err != nil {
		return errRow{err: err}
	}
	return s.db.QueryRow(ctx, query, args...)
}

// Exec executes a write statement and returns the command tag. A mutation
// aimed at another organization's row matches nothing and reports zero
// affected rows.
func (s *Store) Exec(ctx context.Context, stmt *Statement) (pgconn.CommandTag, error) {
	query, args, err := s.prepare(ctx, stmt)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return s.db.Exec(ctx, query, args...)
}

// errRow defers a preparation error to Scan so QueryRow keeps the pgx.Row
// calling convention.
type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }
