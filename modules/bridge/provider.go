package bridge

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/openequip/dealerkit/pkg/tenancy"
)

// rowQuerier is the slice of pgxpool.Pool the provider needs.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGKeyProvider resolves bridge keys against the organizations table.
type PGKeyProvider struct {
	db rowQuerier
}

// NewPGKeyProvider creates a KeyProvider over the given connection pool.
func NewPGKeyProvider(db rowQuerier) *PGKeyProvider {
	return &PGKeyProvider{db: db}
}

// ByBridgeKey returns the organization owning key, or ErrUnknownKey.
func (p *PGKeyProvider) ByBridgeKey(ctx context.Context, key string) (*tenancy.Organization, error) {
	query, args, err := sq.Select().
		Column(sq.Expr("id, name, COALESCE(slug, ''), COALESCE(custom_domain, ''), is_active, created_at")).
		From("organizations").
		Where(sq.Eq{"pos_bridge_key": key}).
		PlaceholderFormat(sq.Dollar).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("bridge: build key query: %w", err)
	}

	var org tenancy.Organization
	err = p.db.QueryRow(ctx, query, args...).Scan(
		&org.ID, &org.Name, &org.Slug, &org.CustomDomain, &org.Active, &org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownKey
		}
		return nil, fmt.Errorf("bridge: query key owner: %w", err)
	}
	return &org, nil
}
