package tenancy

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// rowQuerier is the slice of pgxpool.Pool (or pgx.Tx) the provider needs.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGProvider loads organizations from Postgres. The organizations table is
// tenant-agnostic, so the provider queries the connection directly rather
// than going through the isolation store.
type PGProvider struct {
	db    rowQuerier
	table string
}

// NewPGProvider creates a Provider over the given connection pool.
func NewPGProvider(db rowQuerier) *PGProvider {
	return &PGProvider{db: db, table: "organizations"}
}

const orgColumns = "id, name, COALESCE(slug, ''), COALESCE(custom_domain, ''), is_active, created_at"

func (p *PGProvider) one(ctx context.Context, pred sq.Sqlizer, orderBy string) (*Organization, error) {
	b := sq.Select().
		Column(sq.Expr(orgColumns)).
		From(p.table).
		PlaceholderFormat(sq.Dollar).
		Limit(1)
	if pred != nil {
		b = b.Where(pred)
	}
	if orderBy != "" {
		b = b.OrderBy(orderBy)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("tenancy: build organization query: %w", err)
	}

	var org Organization
	err = p.db.QueryRow(ctx, query, args...).Scan(
		&org.ID, &org.Name, &org.Slug, &org.CustomDomain, &org.Active, &org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("tenancy: query organization: %w", err)
	}
	return &org, nil
}

// ByID retrieves an organization by identifier.
func (p *PGProvider) ByID(ctx context.Context, id int64) (*Organization, error) {
	return p.one(ctx, sq.Eq{"id": id}, "")
}

// BySlug retrieves an organization by subdomain slug.
func (p *PGProvider) BySlug(ctx context.Context, slug string) (*Organization, error) {
	return p.one(ctx, sq.Eq{"slug": slug}, "")
}

// ByDomain retrieves an organization by mapped custom domain.
func (p *PGProvider) ByDomain(ctx context.Context, domain string) (*Organization, error) {
	return p.one(ctx, sq.Eq{"custom_domain": domain}, "")
}

// First retrieves the oldest organization by id.
func (p *PGProvider) First(ctx context.Context) (*Organization, error) {
	return p.one(ctx, nil, "id ASC")
}
