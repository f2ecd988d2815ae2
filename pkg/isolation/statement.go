package isolation

import (
	sq "github.com/Masterminds/squirrel"
)

// Kind identifies the statement verb. The tenant filter applies to reads,
// updates and deletes; inserts are stamped by the store instead.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
)

// Statement wraps a squirrel builder together with the entities the query
// touches. Interceptors rewrite the builder before the store renders and
// executes it.
type Statement struct {
	kind   Kind
	entity *Entity
	refs   []*Entity

	selectB sq.SelectBuilder
	updateB sq.UpdateBuilder
	deleteB sq.DeleteBuilder

	// Inserts are rendered lazily from these so interceptors can still add
	// the tenant column after the caller has supplied value tuples.
	insertCols   []string
	insertVals   [][]any
	insertSuffix []suffixClause
}

type suffixClause struct {
	sql  string
	args []any
}

// Select starts a read statement against entity's table.
func Select(entity *Entity, columns ...string) *Statement {
	return &Statement{
		kind:    KindSelect,
		entity:  entity,
		selectB: sq.Select(columns...).From(entity.Table).PlaceholderFormat(sq.Dollar),
	}
}

// Insert starts a write statement creating rows in entity's table.
func Insert(entity *Entity) *Statement {
	return &Statement{
		kind:   KindInsert,
		entity: entity,
	}
}

// Update starts a mutation statement against entity's table.
func Update(entity *Entity) *Statement {
	return &Statement{
		kind:    KindUpdate,
		entity:  entity,
		updateB: sq.Update(entity.Table).PlaceholderFormat(sq.Dollar),
	}
}

// Delete starts a removal statement against entity's table.
func Delete(entity *Entity) *Statement {
	return &Statement{
		kind:    KindDelete,
		entity:  entity,
		deleteB: sq.Delete(entity.Table).PlaceholderFormat(sq.Dollar),
	}
}

// Kind returns the statement verb.
func (s *Statement) Kind() Kind { return s.kind }

// Entity returns the statement's primary entity.
func (s *Statement) Entity() *Entity { return s.entity }

// Entities returns the primary entity followed by every joined entity. The
// tenant filter scopes each tenant-scoped member of this set, so a join
// cannot widen a query past the active organization.
func (s *Statement) Entities() []*Entity {
	return append([]*Entity{s.entity}, s.refs...)
}

// Where adds a predicate. Accepts the same forms as squirrel (Eq maps,
// expression strings with args, ...).
func (s *Statement) Where(pred any, args ...any) *Statement {
	switch s.kind {
	case KindSelect:
		s.selectB = s.selectB.Where(pred, args...)
	case KindUpdate:
		s.updateB = s.updateB.Where(pred, args...)
	case KindDelete:
		s.deleteB = s.deleteB.Where(pred, args...)
	}
	return s
}

// Join adds an inner join against another registered entity. Declaring the
// joined entity (rather than a raw table string) is what lets the tenant
// filter cover it.
func (s *Statement) Join(entity *Entity, on string) *Statement {
	if s.kind == KindSelect {
		s.refs = append(s.refs, entity)
		s.selectB = s.selectB.Join(entity.Table + " ON " + on)
	}
	return s
}

// Ref declares an additional entity the statement references without joining
// it through the builder, e.g. a table consulted in a subquery or a raw
// expression. Declaring it lets the tenant filter cover that table too.
func (s *Statement) Ref(entity *Entity) *Statement {
	s.refs = append(s.refs, entity)
	return s
}

// LeftJoin adds a left join against another registered entity.
func (s *Statement) LeftJoin(entity *Entity, on string) *Statement {
	if s.kind == KindSelect {
		s.refs = append(s.refs, entity)
		s.selectB = s.selectB.LeftJoin(entity.Table + " ON " + on)
	}
	return s
}

// OrderBy appends ORDER BY clauses to a select.
func (s *Statement) OrderBy(clauses ...string) *Statement {
	if s.kind == KindSelect {
		s.selectB = s.selectB.OrderBy(clauses...)
	}
	return s
}

// Limit caps the number of returned rows.
func (s *Statement) Limit(n uint64) *Statement {
	if s.kind == KindSelect {
		s.selectB = s.selectB.Limit(n)
	}
	return s
}

// Columns declares the column list for an insert.
func (s *Statement) Columns(columns ...string) *Statement {
	if s.kind == KindInsert {
		s.insertCols = append(s.insertCols, columns...)
	}
	return s
}

// Values appends a value tuple for an insert.
func (s *Statement) Values(values ...any) *Statement {
	if s.kind == KindInsert {
		s.insertVals = append(s.insertVals, values)
	}
	return s
}

// Set assigns a column on an update.
func (s *Statement) Set(column string, value any) *Statement {
	if s.kind == KindUpdate {
		s.updateB = s.updateB.Set(column, value)
	}
	return s
}

// SetMap assigns several columns on an update.
func (s *Statement) SetMap(values map[string]any) *Statement {
	if s.kind == KindUpdate {
		s.updateB = s.updateB.SetMap(values)
	}
	return s
}

// Suffix appends raw SQL (e.g. RETURNING id) to the statement.
func (s *Statement) Suffix(sql string, args ...any) *Statement {
	switch s.kind {
	case KindSelect:
		s.selectB = s.selectB.Suffix(sql, args...)
	case KindInsert:
		s.insertSuffix = append(s.insertSuffix, suffixClause{sql: sql, args: args})
	case KindUpdate:
		s.updateB = s.updateB.Suffix(sql, args...)
	case KindDelete:
		s.deleteB = s.deleteB.Suffix(sql, args...)
	}
	return s
}

// hasInsertColumn reports whether the insert already sets column.
func (s *Statement) hasInsertColumn(column string) bool {
	for _, c := range s.insertCols {
		if c == column {
			return true
		}
	}
	return false
}

// stampTenantColumn appends the tenant column with value orgID to every
// pending value tuple. No-op when the caller already set the column.
func (s *Statement) stampTenantColumn(orgID int64) {
	column := s.entity.tenantColumn()
	if s.hasInsertColumn(column) {
		return
	}
	s.insertCols = append(s.insertCols, column)
	for i := range s.insertVals {
		s.insertVals[i] = append(s.insertVals[i], orgID)
	}
}

// ToSQL renders the statement into SQL with $-numbered placeholders.
func (s *Statement) ToSQL() (string, []any, error) {
	switch s.kind {
	case KindInsert:
		b := sq.Insert(s.entity.Table).PlaceholderFormat(sq.Dollar).Columns(s.insertCols...)
		for _, vals := range s.insertVals {
			b = b.Values(vals...)
		}
		for _, suffix := range s.insertSuffix {
			b = b.Suffix(suffix.sql, suffix.args...)
		}
		return b.ToSql()
	case KindUpdate:
		return s.updateB.ToSql()
	case KindDelete:
		return s.deleteB.ToSql()
	default:
		return s.selectB.ToSql()
	}
}
