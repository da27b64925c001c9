/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bunq adapts a Bun select query to the query.Builder capability.
package bunq

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/types"
)

var identPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*$`)

// Builder wraps a *bun.SelectQuery. Field references of the form
// "alias.property" are mapped to quoted column identifiers when alias is
// known; anything else is passed to Bun as a raw expression.
type Builder struct {
	db      bun.IDB
	q       *bun.SelectQuery
	table   *schema.Table
	alias   string
	columns map[string]bool
	joined  map[string]*schema.Table
	starred bool
	err     error
}

var _ query.Builder = (*Builder)(nil)

// New returns a builder for a select over the model table. The root alias
// is the model's Bun alias.
func New(q *bun.SelectQuery, table *schema.Table) *Builder {
	return &Builder{
		db:     q.DB(),
		q:      q,
		table:  table,
		alias:  table.Alias,
		joined: make(map[string]*schema.Table),
	}
}

// ForModel builds a select for model type T on db.
func ForModel[T any](db bun.IDB) *Builder {
	table := db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
	b := New(db.NewSelect().Model((*T)(nil)), table)
	b.db = db
	return b
}

// NewTable returns a builder over a plain table with no Bun model. Only the
// listed columns count as root properties and relation joins are not
// available.
func NewTable(db bun.IDB, table, alias string, columns []string) *Builder {
	if alias == "" {
		alias = query.DefaultRootAlias
	}
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[c] = true
	}
	return &Builder{
		db:      db,
		q:       db.NewSelect().TableExpr("? AS ?", bun.Ident(table), bun.Ident(alias)),
		alias:   alias,
		columns: cols,
		joined:  make(map[string]*schema.Table),
	}
}

// Query returns the configured select query.
func (b *Builder) Query() *bun.SelectQuery { return b.q }

// Table returns the model table, or nil for table-only builders.
func (b *Builder) Table() *schema.Table { return b.table }

// Err returns the first error recorded while assembling.
func (b *Builder) Err() error { return b.err }

func (b *Builder) RootAlias() string { return b.alias }

// Projected reports whether AddSelect added columns beyond the root table.
func (b *Builder) Projected() bool { return b.starred }

// Scan runs the query into dest. Columns added by AddSelect have no field on
// the model and are dropped while scanning.
func (b *Builder) Scan(ctx context.Context, dest any) error {
	if b.err != nil {
		return b.err
	}
	if !b.starred {
		return b.q.Scan(ctx, dest)
	}
	rows, err := b.q.Rows(ctx)
	if err != nil {
		return err
	}
	return discarding(b.q.DB()).ScanRows(ctx, rows, dest)
}

// Count returns the number of matching rows. Queries with projections are
// counted as a subquery so aliases used in WHERE stay resolvable.
func (b *Builder) Count(ctx context.Context) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if !b.starred {
		return b.q.Count(ctx)
	}
	return b.db.NewSelect().TableExpr("(?) AS ?", b.q, bun.Ident("projected")).Count(ctx)
}

var scanners sync.Map // *sql.DB -> *bun.DB

// discarding returns a DB sharing db's pool whose scans ignore unknown
// columns. It is only used to scan rows already fetched through db.
func discarding(db *bun.DB) *bun.DB {
	if s, ok := scanners.Load(db.DB); ok {
		return s.(*bun.DB)
	}
	s, _ := scanners.LoadOrStore(db.DB, bun.NewDB(db.DB, db.Dialect(), bun.WithDiscardUnknownColumns()))
	return s.(*bun.DB)
}

func (b *Builder) HasProperty(name string) bool {
	if b.table == nil {
		return b.columns[name]
	}
	if column(b.table, name) != "" {
		return true
	}
	return relation(b.table, name) != nil
}

func (b *Builder) AddSelect(expr, alias string) {
	if !b.starred {
		b.q = b.q.ColumnExpr("?.*", bun.Ident(b.alias))
		b.starred = true
	}
	b.q = b.q.ColumnExpr("? AS ?", b.expr(expr), bun.Ident(alias))
}

func (b *Builder) LeftJoin(path, alias string) { b.join("LEFT JOIN", path, alias) }

func (b *Builder) InnerJoin(path, alias string) { b.join("JOIN", path, alias) }

func (b *Builder) AndWhere(p query.Predicate) {
	switch p.Operator {
	case query.OpLike:
		b.q = b.q.Where("? LIKE ?", b.expr(p.Field), p.Value)
	default:
		b.q = b.q.Where("? = ?", b.expr(p.Field), p.Value)
	}
}

func (b *Builder) AddGroupBy(field string) {
	b.q = b.q.GroupExpr("?", b.expr(field))
}

func (b *Builder) AddOrderBy(field string, direction types.Direction) {
	if !direction.IsValid() {
		direction = types.Ascending
	}
	b.q = b.q.OrderExpr("? "+direction.String(), b.expr(field))
}

func (b *Builder) SetMaxResults(n int) { b.q = b.q.Limit(n) }

func (b *Builder) SetFirstResult(n int) { b.q = b.q.Offset(n) }

func (b *Builder) join(kind, path, alias string) {
	owner, name, ok := strings.Cut(path, ".")
	t := b.tableFor(owner)
	if !ok || t == nil {
		b.fail(fmt.Errorf("bunq: cannot resolve join path %q", path))
		return
	}
	rel := relation(t, name)
	if rel == nil {
		b.fail(fmt.Errorf("bunq: %s has no relation %q", t.Name, name))
		return
	}
	if rel.Type == schema.ManyToManyRelation || len(rel.BaseFields) != len(rel.JoinFields) {
		b.fail(fmt.Errorf("bunq: relation %q of %s cannot be joined", name, t.Name))
		return
	}
	owner = b.aliasOf(owner)
	b.q = b.q.Join(kind+" ? AS ?", rel.JoinTable.SQLName, bun.Ident(alias))
	for i := range rel.BaseFields {
		b.q = b.q.JoinOn("? = ?",
			bun.Ident(owner+"."+rel.BaseFields[i].Name),
			bun.Ident(alias+"."+rel.JoinFields[i].Name))
	}
	b.joined[alias] = rel.JoinTable
}

// expr turns a field reference into a query argument.
func (b *Builder) expr(ref string) any {
	if !strings.Contains(ref, ".") {
		return bun.Ident(ref)
	}
	if !identPath.MatchString(ref) {
		return bun.Safe(ref)
	}
	owner, name, _ := strings.Cut(ref, ".")
	t := b.tableFor(owner)
	owner = b.aliasOf(owner)
	if t == nil {
		if owner == b.alias {
			return bun.Ident(owner + "." + name)
		}
		return bun.Safe(ref)
	}
	if col := column(t, name); col != "" {
		return bun.Ident(owner + "." + col)
	}
	if rel := relation(t, name); rel != nil && rel.Type == schema.BelongsToRelation && len(rel.BaseFields) == 1 {
		return bun.Ident(owner + "." + rel.BaseFields[0].Name)
	}
	return bun.Ident(owner + "." + name)
}

func (b *Builder) aliasOf(owner string) string {
	if owner == query.DefaultRootAlias {
		return b.alias
	}
	return owner
}

func (b *Builder) tableFor(owner string) *schema.Table {
	if owner == b.alias || owner == query.DefaultRootAlias {
		return b.table
	}
	return b.joined[owner]
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// column maps a property name (column or Go field name) to its column.
func column(t *schema.Table, name string) string {
	if f, ok := t.FieldMap[name]; ok {
		return f.Name
	}
	for _, f := range t.Fields {
		if strings.EqualFold(f.GoName, name) {
			return f.Name
		}
	}
	return ""
}

func relation(t *schema.Table, name string) *schema.Relation {
	if rel, ok := t.Relations[name]; ok {
		return rel
	}
	for goName, rel := range t.Relations {
		if strings.EqualFold(goName, name) {
			return rel
		}
	}
	return nil
}
