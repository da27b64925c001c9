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

// Package gormq adapts a GORM statement to the query.Builder capability.
package gormq

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/types"
)

var identPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*$`)

// Builder drives a *gorm.DB chain. Bound parameters are passed as
// sql.Named values under the assembler's parameter names.
type Builder struct {
	tx      *gorm.DB
	schema  *schema.Schema
	alias   string
	joined  map[string]*schema.Schema
	selects []string
	err     error
}

var _ query.Builder = (*Builder)(nil)

// New starts a select over model's table aliased as alias, or as
// query.DefaultRootAlias when alias is empty.
func New(db *gorm.DB, model any, alias string) *Builder {
	if alias == "" {
		alias = query.DefaultRootAlias
	}
	b := &Builder{alias: alias, joined: make(map[string]*schema.Schema)}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		b.err = fmt.Errorf("gormq: failed to parse model: %w", err)
		b.tx = db.Model(model)
		return b
	}
	b.schema = stmt.Schema
	b.selects = []string{stmt.Quote(alias) + ".*"}
	b.tx = db.Model(model).
		Table(fmt.Sprintf("%s AS %s", stmt.Quote(stmt.Schema.Table), alias)).
		Select(b.selects[0])
	return b
}

// Query returns the configured statement.
func (b *Builder) Query() *gorm.DB { return b.tx }

// Err returns the first error recorded while assembling.
func (b *Builder) Err() error { return b.err }

func (b *Builder) RootAlias() string { return b.alias }

func (b *Builder) HasProperty(name string) bool {
	if b.schema == nil {
		return false
	}
	return column(b.schema, name) != "" || relationship(b.schema, name) != nil
}

func (b *Builder) AddSelect(expr, alias string) {
	b.selects = append(b.selects, b.expr(expr)+" AS "+b.quote(alias))
	b.tx = b.tx.Select(strings.Join(b.selects, ", "))
}

func (b *Builder) LeftJoin(path, alias string) { b.join("LEFT JOIN", path, alias) }

func (b *Builder) InnerJoin(path, alias string) { b.join("INNER JOIN", path, alias) }

func (b *Builder) AndWhere(p query.Predicate) {
	op := "="
	if p.Operator == query.OpLike {
		op = "LIKE"
	}
	b.tx = b.tx.Where(fmt.Sprintf("%s %s @%s", b.expr(p.Field), op, p.Param), sql.Named(p.Param, p.Value))
}

func (b *Builder) AddGroupBy(field string) {
	b.tx.Statement.AddClause(clause.GroupBy{
		Columns: []clause.Column{{Name: b.expr(field), Raw: true}},
	})
}

func (b *Builder) AddOrderBy(field string, direction types.Direction) {
	b.tx = b.tx.Order(clause.OrderByColumn{
		Column: clause.Column{Name: b.expr(field), Raw: true},
		Desc:   direction == types.Descending,
	})
}

func (b *Builder) SetMaxResults(n int) { b.tx = b.tx.Limit(n) }

func (b *Builder) SetFirstResult(n int) { b.tx = b.tx.Offset(n) }

func (b *Builder) join(kind, path, alias string) {
	owner, name, ok := strings.Cut(path, ".")
	s := b.schemaFor(owner)
	if !ok || s == nil {
		b.fail(fmt.Errorf("gormq: cannot resolve join path %q", path))
		return
	}
	rel := relationship(s, name)
	if rel == nil {
		b.fail(fmt.Errorf("gormq: %s has no relation %q", s.Name, name))
		return
	}
	if rel.JoinTable != nil {
		b.fail(fmt.Errorf("gormq: relation %q of %s cannot be joined", name, s.Name))
		return
	}
	owner = b.aliasOf(owner)
	var on []string
	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			continue
		}
		base, joined := ref.ForeignKey.DBName, ref.PrimaryKey.DBName
		if ref.OwnPrimaryKey {
			base, joined = ref.PrimaryKey.DBName, ref.ForeignKey.DBName
		}
		on = append(on, fmt.Sprintf("%s = %s", b.quote(owner+"."+base), b.quote(alias+"."+joined)))
	}
	if len(on) == 0 {
		b.fail(fmt.Errorf("gormq: relation %q of %s has no join columns", name, s.Name))
		return
	}
	b.tx = b.tx.Joins(fmt.Sprintf("%s %s AS %s ON %s",
		kind, b.quote(rel.FieldSchema.Table), b.quote(alias), strings.Join(on, " AND ")))
	b.joined[alias] = rel.FieldSchema
}

func (b *Builder) expr(ref string) string {
	if !strings.Contains(ref, ".") {
		return b.quote(ref)
	}
	if !identPath.MatchString(ref) {
		return ref
	}
	owner, name, _ := strings.Cut(ref, ".")
	s := b.schemaFor(owner)
	owner = b.aliasOf(owner)
	if s == nil {
		if owner == b.alias {
			return b.quote(owner + "." + name)
		}
		return ref
	}
	if col := column(s, name); col != "" {
		return b.quote(owner + "." + col)
	}
	if rel := relationship(s, name); rel != nil && rel.Type == schema.BelongsTo {
		for _, ref := range rel.References {
			if ref.ForeignKey != nil && !ref.OwnPrimaryKey {
				return b.quote(owner + "." + ref.ForeignKey.DBName)
			}
		}
	}
	return b.quote(owner + "." + name)
}

func (b *Builder) quote(ident string) string {
	return b.tx.Statement.Quote(ident)
}

func (b *Builder) aliasOf(owner string) string {
	if owner == query.DefaultRootAlias {
		return b.alias
	}
	return owner
}

func (b *Builder) schemaFor(owner string) *schema.Schema {
	if owner == b.alias || owner == query.DefaultRootAlias {
		return b.schema
	}
	return b.joined[owner]
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func column(s *schema.Schema, name string) string {
	if f := s.LookUpField(name); f != nil && f.DBName != "" {
		return f.DBName
	}
	for _, f := range s.Fields {
		if f.DBName != "" && strings.EqualFold(f.Name, name) {
			return f.DBName
		}
	}
	return ""
}

func relationship(s *schema.Schema, name string) *schema.Relationship {
	if rel, ok := s.Relationships.Relations[name]; ok {
		return rel
	}
	for fieldName, rel := range s.Relationships.Relations {
		if strings.EqualFold(fieldName, name) {
			return rel
		}
	}
	return nil
}
