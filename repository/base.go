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

package repository

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/structure/database"
	"github.com/tomoncle/structure/pagination"
	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/query/bunq"
	"github.com/tomoncle/structure/translation"
	"github.com/tomoncle/structure/types"
)

type baseRepositoryImpl[T any] struct {
	db    *bun.DB
	table *schema.Table

	translatorOnce sync.Once
	translator     *translation.Translator
}

// NewRepository returns a generic repository backed by the provided Bun DB.
func NewRepository[T any](db *bun.DB, opts ...Option) Repository[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &baseRepositoryImpl[T]{
		db:         db,
		table:      db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem()),
		translator: o.translator,
	}
}

func (r *baseRepositoryImpl[T]) DB() *bun.DB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect().Model((*T)(nil)) }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

func (r *baseRepositoryImpl[T]) TableName() string { return r.table.Name }

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.NewSelect().Model(&entity).Where("?PKs = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.db.NewSelect().Model(&entities).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, where string, args ...interface{}) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.db.NewSelect().Model(&entities).Where(where, args...).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) QueryBuilderFindBy(c query.Criteria) *bunq.Builder {
	return query.Assemble(bunq.ForModel[T](r.db), c)
}

func (r *baseRepositoryImpl[T]) FindBy(ctx context.Context, c query.Criteria) ([]*T, error) {
	entities := make([]*T, 0)
	if err := r.QueryBuilderFindBy(c).Scan(ctx, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) FindOneBy(ctx context.Context, conditions query.Conditions) (*T, error) {
	entities, err := r.FindBy(ctx, query.Criteria{Conditions: conditions, Window: query.LimitOnly(1)})
	if err != nil || len(entities) == 0 {
		return nil, err
	}
	return entities[0], nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, c query.Criteria) (int, error) {
	return r.QueryBuilderFindBy(c.WithoutWindow()).Count(ctx)
}

func (r *baseRepositoryImpl[T]) Pager(c query.Criteria, maxPerPage, currentPage int) (*pagination.Pager[T], error) {
	c = c.WithoutWindow()
	pager := pagination.NewPager[T](pagination.NewBunAdapter[T](func() *bunq.Builder {
		return r.QueryBuilderFindBy(c)
	}))
	if err := pager.SetMaxPerPage(maxPerPage); err != nil {
		return nil, err
	}
	if err := pager.SetCurrentPage(currentPage); err != nil {
		return nil, err
	}
	return pager, nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, c query.Criteria, page, pageSize int) (*types.Pagination[T], error) {
	pager, err := r.Pager(c, pageSize, page)
	if err != nil {
		return nil, err
	}
	return pager.ToPagination(ctx)
}

func (r *baseRepositoryImpl[T]) Translator() *translation.Translator {
	r.translatorOnce.Do(func() {
		if r.translator == nil {
			r.translator = translation.NewTranslator(r.db, translation.DefaultConfig())
		}
	})
	return r.translator
}

func (r *baseRepositoryImpl[T]) Translated(c query.Criteria, locale string) *translation.Query[T] {
	return translation.NewQuery[T](r.QueryBuilderFindBy(c), r.Translator(), locale)
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := append([]*T(nil), entity...)
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, nil, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("?PKs = ?", id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteEntities(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := append([]*T(nil), entity...)
	_, err := r.db.NewDelete().Model(&entities).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteAll(ctx context.Context) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("1 = 1").Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Truncate(ctx context.Context, resetAutoIncrement bool) error {
	if err := database.TruncateTable(ctx, r.db, r.table.Name); err != nil {
		return err
	}
	if resetAutoIncrement {
		return r.SetAutoIncrement(ctx, 1)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) SetAutoIncrement(ctx context.Context, n int64) error {
	if len(r.table.PKs) != 1 {
		return fmt.Errorf("%s: auto increment needs exactly one primary key", r.table.Name)
	}
	return database.SetAutoIncrement(ctx, r.db, r.table.Name, r.table.PKs[0].Name, n)
}

func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, fn)
}

func (r *baseRepositoryImpl[T]) CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := append([]*T(nil), entity...)
	_, err := tx.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, tx, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error {
	_, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error {
	_, err := tx.NewDelete().Model((*T)(nil)).Where("?PKs = ?", id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}

	var idb bun.IDB = r.db
	if tx != nil {
		idb = tx
	}
	entities := append([]*T(nil), entity...)
	insert := idb.NewInsert().Model(&entities)

	switch {
	case r.db.HasFeature(feature.InsertOnConflict):
		keys := duplicateKeys
		if len(keys) == 0 {
			keys = r.pkNames()
		}
		insert = insert.On("CONFLICT (?) DO UPDATE", bun.In(idents(keys)))
		for _, field := range fields {
			insert = insert.Set("? = EXCLUDED.?", bun.Ident(field), bun.Ident(field))
		}
	case r.db.HasFeature(feature.InsertOnDuplicateKey):
		insert = insert.On("DUPLICATE KEY UPDATE")
		for _, field := range fields {
			insert = insert.Set("? = VALUES(?)", bun.Ident(field), bun.Ident(field))
		}
	default:
		return r.upsertFallback(ctx, idb, entities)
	}
	_, err := insert.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, idb bun.IDB, entities []*T) error {
	for _, entity := range entities {
		if _, err := idb.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := idb.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %w", err, updateErr)
			}
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) pkNames() []string {
	names := make([]string, len(r.table.PKs))
	for i, pk := range r.table.PKs {
		names[i] = pk.Name
	}
	return names
}

func idents(names []string) []bun.Ident {
	out := make([]bun.Ident, len(names))
	for i, n := range names {
		out[i] = bun.Ident(n)
	}
	return out
}
