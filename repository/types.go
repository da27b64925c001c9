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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/structure/pagination"
	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/query/bunq"
	"github.com/tomoncle/structure/translation"
	"github.com/tomoncle/structure/types"
)

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	Query(ctx context.Context, where string, args ...interface{}) ([]*T, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, id any) error

	DeleteEntities(ctx context.Context, entity ...*T) error

	DeleteAll(ctx context.Context) error
}

// TransactionRepository defines CRUD operations executed within a transaction.
type TransactionRepository[T any] interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
	CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error
	UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error
	UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error
	DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error
}

// FinderRepository runs Criteria through the query assembler.
type FinderRepository[T any] interface {
	// QueryBuilderFindBy assembles c without executing it.
	QueryBuilderFindBy(c query.Criteria) *bunq.Builder
	FindBy(ctx context.Context, c query.Criteria) ([]*T, error)
	// FindOneBy returns the first match or nil.
	FindOneBy(ctx context.Context, conditions query.Conditions) (*T, error)
	Count(ctx context.Context, c query.Criteria) (int, error)
}

// PageQueryRepository pages Criteria results. The criteria window is ignored.
type PageQueryRepository[T any] interface {
	Pager(c query.Criteria, maxPerPage, currentPage int) (*pagination.Pager[T], error)
	Page(ctx context.Context, c query.Criteria, page, pageSize int) (*types.Pagination[T], error)
}

// TranslatedRepository runs Criteria through the translation overlay.
type TranslatedRepository[T any] interface {
	Translated(c query.Criteria, locale string) *translation.Query[T]
	Translator() *translation.Translator
}

// MaintenanceRepository works on the entity table as a whole.
type MaintenanceRepository interface {
	Table() *schema.Table
	TableName() string
	Truncate(ctx context.Context, resetAutoIncrement bool) error
	SetAutoIncrement(ctx context.Context, n int64) error
}

// Repository combines every capability and exposes Bun query builders for
// advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	TransactionRepository[T]
	FinderRepository[T]
	PageQueryRepository[T]
	TranslatedRepository[T]
	MaintenanceRepository
	DB() *bun.DB
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}

// Option configures NewRepository.
type Option func(*options)

type options struct {
	translator *translation.Translator
}

// WithTranslator sets the translator used by Translated. Without it a
// translator with translation.DefaultConfig is created on first use.
func WithTranslator(t *translation.Translator) Option {
	return func(o *options) { o.translator = t }
}
