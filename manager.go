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

// Package structure provides a generic entity Manager on top of Bun: CRUD
// forwarding, criteria finders, paging, translated queries and table
// maintenance.
package structure

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/structure/database"
	"github.com/tomoncle/structure/pagination"
	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/repository"
	"github.com/tomoncle/structure/translation"
)

type Manager[T any] interface {
	// Repository returns the underlying repository.
	Repository() repository.Repository[T]

	// FindBy returns entities matching c.
	FindBy(ctx context.Context, c query.Criteria) ([]*T, error)

	// FindOneBy returns the first entity matching conditions, or nil.
	FindOneBy(ctx context.Context, conditions query.Conditions) (*T, error)

	// FindOneByID returns the entity with the given primary key, or nil.
	FindOneByID(ctx context.Context, id any) (*T, error)

	FindAll(ctx context.Context) ([]*T, error)

	Count(ctx context.Context, c query.Criteria) (int, error)

	// Create returns a new zero entity; nothing is written.
	Create() *T

	// Save inserts entities with a zero primary key and updates the others,
	// all in one transaction.
	Save(ctx context.Context, entities ...*T) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, entities ...*T) error

	Remove(ctx context.Context, entities ...*T) error

	// RemoveAll deletes every row, optionally restarting the id sequence.
	RemoveAll(ctx context.Context, resetAutoIncrement bool) error

	// Truncate empties the table; see database.TruncateTable for limits.
	Truncate(ctx context.Context, resetAutoIncrement bool) error

	InitAutoIncrement(ctx context.Context) error

	SetAutoIncrement(ctx context.Context, n int64) error

	TableName() string

	Pager(c query.Criteria, maxPerPage, currentPage int) (*pagination.Pager[T], error)

	// Translated wraps the query for c with the locale overlay.
	Translated(c query.Criteria, locale string) *translation.Query[T]
}

type baseManagerImpl[T any] struct {
	repo repository.Repository[T]
	opts []repository.Option
	once sync.Once
}

// NewManager returns a Manager over the global database connection, resolved
// on first use.
func NewManager[T any](opts ...repository.Option) Manager[T] {
	return &baseManagerImpl[T]{opts: opts}
}

// NewManagerWithDB returns a Manager over db.
func NewManagerWithDB[T any](db *bun.DB, opts ...repository.Option) Manager[T] {
	return NewManagerWithRepository(repository.NewRepository[T](db, opts...))
}

func NewManagerWithRepository[T any](repo repository.Repository[T]) Manager[T] {
	m := &baseManagerImpl[T]{repo: repo}
	m.once.Do(func() {})
	return m
}

func (m *baseManagerImpl[T]) Repository() repository.Repository[T] {
	m.once.Do(func() { m.repo = repository.NewRepository[T](database.GetDB(), m.opts...) })
	return m.repo
}

func (m *baseManagerImpl[T]) FindBy(ctx context.Context, c query.Criteria) ([]*T, error) {
	return m.Repository().FindBy(ctx, c)
}

func (m *baseManagerImpl[T]) FindOneBy(ctx context.Context, conditions query.Conditions) (*T, error) {
	return m.Repository().FindOneBy(ctx, conditions)
}

func (m *baseManagerImpl[T]) FindOneByID(ctx context.Context, id any) (*T, error) {
	entity, err := m.Repository().GetOne(ctx, id)
	if database.IsNoRows(err) {
		return nil, nil
	}
	return entity, err
}

func (m *baseManagerImpl[T]) FindAll(ctx context.Context) ([]*T, error) {
	return m.Repository().GetAll(ctx)
}

func (m *baseManagerImpl[T]) Count(ctx context.Context, c query.Criteria) (int, error) {
	return m.Repository().Count(ctx, c)
}

func (m *baseManagerImpl[T]) Create() *T {
	return new(T)
}

func (m *baseManagerImpl[T]) Save(ctx context.Context, entities ...*T) error {
	if len(entities) == 0 {
		return nil
	}
	repo := m.Repository()
	var inserts, updates []*T
	for _, entity := range entities {
		isNew, err := m.isNew(entity)
		if err != nil {
			return err
		}
		if isNew {
			inserts = append(inserts, entity)
		} else {
			updates = append(updates, entity)
		}
	}
	return repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := repo.CreateWithTx(ctx, &tx, inserts...); err != nil {
			return fmt.Errorf("insert %s: %w", repo.TableName(), err)
		}
		for _, entity := range updates {
			if err := repo.UpdateWithTx(ctx, &tx, entity); err != nil {
				return fmt.Errorf("update %s: %w", repo.TableName(), err)
			}
		}
		return nil
	})
}

func (m *baseManagerImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, entities ...*T) error {
	return m.Repository().Upsert(ctx, fields, duplicateKeys, entities...)
}

func (m *baseManagerImpl[T]) Remove(ctx context.Context, entities ...*T) error {
	return m.Repository().DeleteEntities(ctx, entities...)
}

func (m *baseManagerImpl[T]) RemoveAll(ctx context.Context, resetAutoIncrement bool) error {
	if err := m.Repository().DeleteAll(ctx); err != nil {
		return err
	}
	if resetAutoIncrement {
		return m.InitAutoIncrement(ctx)
	}
	return nil
}

func (m *baseManagerImpl[T]) Truncate(ctx context.Context, resetAutoIncrement bool) error {
	return m.Repository().Truncate(ctx, resetAutoIncrement)
}

func (m *baseManagerImpl[T]) InitAutoIncrement(ctx context.Context) error {
	return m.SetAutoIncrement(ctx, 1)
}

func (m *baseManagerImpl[T]) SetAutoIncrement(ctx context.Context, n int64) error {
	return m.Repository().SetAutoIncrement(ctx, n)
}

func (m *baseManagerImpl[T]) TableName() string {
	return m.Repository().TableName()
}

func (m *baseManagerImpl[T]) Pager(c query.Criteria, maxPerPage, currentPage int) (*pagination.Pager[T], error) {
	return m.Repository().Pager(c, maxPerPage, currentPage)
}

func (m *baseManagerImpl[T]) Translated(c query.Criteria, locale string) *translation.Query[T] {
	return m.Repository().Translated(c, locale)
}

// isNew reports whether every primary key field of entity is zero.
func (m *baseManagerImpl[T]) isNew(entity *T) (bool, error) {
	if entity == nil {
		return false, fmt.Errorf("cannot save a nil %s", m.Repository().TableName())
	}
	table := m.Repository().Table()
	if len(table.PKs) == 0 {
		return true, nil
	}
	strct := reflect.ValueOf(entity).Elem()
	for _, pk := range table.PKs {
		if !strct.FieldByIndex(pk.Index).IsZero() {
			return false, nil
		}
	}
	return true, nil
}
