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

package translation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomoncle/structure/query/bunq"
)

var (
	ErrNoResult        = errors.New("translation: no result")
	ErrNonUniqueResult = errors.New("translation: more than one result")
)

// Query runs an assembled builder and translates what it returns. The
// builder is executed as is on every call.
type Query[T any] struct {
	builder    *bunq.Builder
	translator *Translator
	locale     string
}

// NewQuery binds b to locale; an empty locale means the translator default.
func NewQuery[T any](b *bunq.Builder, t *Translator, locale string) *Query[T] {
	return &Query[T]{builder: b, translator: t, locale: t.Locale(locale)}
}

func (q *Query[T]) Locale() string { return q.locale }

func (q *Query[T]) Builder() *bunq.Builder { return q.builder }

// Result returns every matching entity.
func (q *Query[T]) Result(ctx context.Context) ([]*T, error) {
	items := make([]*T, 0)
	if err := q.builder.Scan(ctx, &items); err != nil {
		return nil, err
	}
	if err := Apply(ctx, q.translator, q.locale, items); err != nil {
		return nil, err
	}
	return items, nil
}

// OneOrNull returns the single entity, or nil when there is none.
func (q *Query[T]) OneOrNull(ctx context.Context) (*T, error) {
	items, err := q.Result(ctx)
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0], nil
	}
	return nil, fmt.Errorf("%w: got %d rows", ErrNonUniqueResult, len(items))
}

// SingleResult is OneOrNull that also fails on an empty result.
func (q *Query[T]) SingleResult(ctx context.Context) (*T, error) {
	item, err := q.OneOrNull(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNoResult
	}
	return item, nil
}

// ArrayResult returns rows as column maps, which also carries projections.
func (q *Query[T]) ArrayResult(ctx context.Context) ([]map[string]interface{}, error) {
	_, rows, err := q.rows(ctx)
	return rows, err
}

// ScalarResult returns the same flat rows as ArrayResult; Go results have no
// object graph to flatten.
func (q *Query[T]) ScalarResult(ctx context.Context) ([]map[string]interface{}, error) {
	return q.ArrayResult(ctx)
}

// SingleScalarResult returns the first selected column of the only row.
func (q *Query[T]) SingleScalarResult(ctx context.Context) (interface{}, error) {
	columns, rows, err := q.rows(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case len(rows) == 0:
		return nil, ErrNoResult
	case len(rows) > 1:
		return nil, fmt.Errorf("%w: got %d rows", ErrNonUniqueResult, len(rows))
	case len(columns) == 0:
		return nil, ErrNoResult
	}
	return rows[0][columns[0]], nil
}

func (q *Query[T]) rows(ctx context.Context) ([]string, []map[string]interface{}, error) {
	if err := q.builder.Err(); err != nil {
		return nil, nil, err
	}
	rs, err := q.builder.Query().Rows(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()

	columns, rows, err := scanMaps(rs)
	if err != nil {
		return nil, nil, err
	}

	table := q.translator.db.Dialect().Tables().Get(reflectType[T]())
	if len(table.PKs) == 1 {
		err = q.translator.ApplyRows(ctx, ClassOf(table), q.locale, table.PKs[0].Name, rows)
	}
	return columns, rows, err
}

func scanMaps(rs *sql.Rows) ([]string, []map[string]interface{}, error) {
	columns, err := rs.Columns()
	if err != nil {
		return nil, nil, err
	}
	rows := make([]map[string]interface{}, 0)
	values := make([]interface{}, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rs.Next() {
		if err := rs.Scan(dest...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, rs.Err()
}
