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

package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("CREATE TABLE tags (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)")
	require.NoError(t, err)
	return db
}

func insertTags(t *testing.T, db *bun.DB, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		res, err := db.Exec("INSERT INTO tags (name) VALUES (?)", name)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestTruncateTable(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	insertTags(t, db, "go", "sql")

	require.NoError(t, TruncateTable(ctx, db, "tags"))

	count, err := db.NewSelect().Table("tags").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSetAutoIncrementRestartsSequence(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	insertTags(t, db, "a", "b", "c")
	require.NoError(t, TruncateTable(ctx, db, "tags"))

	assert.Equal(t, []int64{4}, insertTags(t, db, "d"), "truncate alone keeps the sequence")

	require.NoError(t, TruncateTable(ctx, db, "tags"))
	require.NoError(t, SetAutoIncrement(ctx, db, "tags", "id", 1))
	assert.Equal(t, []int64{1}, insertTags(t, db, "e"))

	require.NoError(t, SetAutoIncrement(ctx, db, "tags", "id", 50))
	assert.Equal(t, []int64{50}, insertTags(t, db, "f"))
}

func TestSetAutoIncrementRejectsNonPositive(t *testing.T) {
	db := newSQLiteDB(t)
	assert.Error(t, SetAutoIncrement(context.Background(), db, "tags", "id", 0))
}

func TestMigrationManagerCreatesRegisteredTables(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	type note struct {
		bun.BaseModel `bun:"table:notes"`
		ID            int64  `bun:"id,pk,autoincrement"`
		Body          string `bun:"body"`
	}
	registry := defaultRegistry
	defaultRegistry = newModelRegistry()
	t.Cleanup(func() { defaultRegistry = registry })
	RegisterModel((*note)(nil), 0)

	mm := NewMigrationManager(db, nil)
	require.NoError(t, mm.RunMigrations(ctx))
	require.NoError(t, mm.RunMigrations(ctx), "applied versions are skipped")

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "001", applied[0].Version)

	_, err = db.NewInsert().Model(&note{Body: "hi"}).Exec(ctx)
	assert.NoError(t, err)
}

func TestModelRegistryOrdersByPriority(t *testing.T) {
	r := newModelRegistry()
	r.Register(NewModelAdapter("second", 10))
	r.Register(NewModelAdapter("first", 1))
	r.Register(NewModelAdapter("third", 10))

	var got []interface{}
	for _, m := range r.Models() {
		got = append(got, m.Instance())
	}
	assert.Equal(t, []interface{}{"first", "second", "third"}, got)
}
