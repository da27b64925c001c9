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

package structure

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/structure/database"
	"github.com/tomoncle/structure/query"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:author"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name"`
	Email string `bun:"email"`
}

func newAuthorManager(t *testing.T) Manager[Author] {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("CREATE TABLE authors (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, email TEXT NOT NULL DEFAULT '')")
	require.NoError(t, err)
	return NewManagerWithDB[Author](db)
}

func TestManagerSaveInsertsAndUpdates(t *testing.T) {
	ctx := context.Background()
	m := newAuthorManager(t)

	ada := m.Create()
	ada.Name = "Ada"
	grace := &Author{Name: "Grace"}
	require.NoError(t, m.Save(ctx, ada, grace))
	assert.NotZero(t, ada.ID)
	assert.NotZero(t, grace.ID)

	ada.Email = "ada@example.org"
	linus := &Author{Name: "Linus"}
	require.NoError(t, m.Save(ctx, ada, linus))

	found, err := m.FindOneByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", found.Email)

	all, err := m.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Error(t, m.Save(ctx, nil))
}

func TestManagerFinders(t *testing.T) {
	ctx := context.Background()
	m := newAuthorManager(t)
	require.NoError(t, m.Save(ctx, &Author{Name: "Ada"}, &Author{Name: "Grace"}, &Author{Name: "Alan"}))

	found, err := m.FindBy(ctx, query.Criteria{
		Sort:   query.ParseSort("-name"),
		Extras: &query.Extras{Likes: []query.Condition{{Field: "name", Value: "A%"}}},
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Alan", found[0].Name)

	one, err := m.FindOneBy(ctx, query.Conditions{{Field: "name", Value: "Grace"}})
	require.NoError(t, err)
	require.NotNil(t, one)

	none, err := m.FindOneByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, none)

	n, err := m.Count(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pager, err := m.Pager(query.Criteria{Sort: query.Asc("id")}, 2, 2)
	require.NoError(t, err)
	page, err := pager.CurrentPageResults(ctx)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Alan", page[0].Name)

	translated, err := m.Translated(query.Criteria{Sort: query.Asc("id")}, "").Result(ctx)
	require.NoError(t, err)
	assert.Len(t, translated, 3)
}

func TestManagerRemoveAndReset(t *testing.T) {
	ctx := context.Background()
	m := newAuthorManager(t)
	assert.Equal(t, "authors", m.TableName())

	a, b := &Author{Name: "Ada"}, &Author{Name: "Grace"}
	require.NoError(t, m.Save(ctx, a, b))
	require.NoError(t, m.Remove(ctx, a))
	all, err := m.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, m.RemoveAll(ctx, true))
	c := &Author{Name: "Alan"}
	require.NoError(t, m.Save(ctx, c))
	assert.Equal(t, int64(1), c.ID)

	require.NoError(t, m.Truncate(ctx, false))
	d := &Author{Name: "Barbara"}
	require.NoError(t, m.Save(ctx, d))
	assert.Equal(t, int64(2), d.ID)

	require.NoError(t, m.SetAutoIncrement(ctx, 10))
	e := &Author{Name: "Edsger"}
	require.NoError(t, m.Save(ctx, e))
	assert.Equal(t, int64(10), e.ID)
}

type Note struct {
	bun.BaseModel `bun:"table:notes,alias:note"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Body string `bun:"body"`
}

func TestManagerUsesGlobalDatabase(t *testing.T) {
	database.RegisterModel((*Note)(nil), 0)
	cfg := &database.Config{ConnectionConfig: *database.DefaultConnectionConfig()}
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = ":memory:"
	cfg.ConnectionConfig.MaxOpenConns = 1
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.MigrateConfig.EnableMigrateOnStartup = true
	_, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	ctx := context.Background()
	m := NewManager[Note]()
	require.NoError(t, m.Save(ctx, &Note{Body: "hello"}))
	notes, err := m.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "hello", notes[0].Body)
}
