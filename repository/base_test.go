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
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/structure/database"
	"github.com/tomoncle/structure/pagination"
	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/translation"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:category"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:product"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Sku        string    `bun:"sku,unique"`
	Name       string    `bun:"name"`
	Status     string    `bun:"status"`
	Stock      int       `bun:"stock"`
	CategoryID int64     `bun:"category_id"`
	Category   *Category `bun:"rel:belongs-to,join:category_id=id"`
}

func newRepo(t *testing.T) (*bun.DB, Repository[Product]) {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, ddl := range []string{
		"CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)",
		"CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, sku TEXT NOT NULL UNIQUE, name TEXT NOT NULL, " +
			"status TEXT NOT NULL, stock INTEGER NOT NULL DEFAULT 0, category_id INTEGER NOT NULL)",
	} {
		_, err := db.ExecContext(ctx, ddl)
		require.NoError(t, err)
	}
	require.NoError(t, translation.EnsureSchema(ctx, db))

	categories := []*Category{{Name: "Tools"}, {Name: "Garden"}}
	_, err = db.NewInsert().Model(&categories).Exec(ctx)
	require.NoError(t, err)

	repo := NewRepository[Product](db, WithTranslator(translation.NewTranslator(db, translation.Config{DefaultLocale: "en"})))
	require.NoError(t, repo.Create(ctx,
		&Product{Sku: "HAM-1", Name: "Hammer", Status: "active", Stock: 3, CategoryID: 1},
		&Product{Sku: "SAW-1", Name: "Saw", Status: "active", Stock: 0, CategoryID: 1},
		&Product{Sku: "HOS-1", Name: "Hose", Status: "draft", Stock: 7, CategoryID: 2},
		&Product{Sku: "RAK-1", Name: "Rake", Status: "active", Stock: 2, CategoryID: 2},
		&Product{Sku: "SHO-1", Name: "Shovel", Status: "active", Stock: 1, CategoryID: 2},
	))
	return db, repo
}

func names(products []*Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestCrud(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)

	p, err := repo.GetOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Hammer", p.Name)

	p.Stock = 10
	require.NoError(t, repo.Update(ctx, p))
	p, err = repo.GetOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.GetOne(ctx, 1)
	assert.True(t, database.IsNoRows(err))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	drafts, err := repo.Query(ctx, "status = ?", "draft")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hose"}, names(drafts))

	require.NoError(t, repo.DeleteEntities(ctx, drafts...))
	require.NoError(t, repo.DeleteAll(ctx))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)

	require.NoError(t, repo.Upsert(ctx, []string{"name", "stock"}, []string{"sku"},
		&Product{Sku: "HAM-1", Name: "Claw hammer", Status: "active", Stock: 4, CategoryID: 1},
		&Product{Sku: "AXE-1", Name: "Axe", Status: "active", Stock: 1, CategoryID: 1},
	))

	hammer, err := repo.FindOneBy(ctx, query.Conditions{{Field: "sku", Value: "HAM-1"}})
	require.NoError(t, err)
	assert.Equal(t, "Claw hammer", hammer.Name)
	assert.Equal(t, 4, hammer.Stock)

	count, err := repo.Count(ctx, query.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	assert.Error(t, repo.Upsert(ctx, nil, nil, hammer))
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)

	err := repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := repo.CreateWithTx(ctx, &tx, &Product{Sku: "DRL-1", Name: "Drill", Status: "active", CategoryID: 1}); err != nil {
			return err
		}
		return repo.DeleteWithTx(ctx, &tx, 2)
	})
	require.NoError(t, err)

	found, err := repo.FindBy(ctx, query.Criteria{Sort: query.Asc("id")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hammer", "Hose", "Rake", "Shovel", "Drill"}, names(found))
}

func TestFindByWithJoinAndWindow(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)

	found, err := repo.FindBy(ctx, query.Criteria{
		Conditions: query.Conditions{{Field: "status", Value: "active"}, {Field: "c.name", Value: "Garden"}},
		Sort:       query.ParseSort("-stock"),
		Window:     query.NewWindow(1, 1),
		Extras:     &query.Extras{InnerJoins: []query.Join{{Path: "category", Alias: "c"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Shovel"}, names(found))

	missing, err := repo.FindOneBy(ctx, query.Conditions{{Field: "sku", Value: "NOPE"}})
	require.NoError(t, err)
	assert.Nil(t, missing)

	b := repo.QueryBuilderFindBy(query.Criteria{Extras: &query.Extras{LeftJoins: []query.Join{{Path: "supplier", Alias: "s"}}}})
	assert.Error(t, b.Err())
	_, err = repo.FindBy(ctx, query.Criteria{Extras: &query.Extras{LeftJoins: []query.Join{{Path: "supplier", Alias: "s"}}}})
	assert.Error(t, err)
}

func TestFindByWithProjection(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)

	c := query.Criteria{
		Sort: query.Asc("name"),
		Extras: &query.Extras{
			Selects:   []query.Projection{{Expr: "c.name", Alias: "category_name"}},
			LeftJoins: []query.Join{{Path: "category", Alias: "c"}},
			Likes:     query.Conditions{{Field: "category_name", Value: "Gar%"}},
		},
	}

	found, err := repo.FindBy(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hose", "Rake", "Shovel"}, names(found))
	assert.Equal(t, "HOS-1", found[0].Sku)

	n, err := repo.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pager, err := repo.Pager(c, 2, 2)
	require.NoError(t, err)
	total, err := pager.NbResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	results, err := pager.CurrentPageResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shovel"}, names(results))

	translated, err := repo.Translated(c, "fr").Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hose", "Rake", "Shovel"}, names(translated))
}

func TestPagerIgnoresWindow(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)

	c := query.Criteria{
		Conditions: query.Conditions{{Field: "status", Value: "active"}},
		Sort:       query.Asc("name"),
		Window:     query.NewWindow(1, 0),
	}
	pager, err := repo.Pager(c, 3, 2)
	require.NoError(t, err)

	total, err := pager.NbResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	results, err := pager.CurrentPageResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shovel"}, names(results))

	_, err = repo.Pager(c, 0, 1)
	assert.ErrorIs(t, err, pagination.ErrNotValidMaxPerPage)

	out, err := repo.Pager(c, 3, 5)
	require.NoError(t, err)
	_, err = out.CurrentPageResults(ctx)
	assert.ErrorIs(t, err, pagination.ErrOutOfRangeCurrentPage)

	page, err := repo.Page(ctx, c, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, []string{"Hammer", "Rake", "Saw"}, names(page.Items))
}

func TestTranslated(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)
	require.NoError(t, repo.Translator().Store(ctx, "products", "fr", "1", "name", "Marteau"))

	q := repo.Translated(query.Criteria{Conditions: query.Conditions{{Field: "sku", Value: "HAM-1"}}}, "fr")
	p, err := q.SingleResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Marteau", p.Name)

	p, err = repo.Translated(query.Criteria{Conditions: query.Conditions{{Field: "sku", Value: "HAM-1"}}}, "").SingleResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hammer", p.Name)
}

func TestTruncateAndAutoIncrement(t *testing.T) {
	ctx := context.Background()
	_, repo := newRepo(t)
	assert.Equal(t, "products", repo.TableName())

	require.NoError(t, repo.Truncate(ctx, true))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	p := &Product{Sku: "NEW-1", Name: "New", Status: "active", CategoryID: 1}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, int64(1), p.ID)

	require.NoError(t, repo.SetAutoIncrement(ctx, 100))
	p = &Product{Sku: "NEW-2", Name: "Newer", Status: "active", CategoryID: 1}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, int64(100), p.ID)
}
