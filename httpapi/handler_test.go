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

package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/repository"
	"github.com/tomoncle/structure/translation"
	"github.com/tomoncle/structure/types"
)

type City struct {
	bun.BaseModel `bun:"table:cities,alias:city"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name" json:"name"`
	Country string `bun:"country" json:"country"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := DefaultListConfig()
	cfg.MaxLimit = 3
	cfg.Fields = []string{"id", "name", "country"}
	cfg.DefaultSort = query.Asc("id")
	return newRouterWith(t, cfg)
}

func newRouterWith(t *testing.T, cfg ListConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.NewCreateTable().Model((*City)(nil)).Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, translation.EnsureSchema(ctx, db))
	cities := []*City{
		{Name: "Lyon", Country: "FR"}, {Name: "Paris", Country: "FR"}, {Name: "Lille", Country: "FR"},
		{Name: "Munich", Country: "DE"}, {Name: "London", Country: "GB"},
	}
	_, err = db.NewInsert().Model(&cities).Exec(ctx)
	require.NoError(t, err)

	tr := translation.NewTranslator(db, translation.Config{DefaultLocale: "en"})
	require.NoError(t, tr.Store(ctx, "cities", "de", "4", "name", "München"))
	repo := repository.NewRepository[City](db, repository.WithTranslator(tr))

	r := gin.New()
	RegisterList[City](r, "/cities", repo, cfg)
	return r
}

func get(t *testing.T, r http.Handler, url string) (*httptest.ResponseRecorder, types.Pagination[City]) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	var page types.Pagination[City]
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	}
	return rec, page
}

func cityNames(p types.Pagination[City]) []string {
	out := make([]string, len(p.Items))
	for i, c := range p.Items {
		out[i] = c.Name
	}
	return out
}

func TestListFiltersSortsAndPages(t *testing.T) {
	r := newRouter(t)

	rec, page := get(t, r, "/cities?filter[country]=FR&sort=-name&limit=2&page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, []string{"Lille"}, cityNames(page))

	rec, page = get(t, r, "/cities?like[name]=L%25")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Lyon", "Lille", "London"}, cityNames(page))
}

func TestListCapsLimit(t *testing.T) {
	rec, page := get(t, newRouter(t), "/cities?limit=50")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, page.PageSize)
	assert.Len(t, page.Items, 3)
	assert.True(t, page.HasNext)
}

func TestListTranslates(t *testing.T) {
	rec, page := get(t, newRouter(t), "/cities?filter[country]=DE&locale=de")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"München"}, cityNames(page))
}

func TestListErrors(t *testing.T) {
	r := newRouter(t)
	for url, code := range map[string]int{
		"/cities?page=abc":           http.StatusBadRequest,
		"/cities?limit=x":            http.StatusBadRequest,
		"/cities?page=0":             http.StatusBadRequest,
		"/cities?filter[password]=x": http.StatusBadRequest,
		"/cities?sort=secret":        http.StatusBadRequest,
		"/cities?page=9":             http.StatusNotFound,
		"/cities?filter[country]=XX": http.StatusOK,
	} {
		rec, _ := get(t, r, url)
		assert.Equal(t, code, rec.Code, url)
	}
}

func TestListRejectsExpressionsWithoutFieldList(t *testing.T) {
	r := newRouterWith(t, DefaultListConfig())

	rec, page := get(t, r, "/cities?filter[city.country]=FR")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, page.Total)

	for _, url := range []string{
		"/cities?filter[city.id%20OR%201%3D1%20OR%20city.id]=XX",
		"/cities?like[name)%20OR%20(1]=x",
		"/cities?sort=city.name%3BDELETE%20FROM%20cities",
		"/cities?filter[a.b.c]=x",
	} {
		rec, _ := get(t, r, url)
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}

	rec, page = get(t, r, "/cities")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, page.Total)
}
