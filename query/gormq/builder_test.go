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

package gormq

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tomoncle/structure/query"
)

type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:text"`
}

type Article struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"type:text"`
	Status     string `gorm:"type:text"`
	CategoryID uint
	Category   *Category
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Category{}, &Article{}))
	books := Category{Name: "Books"}
	music := Category{Name: "Music"}
	require.NoError(t, db.Create(&books).Error)
	require.NoError(t, db.Create(&music).Error)
	require.NoError(t, db.Create([]*Article{
		{Title: "Go in practice", Status: "active", CategoryID: books.ID},
		{Title: "Bun recipes", Status: "active", CategoryID: books.ID},
		{Title: "Jazz", Status: "draft", CategoryID: music.ID},
		{Title: "Go concurrency", Status: "active", CategoryID: music.ID},
	}).Error)
	return db
}

func TestBuilderProperties(t *testing.T) {
	db := newTestDB(t)
	b := New(db, &Article{}, "")
	require.NoError(t, b.Err())

	assert.Equal(t, "entity", b.RootAlias())
	assert.True(t, b.HasProperty("status"))
	assert.True(t, b.HasProperty("CategoryID"))
	assert.True(t, b.HasProperty("category"))
	assert.False(t, b.HasProperty("total"))
}

func TestBuilderFilterJoinAndSort(t *testing.T) {
	db := newTestDB(t)
	b := query.Assemble(New(db, &Article{}, ""), query.Criteria{
		Conditions: query.Conditions{{Field: "status", Value: "active"}, {Field: "c.name", Value: "Books"}},
		Sort:       query.ParseSort("-title"),
		Extras:     &query.Extras{LeftJoins: []query.Join{{Path: "category", Alias: "c"}}},
	})
	require.NoError(t, b.Err())

	var articles []Article
	require.NoError(t, b.Query().Find(&articles).Error)
	require.Len(t, articles, 2)
	assert.Equal(t, "Go in practice", articles[0].Title)
	assert.Equal(t, "Bun recipes", articles[1].Title)
}

func TestBuilderCollidingParameters(t *testing.T) {
	db := newTestDB(t)
	b := query.Assemble(New(db, &Article{}, "a"), query.Criteria{
		Conditions: query.Conditions{{Field: "title", Value: "Jazz"}},
		Extras:     &query.Extras{Likes: []query.Condition{{Field: "title", Value: "J%"}}},
	})

	var articles []Article
	require.NoError(t, b.Query().Find(&articles).Error)
	require.Len(t, articles, 1)
	assert.Equal(t, "Jazz", articles[0].Title)
}

func TestBuilderGroupByProjection(t *testing.T) {
	db := newTestDB(t)
	b := query.Assemble(New(db, &Article{}, ""), query.Criteria{
		Sort:   query.Asc("status"),
		Window: query.LimitOnly(10),
		Extras: &query.Extras{
			Selects:  []query.Projection{{Expr: "COUNT(entity.id)", Alias: "total"}},
			GroupBys: []string{"status"},
		},
	})
	require.NoError(t, b.Err())

	var rows []struct {
		Status string
		Total  int
	}
	require.NoError(t, b.Query().Scan(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "active", rows[0].Status)
	assert.Equal(t, 3, rows[0].Total)
	assert.Equal(t, 1, rows[1].Total)
}

func TestBuilderUnknownRelation(t *testing.T) {
	db := newTestDB(t)
	b := query.Assemble(New(db, &Article{}, ""), query.Criteria{
		Extras: &query.Extras{InnerJoins: []query.Join{{Path: "author", Alias: "a"}}},
	})
	assert.Error(t, b.Err())
}
