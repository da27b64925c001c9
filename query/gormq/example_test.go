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
package gormq_test

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/query/gormq"
)

type Author struct {
	ID   uint
	Name string
}

type Book struct {
	ID       uint
	Title    string
	Status   string
	AuthorID uint
	Author   *Author
}

// The same criteria a Bun repository takes can drive a GORM statement.
func ExampleNew() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	b := query.Assemble(gormq.New(db, &Book{}, ""), query.Criteria{
		Conditions: query.Conditions{{Field: "status", Value: "published"}},
		Sort:       query.ParseSort("-title"),
		Window:     query.LimitOnly(20),
		Extras: &query.Extras{
			InnerJoins: []query.Join{{Path: "author", Alias: "a"}},
			Likes:      []query.Condition{{Field: "a.name", Value: "Le Guin%"}},
		},
	})
	if err := b.Err(); err != nil {
		panic(err)
	}

	var books []Book
	if err := b.Query().Find(&books).Error; err != nil {
		fmt.Println(err)
	}
}
