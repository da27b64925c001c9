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

package query

import "github.com/tomoncle/structure/types"

// Builder is the query-construction capability the assembler drives.
// Implementations mutate an underlying ORM query.
type Builder interface {
	// RootAlias is the alias bare field references are qualified with.
	RootAlias() string
	// HasProperty reports whether name is a property of the root entity.
	HasProperty(name string) bool

	AddSelect(expr, alias string)
	LeftJoin(path, alias string)
	InnerJoin(path, alias string)
	AndWhere(p Predicate)
	AddGroupBy(field string)
	AddOrderBy(field string, direction types.Direction)
	SetMaxResults(n int)
	SetFirstResult(n int)
}
