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

import (
	"sort"
	"strings"

	"github.com/tomoncle/structure/types"
)

// Condition pairs a field reference with a target value. A field reference
// is either a bare property name or an "alias.property" path.
type Condition struct {
	Field string
	Value any
}

// Conditions is an ordered filter specification.
type Conditions []Condition

// ConditionsFromMap builds conditions from a map, sorted by key so that the
// resulting predicate order is stable.
func ConditionsFromMap(m map[string]any) Conditions {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conditions := make(Conditions, 0, len(keys))
	for _, k := range keys {
		conditions = append(conditions, Condition{Field: k, Value: m[k]})
	}
	return conditions
}

// And returns a copy of c with one more condition appended.
func (c Conditions) And(field string, value any) Conditions {
	out := make(Conditions, len(c), len(c)+1)
	copy(out, c)
	return append(out, Condition{Field: field, Value: value})
}

// Order is a single sort term.
type Order struct {
	Field     string
	Direction types.Direction
}

// Sort is an ordered sort specification.
type Sort []Order

// Asc builds a sort from plain field references, all ascending.
func Asc(fields ...string) Sort {
	s := make(Sort, 0, len(fields))
	for _, f := range fields {
		s = append(s, Order{Field: f, Direction: types.Ascending})
	}
	return s
}

// ParseSort reads a comma separated list such as "name,-created_at" where a
// leading "-" selects descending order.
func ParseSort(s string) Sort {
	var out Sort
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			out = append(out, Order{Field: part[1:], Direction: types.Descending})
			continue
		}
		out = append(out, Order{Field: strings.TrimPrefix(part, "+"), Direction: types.Ascending})
	}
	return out
}

// Window bounds a result set. A nil Limit or Offset is left unset.
type Window struct {
	Limit  *int
	Offset *int
}

// NewWindow returns a window with both limit and offset set.
func NewWindow(limit, offset int) Window {
	return Window{Limit: &limit, Offset: &offset}
}

// LimitOnly returns a window with only a limit.
func LimitOnly(limit int) Window {
	return Window{Limit: &limit}
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.Limit == nil && w.Offset == nil
}

// Projection adds a selected expression bound to an output alias.
type Projection struct {
	Expr  string
	Alias string
}

// Join introduces Alias for the relation found at Path.
type Join struct {
	Path  string
	Alias string
}

// Extras holds the optional projections, joins, LIKE filters and group-by
// fields of a request.
type Extras struct {
	Selects    []Projection
	LeftJoins  []Join
	InnerJoins []Join
	Likes      []Condition
	GroupBys   []string
}

func (e *Extras) isProjectionAlias(name string) bool {
	if e == nil {
		return false
	}
	for _, p := range e.Selects {
		if p.Alias == name {
			return true
		}
	}
	return false
}

// Criteria is a complete assembly request.
type Criteria struct {
	Conditions Conditions
	Sort       Sort
	Window     Window
	Extras     *Extras
}

// WithoutWindow returns a copy of c with no limit or offset.
func (c Criteria) WithoutWindow() Criteria {
	c.Window = Window{}
	return c
}
