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
	"fmt"
	"strings"

	"github.com/tomoncle/structure/types"
)

// Recorder is a Builder that only records what it is asked to do. It backs
// dry runs and renders a DQL-like description of the assembled query.
type Recorder struct {
	entity     string
	root       string
	properties map[string]bool

	Selects     []Projection
	LeftJoins   []Join
	InnerJoins  []Join
	Predicates  []Predicate
	GroupBys    []string
	Orders      []Order
	MaxResults  *int
	FirstResult *int
}

var _ Builder = (*Recorder)(nil)

// NewRecorder returns a recorder for entity under root alias. An empty root
// falls back to DefaultRootAlias.
func NewRecorder(entity, root string, properties ...string) *Recorder {
	if root == "" {
		root = DefaultRootAlias
	}
	props := make(map[string]bool, len(properties))
	for _, p := range properties {
		props[p] = true
	}
	return &Recorder{entity: entity, root: root, properties: props}
}

func (r *Recorder) RootAlias() string { return r.root }

func (r *Recorder) HasProperty(name string) bool { return r.properties[name] }

func (r *Recorder) AddSelect(expr, alias string) {
	r.Selects = append(r.Selects, Projection{Expr: expr, Alias: alias})
}

func (r *Recorder) LeftJoin(path, alias string) {
	r.LeftJoins = append(r.LeftJoins, Join{Path: path, Alias: alias})
}

func (r *Recorder) InnerJoin(path, alias string) {
	r.InnerJoins = append(r.InnerJoins, Join{Path: path, Alias: alias})
}

func (r *Recorder) AndWhere(p Predicate) {
	r.Predicates = append(r.Predicates, p)
}

func (r *Recorder) AddGroupBy(field string) {
	r.GroupBys = append(r.GroupBys, field)
}

func (r *Recorder) AddOrderBy(field string, direction types.Direction) {
	r.Orders = append(r.Orders, Order{Field: field, Direction: direction})
}

func (r *Recorder) SetMaxResults(n int) { r.MaxResults = &n }

func (r *Recorder) SetFirstResult(n int) { r.FirstResult = &n }

// Parameters returns the bound values keyed by parameter name.
func (r *Recorder) Parameters() map[string]any {
	params := make(map[string]any, len(r.Predicates))
	for _, p := range r.Predicates {
		params[p.Param] = p.Value
	}
	return params
}

// DQL renders the recorded calls as a single query string.
func (r *Recorder) DQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(r.root)
	for _, s := range r.Selects {
		fmt.Fprintf(&sb, ", %s AS %s", s.Expr, s.Alias)
	}
	fmt.Fprintf(&sb, " FROM %s %s", r.entity, r.root)
	for _, j := range r.LeftJoins {
		fmt.Fprintf(&sb, " LEFT JOIN %s %s", j.Path, j.Alias)
	}
	for _, j := range r.InnerJoins {
		fmt.Fprintf(&sb, " INNER JOIN %s %s", j.Path, j.Alias)
	}
	if len(r.Predicates) > 0 {
		parts := make([]string, len(r.Predicates))
		for i, p := range r.Predicates {
			parts[i] = p.String()
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}
	if len(r.GroupBys) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(r.GroupBys, ", "))
	}
	if len(r.Orders) > 0 {
		parts := make([]string, len(r.Orders))
		for i, o := range r.Orders {
			parts[i] = o.Field + " " + o.Direction.String()
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if r.MaxResults != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *r.MaxResults)
	}
	if r.FirstResult != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *r.FirstResult)
	}
	return sb.String()
}
