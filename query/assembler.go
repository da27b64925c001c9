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
)

// DefaultRootAlias is the alias used for the root entity when a builder has
// no alias of its own.
const DefaultRootAlias = "entity"

// Assemble applies c to b and returns b. Stages run in a fixed order since
// later stages may reference aliases introduced by earlier ones:
// projections, left joins, inner joins, LIKE filters, group-bys, equality
// filters, sort terms, then limit and offset.
//
// Nothing is validated; malformed references surface when the query runs.
func Assemble[B Builder](b B, c Criteria) B {
	a := &assembly{
		root:   b.RootAlias(),
		extras: c.Extras,
		params: make(map[string]bool),
	}
	if c.Extras != nil {
		a.applyExtras(b)
	}
	a.applyConditions(b, c.Conditions)
	a.applySort(b, c.Sort)
	if c.Window.Limit != nil {
		b.SetMaxResults(*c.Window.Limit)
	}
	if c.Window.Offset != nil {
		b.SetFirstResult(*c.Window.Offset)
	}
	return b
}

type assembly struct {
	root   string
	extras *Extras
	params map[string]bool
}

func (a *assembly) applyExtras(b Builder) {
	e := a.extras
	for _, p := range e.Selects {
		b.AddSelect(a.qualify(p.Expr), p.Alias)
	}
	for _, j := range e.LeftJoins {
		b.LeftJoin(a.qualify(j.Path), j.Alias)
	}
	for _, j := range e.InnerJoins {
		b.InnerJoin(a.qualify(j.Path), j.Alias)
	}
	for _, like := range e.Likes {
		field := a.qualifyUnlessAliased(like.Field)
		b.AndWhere(Predicate{
			Field:    field,
			Operator: OpLike,
			Param:    a.param(like.Field),
			Value:    like.Value,
		})
	}
	for _, g := range e.GroupBys {
		b.AddGroupBy(a.qualifyUnlessAliased(g))
	}
}

func (a *assembly) applyConditions(b Builder, conditions Conditions) {
	for _, c := range conditions {
		field := c.Field
		if !isPath(field) && b.HasProperty(field) {
			field = a.root + "." + field
		}
		b.AndWhere(Predicate{
			Field:    field,
			Operator: OpEq,
			Param:    a.param(c.Field),
			Value:    c.Value,
		})
	}
}

func (a *assembly) applySort(b Builder, s Sort) {
	for _, o := range s {
		b.AddOrderBy(a.qualify(o.Field), o.Direction)
	}
}

func (a *assembly) qualify(ref string) string {
	if isPath(ref) {
		return ref
	}
	return a.root + "." + ref
}

// qualifyUnlessAliased keeps a bare reference verbatim when it names a
// projection alias.
func (a *assembly) qualifyUnlessAliased(ref string) string {
	if !isPath(ref) && a.extras.isProjectionAlias(ref) {
		return ref
	}
	return a.qualify(ref)
}

// param returns the parameter name derived from field. A name already taken
// by an earlier predicate gets a numeric suffix so no bound value is lost.
func (a *assembly) param(field string) string {
	base := ParamName(field)
	name := base
	for i := 2; a.params[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	a.params[name] = true
	return name
}

func isPath(ref string) bool {
	return strings.Contains(ref, ".")
}
