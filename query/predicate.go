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
	"regexp"
	"strings"
)

// Operator is the comparison used by a predicate.
type Operator string

const (
	OpEq   Operator = "="
	OpLike Operator = "LIKE"
)

// Predicate is one conjunctive condition with a bound parameter.
type Predicate struct {
	Field    string
	Operator Operator
	Param    string
	Value    any
}

// String renders the predicate as "field OP :param".
func (p Predicate) String() string {
	return p.Field + " " + string(p.Operator) + " :" + p.Param
}

// ParamName derives a bound parameter name from a field reference.
func ParamName(field string) string {
	return strings.ReplaceAll(field, ".", "_")
}

var fieldRef = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// IsFieldRef reports whether ref is a bare property or a single
// "alias.property" path. Builders pass any other reference through as a raw
// expression, so untrusted input must be checked with it first.
func IsFieldRef(ref string) bool {
	return fieldRef.MatchString(ref)
}
