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
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tomoncle/structure/types"
)

type criteriaDocument struct {
	Conditions yaml.Node       `yaml:"conditions"`
	Sort       []yaml.Node     `yaml:"sort"`
	Limit      *int            `yaml:"limit"`
	Offset     *int            `yaml:"offset"`
	Extras     *extrasDocument `yaml:"extras"`
}

type extrasDocument struct {
	Selects    yaml.Node `yaml:"selects"`
	LeftJoins  yaml.Node `yaml:"leftJoins"`
	InnerJoins yaml.Node `yaml:"innerJoins"`
	Likes      yaml.Node `yaml:"likes"`
	GroupBys   []string  `yaml:"groupBys"`
}

// LoadCriteria reads criteria from a YAML document. Mappings keep their
// document order, so conditions and joins are applied as written:
//
//	conditions: {status: active}
//	sort: [name, {created_at: desc}]
//	limit: 5
//	extras:
//	  leftJoins: {category: c}
func LoadCriteria(r io.Reader) (Criteria, error) {
	var doc criteriaDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Criteria{}, fmt.Errorf("failed to decode criteria: %w", err)
	}

	var c Criteria
	err := eachPair(&doc.Conditions, func(k string, v *yaml.Node) error {
		var value any
		if err := v.Decode(&value); err != nil {
			return err
		}
		c.Conditions = append(c.Conditions, Condition{Field: k, Value: value})
		return nil
	})
	if err != nil {
		return Criteria{}, fmt.Errorf("conditions: %w", err)
	}

	for i := range doc.Sort {
		o, err := decodeOrder(&doc.Sort[i])
		if err != nil {
			return Criteria{}, fmt.Errorf("sort[%d]: %w", i, err)
		}
		c.Sort = append(c.Sort, o)
	}
	c.Window = Window{Limit: doc.Limit, Offset: doc.Offset}

	if doc.Extras != nil {
		extras, err := decodeExtras(doc.Extras)
		if err != nil {
			return Criteria{}, fmt.Errorf("extras: %w", err)
		}
		c.Extras = extras
	}
	return c, nil
}

func decodeOrder(n *yaml.Node) (Order, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return Order{Field: n.Value, Direction: types.Ascending}, nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return Order{}, fmt.Errorf("expected a single field: direction pair")
		}
		return Order{Field: n.Content[0].Value, Direction: types.ParseDirection(n.Content[1].Value)}, nil
	default:
		return Order{}, fmt.Errorf("unexpected node at line %d", n.Line)
	}
}

func decodeExtras(doc *extrasDocument) (*Extras, error) {
	e := &Extras{GroupBys: doc.GroupBys}
	if err := eachPair(&doc.Selects, func(k string, v *yaml.Node) error {
		e.Selects = append(e.Selects, Projection{Expr: k, Alias: v.Value})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("selects: %w", err)
	}
	if err := eachPair(&doc.LeftJoins, func(k string, v *yaml.Node) error {
		e.LeftJoins = append(e.LeftJoins, Join{Path: k, Alias: v.Value})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("leftJoins: %w", err)
	}
	if err := eachPair(&doc.InnerJoins, func(k string, v *yaml.Node) error {
		e.InnerJoins = append(e.InnerJoins, Join{Path: k, Alias: v.Value})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("innerJoins: %w", err)
	}
	if err := eachPair(&doc.Likes, func(k string, v *yaml.Node) error {
		e.Likes = append(e.Likes, Condition{Field: k, Value: v.Value})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("likes: %w", err)
	}
	return e, nil
}

// eachPair walks a mapping node in document order. An absent node is a no-op.
func eachPair(n *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping at line %d", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
