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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 1, PageCount(5, 0))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination[int](2, 10, 25, nil)
	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.HasPrevious)
	assert.True(t, p.HasNext)
	assert.NotNil(t, p.Items)

	empty := NewDefaultPagination[int](1, 20)
	assert.Equal(t, 1, empty.Pages)
	assert.False(t, empty.HasPrevious)
	assert.False(t, empty.HasNext)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, Descending, ParseDirection(" DESC "))
	assert.Equal(t, Ascending, ParseDirection("asc"))
	assert.Equal(t, Ascending, ParseDirection(""))
	assert.Equal(t, "DESC", Descending.String())
	assert.Equal(t, "asc", Ascending.Name())
	assert.False(t, Direction(7).IsValid())
	assert.Equal(t, IllegalValue, Direction(7).Number())
}
