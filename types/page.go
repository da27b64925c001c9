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

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	Total       int  `json:"total"`
	Pages       int  `json:"pages"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
	Items       []*T `json:"items"`
}

// NewPagination builds a pagination container and derives the page count
// and the previous/next flags from total and pageSize.
func NewPagination[T any](page, pageSize, total int, items []*T) *Pagination[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	pages := PageCount(total, pageSize)
	return &Pagination[T]{
		Page:        page,
		PageSize:    pageSize,
		Total:       total,
		Pages:       pages,
		HasPrevious: page > 1,
		HasNext:     page < pages,
		Items:       items,
	}
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return NewPagination[T](page, pageSize, 0, nil)
}

// PageCount returns the number of pages needed for total items; an empty
// result still has one page.
func PageCount(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
