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

package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomoncle/structure/types"
)

var (
	ErrNotValidMaxPerPage    = errors.New("pagination: max per page must be at least 1")
	ErrNotValidCurrentPage   = errors.New("pagination: current page must be at least 1")
	ErrOutOfRangeCurrentPage = errors.New("pagination: current page is out of range")
	ErrNoPreviousPage        = errors.New("pagination: there is no previous page")
	ErrNoNextPage            = errors.New("pagination: there is no next page")
)

// DefaultMaxPerPage is the page size of a new Pager.
const DefaultMaxPerPage = 10

// Adapter gives a Pager access to a result set.
type Adapter[T any] interface {
	NbResults(ctx context.Context) (int, error)
	Slice(ctx context.Context, offset, length int) ([]*T, error)
}

// Pager pages over an Adapter. It is not safe for concurrent use.
type Pager[T any] struct {
	adapter     Adapter[T]
	maxPerPage  int
	currentPage int

	allowOutOfRange     bool
	normalizeOutOfRange bool

	nbResults *int
	results   []*T
	loaded    bool
}

func NewPager[T any](adapter Adapter[T]) *Pager[T] {
	return &Pager[T]{adapter: adapter, maxPerPage: DefaultMaxPerPage, currentPage: 1}
}

func (p *Pager[T]) Adapter() Adapter[T] { return p.adapter }

func (p *Pager[T]) MaxPerPage() int { return p.maxPerPage }

// SetMaxPerPage changes the page size and resets cached results.
func (p *Pager[T]) SetMaxPerPage(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrNotValidMaxPerPage, n)
	}
	p.maxPerPage = n
	p.reset()
	return nil
}

func (p *Pager[T]) CurrentPage() int { return p.currentPage }

// SetCurrentPage selects a page. The upper bound is checked lazily, when the
// page is read.
func (p *Pager[T]) SetCurrentPage(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", ErrNotValidCurrentPage, page)
	}
	p.currentPage = page
	p.results, p.loaded = nil, false
	return nil
}

// SetAllowOutOfRange makes pages past the last one read as empty instead of
// failing with ErrOutOfRangeCurrentPage.
func (p *Pager[T]) SetAllowOutOfRange(allow bool) { p.allowOutOfRange = allow }

// SetNormalizeOutOfRange clamps pages past the last one to the last page.
func (p *Pager[T]) SetNormalizeOutOfRange(normalize bool) { p.normalizeOutOfRange = normalize }

// NbResults returns the total count, queried once per Pager.
func (p *Pager[T]) NbResults(ctx context.Context) (int, error) {
	if p.nbResults == nil {
		n, err := p.adapter.NbResults(ctx)
		if err != nil {
			return 0, err
		}
		p.nbResults = &n
	}
	return *p.nbResults, nil
}

// NbPages returns the page count; an empty result has one page.
func (p *Pager[T]) NbPages(ctx context.Context) (int, error) {
	n, err := p.NbResults(ctx)
	if err != nil {
		return 0, err
	}
	return types.PageCount(n, p.maxPerPage), nil
}

// CurrentPageResults loads the current page.
func (p *Pager[T]) CurrentPageResults(ctx context.Context) ([]*T, error) {
	if p.loaded {
		return p.results, nil
	}
	if err := p.checkRange(ctx); err != nil {
		return nil, err
	}
	results, err := p.adapter.Slice(ctx, p.CurrentPageOffset(), p.maxPerPage)
	if err != nil {
		return nil, err
	}
	p.results, p.loaded = results, true
	return results, nil
}

// CurrentPageOffset is the zero-based offset of the first row of the page.
func (p *Pager[T]) CurrentPageOffset() int {
	return (p.currentPage - 1) * p.maxPerPage
}

func (p *Pager[T]) HasPreviousPage() bool { return p.currentPage > 1 }

func (p *Pager[T]) PreviousPage() (int, error) {
	if !p.HasPreviousPage() {
		return 0, ErrNoPreviousPage
	}
	return p.currentPage - 1, nil
}

func (p *Pager[T]) HasNextPage(ctx context.Context) (bool, error) {
	pages, err := p.NbPages(ctx)
	if err != nil {
		return false, err
	}
	return p.currentPage < pages, nil
}

func (p *Pager[T]) NextPage(ctx context.Context) (int, error) {
	ok, err := p.HasNextPage(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNoNextPage
	}
	return p.currentPage + 1, nil
}

// ToPagination loads the current page into a types.Pagination.
func (p *Pager[T]) ToPagination(ctx context.Context) (*types.Pagination[T], error) {
	items, err := p.CurrentPageResults(ctx)
	if err != nil {
		return nil, err
	}
	total, err := p.NbResults(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewPagination(p.currentPage, p.maxPerPage, total, items), nil
}

func (p *Pager[T]) checkRange(ctx context.Context) error {
	if p.currentPage == 1 || p.allowOutOfRange && !p.normalizeOutOfRange {
		return nil
	}
	pages, err := p.NbPages(ctx)
	if err != nil {
		return err
	}
	if p.currentPage <= pages {
		return nil
	}
	switch {
	case p.normalizeOutOfRange:
		p.currentPage = pages
		return nil
	case p.allowOutOfRange:
		return nil
	}
	return fmt.Errorf("%w: page %d of %d", ErrOutOfRangeCurrentPage, p.currentPage, pages)
}

func (p *Pager[T]) reset() {
	p.results, p.loaded = nil, false
}
