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

	"github.com/tomoncle/structure/query/bunq"
)

// SliceAdapter pages over an in-memory slice.
type SliceAdapter[T any] []*T

func (a SliceAdapter[T]) NbResults(context.Context) (int, error) { return len(a), nil }

func (a SliceAdapter[T]) Slice(_ context.Context, offset, length int) ([]*T, error) {
	if offset >= len(a) {
		return []*T{}, nil
	}
	end := min(offset+length, len(a))
	return a[offset:end], nil
}

// BunAdapter pages over an assembled Bun query. Each call obtains a fresh
// builder from the factory, so counting and slicing never share state.
// The factory should not set a window; the adapter owns limit and offset.
type BunAdapter[T any] struct {
	factory func() *bunq.Builder
}

func NewBunAdapter[T any](factory func() *bunq.Builder) *BunAdapter[T] {
	return &BunAdapter[T]{factory: factory}
}

func (a *BunAdapter[T]) NbResults(ctx context.Context) (int, error) {
	return a.factory().Count(ctx)
}

func (a *BunAdapter[T]) Slice(ctx context.Context, offset, length int) ([]*T, error) {
	b := a.factory()
	b.SetMaxResults(length)
	b.SetFirstResult(offset)
	items := make([]*T, 0, length)
	if err := b.Scan(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
