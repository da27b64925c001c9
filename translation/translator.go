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

package translation

import (
	"context"
	"fmt"
	"hash/fnv"
	"reflect"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/structure/utils"
)

var log = utils.NewLogger("TRANSLATION")

// Index maps foreign key to field to translated content.
type Index map[string]map[string]string

// Translator loads translations and overlays them on query results.
type Translator struct {
	db    bun.IDB
	cfg   Config
	cache Cache
}

// NewTranslator returns a Translator without a cache; see WithCache.
func NewTranslator(db bun.IDB, cfg Config) *Translator {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Translator{db: db, cfg: cfg}
}

func (t *Translator) WithCache(cache Cache) *Translator {
	t.cache = cache
	return t
}

func (t *Translator) Config() Config { return t.cfg }

// Locale resolves an empty locale to the configured default.
func (t *Translator) Locale(locale string) string {
	if locale == "" {
		return t.cfg.DefaultLocale
	}
	return locale
}

// IsDefault reports whether locale needs no overlay.
func (t *Translator) IsDefault(locale string) bool {
	return t.Locale(locale) == t.cfg.DefaultLocale
}

// Lookup returns the translations of class in locale for the given foreign keys.
func (t *Translator) Lookup(ctx context.Context, class, locale string, keys []string) (Index, error) {
	index := Index{}
	if len(keys) == 0 {
		return index, nil
	}
	keys = uniqueSorted(keys)
	cacheKey := lookupKey(class, locale, keys)
	if t.cache != nil {
		found, err := t.cache.Get(ctx, cacheKey, &index)
		if err != nil {
			log.WithError(err).WithField("key", cacheKey).Warn("translation cache read failed")
		} else if found {
			return index, nil
		}
	}

	var rows []Translation
	err := t.db.NewSelect().
		Model(&rows).
		Where("locale = ?", locale).
		Where("object_class = ?", class).
		Where("foreign_key IN (?)", bun.In(keys)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s translations: %w", class, err)
	}
	for _, row := range rows {
		fields, ok := index[row.ForeignKey]
		if !ok {
			fields = map[string]string{}
			index[row.ForeignKey] = fields
		}
		fields[row.Field] = row.Content
	}
	log.WithFields(map[string]interface{}{"class": class, "locale": locale, "keys": len(keys), "rows": len(rows)}).
		Debug("translations loaded")

	if t.cache != nil {
		if err := t.cache.Set(ctx, cacheKey, index, t.cfg.CacheTTL); err != nil {
			log.WithError(err).WithField("key", cacheKey).Warn("translation cache write failed")
		}
	}
	return index, nil
}

// Store writes one translation, replacing any previous content. Cached
// lookups keep the old value until they expire.
func (t *Translator) Store(ctx context.Context, class, locale, foreignKey, field, content string) error {
	return t.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*Translation)(nil)).
			Where("locale = ?", locale).
			Where("object_class = ?", class).
			Where("field = ?", field).
			Where("foreign_key = ?", foreignKey).
			Exec(ctx)
		if err != nil {
			return err
		}
		_, err = tx.NewInsert().Model(&Translation{
			Locale:      locale,
			ObjectClass: class,
			Field:       field,
			ForeignKey:  foreignKey,
			Content:     content,
		}).Exec(ctx)
		return err
	})
}

// Apply overlays translations in locale onto items in place.
func Apply[T any](ctx context.Context, t *Translator, locale string, items []*T) error {
	if len(items) == 0 || t.IsDefault(locale) {
		return nil
	}
	table := t.db.Dialect().Tables().Get(reflectType[T]())
	if len(table.PKs) != 1 {
		return fmt.Errorf("translate %s: need exactly one primary key, got %d", table.Name, len(table.PKs))
	}
	pk := table.PKs[0]

	keys := make([]string, 0, len(items))
	for _, item := range items {
		if item != nil {
			keys = append(keys, fmt.Sprint(reflect.ValueOf(item).Elem().FieldByIndex(pk.Index).Interface()))
		}
	}
	index, err := t.Lookup(ctx, ClassOf(table), t.Locale(locale), keys)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		strct := reflect.ValueOf(item).Elem()
		for name, content := range index[fmt.Sprint(strct.FieldByIndex(pk.Index).Interface())] {
			if f := fieldOf(table, name); f != nil {
				setString(strct.FieldByIndex(f.Index), content)
			}
		}
	}
	return nil
}

// ApplyRows overlays translations onto column maps keyed by SQL name. Only
// columns already present in a row are replaced.
func (t *Translator) ApplyRows(ctx context.Context, class, locale, pk string, rows []map[string]interface{}) error {
	if len(rows) == 0 || t.IsDefault(locale) {
		return nil
	}
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[pk]; ok && v != nil {
			keys = append(keys, fmt.Sprint(v))
		}
	}
	index, err := t.Lookup(ctx, class, t.Locale(locale), keys)
	if err != nil {
		return err
	}
	for _, row := range rows {
		v, ok := row[pk]
		if !ok || v == nil {
			continue
		}
		for field, content := range index[fmt.Sprint(v)] {
			if _, present := row[field]; present {
				row[field] = content
			}
		}
	}
	return nil
}

func fieldOf(table *schema.Table, name string) *schema.Field {
	if f, ok := table.FieldMap[name]; ok {
		return f
	}
	for _, f := range table.Fields {
		if strings.EqualFold(f.GoName, name) {
			return f
		}
	}
	return nil
}

func setString(v reflect.Value, s string) {
	switch {
	case v.Kind() == reflect.String:
		v.SetString(s)
	case v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.String:
		v.Set(reflect.ValueOf(&s).Convert(v.Type()))
	}
}

func reflectZero(table *schema.Table) interface{} {
	return reflect.New(table.Type).Interface()
}

func uniqueSorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i == 0 || k != out[n-1] {
			out[n] = k
			n++
		}
	}
	return out[:n]
}

func lookupKey(class, locale string, keys []string) string {
	h := fnv.New64a()
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("translation:%s:%s:%x", class, locale, h.Sum64())
}

func reflectType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
