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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/structure/database"
)

// Translation is one translated field value of one entity.
type Translation struct {
	bun.BaseModel `bun:"table:ext_translations,alias:trans"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Locale      string `bun:"locale,notnull" json:"locale"`
	ObjectClass string `bun:"object_class,notnull" json:"object_class"`
	Field       string `bun:"field,notnull" json:"field"`
	ForeignKey  string `bun:"foreign_key,notnull" json:"foreign_key"`
	Content     string `bun:"content" json:"content"`
}

// Classifier overrides the object class a model is translated under.
type Classifier interface {
	TranslationClass() string
}

// ClassOf returns the object class for rows of table.
func ClassOf(table *schema.Table) string {
	if c, ok := reflectZero(table).(Classifier); ok {
		return c.TranslationClass()
	}
	return table.Name
}

// EnsureSchema creates the translation table and its lookup index.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().Model((*Translation)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create %s: %w", DefaultTable, err)
	}
	_, err := db.NewCreateIndex().
		Model((*Translation)(nil)).
		Index("ext_translations_lookup_idx").
		Unique().
		IfNotExists().
		Column("locale", "object_class", "field", "foreign_key").
		Exec(ctx)
	if is, kind := database.IsSqlError(err); err != nil && !(is && kind == database.ExistIndexErr) {
		return fmt.Errorf("create %s index: %w", DefaultTable, err)
	}
	return nil
}
