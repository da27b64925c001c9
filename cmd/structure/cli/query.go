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

package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/tomoncle/structure/database"
	"github.com/tomoncle/structure/query"
	"github.com/tomoncle/structure/query/bunq"
	"github.com/tomoncle/structure/translation"
)

type queryOptions struct {
	alias    string
	criteria string
	filters  map[string]string
	likes    map[string]string
	sort     string
	limit    int
	offset   int
	columns  []string
	locale   string
	pk       string
	dryRun   bool
}

func newQueryCommand() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query TABLE",
		Short: "Run criteria against a table and print the rows as JSON",
		Long: `Run criteria against a table and print the rows as JSON.

Bare field names refer to the table (alias "entity" unless --alias is set).
Criteria from --criteria are applied first, then the flags are appended.`,
		Example: `  structure query articles --filter status=active --sort -created_at --limit 10
  structure query articles --criteria recent.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.build()
			if err != nil {
				return err
			}
			if opts.dryRun {
				rec := query.Assemble(query.NewRecorder(args[0], opts.alias, opts.columns...), c)
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), rec.DQL()); err != nil {
					return err
				}
				return writeJSON(cmd, rec.Parameters())
			}

			cfg, err := connect()
			if err != nil {
				return err
			}
			rows, err := runQuery(cmd.Context(), database.GetDB(), args[0], opts, c)
			if err != nil {
				return err
			}
			if opts.locale != "" {
				tr := translation.NewTranslator(database.GetDB(), cfg.Translation).
					WithCache(translation.NewCache(cmd.Context(), cfg.Translation))
				if err := tr.ApplyRows(cmd.Context(), args[0], opts.locale, opts.pk, rows); err != nil {
					return err
				}
			}
			return writeJSON(cmd, rows)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.alias, "alias", "", "root alias (default \"entity\")")
	f.StringVar(&opts.criteria, "criteria", "", "YAML criteria file")
	f.StringToStringVar(&opts.filters, "filter", nil, "equality filter field=value (repeatable)")
	f.StringToStringVar(&opts.likes, "like", nil, "LIKE filter field=pattern (repeatable)")
	f.StringVar(&opts.sort, "sort", "", "comma separated sort fields, '-' prefix for descending")
	f.IntVar(&opts.limit, "limit", -1, "maximum number of rows")
	f.IntVar(&opts.offset, "offset", -1, "number of rows to skip")
	f.StringSliceVar(&opts.columns, "columns", nil, "root columns for --dry-run (discovered from the table otherwise)")
	f.StringVar(&opts.locale, "locale", "", "overlay translations for this locale")
	f.StringVar(&opts.pk, "pk", "id", "primary key column used to match translations")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the assembled query instead of running it")
	return cmd
}

func (o *queryOptions) build() (query.Criteria, error) {
	var c query.Criteria
	if o.criteria != "" {
		file, err := os.Open(o.criteria)
		if err != nil {
			return c, err
		}
		defer file.Close()
		if c, err = query.LoadCriteria(file); err != nil {
			return c, fmt.Errorf("%s: %w", o.criteria, err)
		}
	}

	for _, field := range sortedKeys(o.filters) {
		c.Conditions = c.Conditions.And(field, o.filters[field])
	}
	if len(o.likes) > 0 {
		if c.Extras == nil {
			c.Extras = &query.Extras{}
		}
		for _, field := range sortedKeys(o.likes) {
			c.Extras.Likes = append(c.Extras.Likes, query.Condition{Field: field, Value: o.likes[field]})
		}
	}
	if o.sort != "" {
		c.Sort = append(c.Sort, query.ParseSort(o.sort)...)
	}
	if o.limit >= 0 {
		c.Window.Limit = &o.limit
	}
	if o.offset >= 0 {
		c.Window.Offset = &o.offset
	}
	return c, nil
}

func runQuery(ctx context.Context, db *bun.DB, table string, o *queryOptions, c query.Criteria) ([]map[string]interface{}, error) {
	columns, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	b := query.Assemble(bunq.NewTable(db, table, o.alias, columns), c)
	if err := b.Err(); err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0)
	if err := b.Query().Scan(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		for k, v := range row {
			if raw, ok := v.([]byte); ok {
				row[k] = string(raw)
			}
		}
	}
	return rows, nil
}

func tableColumns(ctx context.Context, db *bun.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM ? WHERE 1 = 0", bun.Ident(table))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	return rows.Columns()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
