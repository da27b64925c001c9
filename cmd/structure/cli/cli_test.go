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
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/structure/translation"
)

// setup seeds a SQLite file and writes a config pointing at it.
func setup(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	stem := filepath.Join(dir, "cli")
	sqldb, err := sql.Open(sqliteshim.ShimName, stem+".db")
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()
	for _, stmt := range []string{
		"CREATE TABLE articles (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, status TEXT NOT NULL)",
		"INSERT INTO articles (title, status) VALUES ('Go', 'active'), ('Bun', 'active'), ('Draft', 'draft')",
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	require.NoError(t, translation.EnsureSchema(ctx, db))
	tr := translation.NewTranslator(db, translation.Config{DefaultLocale: "en"})
	require.NoError(t, tr.Store(ctx, "articles", "fr", "2", "title", "Petit pain"))

	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`database:
  connection:
    type: sqlite
    dbname: `+stem+`
    max_open_conns: 1
log:
  level: error
`), 0o644))
	return config
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(VersionInfo{Version: "test", Commit: "abc"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	config := setup(t)
	out, err := run(t, "query", "articles", "--config", config,
		"--filter", "status=active", "--sort", "-title", "--limit", "1")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Go", rows[0]["title"])
}

func TestQueryCommandTranslates(t *testing.T) {
	config := setup(t)
	out, err := run(t, "query", "articles", "--config", config, "--like", "title=B%", "--locale", "fr")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Petit pain", rows[0]["title"])
}

func TestQueryCommandCriteriaFile(t *testing.T) {
	config := setup(t)
	file := filepath.Join(t.TempDir(), "criteria.yaml")
	require.NoError(t, os.WriteFile(file, []byte("conditions:\n  status: draft\nsort: [id]\n"), 0o644))

	out, err := run(t, "query", "articles", "--config", config, "--criteria", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"Draft"`)
	assert.NotContains(t, out, `"Bun"`)
}

func TestQueryDryRun(t *testing.T) {
	viper.Reset()
	out, err := run(t, "query", "Article", "--dry-run", "--columns", "status,name",
		"--filter", "status=active", "--sort", "name", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT entity FROM Article entity WHERE entity.status = :status ORDER BY entity.name ASC LIMIT 5")
	assert.Contains(t, out, `"status": "active"`)
}

func TestTruncateAndAutoIncrementCommands(t *testing.T) {
	config := setup(t)

	out, err := run(t, "truncate", "articles", "--config", config, "--reset-auto-increment")
	require.NoError(t, err)
	assert.Contains(t, out, "truncated articles")

	out, err = run(t, "auto-increment", "articles", "42", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, "articles auto increment set to 42")

	_, err = run(t, "auto-increment", "articles", "many", "--config", config)
	assert.Error(t, err)

	out, err = run(t, "query", "articles", "--config", config)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHealthAndVersion(t *testing.T) {
	config := setup(t)
	out, err := run(t, "health", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, `"healthy": true`)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "structure test (abc)")
}
