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

package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// TruncateTable removes every row of table. MySQL and Postgres use TRUNCATE,
// which fails on tables referenced by foreign keys; SQLite has no TRUNCATE and
// gets an unconditional DELETE.
func TruncateTable(ctx context.Context, db bun.IDB, table string) error {
	stmt := "TRUNCATE TABLE ?"
	if db.Dialect().Name() == dialect.SQLite {
		stmt = "DELETE FROM ?"
	}
	if _, err := db.ExecContext(ctx, stmt, bun.Ident(table)); err != nil {
		if is, kind := IsSqlError(err); is && kind == ForeignKeyViolationErr {
			return fmt.Errorf("truncate %s: table is referenced by foreign keys, delete rows instead: %w", table, err)
		}
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

// SetAutoIncrement makes n the next generated value of the pk column of table.
// On SQLite this only affects tables declared with AUTOINCREMENT.
func SetAutoIncrement(ctx context.Context, db bun.IDB, table, pk string, n int64) error {
	if n < 1 {
		return fmt.Errorf("auto increment must be positive, got %d", n)
	}
	var err error
	switch name := db.Dialect().Name(); name {
	case dialect.MySQL:
		_, err = db.ExecContext(ctx, "ALTER TABLE ? AUTO_INCREMENT = ?", bun.Ident(table), n)
	case dialect.PG:
		_, err = db.ExecContext(ctx, "SELECT setval(pg_get_serial_sequence(?, ?), ?, false)", table, pk, n)
	case dialect.SQLite:
		err = setSQLiteSequence(ctx, db, table, n-1)
	default:
		err = fmt.Errorf("unsupported dialect %s", name)
	}
	if err != nil {
		return fmt.Errorf("set auto increment of %s: %w", table, err)
	}
	return nil
}

func setSQLiteSequence(ctx context.Context, db bun.IDB, table string, seq int64) error {
	res, err := db.ExecContext(ctx, "UPDATE sqlite_sequence SET seq = ? WHERE name = ?", seq, table)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil || affected > 0 {
		return err
	}
	_, err = db.ExecContext(ctx, "INSERT INTO sqlite_sequence (name, seq) VALUES (?, ?)", table, seq)
	return err
}
