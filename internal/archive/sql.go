/*
Copyright (C) 2023, 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package archive

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func init() {
	Register("mysql", newSQLSink("mysql"))
	Register("postgres", newSQLSink("postgres"))
}

// SQLSink writes each evicted command as one row in a flat audit table.
// Grounded on storage/mysql_import.go's use of database/sql with a
// blank-imported driver; cmdlogd writes instead of reads, and supports
// Postgres too via lib/pq under the same table shape.
type SQLSink struct {
	db     *sql.DB
	table  string
	driver string
}

func newSQLSink(driver string) Factory {
	return func(cfg map[string]string) (Sink, error) {
		dsn := cfg["dsn"]
		if dsn == "" {
			return nil, fmt.Errorf("cmdlogd: %s archive sink requires \"dsn\"", driver)
		}
		table := cfg["table"]
		if table == "" {
			table = "cmdlogd_archive"
		}
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("cmdlogd: open %s: %w", driver, err)
		}
		s := &SQLSink{db: db, table: table, driver: driver}
		if err := s.ensureTable(context.Background(), driver); err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	}
}

func (s *SQLSink) ensureTable(ctx context.Context, driver string) error {
	var ddl string
	switch driver {
	case "postgres":
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGINT PRIMARY KEY,
			archive_key TEXT NOT NULL,
			evicted_at TIMESTAMP NOT NULL,
			payload BYTEA NOT NULL
		)`, s.table)
	default: // mysql
		ddl = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
			"seq BIGINT PRIMARY KEY, "+
			"archive_key VARCHAR(36) NOT NULL, "+
			"evicted_at DATETIME NOT NULL, "+
			"payload LONGBLOB NOT NULL)", s.table)
	}
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		return fmt.Errorf("cmdlogd: create archive table: %w", err)
	}
	return nil
}

func (s *SQLSink) Store(ctx context.Context, e Entry) error {
	placeholders := "?, ?, ?, ?"
	if s.driver == "postgres" {
		placeholders = "$1, $2, $3, $4"
	}
	query := fmt.Sprintf("INSERT INTO %s (seq, archive_key, evicted_at, payload) VALUES (%s)", s.table, placeholders)
	_, err := s.db.ExecContext(ctx, query, e.Seq, e.Key.String(), e.EvictedAt, e.Payload)
	if err != nil {
		return fmt.Errorf("cmdlogd: insert archive row: %w", err)
	}
	return nil
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}
