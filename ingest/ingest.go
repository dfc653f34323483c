/*
Copyright (C) 2026  CAST Contributors

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

// Package ingest feeds a live SQL table straight into the CAST row
// pipeline: each result row is rendered as one CSV line (the format
// sampler/tokenizer already understand best) and written to an io.Writer,
// so the caller can hand the buffer straight to an Assembler without an
// intermediate dump file. Driver wiring and row-scanning shape follow the
// teacher's storage/mysql_import.go.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Driver names a supported database/sql driver.
type Driver string

const (
	MySQL    Driver = "mysql"
	Postgres Driver = "postgres"
)

// DSN builds a database/sql data source name for driver. Postgres DSNs are
// key=value pairs; MySQL DSNs follow go-sql-driver's user:pass@tcp(host:port)/db.
func DSN(driver Driver, host string, port int, user, password, database string) (string, error) {
	switch driver {
	case MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", user, password, host, port, database), nil
	case Postgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, database), nil
	default:
		return "", fmt.Errorf("ingest: unknown driver %q", driver)
	}
}

// Open connects to a database using driver and dsn, grounded on the
// teacher's openMySQL.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", driver, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ingest: ping %s: %w", driver, err)
	}
	return db, nil
}

// RowWriter is the sink StreamCSV writes encoded row bytes to — typically
// a bytes.Buffer that is later handed to block.Assembler.AddRow per line,
// or the raw input to container.Compress.
type RowWriter interface {
	Write(p []byte) (int, error)
}

// StreamCSV runs query against db and writes each result row as one
// comma-separated, LF-terminated line to w. Batching mirrors the
// teacher's mysqlCopyData: rows are scanned into a reusable buffer rather
// than materializing the whole result set up front.
func StreamCSV(ctx context.Context, db *sql.DB, query string, w RowWriter) (int64, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("ingest: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("ingest: columns: %w", err)
	}

	raw := make([]any, len(cols))
	rawPtrs := make([]any, len(cols))
	for i := range raw {
		rawPtrs[i] = &raw[i]
	}

	var n int64
	var line strings.Builder
	for rows.Next() {
		if err := rows.Scan(rawPtrs...); err != nil {
			return n, fmt.Errorf("ingest: scan: %w", err)
		}
		line.Reset()
		for i, v := range raw {
			if i > 0 {
				line.WriteByte(',')
			}
			writeCSVField(&line, v)
		}
		line.WriteByte('\n')
		if _, err := w.Write([]byte(line.String())); err != nil {
			return n, fmt.Errorf("ingest: write: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("ingest: rows: %w", err)
	}
	return n, nil
}

// writeCSVField appends v to b, quoting it per RFC 4180 when it contains
// a comma, quote, or newline.
func writeCSVField(b *strings.Builder, v any) {
	s := fieldString(v)
	if strings.ContainsAny(s, ",\"\n\r") {
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(s, `"`, `""`))
		b.WriteByte('"')
		return
	}
	b.WriteString(s)
}

func fieldString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
