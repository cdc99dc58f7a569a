package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultSQLiteTable = "orders"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads every row of one table. The database is opened
// query-only.
type SQLiteSource struct {
	path  string
	table string
}

func NewSQLiteSource(path, table string) (*SQLiteSource, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite dataset path cannot be empty")
	}
	if table == "" {
		table = defaultSQLiteTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid sqlite table name %q", table)
	}
	return &SQLiteSource{path: path, table: table}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite://" + s.path + "?table=" + s.table }

func (s *SQLiteSource) ModTime(ctx context.Context) (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s *SQLiteSource) Records(ctx context.Context) (RecordReader, error) {
	// sql.Open would create a missing file.
	if _, err := os.Stat(s.path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+s.table+`"`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("select %s: %w", s.table, err)
	}

	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = db.Close()
		return nil, fmt.Errorf("columns: %w", err)
	}

	return &sqlRecords{db: db, rows: rows, columns: columns}, nil
}

type sqlRecords struct {
	db         *sql.DB
	rows       *sql.Rows
	columns    []string
	headerSent bool
}

func (r *sqlRecords) Read() ([]string, error) {
	if !r.headerSent {
		r.headerSent = true
		return r.columns, nil
	}

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	values := make([]any, len(r.columns))
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	record := make([]string, len(values))
	for i, v := range values {
		record[i] = sqlValueString(v)
	}
	return record, nil
}

func (r *sqlRecords) Close() error {
	_ = r.rows.Close()
	return r.db.Close()
}

func sqlValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
