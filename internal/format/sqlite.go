package format

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/normalize"
	"github.com/MKhiriev/lambda-search/models"
)

// systemTables is the denylist of SQLite internal bookkeeping tables that
// never carry user data and are excluded from counting, encryption, and
// preview.
var systemTables = map[string]struct{}{
	"sqlite_sequence": {},
	"sqlite_stat1":    {},
	"sqlite_stat3":    {},
	"sqlite_stat4":    {},
}

// sqliteHandler processes SQLite database files. Rows are addressed by the
// engine's implicit rowid; index records carry [models.SQLiteRowID] refs.
type sqliteHandler struct {
	path      string
	cipher    crypto.Cipher
	batchSize int
}

func newSQLiteHandler(path string, cipher crypto.Cipher, batchSize int) Handler {
	return &sqliteHandler{
		path:      path,
		cipher:    cipher,
		batchSize: batchSize,
	}
}

// Validate opens the file and probes the table catalog. A file that is not
// a readable SQLite database fails here with ErrInvalidFormat.
func (h *sqliteHandler) Validate(ctx context.Context) error {
	conn, err := sql.Open("sqlite3", h.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer conn.Close()

	if _, err := h.userTables(ctx, conn); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	return nil
}

// CountRows sums row counts across all user tables.
func (h *sqliteHandler) CountRows(ctx context.Context) (int64, error) {
	conn, err := sql.Open("sqlite3", h.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer conn.Close()

	tables, err := h.userTables(ctx, conn)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	var total int64
	for _, table := range tables {
		var count int64
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, quoteIdent(table))
		if err := conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return 0, fmt.Errorf("error counting rows of table %s: %w", table, err)
		}
		total += count
	}

	return total, nil
}

// Encrypt enumerates every user table, every row, every column. String
// cells are normalized, encrypted, rewritten in place keyed by rowid, and
// streamed to the sink; non-string cells pass through unmodified.
func (h *sqliteHandler) Encrypt(ctx context.Context, sink Sink, progress ProgressFunc) error {
	conn, err := sql.Open("sqlite3", h.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer conn.Close()

	tables, err := h.userTables(ctx, conn)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	buffer := newRecordBuffer(sink, h.batchSize)

	var processed int64
	for _, table := range tables {
		if err := h.encryptTable(ctx, conn, table, buffer, &processed, progress); err != nil {
			return err
		}
	}

	return buffer.close(ctx)
}

type sqliteRow struct {
	rowid int64
	cells []any
}

func (h *sqliteHandler) encryptTable(ctx context.Context, conn *sql.DB, table string, buffer *recordBuffer, processed *int64, progress ProgressFunc) error {
	columns, err := tableColumns(ctx, conn, table)
	if err != nil {
		return err
	}

	// The whole table is read up front so the update statements below do
	// not run against a live cursor on the same connection.
	rows, err := readTable(ctx, conn, table, len(columns))
	if err != nil {
		return err
	}

	setClauses := make([]string, len(columns))
	for i, column := range columns {
		setClauses[i] = quoteIdent(column) + " = ?"
	}
	updateQuery := fmt.Sprintf(
		`UPDATE %s SET %s WHERE rowid = ?;`,
		quoteIdent(table),
		strings.Join(setClauses, ", "),
	)

	for _, row := range rows {
		args := make([]any, 0, len(columns)+1)

		for i, cell := range row.cells {
			text, isText := cellText(cell)
			if !isText {
				args = append(args, cell)
				continue
			}

			encrypted, err := h.cipher.Encrypt(normalize.Value(text))
			if err != nil {
				return fmt.Errorf("error encrypting cell %s.%s: %w", table, columns[i], err)
			}

			addErr := buffer.add(ctx, models.IndexRecord{
				Row:        models.RowRef{Kind: models.SQLiteRowID, Value: row.rowid},
				ColumnName: columns[i],
				Value:      truncateValue(encrypted),
			})
			if addErr != nil {
				return addErr
			}

			args = append(args, encrypted)
		}

		args = append(args, row.rowid)
		if _, err := conn.ExecContext(ctx, updateQuery, args...); err != nil {
			return fmt.Errorf("error rewriting row %d of table %s: %w", row.rowid, table, err)
		}

		*processed++
		if progress != nil {
			progress(*processed)
		}
	}

	return nil
}

// ReadPreview returns, per user table, its column names and the first n
// rows rendered as strings. Works before and after encryption.
func (h *sqliteHandler) ReadPreview(ctx context.Context, n int) (map[string]Preview, error) {
	conn, err := sql.Open("sqlite3", h.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	defer conn.Close()

	tables, err := h.userTables(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	previews := make(map[string]Preview, len(tables))
	for _, table := range tables {
		columns, err := tableColumns(ctx, conn, table)
		if err != nil {
			return nil, err
		}

		query := fmt.Sprintf(`SELECT * FROM %s LIMIT ?;`, quoteIdent(table))
		rows, err := conn.QueryContext(ctx, query, n)
		if err != nil {
			return nil, fmt.Errorf("error reading table %s: %w", table, err)
		}

		preview := Preview{Columns: columns, Rows: [][]string{}}
		for rows.Next() {
			cells := make([]any, len(columns))
			ptrs := make([]any, len(columns))
			for i := range cells {
				ptrs[i] = &cells[i]
			}

			if err := rows.Scan(ptrs...); err != nil {
				rows.Close()
				return nil, fmt.Errorf("error scanning table %s: %w", table, err)
			}

			rendered := make([]string, len(cells))
			for i, cell := range cells {
				rendered[i] = renderCell(cell)
			}
			preview.Rows = append(preview.Rows, rendered)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error iterating table %s: %w", table, err)
		}
		rows.Close()

		previews[table] = preview
	}

	return previews, nil
}

// userTables lists all tables from the catalog, excluding the system
// denylist.
func (h *sqliteHandler) userTables(ctx context.Context, conn *sql.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table';`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]string, 0, 8)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		if _, system := systemTables[name]; system {
			continue
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func tableColumns(ctx context.Context, conn *sql.DB, table string) ([]string, error) {
	query := fmt.Sprintf(`PRAGMA table_info(%s);`, quoteIdent(table))
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error reading columns of table %s: %w", table, err)
	}
	defer rows.Close()

	columns := make([]string, 0, 8)
	for rows.Next() {
		var (
			cid        int
			name       string
			columnType string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultVal, &primaryKey); err != nil {
			return nil, fmt.Errorf("error scanning column info of table %s: %w", table, err)
		}
		columns = append(columns, name)
	}

	return columns, rows.Err()
}

func readTable(ctx context.Context, conn *sql.DB, table string, columnCount int) ([]sqliteRow, error) {
	query := fmt.Sprintf(`SELECT rowid, * FROM %s;`, quoteIdent(table))
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error reading table %s: %w", table, err)
	}
	defer rows.Close()

	result := make([]sqliteRow, 0, 64)
	for rows.Next() {
		row := sqliteRow{cells: make([]any, columnCount)}

		ptrs := make([]any, 0, columnCount+1)
		ptrs = append(ptrs, &row.rowid)
		for i := range row.cells {
			ptrs = append(ptrs, &row.cells[i])
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("error scanning row of table %s: %w", table, err)
		}

		result = append(result, row)
	}

	return result, rows.Err()
}

// cellText reports whether a scanned cell is string-typed and returns its
// text. The sqlite3 driver surfaces TEXT columns as either string or
// []byte depending on the declared column affinity.
func cellText(cell any) (string, bool) {
	switch v := cell.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

func renderCell(cell any) string {
	if cell == nil {
		return ""
	}

	if text, ok := cellText(cell); ok {
		return text
	}

	return fmt.Sprint(cell)
}

func truncateValue(value string) string {
	if len(value) > models.MaxValueLength {
		return value[:models.MaxValueLength]
	}
	return value
}

// quoteIdent wraps an identifier in double quotes, doubling any embedded
// quotes. Table and column names come from untrusted uploads and cannot be
// bound as statement parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
