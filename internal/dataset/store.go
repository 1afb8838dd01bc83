package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm"
)

const insertBatchSize = 200

// Store owns the current frame and its relational mirror: a single table that
// is dropped and rebuilt from scratch on every load. Readers always get a
// complete frame handle; the swap happens under the lock after the mirror is
// rebuilt.
type Store struct {
	db    *gorm.DB
	table string

	mu      sync.RWMutex
	frame   *Frame
	csvPath string
}

func NewStore(db *gorm.DB, table string) *Store {
	if table == "" {
		table = "dataset_rows"
	}
	return &Store{db: db, table: table}
}

// Reload loads the CSV and replaces the mirror table wholesale. Returns the
// number of rows loaded. A failed load leaves the previous frame in place.
func (s *Store) Reload(ctx context.Context, csvPath string) (int, error) {
	frame, err := LoadCSV(csvPath)
	if err != nil {
		return 0, err
	}
	if len(frame.Columns) == 0 {
		return 0, fmt.Errorf("csv has no columns: %s", csvPath)
	}

	if err := s.rebuildMirror(ctx, frame); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.frame = frame
	s.csvPath = csvPath
	s.mu.Unlock()

	return frame.RowCount(), nil
}

func (s *Store) rebuildMirror(ctx context.Context, frame *Frame) error {
	db := s.db.WithContext(ctx)

	if err := db.Exec("DROP TABLE IF EXISTS " + quoteIdent(s.table)).Error; err != nil {
		return fmt.Errorf("drop mirror table failed: %w", err)
	}

	cols := make([]string, len(frame.Columns))
	for i, col := range frame.Columns {
		cols[i] = quoteIdent(col.Name) + " " + col.Kind.SQLType()
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(s.table), strings.Join(cols, ", "))
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("create mirror table failed: %w", err)
	}

	names := make([]string, len(frame.Columns))
	for i, col := range frame.Columns {
		names[i] = quoteIdent(col.Name)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(s.table), strings.Join(names, ", "))

	for start := 0; start < len(frame.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(frame.Rows) {
			end = len(frame.Rows)
		}

		var (
			placeholders []string
			args         []interface{}
		)
		for _, row := range frame.Rows[start:end] {
			marks := make([]string, len(frame.Columns))
			for i, col := range frame.Columns {
				marks[i] = "?"
				args = append(args, typedValue(col.Kind, row[i]))
			}
			placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
		}

		if err := db.Exec(prefix+strings.Join(placeholders, ", "), args...).Error; err != nil {
			return fmt.Errorf("insert mirror rows failed: %w", err)
		}
	}

	return nil
}

func typedValue(kind Kind, raw string) interface{} {
	switch kind {
	case KindInteger:
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	case KindFloat:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return raw
}

// Frame returns the current frame handle, or nil before the first load.
func (s *Store) Frame() *Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

func (s *Store) TableName() string {
	return s.table
}

func (s *Store) CSVPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csvPath
}

// SchemaDescription describes the mirror for agent prompts.
func (s *Store) SchemaDescription() string {
	frame := s.Frame()
	if frame == nil {
		return "Table: " + s.table + "\nColumns: (not loaded)"
	}
	return frame.SchemaDescription(s.table)
}

// Query runs a read-only statement against the mirror and renders at most
// maxRows rows as text. Anything but a SELECT (or WITH ... SELECT) is
// rejected before reaching the database.
func (s *Store) Query(ctx context.Context, query string, maxRows int) (string, error) {
	if err := checkReadOnly(query); err != nil {
		return "", err
	}
	if maxRows <= 0 {
		maxRows = 30
	}

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("read result columns failed: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(columns, ", "))

	count := 0
	for rows.Next() && count < maxRows {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("scan result row failed: %w", err)
		}

		rendered := make([]string, len(values))
		for i, v := range values {
			rendered[i] = renderValue(v)
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(rendered, ", "))
		count++
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate result rows failed: %w", err)
	}
	if count == 0 {
		b.WriteString("\n(no rows)")
	}
	return b.String(), nil
}

var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop", "create", "alter", "truncate",
	"replace", "attach", "pragma", "grant", "revoke",
}

func checkReadOnly(query string) error {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(trimmed, "select") && !strings.HasPrefix(trimmed, "with") {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	for _, kw := range forbiddenKeywords {
		if containsKeyword(trimmed, kw) {
			return fmt.Errorf("statement contains forbidden keyword: %s", kw)
		}
	}
	return nil
}

// containsKeyword matches kw as a whole word outside of string literals.
func containsKeyword(query, kw string) bool {
	inString := false
	for i := 0; i+len(kw) <= len(query); i++ {
		if query[i] == '\'' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if query[i:i+len(kw)] != kw {
			continue
		}
		beforeOK := i == 0 || !isWordByte(query[i-1])
		afterOK := i+len(kw) == len(query) || !isWordByte(query[i+len(kw)])
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// quoteIdent uses backticks, accepted by both mysql and sqlite.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}

func renderValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(value)
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return fmt.Sprintf("%v", value)
	}
}
