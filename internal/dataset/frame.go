package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Kind is the inferred column type of a loaded CSV column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// SQLType maps a kind to a column type accepted by both sqlite and mysql.
func (k Kind) SQLType() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

type Column struct {
	Name string
	Kind Kind
}

// Frame is the in-memory view of the loaded dataset. Values are kept as
// strings; column kinds are inferred at load time. A frame is immutable after
// load; replacement happens wholesale through the store.
type Frame struct {
	Columns []Column
	Rows    [][]string
}

// LoadCSV reads the file into a frame. The first record names the columns.
// Empty cells in numeric columns are filled with zero, matching the
// drop-missing-values-to-zero load semantics of the dataset contract.
func LoadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv failed: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv failed: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty: %s", path)
	}

	header := records[0]
	columns := make([]Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("col_%d", i+1)
		}
		columns[i] = Column{Name: name, Kind: KindInteger}
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, len(columns))
		for i := range columns {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	for i := range columns {
		columns[i].Kind = inferKind(rows, i)
	}
	fillNumericZeros(columns, rows)

	return &Frame{Columns: columns, Rows: rows}, nil
}

// inferKind narrows from integer to float to text based on every non-empty
// value in the column. A column with no values at all stays text.
func inferKind(rows [][]string, col int) Kind {
	kind := KindInteger
	seen := false
	for _, row := range rows {
		value := row[col]
		if value == "" {
			continue
		}
		seen = true
		if kind == KindInteger {
			if _, err := strconv.ParseInt(value, 10, 64); err == nil {
				continue
			}
			kind = KindFloat
		}
		if kind == KindFloat {
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				continue
			}
			return KindText
		}
	}
	if !seen {
		return KindText
	}
	return kind
}

func fillNumericZeros(columns []Column, rows [][]string) {
	for i, col := range columns {
		if col.Kind == KindText {
			continue
		}
		for _, row := range rows {
			if row[i] == "" {
				row[i] = "0"
			}
		}
	}
}

func (f *Frame) RowCount() int {
	return len(f.Rows)
}

func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		names[i] = col.Name
	}
	return names
}

// SchemaDescription renders the table layout for an agent system prompt.
func (f *Frame) SchemaDescription(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", table)
	b.WriteString("Columns: ")
	for i, col := range f.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%s)", col.Name, col.Kind)
	}
	return b.String()
}

// SampleRows renders up to n rows as a header line plus comma-joined values.
func (f *Frame) SampleRows(n int) string {
	if n <= 0 || n > len(f.Rows) {
		n = len(f.Rows)
	}
	var b strings.Builder
	b.WriteString(strings.Join(f.ColumnNames(), ", "))
	for _, row := range f.Rows[:n] {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, ", "))
	}
	return b.String()
}
