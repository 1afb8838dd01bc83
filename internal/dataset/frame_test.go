package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV_InfersColumnKinds(t *testing.T) {
	frame, err := LoadCSV(writeCSV(t, "name,age,score\nAlice,30,91.5\nBob,25,88\n"))
	require.NoError(t, err)

	require.Len(t, frame.Columns, 3)
	assert.Equal(t, KindText, frame.Columns[0].Kind)
	assert.Equal(t, KindInteger, frame.Columns[1].Kind)
	assert.Equal(t, KindFloat, frame.Columns[2].Kind)
	assert.Equal(t, 2, frame.RowCount())
}

func TestLoadCSV_MixedNumericNarrowsToText(t *testing.T) {
	frame, err := LoadCSV(writeCSV(t, "code\n12\nabc\n"))
	require.NoError(t, err)
	assert.Equal(t, KindText, frame.Columns[0].Kind)
}

func TestLoadCSV_FillsMissingNumericWithZero(t *testing.T) {
	frame, err := LoadCSV(writeCSV(t, "name,salary\nAlice,70000\nBob,\n"))
	require.NoError(t, err)

	assert.Equal(t, KindInteger, frame.Columns[1].Kind)
	assert.Equal(t, "0", frame.Rows[1][1])
	// Text gaps stay empty.
	frame, err = LoadCSV(writeCSV(t, "name,city\nAlice,Paris\nBob,\n"))
	require.NoError(t, err)
	assert.Equal(t, "", frame.Rows[1][1])
}

func TestLoadCSV_ShortRecordsPadded(t *testing.T) {
	frame, err := LoadCSV(writeCSV(t, "a,b,c\n1,2,3\n4,5\n"))
	require.NoError(t, err)

	require.Equal(t, 2, frame.RowCount())
	assert.Equal(t, "0", frame.Rows[1][2])
}

func TestLoadCSV_BlankHeaderGetsPositionalName(t *testing.T) {
	frame, err := LoadCSV(writeCSV(t, "name,,salary\nAlice,x,70000\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "col_2", "salary"}, frame.ColumnNames())
}

func TestLoadCSV_EmptyFile(t *testing.T) {
	_, err := LoadCSV(writeCSV(t, ""))
	assert.Error(t, err)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestFrame_SchemaDescription(t *testing.T) {
	frame, err := LoadCSV(writeCSV(t, "name,age\nAlice,30\n"))
	require.NoError(t, err)

	desc := frame.SchemaDescription("dataset_rows")
	assert.Equal(t, "Table: dataset_rows\nColumns: name (text), age (integer)", desc)
}

func TestFrame_SampleRows(t *testing.T) {
	frame, err := LoadCSV(writeCSV(t, "name,age\nAlice,30\nBob,25\nCarol,41\n"))
	require.NoError(t, err)

	out := frame.SampleRows(2)
	assert.Equal(t, "name, age\nAlice, 30\nBob, 25", out)

	// n beyond the row count clamps to everything.
	out = frame.SampleRows(10)
	assert.Contains(t, out, "Carol, 41")
}
