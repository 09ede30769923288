package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
	"fintrack/internal/table/csvfile"
)

func sampleTable() core.Table {
	return core.Table{
		{Date: core.NewDate(2024, 1, 1), Category: core.Salary, Type: core.Income, Amount: decimal.NewFromInt(1000)},
		{Date: core.NewDate(2024, 1, 2), Category: core.Food, Type: core.Expense, Amount: decimal.RequireFromString("50.5")},
	}
}

func TestWriteExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, sampleTable(), "csv"))

	got, err := csvfile.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.Salary, got[0].Category)
}

func TestWriteExportJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, sampleTable(), "json"))
	var rows []exportRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, exportRow{Date: "2024-01-02", Category: "Food", Type: "Expense", Amount: "50.50"}, rows[1])

	buf.Reset()
	require.NoError(t, WriteExport(&buf, sampleTable(), "YAML"))
	rows = nil
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "1000.00", rows[0].Amount)
	assert.Contains(t, buf.String(), `date: "2024-01-01"`)
}

func TestWriteExportEmptyAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, nil, "json"))
	assert.JSONEq(t, `[]`, buf.String())

	assert.Error(t, WriteExport(&buf, nil, "xml"))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, core.Summarize(sampleTable()), "₾"))
	out := buf.String()
	assert.Contains(t, out, "Total Income")
	assert.Contains(t, out, "949.50 ₾")
	assert.Contains(t, out, "Expenses by category")
}

func TestWriteRecordsNewestFirst(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, sampleTable(), "$"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2024-01-02"))
	assert.Contains(t, lines[2], "1000.00 $")
}

func TestDumpRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DumpRecords(&buf, sampleTable(), false))
	assert.Contains(t, buf.String(), "Salary")
	assert.NotContains(t, buf.String(), "\x1b[", "no color codes")
}
