package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/table"
)

// Header names written by the Georgian edition of the dashboard, mapped to
// the canonical column names.
var headerAliases = map[string]string{
	"თარიღი":    "date",
	"კატეგორია": "category",
	"ტიპი":      "type",
	"თანხა":     "amount",
}

const utf8BOM = "\ufeff"

// Encode writes the header and one row per record.
func Encode(w io.Writer, t core.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range t {
		row := []string{r.Date.String(), string(r.Category), string(r.Type), r.Amount.String()}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a table written by Encode. Columns are matched by header name,
// so their order does not matter. An empty input or a header with no rows is
// an empty table. Any row that cannot be parsed fails the whole decode.
func Decode(r io.Reader) (core.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	out := core.Table{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", table.ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", table.ErrMalformedRow, line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(table.Columns))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, c := range table.Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (header=%v)", table.ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (core.Record, error) {
	get := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", fmt.Errorf("missing %s field", col)
		}
		return strings.TrimSpace(row[i]), nil
	}

	var rec core.Record
	v, err := get("date")
	if err != nil {
		return rec, err
	}
	if rec.Date, err = core.ParseDate(v); err != nil {
		return rec, err
	}
	if v, err = get("category"); err != nil {
		return rec, err
	}
	if rec.Category, err = core.ParseCategory(v); err != nil {
		return rec, err
	}
	if v, err = get("type"); err != nil {
		return rec, err
	}
	if rec.Type, err = core.ParseRecordType(v); err != nil {
		return rec, err
	}
	if v, err = get("amount"); err != nil {
		return rec, err
	}
	if rec.Amount, err = decimal.NewFromString(v); err != nil {
		return rec, fmt.Errorf("%w: %q", core.ErrInvalidAmount, v)
	}
	return rec, nil
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
