package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/k0kubun/pp/v3"
	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
	"fintrack/internal/table/csvfile"
)

// Export formats accepted by WriteExport.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// exportRow is the text form of a record in json and yaml exports.
type exportRow struct {
	Date     string `json:"date" yaml:"date"`
	Category string `json:"category" yaml:"category"`
	Type     string `json:"type" yaml:"type"`
	Amount   string `json:"amount" yaml:"amount"`
}

func toExportRows(t core.Table) []exportRow {
	rows := make([]exportRow, 0, len(t))
	for _, r := range t {
		rows = append(rows, exportRow{
			Date:     r.Date.String(),
			Category: string(r.Category),
			Type:     string(r.Type),
			Amount:   r.Amount.StringFixed(2),
		})
	}
	return rows
}

// WriteExport writes t in the given format, keeping append order.
func WriteExport(w io.Writer, t core.Table, format string) error {
	switch strings.ToLower(format) {
	case FormatCSV, "":
		return csvfile.Encode(w, t)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toExportRows(t))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toExportRows(t)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q (want csv, json or yaml)", format)
	}
}

// WriteSummary prints the three metrics and both breakdowns.
func WriteSummary(w io.Writer, s core.Summary, symbol string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Records\t%d\t\n", s.Count)
	fmt.Fprintf(tw, "Total Income\t%s\t\n", core.FormatAmount(s.Totals.Income, symbol))
	fmt.Fprintf(tw, "Total Expense\t%s\t\n", core.FormatAmount(s.Totals.Expense, symbol))
	fmt.Fprintf(tw, "Balance\t%s\t\n", core.FormatAmount(s.Totals.Balance, symbol))

	if len(s.ExpenseBreakdown) > 0 {
		fmt.Fprintf(tw, "\t\t\nExpenses by category\t\t\n")
		for _, g := range s.ExpenseBreakdown {
			fmt.Fprintf(tw, "%s\t%s\t\n", g.Category, core.FormatAmount(g.Amount, symbol))
		}
	}
	if len(s.TypeBreakdown) > 0 {
		fmt.Fprintf(tw, "\t\t\nBy type\t\t\n")
		for _, g := range s.TypeBreakdown {
			fmt.Fprintf(tw, "%s\t%s\t\n", g.Type, core.FormatAmount(g.Amount, symbol))
		}
	}
	return tw.Flush()
}

// WriteRecords prints t newest first as an aligned table.
func WriteRecords(w io.Writer, t core.Table, symbol string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCATEGORY\tTYPE\tAMOUNT")
	for _, r := range core.SortedByDateDesc(t) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Date, r.Category, r.Type, core.FormatAmount(r.Amount, symbol))
	}
	return tw.Flush()
}

// DumpRecords pretty-prints the records for debugging.
func DumpRecords(w io.Writer, t core.Table, color bool) error {
	printer := pp.New()
	printer.SetColoringEnabled(color)
	printer.SetOutput(w)
	_, err := printer.Println(toExportRows(t))
	return err
}
