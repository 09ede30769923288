package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/importer/ofx"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append one record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		date, _ := flags.GetString("date")
		category, _ := flags.GetString("category")
		recordType, _ := flags.GetString("type")
		amount, _ := flags.GetString("amount")

		record, err := apphttp.RecordInput{
			Date:     date,
			Category: category,
			Type:     recordType,
			Amount:   amount,
		}.Record(time.Now())
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.records.Add(cmd.Context(), record)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s on %s (%d records)\n",
			record.Type, record.Category, core.FormatAmount(record.Amount, a.cfg.CurrencySymbol), record.Date, len(t))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the transaction history, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.records.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		if len(t) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No records yet.")
			return nil
		}
		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			return cli.DumpRecords(cmd.OutOrStdout(), t, false)
		}
		return cli.WriteRecords(cmd.OutOrStdout(), t, a.cfg.CurrencySymbol)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print totals and breakdowns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.records.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		return cli.WriteSummary(cmd.OutOrStdout(), core.Summarize(t), a.cfg.CurrencySymbol)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to clear without --yes")
		}
		a, err := newApp(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.records.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All records cleared.")
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every record to stdout or a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.records.Snapshot(cmd.Context())
		if err != nil {
			return err
		}

		if output == "" || output == "-" {
			return cli.WriteExport(cmd.OutOrStdout(), t, format)
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		if err := cli.WriteExport(f, t, format); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var importOFXCmd = &cobra.Command{
	Use:   "import-ofx <file>",
	Short: "Append the transactions of an OFX bank statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		skipZero, _ := cmd.Flags().GetBool("skip-zero")

		var opts ofx.Options
		if category != "" {
			c, err := core.ParseCategory(category)
			if err != nil {
				return err
			}
			opts.Category = c
		}
		opts.SkipZero = skipZero

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		records, err := ofx.Parse(f, opts)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		a, err := newApp(cmd.Context(), cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.records.Import(cmd.Context(), records)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d transactions\n", n, len(records))
		return err
	},
}

func init() {
	af := addCmd.Flags()
	af.String("date", "", "record date YYYY-MM-DD (default today)")
	af.String("category", "", "one of "+fmt.Sprint(core.Categories()))
	af.String("type", "", "Income or Expense")
	af.String("amount", "", "non-negative amount")
	_ = addCmd.MarkFlagRequired("category")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("amount")

	listCmd.Flags().Bool("dump", false, "pretty-print raw records")
	clearCmd.Flags().Bool("yes", false, "confirm removing every record")

	exportCmd.Flags().String("format", cli.FormatCSV, "csv, json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	importOFXCmd.Flags().String("category", "", "category for imported records (default Other)")
	importOFXCmd.Flags().Bool("skip-zero", true, "drop zero-amount transactions")
}
