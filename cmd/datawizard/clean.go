// cmd/datawizard/clean.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/cleaner"
	"github.com/David-Botos/datawizard/pkg/connector"
	"github.com/David-Botos/datawizard/pkg/converter"
	"github.com/David-Botos/datawizard/pkg/insights"
	"github.com/David-Botos/datawizard/pkg/model"
)

var (
	noMissing      bool
	noDedup        bool
	noText         bool
	noTypes        bool
	outputPath     string
	showInsights   bool
	outlierColumn  string
	postgresQuery  string
	snowflakeQuery string
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file.csv]",
	Short: "Clean a CSV file or a warehouse query result",
	Long: `Runs the cleaning pipeline (missing values, duplicates, text standardization,
type coercion) and writes the cleaned table as CSV.

The source is either a local CSV file or the result of --postgres-query or
--snowflake-query against the configured warehouse.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	f := cleanCmd.Flags()
	f.BoolVar(&noMissing, "no-missing", false, "Skip missing value imputation")
	f.BoolVar(&noDedup, "no-dedup", false, "Skip duplicate removal")
	f.BoolVar(&noText, "no-text", false, "Skip text standardization")
	f.BoolVar(&noTypes, "no-types", false, "Skip type coercion")
	f.StringVarP(&outputPath, "output", "o", "", "Cleaned CSV path (default cleaned_<source name>)")
	f.BoolVar(&showInsights, "insights", false, "Print numeric summaries of the cleaned table")
	f.StringVar(&outlierColumn, "outliers", "", "Report IQR outliers of this numeric column")
	f.StringVar(&postgresQuery, "postgres-query", "", "Read the table from this PostgreSQL query")
	f.StringVar(&snowflakeQuery, "snowflake-query", "", "Read the table from this Snowflake query")
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conv := newConverter(cfg, logger)

	sources := len(args)
	if postgresQuery != "" {
		sources++
	}
	if snowflakeQuery != "" {
		sources++
	}
	if sources != 1 {
		return errors.New("give exactly one source: a CSV file, --postgres-query or --snowflake-query")
	}

	var (
		table *model.Table
		name  string
		err   error
	)
	switch {
	case len(args) == 1:
		name = filepath.Base(args[0])
		table, err = readCSVFile(conv, args[0])
	case postgresQuery != "":
		name = "postgres_query.csv"
		table, err = queryWarehouse(cmd, conv, connector.SourcePostgres, postgresQuery)
	default:
		name = "snowflake_query.csv"
		table, err = queryWarehouse(cmd, conv, connector.SourceSnowflake, snowflakeQuery)
	}
	if err != nil {
		return err
	}

	dc, err := cleaner.NewDataCleaner(conv, nil, logger)
	if err != nil {
		return err
	}

	result, err := dc.Clean(ctx, table, name, cleaner.Options{
		HandleMissing:    cfg.Cleaning.HandleMissing && !noMissing,
		RemoveDuplicates: cfg.Cleaning.RemoveDuplicates && !noDedup,
		StandardizeText:  cfg.Cleaning.StandardizeText && !noText,
		FixTypes:         cfg.Cleaning.FixTypes && !noTypes,
	})
	if err != nil {
		return fmt.Errorf("cleaning failed: %w", err)
	}

	out := cmd.OutOrStdout()
	printCleaningReport(out, result)

	if showInsights {
		printNumericSummaries(out, insights.Build(result.Cleaned, insights.Options{
			MaxCategories: cfg.Cleaning.MaxCategories,
		}))
	}
	if outlierColumn != "" {
		outliers, err := insights.DetectOutliers(result.Cleaned, outlierColumn)
		if err != nil {
			fmt.Fprintf(out, "Outlier detection skipped: %v\n", err)
		} else {
			fmt.Fprintf(out, "Outliers in %s: %d outside [%s, %s], first rows %v\n",
				outliers.Column, outliers.Count,
				formatFloat(outliers.Lower), formatFloat(outliers.Upper), outliers.Rows)
		}
	}

	path := outputPath
	if path == "" {
		path = "cleaned_" + name
	}
	if err := writeCSVFile(conv, path, result.Cleaned); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleaned data written to %s\n", path)
	return nil
}

func readCSVFile(conv *converter.TypeConverter, path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table, err := conv.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("error processing file %s: %w", path, err)
	}
	return table, nil
}

func queryWarehouse(cmd *cobra.Command, conv *converter.TypeConverter, kind, query string) (*model.Table, error) {
	ctx := cmd.Context()
	db, err := connector.NewConnectorFactory(cfg, conv, logger).Create(ctx, kind)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close connection", zap.String("source", kind), zap.Error(err))
		}
	}()

	if err := db.Validate(ctx); err != nil {
		return nil, err
	}
	return db.QueryTable(ctx, query)
}

func writeCSVFile(conv *converter.TypeConverter, path string, table *model.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := conv.WriteCSV(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printCleaningReport(w io.Writer, result *cleaner.Result) {
	fmt.Fprintf(w, "Source: %s (run %s)\n", result.Source, result.RunID)
	fmt.Fprintf(w, "Rows: %d -> %d, columns: %d\n",
		result.Original.NumRows(), result.Cleaned.NumRows(), result.Cleaned.NumColumns())

	before := result.Original.Metadata(result.Source)
	after := result.Cleaned.Metadata(result.Source)
	if numeric := after.ColumnsOfKind(model.KindNumeric); len(numeric) > 0 {
		fmt.Fprintf(w, "Numeric columns: %s\n", strings.Join(numeric, ", "))
	}
	columns := tablewriter.NewWriter(w)
	columns.SetAutoFormatHeaders(false)
	columns.SetHeader([]string{"Column", "Kind", "Missing before", "Missing after"})
	for _, col := range after.Columns {
		missingBefore := "-"
		if orig := before.GetColumnByName(col.Name); orig != nil {
			missingBefore = strconv.Itoa(orig.Missing)
		}
		columns.Append([]string{col.Name, col.Kind.String(), missingBefore, strconv.Itoa(col.Missing)})
	}
	columns.Render()

	if len(result.Operations) == 0 {
		fmt.Fprintln(w, "No cleaning operations were applied.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"#", "Stage", "Column", "Affected", "Log"})
	for i, op := range result.Operations {
		table.Append([]string{
			strconv.Itoa(i + 1),
			op.Stage,
			op.ColumnName,
			strconv.Itoa(op.Affected),
			op.Message,
		})
	}
	table.Render()
}

func printNumericSummaries(w io.Writer, rep *insights.Report) {
	fmt.Fprintf(w, "Missing values after cleaning: %d\n", rep.Overview.MissingValues)
	if len(rep.Numeric) == 0 {
		fmt.Fprintln(w, "No numeric columns.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetHeader([]string{"Column", "Count", "Mean", "Std", "Min", "Q1", "Median", "Q3", "Max"})
	for _, s := range rep.Numeric {
		table.Append([]string{
			s.Column,
			strconv.Itoa(s.Count),
			formatFloat(s.Mean),
			formatFloat(s.Std),
			formatFloat(s.Min),
			formatFloat(s.Q1),
			formatFloat(s.Median),
			formatFloat(s.Q3),
			formatFloat(s.Max),
		})
	}
	table.Render()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
