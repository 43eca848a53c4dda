package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"polcoord/internal/app"
	"polcoord/internal/config"
	"polcoord/internal/domain"
	"polcoord/internal/infra/csvfile"
	"polcoord/internal/report"
)

// NewReportCmd prints report tables, optionally exporting them to PDF.
func NewReportCmd(configPath *string) *cobra.Command {
	var pdfPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Frequency, descriptive and pivot reports over the respondent file",
	}
	cmd.PersistentFlags().StringVar(&pdfPath, "pdf", "", "also write the table to this PDF file")

	var freqField string
	frequency := &cobra.Command{
		Use:   "frequency",
		Short: "Count the distinct values of a column",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, *configPath, pdfPath, func(ds domain.Dataset) (report.Table, error) {
				return report.Frequency(ds, freqField).Table(), nil
			})
		},
	}
	frequency.Flags().StringVar(&freqField, "field", domain.ColumnGender, "column to count")

	var descFields []string
	describe := &cobra.Command{
		Use:   "describe",
		Short: "Descriptive statistics of numeric columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, *configPath, pdfPath, func(ds domain.Dataset) (report.Table, error) {
				table, err := report.Describe(ds, descFields...)
				if err != nil {
					return report.Table{}, err
				}
				return table.Table(), nil
			})
		},
	}
	describe.Flags().StringSliceVar(&descFields, "field", []string{domain.ColumnX, domain.ColumnY, domain.ColumnZ}, "numeric columns")

	var value, column, index, agg string
	pivot := &cobra.Command{
		Use:   "pivot",
		Short: "Cross-tabulate a numeric column",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, *configPath, pdfPath, func(ds domain.Dataset) (report.Table, error) {
				a, err := report.ParseAgg(agg)
				if err != nil {
					return report.Table{}, err
				}
				table, err := report.Pivot(ds, value, column, index, a)
				if err != nil {
					return report.Table{}, err
				}
				if table == nil {
					return report.Table{}, fmt.Errorf("column not found: %s", column)
				}
				return table.Table(), nil
			})
		},
	}
	pivot.Flags().StringVar(&value, "value", domain.ColumnX, "numeric column to aggregate")
	pivot.Flags().StringVar(&column, "column", domain.ColumnGender, "column whose values become table columns")
	pivot.Flags().StringVar(&index, "index", domain.ColumnUniversity, "column whose values become table rows")
	pivot.Flags().StringVar(&agg, "agg", string(report.AggMean), "sum, mean, min, max or median")

	cmd.AddCommand(frequency, describe, pivot)
	return cmd
}

func runReport(cmd *cobra.Command, configPath, pdfPath string, build func(domain.Dataset) (report.Table, error)) error {
	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ds, err := loadDataset(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	table, err := build(ds)
	if err != nil {
		return err
	}
	renderTable(cmd.OutOrStdout(), table)

	if pdfPath == "" {
		return nil
	}
	f, err := os.Create(pdfPath)
	if err != nil {
		return err
	}
	if err := report.WritePDF(f, cfg.Report.PDFFont, table); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", pdfPath)
	return nil
}

func loadDataset(ctx context.Context, cfg config.Config) (domain.Dataset, error) {
	store, err := app.NewRecordStore(ctx, csvfile.NewRecordRepository(cfg.DB.Path), nil)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(), nil
}
