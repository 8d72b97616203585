package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"breakfit/adapters/chart"
	"breakfit/adapters/excel"
	"breakfit/adapters/report"
	"breakfit/app"
	"breakfit/domain/fit"
	"breakfit/internal"
	"breakfit/internal/container"
)

type selectOptions struct {
	dateCol   string
	valueCol  string
	sheet     string
	profile   string
	penalty   float64
	maxBreaks int
	threshold float64
	plot      bool

	chartPath    string
	outliersPath string
	workbookPath string
	reportPath   string
	store        bool
	asJSON       bool
}

func newSelectCmd() *cobra.Command {
	var opts selectOptions

	cmd := &cobra.Command{
		Use:   "select <file>",
		Short: "Select the break count of a CSV or XLSX series",
		Long: `Fit piecewise-linear models with 2..max-breaks segments, keep the one with
the lowest penalised BIC, and flag residual outliers.

Example: breakfit select sp500.csv --date-col Date --value-col Close --profile efficiency --chart fit.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd.Context(), cmd.Flags(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dateCol, "date-col", "Date", "Date column")
	f.StringVar(&opts.valueCol, "value-col", "Close", "Value column")
	f.StringVar(&opts.sheet, "sheet", "", "Workbook sheet (default Sheet1 or the first sheet)")
	f.StringVar(&opts.profile, "profile", "", "Named profile (default BREAKFIT_PROFILE)")
	f.Float64Var(&opts.penalty, "penalty", 0, "Complexity penalty override")
	f.IntVar(&opts.maxBreaks, "max-breaks", 0, "Largest segment count tried")
	f.Float64Var(&opts.threshold, "threshold", 0, "Outlier threshold in standard deviations")
	f.BoolVar(&opts.plot, "plot", true, "Render the chart when --chart is given")
	f.StringVar(&opts.chartPath, "chart", "", "Write the fit chart (.png, .svg or .pdf)")
	f.StringVar(&opts.outliersPath, "outliers", "", "Write outlier rows as CSV")
	f.StringVar(&opts.workbookPath, "workbook", "", "Write an XLSX workbook with the fit")
	f.StringVar(&opts.reportPath, "report", "", "Write the report (.html or .md)")
	f.BoolVar(&opts.store, "store", false, "Persist the run to DATABASE_URL")
	f.BoolVar(&opts.asJSON, "json", false, "Print the stored run as JSON")
	return cmd
}

// overridesFromFlags turns explicitly set flags into config overrides
func overridesFromFlags(flags *pflag.FlagSet, opts selectOptions) fit.Overrides {
	var o fit.Overrides
	if flags.Changed("penalty") {
		o.ComplexityPenalty = &opts.penalty
	}
	if flags.Changed("max-breaks") {
		o.MaxBreaks = &opts.maxBreaks
	}
	if flags.Changed("threshold") {
		o.OutlierThreshold = &opts.threshold
	}
	plot := opts.chartPath != "" && opts.plot
	o.PlotResults = &plot
	return o
}

func runSelect(ctx context.Context, flags *pflag.FlagSet, path string, opts selectOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	readerCfg := excel.DefaultReaderConfig()
	readerCfg.Sheet = opts.sheet
	table, err := excel.NewDataReader(path).WithConfig(readerCfg).ReadTable()
	if err != nil {
		return err
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	svcOpts := []app.ServiceOption{app.WithServiceLogger(logger)}
	if opts.chartPath != "" {
		svcOpts = append(svcOpts, app.WithChartRenderer(chart.NewRenderer(chart.FormatFromPath(opts.chartPath))))
	}
	if opts.store {
		if !cfg.Database.Enabled() {
			return fmt.Errorf("--store needs DATABASE_URL")
		}
		c, err := container.New(cfg)
		if err != nil {
			return err
		}
		if err := c.Init(ctx); err != nil {
			return err
		}
		defer c.Shutdown(context.Background())
		svcOpts = append(svcOpts, app.WithRepository(c.Runs))
	}
	cfg.Cache.Size = 0

	svc, err := app.NewSelectionService(cfg, svcOpts...)
	if err != nil {
		return err
	}
	out, err := svc.Run(ctx, app.SelectionRequest{
		Table:       table,
		DateColumn:  opts.dateCol,
		ValueColumn: opts.valueCol,
		Profile:     opts.profile,
		Overrides:   overridesFromFlags(flags, opts),
	})
	if err != nil {
		return err
	}

	if err := writeArtifacts(out, opts); err != nil {
		return err
	}
	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Run)
	}
	printSelection(os.Stdout, out)
	return nil
}

func writeArtifacts(out *app.SelectionOutcome, opts selectOptions) error {
	if opts.chartPath != "" && out.Chart != nil {
		if err := os.WriteFile(opts.chartPath, out.Chart.Data, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}
	if opts.outliersPath != "" {
		f, err := os.Create(opts.outliersPath)
		if err != nil {
			return fmt.Errorf("write outliers: %w", err)
		}
		if err := excel.WriteOutliersCSV(f, out.Selection); err != nil {
			f.Close()
			return fmt.Errorf("write outliers: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write outliers: %w", err)
		}
	}
	if opts.workbookPath != "" {
		if err := excel.WriteWorkbook(opts.workbookPath, out.Selection); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
	}
	if opts.reportPath != "" {
		page := report.HTML(out.Run)
		if strings.EqualFold(filepath.Ext(opts.reportPath), ".md") {
			page = report.Markdown(out.Run)
		}
		if err := os.WriteFile(opts.reportPath, page, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
