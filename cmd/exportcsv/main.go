// Command exportcsv loads the recovery dataset, applies the dashboard filters
// and writes the filtered rows to a CSV or XLSX file, printing the same
// metrics and ranked table the dashboard shows.
//
// Usage:
//
//	exportcsv --source data.csv --type business --top 10
//	exportcsv --format xlsx --priority "Prioritas Hibah" --priority Prioritas --out hibah.xlsx
//	exportcsv --kelurahan= --out empty.csv   # explicit empty selection
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/config"
	"ecorecovery/internal/dashboard"
	"ecorecovery/internal/exporter"
	"ecorecovery/internal/infrastructure"
	"ecorecovery/internal/loader"
	"ecorecovery/internal/services"
	"ecorecovery/pkg/contracts"
	"ecorecovery/pkg/contracts/domain"
)

type exportOptions struct {
	source   string
	format   string
	out      string
	top      int
	logLevel string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "exportcsv",
		Short: "Export the filtered recovery dataset",
		Long: `Loads the recovery dataset, keeps the rows matching every filter and
writes them to a file. A filter flag that is not given selects every value;
a filter flag given with an empty value selects nothing.`,
		Version:      contracts.GetFullVersionString(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.source, "source", "", "dataset URL or file path (defaults to "+config.EnvPrefix+"_DATA_URL)")
	flags.StringVar(&opts.format, "format", string(exporter.FormatCSV), "output format: csv | xlsx")
	flags.StringVarP(&opts.out, "out", "o", "", "output file, - for stdout (defaults to the dashboard download name)")
	flags.IntVar(&opts.top, "top", 0, fmt.Sprintf("ranked table size, %d to %d (defaults to the dashboard default)", analytics.MinTopN, analytics.MaxTopN))
	flags.StringVar(&opts.logLevel, "log-level", "warn", "debug | info | warn | error")

	for _, col := range domain.FilterColumns() {
		flags.StringArray(string(col), nil, fmt.Sprintf("keep rows whose %s equals this value (repeatable)", col))
	}

	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	// One trace id ties together the log lines of a single export run.
	ctx := infrastructure.EnsureTraceID(cmd.Context())

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to load config, using defaults: %v\n", err)
		cfg = config.Default()
	}

	logger := infrastructure.NewLoggerWithWriter(cmd.ErrOrStderr(), opts.logLevel)

	source := opts.source
	if source == "" {
		source = cfg.Data.URL
	}
	if source == "" || source == config.PlaceholderDataURL {
		return fmt.Errorf("no dataset source: pass --source or set %s_DATA_URL", config.EnvPrefix)
	}

	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	top := opts.top
	if !cmd.Flags().Changed("top") {
		top = cfg.Dashboard.DefaultTopN
	}
	if top < analytics.MinTopN || top > analytics.MaxTopN {
		return fmt.Errorf("--top must be between %d and %d, got %d", analytics.MinTopN, analytics.MaxTopN, top)
	}

	filters, err := filterQuery(cmd)
	if err != nil {
		return err
	}
	query := services.Query{Filters: filters, TopN: top}
	svc := services.NewDashboardService(newLoader(cfg, logger), source, logger,
		services.WithDefaultTopN(cfg.Dashboard.DefaultTopN),
	)

	view, err := svc.View(ctx, query)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = format.FileName(config.ExportBaseName)
	}
	if out == "-" {
		return exporter.Write(cmd.OutOrStdout(), format, view.Rows)
	}

	if err := exporter.WriteFile(out, format, view.Rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	logger.InfoContext(ctx, "export written",
		slog.String("path", out),
		slog.String("format", string(format)),
		slog.Int("records", len(view.Rows)))

	return printSummary(cmd.OutOrStdout(), view, out, len(view.Rows))
}

func newLoader(cfg *config.Config, logger *slog.Logger) *loader.Loader {
	httpSource := loader.NewHTTPSource(cfg.Data.HTTPTimeout)
	httpSource.MaxBytes = cfg.Data.MaxBytes

	return loader.New(
		loader.WithLogger(logger),
		loader.WithSource("http", httpSource),
		loader.WithSource("https", httpSource),
		loader.WithSource("file", loader.FileSource{MaxBytes: cfg.Data.MaxBytes}),
	)
}

// filterQuery encodes the filter flags the way the dashboard encodes its
// query string: one value per flag occurrence, taken literally.
func filterQuery(cmd *cobra.Command) (url.Values, error) {
	q := url.Values{}
	for _, col := range domain.FilterColumns() {
		name := string(col)
		if !cmd.Flags().Changed(name) {
			continue
		}
		values, err := cmd.Flags().GetStringArray(name)
		if err != nil {
			return nil, err
		}
		q[name] = values
	}
	return q, nil
}

func printSummary(w io.Writer, view dashboard.View, path string, records int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Wrote %d rows to %s\n\n", records, path)
	for _, m := range view.Metrics {
		fmt.Fprintf(tw, "%s\t%s\n", m.Label, m.Display)
	}

	fmt.Fprintf(tw, "\nTop %d by %s\n", view.Table.TopN, view.Table.SortBy)
	header := make([]string, len(view.Table.Columns))
	for i, c := range view.Table.Columns {
		header[i] = string(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range view.Table.Rows {
		fmt.Fprintln(tw, strings.Join(row.Cells, "\t"))
	}

	return tw.Flush()
}
