package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"carprice/adapters/excel"
	"carprice/domain/car"
	"carprice/domain/filter"
	"carprice/domain/stats"
	"carprice/internal"
	"carprice/internal/config"
	"carprice/internal/dataset"
	"carprice/internal/page"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carprice-cli",
		Short: "Car price analysis from the command line",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(
		newPagesCmd(),
		newPageCmd(),
		newRankCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// filterFlags are the sidebar filters as command line flags.
type filterFlags struct {
	fuel, body, drive []string
	price, engine, hp [2]float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.fuel, "fuel", nil, "Fuel types to keep (e.g. diesel,petrol)")
	cmd.Flags().StringSliceVar(&f.body, "body", nil, "Body styles to keep (e.g. sedan,wagon)")
	cmd.Flags().StringSliceVar(&f.drive, "drive", nil, "Drive wheels to keep (fwd, rwd, 4wd)")
	cmd.Flags().Float64Var(&f.price[0], "price-min", 0, "Minimum price")
	cmd.Flags().Float64Var(&f.price[1], "price-max", 0, "Maximum price")
	cmd.Flags().Float64Var(&f.engine[0], "engine-min", 0, "Minimum engine size")
	cmd.Flags().Float64Var(&f.engine[1], "engine-max", 0, "Maximum engine size")
	cmd.Flags().Float64Var(&f.hp[0], "hp-min", 0, "Minimum horsepower")
	cmd.Flags().Float64Var(&f.hp[1], "hp-max", 0, "Maximum horsepower")
}

// criteria builds filter criteria from the flags that were set.
func (f *filterFlags) criteria(cmd *cobra.Command) (filter.Criteria, error) {
	criteria := filter.None()
	sets := map[car.Field][]string{
		car.FieldFuelType:   f.fuel,
		car.FieldCarBody:    f.body,
		car.FieldDriveWheel: f.drive,
	}
	for field, values := range sets {
		if len(values) > 0 {
			criteria[field] = filter.In(values...)
		}
	}

	ranges := []struct {
		field  car.Field
		prefix string
		bounds *[2]float64
	}{
		{car.FieldPrice, "price", &f.price},
		{car.FieldEngineSize, "engine", &f.engine},
		{car.FieldHorsepower, "hp", &f.hp},
	}
	for _, r := range ranges {
		var rng filter.Range
		if cmd.Flags().Changed(r.prefix + "-min") {
			lo := r.bounds[0]
			rng.Min = &lo
		}
		if cmd.Flags().Changed(r.prefix + "-max") {
			hi := r.bounds[1]
			rng.Max = &hi
		}
		if c := filter.Within(rng); !c.Unrestricted() {
			criteria[r.field] = c
		}
	}
	criteria = dataset.NormalizeCriteria(criteria)
	return criteria, criteria.Validate()
}

// load reads the configuration and the cleaned car table.
func load(ctx context.Context) (*config.Config, *dataset.Dataset, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(cfg.LogLevel))
	data, err := dataset.LoadConfigured(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, data, nil
}

func newPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the dashboard pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			narratives, err := page.LoadNarratives()
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Title"})
			for _, id := range page.IDs() {
				table.Append([]string{string(id), narratives[id].Title})
			}
			table.Render()
			return nil
		},
	}
}

func newPageCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "page [page-id]",
		Short: "Render one dashboard page as tables",
		Long: `Render a dashboard page for the filtered data and print its metrics,
tests and summaries.

Example: carprice-cli page fuel-type --body sedan,hatchback --price-max 20000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := flags.criteria(cmd)
			if err != nil {
				return err
			}
			cfg, data, err := load(cmd.Context())
			if err != nil {
				return err
			}
			p, err := page.Lookup(page.ID(args[0]), cfg.Analysis)
			if err != nil {
				return err
			}
			narratives, err := page.LoadNarratives()
			if err != nil {
				return err
			}
			v, err := page.NewRenderer(narratives).Render(page.Context{Records: data.Records, Criteria: criteria}, p)
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), v, cfg.Analysis.SignificanceLevel)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Fit the price model and rank its predictors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, data, err := load(cmd.Context())
			if err != nil {
				return err
			}
			p, err := page.Lookup(page.IDPriceModel, cfg.Analysis)
			if err != nil {
				return err
			}
			v, err := page.NewRenderer(nil).Render(page.Context{Records: data.Records}, p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printNotices(out, v)
			if v.Model == nil {
				return nil
			}
			printModel(out, v.Model)
			return nil
		},
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	var flags filterFlags
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered cars to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := flags.criteria(cmd)
			if err != nil {
				return err
			}
			_, data, err := load(cmd.Context())
			if err != nil {
				return err
			}
			subset := filter.Apply(criteria, data.Records)

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := excel.WriteRecords(f, subset.Records, excel.ExportFields()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %d of %d cars to %s\n", subset.Len(), subset.Total, outPath)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "car_prices_filtered.xlsx", "Output workbook")
	return cmd
}

func printNotices(w io.Writer, v *page.View) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "\n=== %s ===\n", v.Title)
	fmt.Fprintf(w, "Filter: %s (%d of %d cars)\n", v.Filter, v.Rows, v.TotalRows)
	for _, n := range v.Notices {
		color.New(color.FgYellow).Fprintln(w, n)
	}
}

func printView(w io.Writer, v *page.View, alpha float64) {
	printNotices(w, v)
	if v.Status == page.StatusNoData {
		return
	}

	if len(v.Metrics) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Metric", "Value", "Δ %"})
		for _, m := range v.Metrics {
			table.Append([]string{m.Label, formatNumber(m.Value) + unitSuffix(m.Unit), formatNumber(m.Delta)})
		}
		table.Render()
	}

	if s := v.PriceSummary; s != nil {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Count", "Mean", "Std. dev.", "Min", "25%", "Median", "75%", "Max"})
		table.Append([]string{strconv.Itoa(s.Count), ff(s.Mean, 0), ff(s.StdDev, 0), ff(s.Min, 0), ff(s.Q25, 0), ff(s.Median, 0), ff(s.Q75, 0), ff(s.Max, 0)})
		table.Render()
	}

	if len(v.Tests) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Test", "Groups", "Statistic", "p-value", "Result"})
		for _, t := range v.Tests {
			table.Append([]string{t.Name, groupsCell(t), ff(t.Statistic, 4), ff(t.PValue, 4), verdict(t, alpha)})
		}
		table.Render()
	}

	if len(v.Correlations) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Test", "X", "Y", "Coefficient", "p-value", "Result"})
		for _, c := range v.Correlations {
			table.Append([]string{c.Name, string(c.X), string(c.Y), ff(c.Statistic, 4), ff(c.PValue, 4), verdict(c.TestResult, alpha)})
		}
		table.Render()
	}

	if len(v.Summaries) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Group", "Count", "Mean", "Median", "Min", "Max"})
		for _, s := range v.Summaries {
			table.Append([]string{s.Group, strconv.Itoa(s.Count), ff(s.Mean, 0), ff(s.Median, 0), ff(s.Min, 0), ff(s.Max, 0)})
		}
		table.Render()
	}

	if v.Features != nil {
		tests := append(append([]stats.FeatureTest{}, v.Features.Continuous...), v.Features.Categorical...)
		sort.SliceStable(tests, func(i, j int) bool { return tests[i].Result.PValue < tests[j].Result.PValue })
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Feature", "Test", "Statistic", "p-value", "Result"})
		for _, t := range tests {
			table.Append([]string{string(t.Feature), t.Result.Name, ff(t.Result.Statistic, 4), ff(t.Result.PValue, 4), verdict(t.Result, alpha)})
		}
		table.Render()
	}

	if v.Model != nil {
		printModel(w, v.Model)
	}
}

func printModel(w io.Writer, m *stats.RegressionResult) {
	fmt.Fprintf(w, "R² %.4f  RMSE %.2f  rows used %d  dropped %d\n", m.RSquared, m.RMSE, m.RowsUsed, m.RowsDropped)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Feature", "Coefficient", "Std. error", "p-value", "Standardized"})
	for _, f := range m.Ranking {
		c, _ := m.Coefficient(f)
		table.Append([]string{strconv.Itoa(c.Rank), string(f), ff(c.Value, 4), formatNumber(c.StdErr), formatNumber(c.PValue), ff(c.Standardized, 4)})
	}
	table.Render()
}

func groupsCell(t stats.TestResult) string {
	s := ""
	for i, g := range t.Groups {
		if i > 0 {
			s += " vs "
		}
		s += g
		if i < len(t.GroupSizes) {
			s += fmt.Sprintf(" (n=%d)", t.GroupSizes[i])
		}
	}
	return s
}

func verdict(t stats.TestResult, alpha float64) string {
	if t.Significant(alpha) {
		return color.GreenString("significant")
	}
	return color.YellowString("not significant")
}

func ff(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }

func formatNumber(n car.Number) string {
	v, ok := n.Float()
	if !ok {
		return "-"
	}
	return ff(v, 2)
}

func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}
