package page

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"carprice/adapters/stats/engine"
	"carprice/adapters/stats/regression"
	"carprice/domain/car"
	"carprice/domain/filter"
	"carprice/domain/stats"
	"carprice/internal"
	"carprice/internal/chart"
	"carprice/internal/dataset"
)

// overviewColumns are the columns of the overview data table.
var overviewColumns = []car.Field{
	car.FieldManufacturer, car.FieldFuelType, car.FieldCarBody, car.FieldDriveWheel,
	car.FieldEngineSize, car.FieldHorsepower, car.FieldAvgMPG, car.FieldPrice,
}

// Renderer turns a page and a render context into a View.
type Renderer struct {
	narratives Narratives
	cleaner    *dataset.Cleaner
	log        *internal.Logger
	analyses   atomic.Int64
}

// NewRenderer creates a renderer using the given prose catalog.
func NewRenderer(narratives Narratives) *Renderer {
	log := internal.DefaultLogger.Component("Page")
	return &Renderer{
		narratives: narratives,
		cleaner:    dataset.NewCleaner(log),
		log:        log,
	}
}

// Analyses counts how many renders reached the analysis step.
func (r *Renderer) Analyses() int64 { return r.analyses.Load() }

// Title returns the display title of a page, falling back to its id.
func (r *Renderer) Title(id ID) string {
	if n, ok := r.narratives[id]; ok && n.Title != "" {
		return n.Title
	}
	return string(id)
}

// Render builds the view for p. An empty subset short-circuits to the
// no-data state without running any analysis. Insufficient data and
// collinearity are reported as notices; other errors are returned.
func (r *Renderer) Render(ctx Context, p Page) (*View, error) {
	criteria := ctx.Criteria
	if criteria == nil {
		criteria = filter.None()
	}
	ignored := ignoredFilters(p, criteria.Active())
	applied := criteria.Without(ignored...)

	n := r.narratives[p.ID()]
	subset := filter.Apply(applied, ctx.Records)
	v := &View{
		Page:      p.ID(),
		Title:     n.Title,
		Status:    StatusOK,
		Intro:     Markdown(n.Intro),
		Filter:    applied.String(),
		Ignored:   ignored,
		Rows:      subset.Len(),
		TotalRows: subset.Total,
	}
	if subset.Empty {
		v.Status = StatusNoData
		v.Notices = []string{NoDataMessage}
		r.log.Debug("%s: no rows match %s", p.ID(), v.Filter)
		return v, nil
	}

	r.analyses.Add(1)
	var (
		significant *bool
		err         error
	)
	switch p := p.(type) {
	case Overview:
		err = r.overview(v, p, subset.Records)
	case FuelType:
		significant, err = r.fuelType(v, p, subset.Records)
	case FuelEfficiency:
		significant, err = r.fuelEfficiency(v, p, subset.Records)
	case BodyType:
		significant, err = r.bodyType(v, p, subset.Records)
	case DriveWheel:
		significant, err = r.driveWheel(v, p, subset.Records)
	case FeatureSignificance:
		significant, err = r.featureSignificance(v, p, subset.Records)
	case PriceModel:
		err = r.priceModel(v, p, subset.Records)
	default:
		return nil, fmt.Errorf("unknown page type %T", p)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", p.ID(), err)
	}
	if significant != nil {
		v.Verdict = Markdown(n.Verdict(*significant))
	}
	return v, nil
}

func anySignificant(alpha float64, results ...stats.TestResult) *bool {
	if len(results) == 0 {
		return nil
	}
	sig := false
	for _, t := range results {
		if t.Significant(alpha) {
			sig = true
		}
	}
	return &sig
}

func group(records []car.Record, by car.Field, label string) engine.Group {
	return engine.Group{Label: label, Values: car.Select(records, by, label, car.FieldPrice)}
}

func percentDelta(value, reference car.Number) car.Number {
	v, ok1 := value.Float()
	ref, ok2 := reference.Float()
	if !ok1 || !ok2 || ref == 0 {
		return car.Undefined
	}
	return car.Defined((v - ref) / ref * 100)
}

func columnMean(records []car.Record, f car.Field) car.Number {
	return engine.Mean(car.DefinedValues(records, f))
}

// twoGroup runs Welch's t-test and Mann-Whitney U on a and b.
func (v *View) twoGroup(a, b engine.Group) ([]stats.TestResult, error) {
	var out []stats.TestResult
	t, err := engine.WelchTTest(a, b)
	if err := v.recover(err); err != nil {
		return nil, err
	}
	if err == nil {
		out = append(out, t)
	}
	u, err := engine.MannWhitneyU(a, b)
	if err := v.recover(err); err != nil {
		return nil, err
	}
	if err == nil {
		out = append(out, u)
	}
	v.Tests = append(v.Tests, out...)
	return out, nil
}

// correlations runs Pearson and Spearman between x and price.
func (v *View) correlations(records []car.Record, x car.Field) error {
	for _, test := range []stats.TestType{stats.TestPearson, stats.TestSpearman} {
		c, err := engine.Correlate(test, records, x, car.FieldPrice)
		if err != nil {
			if err := v.recover(err); err != nil {
				return err
			}
			continue
		}
		v.Correlations = append(v.Correlations, c)
	}
	return nil
}

func (r *Renderer) overview(v *View, p Overview, records []car.Record) error {
	v.Metrics = []Metric{
		{Label: "Average Price", Value: columnMean(records, car.FieldPrice), Unit: "£"},
		{Label: "Average Horsepower", Value: columnMean(records, car.FieldHorsepower), Unit: "hp"},
		{Label: "Average Engine Size", Value: columnMean(records, car.FieldEngineSize), Unit: "cc"},
		{Label: "Average Mileage", Value: columnMean(records, car.FieldAvgMPG), Unit: "mpg"},
	}
	summary, err := engine.Describe(car.Numbers(records, car.FieldPrice))
	if err != nil {
		return v.recover(err)
	}
	v.PriceSummary = &summary
	if err := v.addChart(chart.Histogram("Price Distribution", records, car.FieldPrice, p.Bins)); err != nil {
		return err
	}
	v.Table = recordTable(records, overviewColumns)
	return nil
}

func recordTable(records []car.Record, fields []car.Field) *Table {
	t := &Table{Columns: make([]string, len(fields)), Rows: make([][]string, len(records))}
	for i, f := range fields {
		t.Columns[i] = car.Label(f)
	}
	for i, rec := range records {
		row := make([]string, len(fields))
		for j, f := range fields {
			if col, ok := car.Lookup(f); ok && col.Kind == car.Numeric {
				if x, ok := rec.Number(f).Float(); ok {
					row[j] = strconv.FormatFloat(x, 'f', -1, 64)
				}
				continue
			}
			row[j] = rec.Category(f)
		}
		t.Rows[i] = row
	}
	return t
}

func (r *Renderer) fuelType(v *View, p FuelType, records []car.Record) (*bool, error) {
	overall := columnMean(records, car.FieldPrice)
	diesel := group(records, car.FieldFuelType, "diesel")
	petrol := group(records, car.FieldFuelType, "petrol")
	dieselMean, petrolMean := engine.Mean(diesel.Values), engine.Mean(petrol.Values)
	v.Metrics = []Metric{
		{Label: "Overall Average Price", Value: overall, Unit: "£"},
		{Label: "Diesel Average Price", Value: dieselMean, Unit: "£", Delta: percentDelta(dieselMean, overall)},
		{Label: "Petrol Average Price", Value: petrolMean, Unit: "£", Delta: percentDelta(petrolMean, overall)},
	}

	summaries := engine.GroupSummaries(engine.GroupsOf(records, car.FieldFuelType, car.FieldPrice))
	v.Summaries = summaries
	v.Charts = append(v.Charts, chart.BarOfMeans("Average Car Prices by Fuel Type", car.FieldFuelType, summaries))
	if err := v.addChart(chart.BoxPlot("Price Distribution by Fuel Type", records, car.FieldFuelType, car.FieldPrice)); err != nil {
		return nil, err
	}

	tests, err := v.twoGroup(diesel, petrol)
	if err != nil {
		return nil, err
	}
	if err := v.correlations(records, car.FieldAvgMPG); err != nil {
		return nil, err
	}
	return anySignificant(p.Alpha, tests...), nil
}

// Efficiency group labels.
const (
	HighEfficiency = "high efficiency"
	LowEfficiency  = "low efficiency"
)

// efficiencyGroups splits priced cars at the median average mileage: at or
// below the median is low efficiency, above it is high.
func efficiencyGroups(records []car.Record) (high, low engine.Group, median float64, err error) {
	median, err = engine.Quantile(car.DefinedValues(records, car.FieldAvgMPG), 0.5)
	if err != nil {
		return high, low, 0, err
	}
	high.Label, low.Label = HighEfficiency, LowEfficiency
	for _, rec := range records {
		mpg, ok := rec.Number(car.FieldAvgMPG).Float()
		price, okPrice := rec.Number(car.FieldPrice).Float()
		if !ok || !okPrice {
			continue
		}
		if mpg > median {
			high.Values = append(high.Values, price)
		} else {
			low.Values = append(low.Values, price)
		}
	}
	return high, low, median, nil
}

func (r *Renderer) fuelEfficiency(v *View, p FuelEfficiency, records []car.Record) (*bool, error) {
	high, low, median, err := efficiencyGroups(records)
	if err != nil {
		return nil, v.recover(err)
	}
	highMean, lowMean := engine.Mean(high.Values), engine.Mean(low.Values)
	v.Metrics = []Metric{
		{Label: "Median Average Mileage", Value: car.Defined(median), Unit: "mpg"},
		{Label: "High Efficiency Average Price", Value: highMean, Unit: "£", Delta: percentDelta(highMean, lowMean)},
		{Label: "Low Efficiency Average Price", Value: lowMean, Unit: "£"},
	}
	summaries := engine.GroupSummaries([]engine.Group{high, low})
	v.Summaries = summaries
	bar := chart.BarOfMeans("Average Price by Fuel Efficiency Group", car.FieldAvgMPG, summaries)
	bar.XLabel = "Fuel Efficiency Group"
	v.Charts = append(v.Charts, bar)

	if err := v.addChart(chart.Scatter("Average MPG vs Price", records, car.FieldAvgMPG, car.FieldPrice, true)); err != nil {
		return nil, err
	}
	fields := []car.Field{car.FieldAvgMPG, car.FieldPrice}
	v.Charts = append(v.Charts, chart.CorrelationHeatmap("Correlation Heatmap", engine.CorrelationMatrix(records, fields)))
	if err := v.addChart(chart.Bubble("Average MPG vs Price (size: price)", records, car.FieldAvgMPG, car.FieldPrice, car.FieldPrice)); err != nil {
		return nil, err
	}

	tests, err := v.twoGroup(high, low)
	if err != nil {
		return nil, err
	}
	if err := v.correlations(records, car.FieldAvgMPG); err != nil {
		return nil, err
	}
	return anySignificant(p.Alpha, tests...), nil
}

func (r *Renderer) bodyType(v *View, p BodyType, records []car.Record) (*bool, error) {
	groups := engine.GroupsOf(records, car.FieldCarBody, car.FieldPrice)
	v.Summaries = engine.GroupSummaries(groups)
	v.Charts = append(v.Charts, chart.BarOfMeans("Average Car Price by Body Type", car.FieldCarBody, v.Summaries))
	if err := v.addChart(chart.BoxPlot("Price Distribution by Car Body Type", records, car.FieldCarBody, car.FieldPrice)); err != nil {
		return nil, err
	}

	anova, err := engine.ANOVA(groups)
	if err != nil {
		return nil, v.recover(err)
	}
	v.Tests = append(v.Tests, anova)
	return anySignificant(p.Alpha, anova), nil
}

func (r *Renderer) driveWheel(v *View, p DriveWheel, records []car.Record) (*bool, error) {
	fwd := group(records, car.FieldDriveWheel, "fwd")
	rwd := group(records, car.FieldDriveWheel, "rwd")
	v.Metrics = []Metric{
		{Label: "Number of FWD cars", Value: car.Defined(float64(len(fwd.Values)))},
		{Label: "Number of RWD cars", Value: car.Defined(float64(len(rwd.Values)))},
	}
	v.Summaries = engine.GroupSummaries(engine.GroupsOf(records, car.FieldDriveWheel, car.FieldPrice))
	v.Charts = append(v.Charts, chart.BarOfMeans("Average Price by Drive Wheel Type", car.FieldDriveWheel, v.Summaries))
	if err := v.addChart(chart.BoxPlot("Price Distribution by Drive Wheel Type", records, car.FieldDriveWheel, car.FieldPrice)); err != nil {
		return nil, err
	}

	t, err := engine.WelchTTest(fwd, rwd)
	if err != nil {
		return nil, v.recover(err)
	}
	v.Tests = append(v.Tests, t)
	return anySignificant(p.Alpha, t), nil
}

func (r *Renderer) capped(v *View, records []car.Record, quantile float64) ([]car.Record, error) {
	kept, removed, err := r.cleaner.CapPrice(records, quantile)
	if err != nil {
		return nil, v.recover(err)
	}
	v.Rows = len(kept)
	if removed > 0 {
		v.Notices = append(v.Notices, capNotice(removed, quantile))
	}
	return kept, nil
}

func capNotice(removed int, quantile float64) string {
	return fmt.Sprintf("%d cars above the %g price quantile were excluded.", removed, quantile)
}

func (r *Renderer) featureSignificance(v *View, p FeatureSignificance, records []car.Record) (*bool, error) {
	records, err := r.capped(v, records, p.CapQuantile)
	if err != nil || records == nil {
		return nil, err
	}
	report := engine.ScreenFeatures(records, car.FieldPrice, p.Continuous, p.Categorical)
	v.Features = &report

	spec := chart.Spec{
		Kind:   chart.KindBar,
		Title:  "Spearman Correlation with Price",
		XLabel: "Feature",
		YLabel: "Spearman rho",
	}
	for _, t := range report.Continuous {
		spec.Bars = append(spec.Bars, chart.Bar{Label: string(t.Feature), Value: t.Result.Statistic})
	}
	if len(spec.Bars) > 0 {
		v.Charts = append(v.Charts, spec)
	}

	var results []stats.TestResult
	for _, t := range append(append([]stats.FeatureTest(nil), report.Continuous...), report.Categorical...) {
		results = append(results, t.Result)
	}
	if len(results) == 0 {
		v.Status = StatusInsufficient
		v.Notices = append(v.Notices, InsufficientMessage)
	}
	return anySignificant(p.Alpha, results...), nil
}

// fitModel caps prices and fits the price model. It returns the capped
// records and how many were removed even when the fit fails.
func (r *Renderer) fitModel(p PriceModel, records []car.Record) (*stats.RegressionResult, []car.Record, int, error) {
	kept, removed, err := r.cleaner.CapPrice(records, p.CapQuantile)
	if err != nil {
		return nil, nil, 0, err
	}
	model, err := regression.Fit(kept, car.FieldPrice, p.Predictors)
	if err != nil {
		return nil, kept, removed, err
	}
	return model, kept, removed, nil
}

func (r *Renderer) priceModel(v *View, p PriceModel, records []car.Record) error {
	model, records, removed, err := r.fitModel(p, records)
	if records != nil {
		v.Rows = len(records)
	}
	if removed > 0 {
		v.Notices = append(v.Notices, capNotice(removed, p.CapQuantile))
	}
	if err != nil {
		return v.recover(err)
	}
	v.Model = model
	v.Metrics = []Metric{
		{Label: "R²", Value: car.Defined(model.RSquared)},
		{Label: "RMSE", Value: car.Defined(model.RMSE), Unit: "£"},
		{Label: "Rows Used", Value: car.Defined(float64(model.RowsUsed))},
		{Label: "Rows Dropped", Value: car.Defined(float64(model.RowsDropped))},
	}

	importance := chart.Spec{
		Kind:   chart.KindBar,
		Title:  "Feature Importance (standardized coefficient)",
		XLabel: "Feature",
		YLabel: "Standardized coefficient",
	}
	for _, f := range model.Ranking {
		c, _ := model.Coefficient(f)
		importance.Bars = append(importance.Bars, chart.Bar{Label: string(f), Value: c.Standardized})
	}
	v.Charts = append(v.Charts, importance)

	fit := chart.Spec{
		Kind:   chart.KindScatter,
		Title:  "Predicted vs Actual Prices",
		XLabel: "Actual Price",
		YLabel: "Predicted Price",
	}
	for _, rec := range records {
		actual, ok := rec.Number(car.FieldPrice).Float()
		if !ok {
			continue
		}
		inputs, ok := predictorValues(rec, p.Predictors)
		if !ok {
			continue
		}
		predicted, err := regression.Predict(model, inputs)
		if err != nil {
			return err
		}
		fit.Points = append(fit.Points, chart.Point{X: actual, Y: predicted, ID: rec.ID()})
	}
	if len(fit.Points) > 0 {
		lo, hi := fit.Points[0].X, fit.Points[0].X
		for _, pt := range fit.Points {
			lo, hi = min(lo, pt.X), max(hi, pt.X)
		}
		fit.Fit = &chart.Line{Intercept: 0, Slope: 1, XMin: lo, XMax: hi}
		v.Charts = append(v.Charts, fit)
	}
	return nil
}

func predictorValues(rec car.Record, predictors []car.Field) (map[car.Field]float64, bool) {
	out := make(map[car.Field]float64, len(predictors))
	for _, f := range predictors {
		x, ok := rec.Number(f).Float()
		if !ok {
			return nil, false
		}
		out[f] = x
	}
	return out, true
}

// Predict fits the price model on the context's data and predicts a price
// for inputs. Criteria in ctx are not applied, as on the model page.
func (r *Renderer) Predict(ctx Context, p PriceModel, inputs map[car.Field]float64) (float64, *stats.RegressionResult, error) {
	model, _, _, err := r.fitModel(p, ctx.Records)
	if err != nil {
		return 0, nil, err
	}
	price, err := regression.Predict(model, inputs)
	if err != nil {
		return 0, nil, err
	}
	return price, model, nil
}
