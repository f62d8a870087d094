// Package regression fits ordinary least squares models of price and ranks
// predictors by their standardized coefficients.
package regression

import (
	"fmt"
	"math"
	"sort"

	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/stats"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const testName = "linear_regression"

// design holds the complete rows of a fit.
type design struct {
	x       *mat.Dense // n x (p+1), first column is the intercept
	y       *mat.VecDense
	columns [][]float64 // predictor values by column
	target  []float64
	dropped int
}

func buildDesign(records []car.Record, target car.Field, predictors []car.Field) design {
	p := len(predictors)
	var rows [][]float64
	var ys []float64
	dropped := 0

next:
	for _, r := range records {
		yv, ok := r.Number(target).Float()
		if !ok {
			dropped++
			continue
		}
		row := make([]float64, p+1)
		row[0] = 1
		for j, f := range predictors {
			v, ok := r.Number(f).Float()
			if !ok {
				dropped++
				continue next
			}
			row[j+1] = v
		}
		rows = append(rows, row)
		ys = append(ys, yv)
	}

	d := design{dropped: dropped, target: ys, columns: make([][]float64, p)}
	for j := range d.columns {
		d.columns[j] = make([]float64, len(rows))
		for i, row := range rows {
			d.columns[j][i] = row[j+1]
		}
	}
	if len(rows) > 0 {
		flat := make([]float64, 0, len(rows)*(p+1))
		for _, row := range rows {
			flat = append(flat, row...)
		}
		d.x = mat.NewDense(len(rows), p+1, flat)
		d.y = mat.NewVecDense(len(ys), ys)
	}
	return d
}

func collinear(predictors []car.Field) error {
	names := make([]string, len(predictors))
	for i, f := range predictors {
		names[i] = string(f)
	}
	return &core.CollinearityError{Predictors: names}
}

// Fit regresses target on the numeric predictors. Rows with an undefined
// target or predictor are dropped and counted. At least predictors+1 rows
// must remain. With no residual degrees of freedom the coefficients are
// still reported but their standard errors, t statistics and p-values are
// undefined.
func Fit(records []car.Record, target car.Field, predictors []car.Field) (*stats.RegressionResult, error) {
	if len(predictors) == 0 {
		return nil, fmt.Errorf("regression needs at least one predictor")
	}
	for _, f := range predictors {
		col, ok := car.Lookup(f)
		if !ok {
			return nil, core.NewUnknownFieldError(string(f))
		}
		if col.Kind != car.Numeric {
			return nil, fmt.Errorf("predictor %s is not numeric", f)
		}
	}

	d := buildDesign(records, target, predictors)
	n, p := len(d.target), len(predictors)
	if n < p+1 {
		return nil, &core.InsufficientDataError{
			Test:    testName,
			MinSize: p + 1,
			Reason:  fmt.Sprintf("%d usable rows for %d predictors (%d rows dropped)", n, p, d.dropped),
		}
	}
	if stat.Variance(d.target, nil) == 0 {
		return nil, &core.InsufficientDataError{Test: testName, Reason: "target is constant"}
	}

	var qr mat.QR
	qr.Factorize(d.x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, d.y); err != nil {
		return nil, collinear(predictors)
	}

	var fitted mat.VecDense
	fitted.MulVec(d.x, &beta)
	sse := 0.0
	for i := 0; i < n; i++ {
		r := d.target[i] - fitted.AtVec(i)
		sse += r * r
	}
	meanY := stat.Mean(d.target, nil)
	sst := 0.0
	for _, v := range d.target {
		sst += (v - meanY) * (v - meanY)
	}

	dof := n - p - 1
	se := make([]car.Number, p+1)
	if dof > 0 {
		var xtx, inv mat.Dense
		xtx.Mul(d.x.T(), d.x)
		if err := inv.Inverse(&xtx); err != nil {
			return nil, collinear(predictors)
		}
		sigma2 := sse / float64(dof)
		for j := 0; j <= p; j++ {
			if v := sigma2 * inv.At(j, j); v >= 0 {
				se[j] = car.Defined(math.Sqrt(v))
			}
		}
	}

	sdY := stat.StdDev(d.target, nil)
	result := &stats.RegressionResult{
		Target:      target,
		Intercept:   beta.AtVec(0),
		RSquared:    1 - sse/sst,
		RMSE:        math.Sqrt(sse / float64(n)),
		RowsUsed:    n,
		RowsDropped: d.dropped,
		ResidualDF:  dof,
	}
	for j, f := range predictors {
		b := beta.AtVec(j + 1)
		c := stats.Coefficient{
			Feature:      f,
			Value:        b,
			StdErr:       se[j+1],
			Standardized: b * stat.StdDev(d.columns[j], nil) / sdY,
		}
		if s, ok := se[j+1].Float(); ok && s > 0 {
			t := b / s
			c.TStat = car.Defined(t)
			dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
			c.PValue = car.Defined(math.Min(1, 2*dist.Survival(math.Abs(t))))
		}
		result.Coefficients = append(result.Coefficients, c)
	}
	rank(result)
	return result, nil
}

// rank orders predictors by descending absolute standardized coefficient.
func rank(result *stats.RegressionResult) {
	order := make([]int, len(result.Coefficients))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := result.Coefficients[order[a]], result.Coefficients[order[b]]
		if math.Abs(ca.Standardized) != math.Abs(cb.Standardized) {
			return math.Abs(ca.Standardized) > math.Abs(cb.Standardized)
		}
		return ca.Feature < cb.Feature
	})
	result.Ranking = make([]car.Field, len(order))
	for pos, i := range order {
		result.Coefficients[i].Rank = pos + 1
		result.Ranking[pos] = result.Coefficients[i].Feature
	}
}

// Predict evaluates a fitted model. Every predictor must be supplied.
func Predict(model *stats.RegressionResult, inputs map[car.Field]float64) (float64, error) {
	if model == nil {
		return 0, fmt.Errorf("no model has been fitted")
	}
	y := model.Intercept
	var missing []string
	for _, c := range model.Coefficients {
		v, ok := inputs[c.Feature]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			missing = append(missing, string(c.Feature))
			continue
		}
		y += c.Value * v
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("missing or invalid inputs for %v", missing)
	}
	return y, nil
}
