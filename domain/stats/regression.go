package stats

import "carprice/domain/car"

// Coefficient is one fitted predictor of a linear model.
type Coefficient struct {
	Feature car.Field `json:"feature"`
	Value   float64   `json:"value"`
	// StdErr, TStat and PValue are undefined when the fit has no residual
	// degrees of freedom.
	StdErr       car.Number `json:"std_err"`
	TStat        car.Number `json:"t_stat"`
	PValue       car.Number `json:"p_value"`
	Standardized float64    `json:"standardized"`
	Rank         int        `json:"rank"`
}

// RegressionResult is an ordinary least squares fit against the target.
type RegressionResult struct {
	Target       car.Field     `json:"target"`
	Intercept    float64       `json:"intercept"`
	Coefficients []Coefficient `json:"coefficients"`
	// Ranking lists the predictors by descending absolute standardized coefficient.
	Ranking     []car.Field `json:"ranking"`
	RSquared    float64     `json:"r_squared"`
	RMSE        float64     `json:"rmse"`
	RowsUsed    int         `json:"rows_used"`
	RowsDropped int         `json:"rows_dropped"`
	ResidualDF  int         `json:"residual_df"`
}

// Coefficient returns the fitted coefficient for f.
func (r *RegressionResult) Coefficient(f car.Field) (Coefficient, bool) {
	for _, c := range r.Coefficients {
		if c.Feature == f {
			return c, true
		}
	}
	return Coefficient{}, false
}
