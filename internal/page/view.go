package page

import (
	"html/template"

	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/filter"
	"carprice/domain/stats"
	"carprice/internal/chart"
)

// Context is everything a render reads: the cleaned table and the session's
// criteria. Pages never mutate it.
type Context struct {
	Records  []car.Record
	Criteria filter.Criteria
}

// Status is the display state of a rendered page.
type Status string

const (
	StatusOK           Status = "ok"
	StatusNoData       Status = "no_data"
	StatusInsufficient Status = "insufficient_data"
)

// Messages shown for the non-ok states.
const (
	NoDataMessage       = "No data for the current filter."
	InsufficientMessage = "Insufficient data for this selection."
)

// Metric is one headline number. Delta is the percent difference from the
// page's reference value, when the page has one.
type Metric struct {
	Label string     `json:"label"`
	Value car.Number `json:"value"`
	Unit  string     `json:"unit,omitempty"`
	Delta car.Number `json:"delta_pct"`
}

// Table is a rendered grid of cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// View is the result of rendering a page.
type View struct {
	Page      ID            `json:"page"`
	Title     string        `json:"title"`
	Status    Status        `json:"status"`
	Notices   []string      `json:"notices,omitempty"`
	Intro     template.HTML `json:"intro,omitempty"`
	Verdict   template.HTML `json:"verdict,omitempty"`
	Filter    string        `json:"filter"`
	Ignored   []car.Field   `json:"ignored_filters,omitempty"`
	Rows      int           `json:"rows"`
	TotalRows int           `json:"total_rows"`

	Metrics      []Metric                `json:"metrics,omitempty"`
	PriceSummary *stats.Summary          `json:"price_summary,omitempty"`
	Tests        []stats.TestResult      `json:"tests,omitempty"`
	Correlations []stats.Correlation     `json:"correlations,omitempty"`
	Summaries    []stats.GroupSummary    `json:"summaries,omitempty"`
	Features     *stats.FeatureReport    `json:"features,omitempty"`
	Model        *stats.RegressionResult `json:"model,omitempty"`
	Charts       []chart.Spec            `json:"charts,omitempty"`
	Table        *Table                  `json:"table,omitempty"`
}

// recover turns a recoverable analysis error into an inline notice and
// returns nil. Other errors are returned unchanged.
func (v *View) recover(err error) error {
	if err == nil {
		return nil
	}
	if !core.IsRecoverable(err) {
		return err
	}
	v.Status = StatusInsufficient
	v.Notices = append(v.Notices, err.Error())
	return nil
}

// addChart appends spec unless building it failed.
func (v *View) addChart(spec chart.Spec, err error) error {
	if err != nil {
		return v.recover(err)
	}
	v.Charts = append(v.Charts, spec)
	return nil
}

// Chart returns the i-th chart of the view.
func (v *View) Chart(i int) (chart.Spec, bool) {
	if i < 0 || i >= len(v.Charts) {
		return chart.Spec{}, false
	}
	return v.Charts[i], true
}
