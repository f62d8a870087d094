package ui

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"carprice/domain/car"
	"carprice/domain/filter"
	"carprice/internal/errors"
	"carprice/internal/metrics"
	"carprice/internal/page"

	"github.com/gin-gonic/gin"
)

// Sidebar controls: numeric ranges and category multi-selects.
var (
	sidebarRanges = []car.Field{car.FieldPrice, car.FieldEngineSize, car.FieldHorsepower}
	sidebarSets   = []car.Field{car.FieldFuelType, car.FieldCarBody, car.FieldDriveWheel}
)

// RangeInput is a numeric range control with its current bounds.
type RangeInput struct {
	Field car.Field
	Label string
	Min   string
	Max   string
}

// Option is one checkbox of a category control.
type Option struct {
	Value   string
	Checked bool
}

// SetInput is a category multi-select control.
type SetInput struct {
	Field   car.Field
	Label   string
	Options []Option
}

// FilterForm is the sidebar state rendered into the dashboard template.
type FilterForm struct {
	Ranges  []RangeInput
	Sets    []SetInput
	Summary string
}

func (s *Server) filterForm(criteria filter.Criteria) FilterForm {
	form := FilterForm{Summary: criteria.String()}
	for _, f := range sidebarRanges {
		in := RangeInput{Field: f, Label: car.Label(f)}
		if c, ok := criteria[f]; ok && c.Range != nil {
			if c.Range.Min != nil {
				in.Min = strconv.FormatFloat(*c.Range.Min, 'f', -1, 64)
			}
			if c.Range.Max != nil {
				in.Max = strconv.FormatFloat(*c.Range.Max, 'f', -1, 64)
			}
		}
		form.Ranges = append(form.Ranges, in)
	}
	for _, f := range sidebarSets {
		selected := make(map[string]bool)
		for _, v := range criteria[f].Values {
			selected[v] = true
		}
		in := SetInput{Field: f, Label: car.Label(f)}
		for _, level := range s.levels(f) {
			in.Options = append(in.Options, Option{Value: level, Checked: selected[level]})
		}
		form.Sets = append(form.Sets, in)
	}
	return form
}

// criteriaFromForm reads the sidebar fields. Blank bounds are open and an
// empty selection leaves the field unrestricted.
func criteriaFromForm(form url.Values) (filter.Criteria, error) {
	criteria := filter.None()
	for _, f := range sidebarRanges {
		var r filter.Range
		for _, bound := range []struct {
			suffix string
			dst    **float64
		}{{"_min", &r.Min}, {"_max", &r.Max}} {
			raw := strings.TrimSpace(form.Get(string(f) + bound.suffix))
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.InvalidInput("invalid " + car.Label(f) + " bound: " + raw)
			}
			*bound.dst = &v
		}
		if c := filter.Within(r); !c.Unrestricted() {
			criteria[f] = c
		}
	}
	for _, f := range sidebarSets {
		if values := form[string(f)]; len(values) > 0 {
			criteria[f] = filter.In(values...)
		}
	}
	return criteria, nil
}

// returnTo is the dashboard page a form post should land back on.
func returnTo(c *gin.Context) string {
	if p := c.PostForm("page"); p != "" && !strings.ContainsAny(p, "/?#") {
		return "/pages/" + url.PathEscape(p)
	}
	return "/"
}

func (s *Server) handleFilterForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		s.respondError(c, errors.InvalidInput("malformed form"))
		return
	}
	criteria, err := criteriaFromForm(c.Request.PostForm)
	if err != nil {
		s.respondError(c, err)
		return
	}
	state, err := currentSession(c).Replace(criteria)
	if err != nil {
		s.respondError(c, err)
		return
	}
	metrics.FilterUpdates.WithLabelValues(string(state)).Inc()
	c.Redirect(http.StatusSeeOther, returnTo(c))
}

func (s *Server) handleFilterFormReset(c *gin.Context) {
	metrics.FilterUpdates.WithLabelValues(string(currentSession(c).Reset())).Inc()
	c.Redirect(http.StatusSeeOther, returnTo(c))
}

func (s *Server) handleIndex(c *gin.Context) {
	id := page.ID(c.Param("page"))
	if id == "" {
		id = page.IDOverview
	}
	p, err := page.Lookup(id, s.analysis)
	if err != nil {
		s.respondError(c, err)
		return
	}
	v, err := s.render(c, p)
	if err != nil {
		s.respondError(c, err)
		return
	}
	sess := currentSession(c)
	s.renderTemplate(c, "dashboard.html", map[string]any{
		"Pages":   s.pageLinks(),
		"View":    v,
		"Filters": s.filterForm(sess.Criteria()),
		"Session": sess.Snapshot(),
		"Dataset": s.data.Report,
		"Source":  s.data.Source,
	})
}
