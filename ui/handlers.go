package ui

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carprice/adapters/excel"
	"carprice/domain/car"
	"carprice/domain/core"
	"carprice/domain/filter"
	"carprice/internal/errors"
	"carprice/internal/metrics"
	"carprice/internal/page"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PageLink is one entry of the page navigation.
type PageLink struct {
	ID    page.ID `json:"id"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
}

// PredictRequest is the body of POST /api/model/predict.
type PredictRequest struct {
	Inputs map[car.Field]float64 `json:"inputs"`
}

// PredictResponse is the result of a price prediction.
type PredictResponse struct {
	Price     float64     `json:"price"`
	RSquared  float64     `json:"r_squared"`
	RMSE      float64     `json:"rmse"`
	RowsUsed  int         `json:"rows_used"`
	Ranking   []car.Field `json:"ranking"`
	Intercept float64     `json:"intercept"`
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

func (s *Server) renderContext(c *gin.Context) page.Context {
	return page.Context{Records: s.data.Records, Criteria: currentSession(c).Criteria()}
}

// render renders p for the current session and records the outcome.
func (s *Server) render(c *gin.Context, p page.Page) (*page.View, error) {
	start := time.Now()
	v, err := s.pages.Render(s.renderContext(c), p)
	status := "error"
	if v != nil {
		status = string(v.Status)
	}
	metrics.ObservePageRender(string(p.ID()), status, time.Since(start))
	return v, err
}

func (s *Server) pageLinks() []PageLink {
	pages := page.All(s.analysis)
	out := make([]PageLink, len(pages))
	for i, p := range pages {
		out[i] = PageLink{ID: p.ID(), Title: s.pages.Title(p.ID()), URL: "/pages/" + string(p.ID())}
	}
	return out
}

func (s *Server) handlePages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pages": s.pageLinks()})
}

func (s *Server) handlePage(c *gin.Context) {
	p, err := page.Lookup(page.ID(c.Param("page")), s.analysis)
	if err != nil {
		s.respondError(c, err)
		return
	}
	v, err := s.render(c, p)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleGetFilters(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Snapshot())
}

func (s *Server) handlePutFilters(c *gin.Context) {
	var criteria filter.Criteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		s.respondError(c, errors.InvalidInput("malformed filter body: "+err.Error()))
		return
	}
	sess := currentSession(c)
	state, err := sess.Replace(criteria)
	if err != nil {
		s.respondError(c, err)
		return
	}
	metrics.FilterUpdates.WithLabelValues(string(state)).Inc()
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) handleResetFilters(c *gin.Context) {
	sess := currentSession(c)
	metrics.FilterUpdates.WithLabelValues(string(sess.Reset())).Inc()
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) handleClearFilter(c *gin.Context) {
	f := car.Field(c.Param("field"))
	if _, ok := car.Lookup(f); !ok {
		s.respondError(c, core.NewUnknownFieldError(string(f)))
		return
	}
	sess := currentSession(c)
	metrics.FilterUpdates.WithLabelValues(string(sess.Clear(f))).Inc()
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) handleChart(c *gin.Context) {
	p, err := page.Lookup(page.ID(c.Param("page")), s.analysis)
	if err != nil {
		s.respondError(c, err)
		return
	}
	index, err := strconv.Atoi(strings.TrimSuffix(c.Param("file"), ".png"))
	if err != nil || !strings.HasSuffix(c.Param("file"), ".png") {
		s.respondError(c, errors.InvalidInput("chart must be addressed as <index>.png"))
		return
	}
	v, err := s.render(c, p)
	if err != nil {
		s.respondError(c, err)
		return
	}
	spec, ok := v.Chart(index)
	if !ok {
		s.respondError(c, errors.NotFound("chart "+c.Param("file")+" of page "+string(p.ID())))
		return
	}

	var buf bytes.Buffer
	if err := s.charts.Render(&buf, spec); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to render chart"))
		return
	}
	metrics.ChartRenders.WithLabelValues(string(spec.Kind)).Inc()
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, s.charts.ContentType(), buf.Bytes())
}

func (s *Server) handleExport(c *gin.Context) {
	subset := filter.Apply(currentSession(c).Criteria(), s.data.Records)
	var buf bytes.Buffer
	if err := excel.WriteRecords(&buf, subset.Records, excel.ExportFields()); err != nil {
		s.respondError(c, errors.Wrap(err, "failed to export cars"))
		return
	}
	s.log.Debug("Exported %d of %d cars", subset.Len(), subset.Total)
	c.Header("Content-Disposition", `attachment; filename="car_prices_filtered.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) handlePredict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("malformed prediction body: "+err.Error()))
		return
	}
	p, err := page.Lookup(page.IDPriceModel, s.analysis)
	if err != nil {
		s.respondError(c, err)
		return
	}
	price, model, err := s.pages.Predict(s.renderContext(c), p.(page.PriceModel), req.Inputs)
	if err != nil {
		metrics.Predictions.WithLabelValues("error").Inc()
		if !core.IsRecoverable(err) {
			err = &errors.AppError{Code: errors.CodeInvalidInput, Message: "prediction failed", Cause: err}
		}
		s.respondError(c, err)
		return
	}
	metrics.Predictions.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, PredictResponse{
		Price:     price,
		RSquared:  model.RSquared,
		RMSE:      model.RMSE,
		RowsUsed:  model.RowsUsed,
		Ranking:   model.Ranking,
		Intercept: model.Intercept,
	})
}

func (s *Server) handleDataset(c *gin.Context) {
	levels := make(map[car.Field][]string, len(sidebarSets))
	for _, f := range sidebarSets {
		levels[f] = s.levels(f)
	}
	c.JSON(http.StatusOK, gin.H{
		"source": s.data.Source,
		"rows":   len(s.data.Records),
		"report": s.data.Report,
		"levels": levels,
	})
}
