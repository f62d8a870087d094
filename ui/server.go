package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"carprice/adapters/plotpng"
	"carprice/domain/car"
	"carprice/internal"
	"carprice/internal/config"
	"carprice/internal/dataset"
	"carprice/internal/page"
	"carprice/internal/session"

	"github.com/gin-gonic/gin"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// Server is the dashboard web server.
type Server struct {
	router    *gin.Engine
	templates *template.Template
	log       *internal.Logger

	data     *dataset.Dataset
	analysis config.AnalysisConfig
	cookie   config.SessionConfig
	pages    *page.Renderer
	charts   *plotpng.Renderer
	sessions *session.Store
}

// Deps are the collaborators of a Server.
type Deps struct {
	Data       *dataset.Dataset
	Config     *config.Config
	Narratives page.Narratives
	Charts     *plotpng.Renderer
	Sessions   *session.Store
}

// NewServer builds the router, templates and routes for the dashboard.
func NewServer(deps Deps) (*Server, error) {
	if deps.Data == nil || deps.Config == nil {
		return nil, fmt.Errorf("server needs a dataset and a configuration")
	}
	if deps.Charts == nil {
		deps.Charts = plotpng.DefaultRenderer()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore(time.Duration(deps.Config.Session.MaxAgeSecs) * time.Second)
	}

	templates, err := template.New("").Funcs(funcMap()).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	gin.SetMode(deps.Config.Server.GinMode)
	s := &Server{
		router:    gin.New(),
		templates: templates,
		log:       internal.DefaultLogger.Component("Server"),
		data:      deps.Data,
		analysis:  deps.Config.Analysis,
		cookie:    deps.Config.Session,
		pages:     page.NewRenderer(deps.Narratives),
		charts:    deps.Charts,
		sessions:  deps.Sessions,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/pages/:page", s.handleIndex)
	s.router.POST("/filters", s.handleFilterForm)
	s.router.POST("/filters/reset", s.handleFilterFormReset)

	api := s.router.Group("/api")
	api.GET("/pages", s.handlePages)
	api.GET("/pages/:page", s.handlePage)
	api.GET("/filters", s.handleGetFilters)
	api.PUT("/filters", s.handlePutFilters)
	api.DELETE("/filters", s.handleResetFilters)
	api.DELETE("/filters/:field", s.handleClearFilter)
	api.GET("/charts/:page/:file", s.handleChart)
	api.GET("/export.xlsx", s.handleExport)
	api.POST("/model/predict", s.handlePredict)
	api.GET("/dataset", s.handleDataset)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// HTTPServer wraps the router in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	s.log.Info("Dashboard on %s (%d cars from %s)", addr, len(s.data.Records), s.data.Source)
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// levels lists the filter choices of a categorical column over the full table.
func (s *Server) levels(f car.Field) []string {
	return car.Levels(s.data.Records, f)
}
