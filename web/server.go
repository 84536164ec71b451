// Package web serves the two-page UI (information and prediction) and a
// JSON prediction endpoint on top of the regressor.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/YuminosukeSato/houseprice/config"
	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/regressor"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page identifiers accepted by the ?page= selector.
const (
	PageInfo    = "info"
	PagePredict = "predict"
)

// Predictor turns an uploaded table into predictions. *regressor.Adapter
// implements it.
type Predictor interface {
	Predict(ctx context.Context, table *dataset.Table) (*regressor.Result, error)
}

// Server holds the handlers and their dependencies.
type Server struct {
	cfg       *config.Config
	predictor Predictor
	logger    log.Logger
	reporter  errors.Reporter
	limiter   *rate.Limiter
	pages     map[string]*template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReporter sets where internal errors are reported.
func WithReporter(r errors.Reporter) Option {
	return func(s *Server) { s.reporter = r }
}

// NewServer creates a Server. Templates are parsed here so a broken template
// fails at startup.
func NewServer(cfg *config.Config, predictor Predictor, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if predictor == nil {
		return nil, errors.NewValueError("web.NewServer", "predictor must not be nil")
	}
	s := &Server{
		cfg:       cfg,
		predictor: predictor,
		reporter:  errors.NopReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("web")
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	s.pages = pages
	return s, nil
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, 2)
	for _, name := range []string{PageInfo, PagePredict} {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s template", name)
		}
		pages[name] = t
	}
	return pages, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("POST /predict", s.rateLimit(http.HandlerFunc(s.handlePredictPage), s.renderRateLimited))
	mux.Handle("POST /api/v1/predict", s.rateLimit(http.HandlerFunc(s.handlePredictAPI), s.writeRateLimitedJSON))

	var h http.Handler = mux
	h = s.recoverer(h)
	h = s.accessLog(h)
	h = requestID(h)
	return h
}

// HTTPServer builds an *http.Server with the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  2 * s.cfg.ReadTimeout,
	}
}
