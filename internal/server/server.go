// Package server exposes wizard sessions over HTTP. Each session owns a
// stepper built from a definition; pages are rendered server side and every
// navigation posts the active step's fields back.
package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/internal/metrics"
	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/html"
	"github.com/goliatone/go-formflow/pkg/submit"
)

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records requests, transitions, submissions and searches.
func WithMetrics(m *metrics.Metrics, handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = m
		if handler != nil {
			s.metricsHandler = handler
		}
	}
}

// WithTheme applies resolved theme tokens to every page.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) {
		s.theme = cfg
	}
}

// WithRenderers replaces the renderer registry. The registry must hold a
// renderer named rendererName.
func WithRenderers(registry *render.Registry, rendererName string) Option {
	return func(s *Server) {
		if registry != nil {
			s.renderers = registry
		}
		if rendererName != "" {
			s.rendererName = rendererName
		}
	}
}

// WithStrictWidgets makes unknown widget kinds fail the request.
func WithStrictWidgets(strict bool) Option {
	return func(s *Server) {
		s.strictWidgets = strict
	}
}

// WithFormConfig overrides the validation timing of session forms.
func WithFormConfig(cfg formstate.Config) Option {
	return func(s *Server) {
		s.formConfig = cfg
	}
}

// WithDecorators runs decorators on a copy of the definition before each
// session is opened, for example to attach search callbacks.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(s *Server) {
		s.pipelineOpts = append(s.pipelineOpts, orchestrator.WithDecorators(decorators...))
	}
}

// WithTransformer rewrites definitions before decorators run.
func WithTransformer(t orchestrator.Transformer) Option {
	return func(s *Server) {
		s.pipelineOpts = append(s.pipelineOpts, orchestrator.WithTransformer(t))
	}
}

// WithEndpointOverrides attaches option endpoints to choice fields whose
// definitions declare none.
func WithEndpointOverrides(overrides []orchestrator.EndpointOverride) Option {
	return func(s *Server) {
		s.pipelineOpts = append(s.pipelineOpts, orchestrator.WithEndpointOverrides(overrides))
	}
}

// WithRemoteOptions customises the remote option sources built from search
// URLs.
func WithRemoteOptions(opts ...options.RemoteOption) Option {
	return func(s *Server) {
		s.remoteOpts = append(s.remoteOpts, opts...)
	}
}

// WithCSRF gives every session an anti-forgery token rendered as the hidden
// input field. Posts to the session are rejected unless they echo the token.
// An empty field name disables the check.
func WithCSRF(field string) Option {
	return func(s *Server) {
		s.csrfField = strings.TrimSpace(field)
	}
}

// Server serves wizard sessions for the definitions of a store.
type Server struct {
	definitions    *definition.Store
	client         *submit.Client
	sessions       *sessionStore
	renderers      *render.Registry
	rendererName   string
	theme          *theme.RendererConfig
	strictWidgets  bool
	formConfig     formstate.Config
	pipelineOpts   []orchestrator.Option
	pipeline       *orchestrator.Orchestrator
	remoteOpts     []options.RemoteOption
	csrfField      string
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	logger         *zap.Logger
}

// New wires a server. The html renderer is registered by default.
func New(definitions *definition.Store, client *submit.Client, opts ...Option) (*Server, error) {
	s := &Server{
		definitions:    definitions,
		client:         client,
		sessions:       newSessionStore(),
		formConfig:     formstate.DefaultConfig(),
		metricsHandler: promhttp.Handler(),
		logger:         zap.NewNop(),
	}
	if s.definitions == nil {
		s.definitions = definition.NewStore()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderers == nil {
		renderer, err := html.New(html.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.renderers = render.NewRegistry()
		if err := s.renderers.Register(renderer); err != nil {
			return nil, err
		}
		s.rendererName = renderer.Name()
	}
	if s.rendererName == "" {
		s.rendererName = "html"
	}
	if !s.renderers.Has(s.rendererName) {
		return nil, fmt.Errorf("server: renderer %q is not registered", s.rendererName)
	}
	s.pipeline = orchestrator.New(append(s.pipelineOpts,
		orchestrator.WithRegistry(s.renderers),
		orchestrator.WithFormConfig(s.formConfig),
		orchestrator.WithLogger(s.logger),
	)...)
	return s, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metricsHandler)
	r.Get("/forms", s.handleListForms)
	r.Post("/forms/{form}/sessions", s.handleCreateSession)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleShow)
		r.Delete("/", s.handleDelete)
		r.Post("/fields", s.handleFields)
		r.Post("/next", s.handleNext)
		r.Post("/back", s.handleBack)
		r.Post("/submit", s.handleSubmit)
		r.Get("/options/{field}", s.handleOptions)
	})
	return r
}

// Close ends every open session.
func (s *Server) Close() {
	for _, sess := range s.sessions.drain() {
		sess.close()
		s.metrics.SessionClosed()
	}
}

// observe records request counts and latency per route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(started)
		s.metrics.ObserveRequest(route, r.Method, strconv.Itoa(status), elapsed)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
