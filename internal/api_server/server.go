package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scriptvoice/narration-planner/internal/auth"
	"github.com/scriptvoice/narration-planner/internal/config"
	"github.com/scriptvoice/narration-planner/internal/events"
	handlers "github.com/scriptvoice/narration-planner/internal/handlers/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/service"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/pkg/metrics"
	"github.com/scriptvoice/narration-planner/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg        *config.Config
	store      store.Store
	listener   net.Listener
	evProducer *events.EventProducer
}

// New returns a new instance of a narration-planner server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	evProducer *events.EventProducer,
) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		listener:   listener,
		evProducer: evProducer,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewHeaderAuthenticator()
	if err != nil {
		return err
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://studio.scriptvoice.io", "http://localhost:3000"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		authenticator.Authenticator,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.NewServiceHandler(
		service.NewJobService(s.store, s.evProducer),
		service.NewAssignmentService(s.store, s.evProducer),
	)
	router.Mount("/api/v1alpha1", h.Routes())

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
