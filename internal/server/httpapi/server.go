// Package httpapi exposes the fitkeeper services as a JSON REST API. Every
// response, successful or not, uses the Envelope shape.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/fitkeeper/internal/logging"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
	"github.com/dmitrijs2005/fitkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
)

const (
	limiterPruneInterval   = time.Minute
	limiterIdle            = 10 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
)

type Server struct {
	address         string
	shutdownTimeout time.Duration
	logger          logging.Logger
	limiter         *RateLimiter
	handler         http.Handler
}

func NewServer(cfg *config.Config, l logging.Logger, res *services.Resources, us *services.UserService, up *services.Uploader, m *metrics.Metrics) *Server {
	s := &Server{
		address:         cfg.HTTPAddr,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          l.With("module", "http_server"),
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}
	s.limiter = NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginBurst, s.logger)

	r := mux.NewRouter()
	r.NotFoundHandler = notFound(s.logger)
	r.MethodNotAllowedHandler = methodNotAllowed()
	r.Use(m.Middleware)

	r.HandleFunc("/healthz", Handle(s.logger, health)).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	ah := &authHandler{users: us}
	public := r.PathPrefix("/api/auth").Subrouter()
	public.Use(s.limiter.Middleware)
	public.HandleFunc("/login", Handle(s.logger, ah.login)).Methods(http.MethodPost)
	public.HandleFunc("/register", Handle(s.logger, ah.register)).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authenticate([]byte(cfg.SecretKey), s.logger))
	api.HandleFunc("/auth/me", Handle(s.logger, ah.me)).Methods(http.MethodGet)

	mountUsers(api, "/users", us, res.Users, s.logger)
	mountResource(api, "/bodyPart", res.BodyParts, s.logger)
	mountResource(api, "/muscleType", res.MuscleTypes, s.logger)
	mountResource(api, "/fitnessGoal", res.FitnessGoals, s.logger)
	mountResource(api, "/usageScenario", res.UsageScenarios, s.logger)
	mountResource(api, "/fitnessEquipment", res.Equipment, s.logger)
	mountResource(api, "/payments", res.Payments, s.logger)
	mountResource(api, "/memberships", res.Memberships, s.logger)

	uh := &uploadHandler{uploader: up}
	api.HandleFunc("/upload", Handle(s.logger, uh.upload)).Methods(http.MethodPost)
	api.HandleFunc("/upload", Handle(s.logger, uh.remove)).Methods(http.MethodDelete)

	var h http.Handler = r
	h = newCORS(cfg.CORSOrigins).handler(h)
	h = recoverer(s.logger)(h)
	h = accessLog(s.logger)(h)
	h = requestID(h)
	s.handler = h

	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func health(*http.Request) (*Response, error) {
	return OK(map[string]string{"status": "ok"}, "ok"), nil
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go s.limiter.RunPruner(ctx, limiterPruneInterval, limiterIdle)

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
