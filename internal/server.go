package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/config"
	"github.com/2beens/fittracker/internal/db"
	"github.com/2beens/fittracker/internal/estimator"
	"github.com/2beens/fittracker/internal/middleware"
	"github.com/2beens/fittracker/internal/profiles"
	"github.com/2beens/fittracker/internal/progress"
	"github.com/2beens/fittracker/internal/session"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/internal/users"
	"github.com/2beens/fittracker/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient    *redis.Client
	rateLimiter    middleware.RequestRateLimiter
	authService    *auth.Service
	sessionChecker *auth.SessionChecker
	controller     *session.Controller

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	PostgresPassword        string
	RedisPassword           string
	HoneycombTracingEnabled bool
	// TracingSetup defaults to tracing.HoneycombSetup
	TracingSetup func(enabled bool, serviceName string, rdb *redis.Client) (func(), error)
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	// artifacts first, the service is useless without them
	model, err := estimator.LoadModel(params.Config.ModelPath, params.Config.ScalerPath)
	if err != nil {
		return nil, err
	}
	log.Debugf("calorie estimator loaded: %s model", model.Kind())

	hasher, err := users.NewPasswordHasher(params.Config.PasswordHashScheme)
	if err != nil {
		return nil, err
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.Config.PostgresUser,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}
	if err := db.EnsureSchema(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, err
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // set to 1 once serving

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	tracingSetup := params.TracingSetup
	if tracingSetup == nil {
		tracingSetup = tracing.HoneycombSetup
	}
	otelShutdown, err := tracingSetup(params.HoneycombTracingEnabled, "fittracker-backend", rdb)
	if err != nil {
		if rErr := rdb.Close(); rErr != nil {
			log.Errorf("close redis client: %s", rErr)
		}
		dbPool.Close()
		return nil, err
	}

	// nothing below can fail, the cleanup goroutine lives as long as ctx
	authService := auth.NewService(params.Config.SessionTTL, rdb).
		WithAnonymousTTL(params.Config.AnonymousSessionTTL)
	go authService.RunCleanup(ctx, params.Config.SessionCleanupInterval)

	controller := session.NewController(
		users.NewService(users.NewRepo(dbPool), hasher),
		profiles.NewRepo(dbPool),
		progress.NewRepo(dbPool),
		estimator.NewCachedPredictor(model, params.Config.PredictionCacheMB),
		metricsManager,
	)

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:    rdb,
		rateLimiter:    redis_rate.NewLimiter(rdb),
		authService:    authService,
		sessionChecker: auth.NewSessionChecker(authService),
		controller:     controller,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "fittracker")
	}).Methods("GET").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	h := session.NewHandler(s.controller, s.authService)

	// anyone can open a session, so opening one is rate limited per client ip
	newSessionLimit := middleware.RateLimit(
		s.rateLimiter,
		"session",
		s.config.NewSessionRateLimitAllowedPerMin,
		s.metricsManager,
	)
	r.Handle("/session", newSessionLimit(http.HandlerFunc(h.HandleNewSession))).Methods("POST", "OPTIONS").Name("new-session")
	r.HandleFunc("/session", h.HandleGetSession).Methods("GET", "OPTIONS").Name("get-session")
	r.HandleFunc("/session/navigate", h.HandleNavigate).Methods("POST", "OPTIONS").Name("navigate")

	r.HandleFunc("/profile", h.HandleGetProfile).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile", h.HandleSaveProfile).Methods("PUT", "OPTIONS").Name("save-profile")
	r.HandleFunc("/profile/bmi", h.HandleSuggestBMI).Methods("GET", "OPTIONS").Name("suggest-bmi")

	r.HandleFunc("/progress", h.HandleProgress).Methods("GET", "OPTIONS").Name("list-progress")
	r.HandleFunc("/progress", h.HandleLogWorkout).Methods("POST", "OPTIONS").Name("log-workout")

	// credentials endpoints are rate limited per client ip
	authRouter := r.PathPrefix("/a").Subrouter()
	authRouter.Use(middleware.RateLimit(
		s.rateLimiter,
		"auth",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))
	authRouter.HandleFunc("/register", h.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", h.HandleLogout).Methods("POST", "OPTIONS").Name("logout")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.sessionChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitAndDrainBody(middleware.MaxRequestBodyBytes))

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      otelhttp.NewHandler(router, "fittracker-http"),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the stores go away
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
