package httpserver

import (
	"net/http"

	"github.com/repovault/repovault-go/internal/core/service"
	"github.com/repovault/repovault-go/internal/server/httpserver/handler"
	"github.com/repovault/repovault-go/internal/telemetry/logger"
	"github.com/repovault/repovault-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Service handles credential operations.
	Service *service.CredentialService

	// Logger for request logging.
	Logger logger.Logger

	// Metrics is the metrics registry. Nil disables metric recording
	// and the /metrics endpoint.
	Metrics *metric.Registry

	// RateLimit is the sustained requests-per-second budget.
	// Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst allowance on top of RateLimit.
	RateBurst int
}

// NewRouter assembles the API handler and its middleware chain.
// Order: Recover -> RequestID -> Metrics -> RateLimit -> Handler.
// Health and metrics endpoints bypass the rate limiter so probes and
// scrapes survive a traffic spike.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	h := handler.New(cfg.Service, log, cfg.Metrics)

	apiMiddlewares := []Middleware{
		Recover(log),
		RequestID(),
		Metrics(cfg.Metrics),
	}
	if cfg.RateLimit > 0 {
		apiMiddlewares = append(apiMiddlewares, RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	apiHandler := Chain(h, apiMiddlewares...)

	probeHandler := Chain(h, Recover(log), RequestID())

	mux := http.NewServeMux()
	mux.Handle("POST /api/GenerateToken", apiHandler)
	mux.Handle("POST /api/ListTokensByRepoID", apiHandler)
	mux.Handle("POST /api/DeleteToken", apiHandler)

	mux.Handle("GET /health", probeHandler)
	mux.Handle("GET /ready", probeHandler)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(log)))
	}

	// Everything else falls through to the handler's 404.
	mux.Handle("/", probeHandler)

	return mux
}
