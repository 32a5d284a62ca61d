// Package httpimpl serves the archive operations over REST. Each request opens one subscription
// and is answered with its single event.
package httpimpl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/services/archive/query"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util/servicemanager"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

var ArchiveStat = gocore.NewStat("ArchiveHTTP")

// HTTP is the echo server of the archive service.
type HTTP struct {
	logger    ulogger.Logger
	settings  *settings.Settings
	archive   *query.Archive
	health    query.HealthChecker
	e         *echo.Echo
	startTime time.Time
}

// New creates the echo server and registers the routes:
//
//	GET /alive
//	GET /health
//	GET {prometheusEndpoint}
//	GET {statsPrefix}stats, {statsPrefix}reset
//	GET {apiPrefix}/archive/genesis_hash
//	GET {apiPrefix}/archive/body/:hash
//	GET {apiPrefix}/archive/header/:hash
//	GET {apiPrefix}/archive/hash_by_height/:height
//	GET {apiPrefix}/archive/storage/:hash/:key?child=<hex>
//	GET {apiPrefix}/archive/storage/:hash?key=<hex>&child=<hex>
func New(logger ulogger.Logger, tSettings *settings.Settings, archive *query.Archive, health query.HealthChecker) (*HTTP, error) {
	initPrometheusMetrics()

	if archive == nil {
		return nil, errors.NewConfigurationError("[ArchiveHTTP] no archive to serve")
	}

	e := echo.New()

	if tSettings.Archive.EchoDebug {
		e.Debug = true
	}

	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return true, nil
		},
		AllowMethods:  []string{echo.GET, echo.HEAD, echo.OPTIONS},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: []string{echo.HeaderContentLength, echo.HeaderContentType},
		MaxAge:        86400,
	}))

	e.Use(middleware.Gzip())

	if e.Debug {
		e.Use(customLoggerMiddleware(logger))
	}

	h := &HTTP{
		logger:    logger,
		settings:  tSettings,
		archive:   archive,
		health:    health,
		e:         e,
		startTime: time.Now(),
	}

	e.GET("/alive", func(c echo.Context) error {
		return c.String(http.StatusOK, fmt.Sprintf("Archive service is alive. Uptime: %s\n", time.Since(h.startTime)))
	})

	e.GET("/health", func(c echo.Context) error {
		logger.Debugf("[ArchiveHTTP] Health check")

		if h.health == nil {
			return c.String(http.StatusOK, "OK")
		}

		status, details, err := h.health.Health(c.Request().Context(), false)
		if err != nil || status != http.StatusOK {
			return c.String(http.StatusServiceUnavailable, details)
		}

		return c.String(http.StatusOK, details)
	})

	if tSettings.PrometheusEndpoint != "" {
		e.GET(tSettings.PrometheusEndpoint, echo.WrapHandler(promhttp.Handler()))
	}

	if tSettings.StatsPrefix != "" {
		e.GET(tSettings.StatsPrefix+"stats", AdaptStdHandler(gocore.HandleStats))
		e.GET(tSettings.StatsPrefix+"reset", AdaptStdHandler(gocore.ResetStats))
	}

	apiGroup := e.Group(tSettings.Archive.APIPrefix + "/archive")

	if tSettings.Archive.RateLimit > 0 {
		apiGroup.Use(rateLimiter(tSettings.Archive.RateLimit))
	}

	apiGroup.GET("/genesis_hash", h.GetGenesisHash)
	apiGroup.GET("/body/:hash", h.GetBody)
	apiGroup.GET("/header/:hash", h.GetHeader)
	apiGroup.GET("/hash_by_height/:height", h.GetHashByHeight)
	apiGroup.GET("/storage/:hash", h.GetStorage)
	apiGroup.GET("/storage/:hash/:key", h.GetStorage)

	e.GET("*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	})

	return h, nil
}

// rateLimiter allows perSecond requests per client IP, with bursts of the same size.
func rateLimiter(perSecond int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     perSecond,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return sendError(c, http.StatusForbidden, errors.NewServiceError("could not identify client", err))
		},
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			prometheusArchiveHTTPResponses.WithLabelValues("rate_limit", "denied").Inc()
			return sendError(c, http.StatusTooManyRequests, errors.NewThresholdExceededError("rate limit of %d requests per second exceeded for %s", perSecond, identifier))
		},
	})
}

func AdaptStdHandler(handler func(w http.ResponseWriter, r *http.Request)) echo.HandlerFunc {
	return func(c echo.Context) error {
		handler(c.Response().Writer, c.Request())
		return nil
	}
}

func (h *HTTP) Init(_ context.Context) error {
	return nil
}

// Start serves on addr until ctx is done.
func (h *HTTP) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()

		h.logger.Infof("[ArchiveHTTP] service shutting down")

		if err := h.e.Shutdown(context.Background()); err != nil {
			h.logger.Errorf("[ArchiveHTTP] service shutdown error: %s", err)
		}
	}()

	servicemanager.AddListenerInfo(fmt.Sprintf("Archive HTTP listening on %s", addr))

	err := h.e.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.NewServiceError("[ArchiveHTTP] server failed", err)
	}

	return nil
}

func (h *HTTP) Stop(ctx context.Context) error {
	return h.e.Shutdown(ctx)
}

// AddHTTPHandler mounts a plain http.Handler, used for the centrifuge websocket endpoint.
func (h *HTTP) AddHTTPHandler(pattern string, handler http.Handler) error {
	h.e.GET(pattern, echo.WrapHandler(handler))
	return nil
}

// ServeHTTP makes the server usable with httptest.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.e.ServeHTTP(w, r)
}

func customLoggerMiddleware(logger ulogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			logger.Infof("http request: Method=%s, URI=%s, RemoteAddr=%s Status=%d, Duration=%v, err=%v", c.Request().Method, c.Request().RequestURI, c.Request().RemoteAddr, status, duration, err)

			return err
		}
	}
}
