package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_http_requests_total",
		Help: "Count of HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "membership_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// SignupsTotal counts completed signup sagas by outcome.
	SignupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_signups_total",
		Help: "Count of membership signups by outcome.",
	}, []string{"status"})

	// SagaStageFailures counts failures per saga stage, including the
	// tolerated ones.
	SagaStageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_saga_stage_failures_total",
		Help: "Count of signup saga stage failures.",
	}, []string{"stage"})
)

// AddEchoMiddleware mounts request metrics and the /metrics endpoint.
func AddEchoMiddleware(e *echo.Echo) {
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if ctx.Path() == "/metrics" {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			httpRequestCount.WithLabelValues(
				ctx.Request().Method,
				ctx.Path(),
				strconv.Itoa(ctx.Response().Status),
			).Inc()
			httpRequestDuration.WithLabelValues(
				ctx.Request().Method,
				ctx.Path(),
			).Observe(time.Since(start).Seconds())

			return nil
		}
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
