package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/broady/mxapi/server"
)

// Metrics holds the Prometheus collectors recorded for served endpoints.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight *prometheus.GaugeVec
}

// NewMetrics creates the endpoint collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mxapi",
				Name:      "requests_total",
				Help:      "Total number of endpoint calls, by Matrix error code",
			},
			[]string{"endpoint", "errcode"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mxapi",
				Name:      "request_duration_seconds",
				Help:      "Endpoint handler duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		RequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mxapi",
				Name:      "requests_in_flight",
				Help:      "Number of endpoint calls currently being handled",
			},
			[]string{"endpoint"},
		),
	}
}

// Interceptor returns an interceptor recording every call. Successful calls
// are counted with an empty errcode; failures use the code the error would
// be written with.
func (m *Metrics) Interceptor() server.UnaryInterceptor {
	return func(ctx context.Context, req any, info *server.CallInfo, handler server.HandlerFunc) (any, error) {
		inFlight := m.RequestsInFlight.WithLabelValues(info.Endpoint)
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		res, err := handler(ctx, req)
		m.RequestDuration.WithLabelValues(info.Endpoint).Observe(time.Since(start).Seconds())

		errcode := ""
		if mErr := server.DefaultErrorTransformer(err); mErr != nil {
			errcode = string(mErr.Code)
		}
		m.RequestsTotal.WithLabelValues(info.Endpoint, errcode).Inc()

		return res, err
	}
}

// MetricsInterceptor registers a fresh set of collectors with reg and
// returns their interceptor.
func MetricsInterceptor(reg prometheus.Registerer) server.UnaryInterceptor {
	return NewMetrics(reg).Interceptor()
}
