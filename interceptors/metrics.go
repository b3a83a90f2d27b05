package interceptors

import (
	"context"
	"strconv"
	"time"

	"github.com/marrek/httpwire/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsInterceptor records Prometheus metrics per dispatch
type MetricsInterceptor struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewMetricsInterceptor creates an interceptor registering its collectors
// with reg. A nil registerer uses the default registry. Two metrics
// interceptors must not share a registerer, since the collector names
// collide.
func NewMetricsInterceptor(reg prometheus.Registerer) *MetricsInterceptor {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsInterceptor{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpwire_requests_total",
				Help: "Total number of dispatched requests",
			},
			[]string{"method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "httpwire_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		requestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "httpwire_request_size_bytes",
				Help:    "Request body size in bytes",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"method"},
		),
		responseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "httpwire_response_size_bytes",
				Help:    "Response body size in bytes",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"method"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "httpwire_requests_in_flight",
				Help: "Number of requests currently in flight",
			},
		),
	}
}

// Intercept implements Interceptor
func (i *MetricsInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	start := time.Now()
	method := req.Method()

	stream, err := next.Handle(ctx, req)
	if err != nil {
		i.requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	i.requestSize.WithLabelValues(method).Observe(float64(len(req.Body())))
	i.inFlight.Inc()
	out := make(chan wire.Event)
	go func() {
		defer close(out)
		defer i.inFlight.Dec()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-stream:
				if !ok {
					return
				}
				switch t := ev.(type) {
				case *wire.Response:
					i.requestsTotal.WithLabelValues(method, strconv.Itoa(t.Status)).Inc()
					i.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
					i.responseSize.WithLabelValues(method).Observe(float64(len(t.Body)))
				case *wire.Failure:
					i.requestsTotal.WithLabelValues(method, "error").Inc()
					i.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Name implements Interceptor
func (i *MetricsInterceptor) Name() string {
	return "MetricsInterceptor"
}
