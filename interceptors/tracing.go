package interceptors

import (
	"context"
	"fmt"

	"github.com/marrek/httpwire/wire"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/marrek/httpwire"

// TracingInterceptor opens an OpenTelemetry span per dispatch. The span
// covers the whole stream: it is ended when the terminal event is observed
// or the caller unsubscribes, and stream milestones are recorded as span
// events.
type TracingInterceptor struct {
	tracer trace.Tracer
}

// NewTracingInterceptor creates a tracing interceptor against the given
// provider. A nil provider yields a no-op tracer.
func NewTracingInterceptor(provider trace.TracerProvider) *TracingInterceptor {
	if provider == nil {
		provider = noop.NewTracerProvider()
	}
	return &TracingInterceptor{tracer: provider.Tracer(tracerName)}
}

// Intercept implements Interceptor
func (i *TracingInterceptor) Intercept(ctx context.Context, req *wire.Request, next Handler) (<-chan wire.Event, error) {
	spanCtx, span := i.tracer.Start(ctx, fmt.Sprintf("HTTP %s", req.Method()),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method()),
			attribute.String("url.full", req.URLString()),
		),
	)

	stream, err := next.Handle(spanCtx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}

	out := make(chan wire.Event)
	go func() {
		defer close(out)
		defer span.End()
		for {
			select {
			case <-ctx.Done():
				span.AddEvent("unsubscribed")
				return
			case ev, ok := <-stream:
				if !ok {
					return
				}
				switch t := ev.(type) {
				case *wire.Sent:
					span.AddEvent("sent")
				case *wire.ResponseHeaders:
					span.AddEvent("response headers")
				case *wire.Response:
					span.SetAttributes(attribute.Int("http.response.status_code", t.Status))
					if t.Status >= 400 {
						span.SetStatus(codes.Error, fmt.Sprintf("status %d", t.Status))
					}
				case *wire.Failure:
					span.RecordError(t.Err)
					span.SetStatus(codes.Error, t.Err.Error())
				}
				if wire.IsTerminal(ev) {
					// End before forwarding so the span is exported by
					// the time the caller observes the terminal event.
					span.End()
					select {
					case out <- ev:
					case <-ctx.Done():
					}
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					span.AddEvent("unsubscribed")
					return
				}
			}
		}
	}()
	return out, nil
}

// Name implements Interceptor
func (i *TracingInterceptor) Name() string {
	return "TracingInterceptor"
}
