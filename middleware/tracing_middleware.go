package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nano-rpc/message"
)

const instrumentationName = "nano-rpc"

// Outcome attribute values recorded on spans and metrics.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

// TracingMiddleware starts a server span per dispatch and records a call
// counter and a duration histogram. Nil providers fall back to the global
// OpenTelemetry providers.
func TracingMiddleware(tp trace.TracerProvider, mp metric.MeterProvider) Middleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	tracer := tp.Tracer(instrumentationName)
	meter := mp.Meter(instrumentationName)
	calls, _ := meter.Int64Counter("nanorpc.server.calls",
		metric.WithUnit("{call}"),
		metric.WithDescription("Number of dispatched calls"),
	)
	durations, _ := meter.Float64Histogram("nanorpc.server.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of dispatched calls"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, bool) {
			ctx, span := tracer.Start(ctx, req.Service+"/"+req.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("rpc.system", "nano_rpc"),
					attribute.String("rpc.service", req.Service),
					attribute.String("rpc.method", req.Method),
				),
			)
			defer span.End()

			start := time.Now()
			resp, ok := next(ctx, req)

			outcome := OutcomeOK
			switch {
			case !ok:
				outcome = OutcomeNotFound
				span.SetStatus(codes.Error, "no such method")
			case resp.Failed():
				outcome = OutcomeError
				span.SetAttributes(attribute.Int("rpc.nano_rpc.error_code", int(resp.Err.Code)))
				span.SetStatus(codes.Error, resp.Err.Message)
				span.RecordError(resp.Err)
			default:
				span.SetStatus(codes.Ok, "")
			}

			attrs := metric.WithAttributes(
				attribute.String("rpc.service", req.Service),
				attribute.String("rpc.method", req.Method),
				attribute.String("outcome", outcome),
			)
			if calls != nil {
				calls.Add(ctx, 1, attrs)
			}
			if durations != nil {
				durations.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			return resp, ok
		}
	}
}
