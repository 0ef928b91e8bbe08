package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
)

const instrumentationName = "github.com/GreyDragonEnt/Gelatomessina/internal/observability"

var (
	tracer     = otel.Tracer(instrumentationName)
	propagator = propagation.TraceContext{}
)

// TraceMiddleware continues a W3C traceparent when the client sent one and
// wraps the request in a server span. The span ids are mirrored into
// requestctx for logs and error envelopes.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, "storefront "+SanitizeMethod(r.Method),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", SanitizeMethod(r.Method)),
					attribute.String("url.path", SanitizeRoute(r.URL.Path)),
					attribute.Bool("storefront.htmx", r.Header.Get("HX-Request") == "true"),
				),
			)
			defer span.End()

			ctx = requestctx.WithTrace(ctx, traceInfo(span.SpanContext()))

			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func traceInfo(sc trace.SpanContext) requestctx.TraceInfo {
	info := requestctx.TraceInfo{Sampled: sc.IsSampled()}
	if sc.HasTraceID() {
		info.TraceID = sc.TraceID().String()
	}
	if sc.HasSpanID() {
		info.SpanID = sc.SpanID().String()
	}
	return info
}

// Tracer exposes the package tracer so domain packages can open child spans.
func Tracer() trace.Tracer { return tracer }
