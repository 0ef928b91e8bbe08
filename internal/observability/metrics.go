package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CartMetrics counts cart mutations by kind. With no meter provider installed the
// instruments are no-ops.
type CartMetrics struct {
	mutations metric.Int64Counter
}

// NewCartMetrics registers the cart instruments on the global meter provider.
func NewCartMetrics() (*CartMetrics, error) {
	meter := otel.Meter(instrumentationName)
	counter, err := meter.Int64Counter("cart.mutations",
		metric.WithDescription("Cart mutations applied, by kind."),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}
	return &CartMetrics{mutations: counter}, nil
}

// Mutation records one applied cart mutation.
func (m *CartMetrics) Mutation(ctx context.Context, kind string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
