package cart

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cart activity.
type Metrics struct {
	mutations metric.Int64Counter
	items     metric.Int64Histogram
}

// NewMetrics registers the cart instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	mutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Number of cart mutations by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "mutations counter")
	}
	items, err := meter.Int64Histogram("storefront.cart.items",
		metric.WithDescription("Cart item count after a mutation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "items histogram")
	}
	return &Metrics{mutations: mutations, items: items}, nil
}

func (m *Metrics) record(ctx context.Context, op string, count int) {
	if m == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	m.items.Record(ctx, int64(count))
}
