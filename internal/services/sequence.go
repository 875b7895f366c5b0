package services

import (
	"context"
	"fmt"
)

// OrderNumberKey names the counter behind order numbers.
const OrderNumberKey = "order_number"

// Counter is an atomic, auto-initializing increment. Implemented by the Redis
// client and by repository.CounterRepository.
type Counter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
}

type OrderNumberGenerator struct {
	counter Counter
}

func NewOrderNumberGenerator(counter Counter) *OrderNumberGenerator {
	return &OrderNumberGenerator{counter: counter}
}

// Next returns the next order number, e.g. ORD-000042.
func (g *OrderNumberGenerator) Next(ctx context.Context) (string, error) {
	n, err := g.counter.IncrementAndGet(ctx, OrderNumberKey)
	if err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}
	return fmt.Sprintf("ORD-%06d", n), nil
}
