// pkg/counter/counter.go
package counter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/report"
)

// Store is the external collaborator holding the shared visit count.
// Read yields 0 when the value is absent or unparseable.
type Store interface {
	Read(ctx context.Context) (int, error)
	Write(ctx context.Context, n int) error
	Name() string
}

// Counter increments a shared visit count.
//
// Hit is a read-then-write against the store with no locking or compare-and-set,
// so concurrent visitors can overwrite each other's increment. The count is a
// best-effort figure, not an exact one.
type Counter struct {
	store  Store
	logger *zap.Logger
	last   atomic.Int64 // Last count read from or written to the store
}

// New creates a counter over store
func New(store Store, logger *zap.Logger) (*Counter, error) {
	if store == nil {
		return nil, errors.New("counter store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Counter{store: store, logger: logger.Named("counter")}, nil
}

// Hit reads the count, increments it and writes it back.
// Failures are recorded on handler as external-resource warnings. A failed read
// leaves the store untouched and returns the last known count; a failed write
// returns the value it read.
func (c *Counter) Hit(ctx context.Context, handler *report.Handler) int {
	if handler == nil {
		handler = report.NewHandler(c.logger)
	}

	current, err := c.store.Read(ctx)
	if err != nil {
		handler.HandleError(report.NewErrorRecord(
			fmt.Errorf("could not read visit count: %w", err),
			report.ErrorCategoryExternalResource).WithSource(c.store.Name()))
		return int(c.last.Load())
	}
	c.last.Store(int64(current))

	next := current + 1
	if err := c.store.Write(ctx, next); err != nil {
		handler.HandleError(report.NewErrorRecord(
			fmt.Errorf("could not update visit count: %w", err),
			report.ErrorCategoryExternalResource).WithSource(c.store.Name()))
		return current
	}
	c.last.Store(int64(next))

	c.logger.Debug("Visit counted",
		zap.String("store", c.store.Name()),
		zap.Int("count", next))
	return next
}

// Current reads the count without incrementing it.
// On a read error it returns the last known count with the error.
func (c *Counter) Current(ctx context.Context) (int, error) {
	n, err := c.store.Read(ctx)
	if err != nil {
		return int(c.last.Load()), report.WrapError(err, "failed to read visit count")
	}
	c.last.Store(int64(n))
	return n, nil
}
