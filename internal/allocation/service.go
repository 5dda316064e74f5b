package allocation

import (
	"context"
	"errors"
	"sync"
	"time"

	"allocationservice/internal/domain"
	"allocationservice/internal/platform/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Service defines the allocation operations exposed to the outside world.
type Service interface {
	Allocate(ctx context.Context, req AllocationRequested) (*Allocated, error)
	Deallocate(ctx context.Context, req DeallocationRequested) (*Deallocated, error)
}

// DefaultService runs requests against products from a repository. Requests
// against the same product are serialized; the domain objects themselves
// take no locks. Unknown SKUs never take a lock.
type DefaultService struct {
	repo   ProductRepository
	logger observability.Logger
	tracer observability.Tracer
	now    func() time.Time

	mu    sync.Mutex
	locks map[*domain.Product]*sync.Mutex
}

// NewService creates a new allocation service instance with explicit dependencies
func NewService(repo ProductRepository, logger observability.Logger, tracer observability.Tracer) *DefaultService {
	return &DefaultService{
		repo:   repo,
		logger: logger,
		tracer: tracer,
		now:    time.Now,
		locks:  make(map[*domain.Product]*sync.Mutex),
	}
}

// lock is keyed by the stored aggregate, so the lock table is bounded by
// what the repository holds.
func (s *DefaultService) lock(product *domain.Product) func() {
	s.mu.Lock()
	l, ok := s.locks[product]
	if !ok {
		l = &sync.Mutex{}
		s.locks[product] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Allocate picks a batch for the requested line. An unknown SKU is treated
// as a product with no batches and fails with domain.ErrOutOfStock.
func (s *DefaultService) Allocate(ctx context.Context, req AllocationRequested) (*Allocated, error) {
	ctx, span := s.tracer.Start(ctx, "allocation.allocate")
	defer span.End()

	span.SetAttributes(
		attribute.String("order.id", req.OrderID),
		attribute.String("product.sku", req.SKU),
		attribute.Int("line.quantity", req.Quantity),
	)

	product, err := s.repo.Get(ctx, req.SKU)
	switch {
	case errors.Is(err, ErrProductNotFound):
		product, err = domain.NewProduct(req.SKU, []*domain.Batch{})
		if err != nil {
			return nil, s.fail(span, "Failed to load product", err, req.OrderID, req.SKU)
		}
	case err != nil:
		return nil, s.fail(span, "Failed to load product", err, req.OrderID, req.SKU)
	default:
		unlock := s.lock(product)
		defer unlock()
	}

	batchRef, err := product.Allocate(req.line())
	if err != nil {
		return nil, s.fail(span, "Allocation refused", err, req.OrderID, req.SKU)
	}

	span.SetAttributes(attribute.String("batch.reference", batchRef))
	span.SetStatus(codes.Ok, "Line allocated")
	s.logger.Info("Line allocated",
		zap.String("order_id", req.OrderID),
		zap.String("sku", req.SKU),
		zap.Int("quantity", req.Quantity),
		zap.String("batch_reference", batchRef),
	)

	return &Allocated{
		EventID:        uuid.NewString(),
		OrderID:        req.OrderID,
		SKU:            req.SKU,
		Quantity:       req.Quantity,
		BatchReference: batchRef,
		AllocatedAt:    s.now().UTC(),
	}, nil
}

// Deallocate releases a line from the batch named in the request.
func (s *DefaultService) Deallocate(ctx context.Context, req DeallocationRequested) (*Deallocated, error) {
	ctx, span := s.tracer.Start(ctx, "allocation.deallocate")
	defer span.End()

	span.SetAttributes(
		attribute.String("order.id", req.OrderID),
		attribute.String("product.sku", req.SKU),
		attribute.Int("line.quantity", req.Quantity),
		attribute.String("batch.reference", req.BatchReference),
	)

	notAllocated := &domain.DeallocationError{LineReference: req.OrderID, BatchReference: req.BatchReference}

	product, err := s.repo.Get(ctx, req.SKU)
	if errors.Is(err, ErrProductNotFound) {
		return nil, s.fail(span, "Deallocation refused", notAllocated, req.OrderID, req.SKU)
	}
	if err != nil {
		return nil, s.fail(span, "Failed to load product", err, req.OrderID, req.SKU)
	}

	unlock := s.lock(product)
	defer unlock()

	batch, ok := product.Batch(req.BatchReference)
	if !ok {
		return nil, s.fail(span, "Deallocation refused", notAllocated, req.OrderID, req.SKU)
	}
	if err := batch.Deallocate(req.line()); err != nil {
		return nil, s.fail(span, "Deallocation refused", err, req.OrderID, req.SKU)
	}

	span.SetStatus(codes.Ok, "Line deallocated")
	s.logger.Info("Line deallocated",
		zap.String("order_id", req.OrderID),
		zap.String("sku", req.SKU),
		zap.String("batch_reference", req.BatchReference),
		zap.Int("available_quantity", batch.AvailableQuantity()),
	)

	return &Deallocated{
		EventID:        uuid.NewString(),
		OrderID:        req.OrderID,
		SKU:            req.SKU,
		Quantity:       req.Quantity,
		BatchReference: req.BatchReference,
		DeallocatedAt:  s.now().UTC(),
	}, nil
}

func (s *DefaultService) fail(span trace.Span, msg string, err error, orderID, sku string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("allocation.error_kind", string(KindOf(err))))
	s.logger.Warn(msg,
		zap.Error(err),
		zap.String("order_id", orderID),
		zap.String("sku", sku),
	)
	return err
}
