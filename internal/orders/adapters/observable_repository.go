package adapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shopkart/internal/database"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
	"github.com/dejobratic/shopkart/internal/telemetry"
)

// observe runs one storage call inside a span named after it and times it under operation.
func observe(ctx context.Context, m *database.Metrics, span, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, s := telemetry.StartSpan(ctx, span, append(attrs, attribute.String("db.operation", operation))...)

	err := m.Observe(ctx, operation, func() error { return fn(ctx) })
	telemetry.FinishSpan(s, err)
	return err
}

// ObservableRepository traces and times every order read and status write.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{repo: repo, metrics: metrics}
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := observe(ctx, r.metrics, "OrderRepository.GetByID", "get_order_by_id", func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByID(ctx, id)
		return err
	}, attribute.String("order.id", id))
	return order, err
}

func (r *ObservableRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	err := observe(ctx, r.metrics, "OrderRepository.ListByUser", "list_user_orders", func(ctx context.Context) error {
		var err error
		orders, err = r.repo.ListByUser(ctx, userID)
		return err
	}, attribute.String("user.id", userID))
	return orders, err
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}

	var orders []domain.Order
	err := observe(ctx, r.metrics, "OrderRepository.List", "list_orders", func(ctx context.Context) error {
		var err error
		orders, err = r.repo.List(ctx, filter)
		return err
	}, attrs...)
	return orders, err
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, order domain.Order, from domain.Status) error {
	return observe(ctx, r.metrics, "OrderRepository.UpdateStatus", "update_order_status", func(ctx context.Context) error {
		return r.repo.UpdateStatus(ctx, order, from)
	},
		attribute.String("order.id", order.ID),
		attribute.String("order.previous_status", string(from)),
		attribute.String("order.new_status", string(order.Status)),
	)
}

// ObservableUnitOfWork traces the checkout transaction as a whole.
type ObservableUnitOfWork struct {
	uow     ports.UnitOfWork
	metrics *database.Metrics
}

func NewObservableUnitOfWork(uow ports.UnitOfWork, metrics *database.Metrics) *ObservableUnitOfWork {
	return &ObservableUnitOfWork{uow: uow, metrics: metrics}
}

func (u *ObservableUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx ports.CheckoutTx) error) error {
	return observe(ctx, u.metrics, "OrderUnitOfWork.Do", "checkout_tx", func(ctx context.Context) error {
		return u.uow.Do(ctx, fn)
	})
}
