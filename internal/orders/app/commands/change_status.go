package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

// StatusChange is a committed transition.
type StatusChange struct {
	Order *domain.Order
	From  domain.Status
}

type CancelOrderCommand struct {
	UserID  string
	OrderID string
}

type CancelOrderHandler interface {
	Handle(ctx context.Context, cmd CancelOrderCommand) (*StatusChange, error)
}

type UpdateStatusCommand struct {
	OperatorID string
	OrderID    string
	Status     string
}

type UpdateStatusHandler interface {
	Handle(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error)
}

type statusChanger struct {
	repo   ports.OrderRepository
	events ports.EventBus
	logger *slog.Logger
	now    func() time.Time
}

func (s *statusChanger) load(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("order_id is required")
	}
	return s.repo.GetByID(ctx, id)
}

type CancelOrderCommandHandler struct {
	statusChanger
}

func NewCancelOrderCommandHandler(repo ports.OrderRepository, events ports.EventBus, logger *slog.Logger) *CancelOrderCommandHandler {
	return &CancelOrderCommandHandler{statusChanger{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}}
}

// Handle cancels the caller's own order while it is still PLACED.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*StatusChange, error) {
	order, err := h.load(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != cmd.UserID {
		return nil, ports.ErrNotOwner
	}

	from := order.Status
	if err := order.Cancel(h.now()); err != nil {
		return nil, err
	}

	if err := h.repo.UpdateStatus(ctx, *order, from); err != nil {
		// An operator moved the order on between our read and write.
		if errors.Is(err, ports.ErrStatusChanged) {
			return nil, domain.ErrCannotCancel
		}
		return nil, err
	}

	if err := h.events.PublishOrderCancelled(ctx, *order); err != nil {
		h.logger.WarnContext(ctx, "order cancelled but event was not published", "order_id", order.ID, "error", err)
	}

	return &StatusChange{Order: order, From: from}, nil
}

type UpdateStatusCommandHandler struct {
	statusChanger
	policy domain.TransitionPolicy
}

func NewUpdateStatusCommandHandler(repo ports.OrderRepository, events ports.EventBus, policy domain.TransitionPolicy, logger *slog.Logger) *UpdateStatusCommandHandler {
	return &UpdateStatusCommandHandler{
		statusChanger: statusChanger{
			repo:   repo,
			events: events,
			logger: logger,
			now:    func() time.Time { return time.Now().UTC() },
		},
		policy: policy,
	}
}

// Handle applies an operator-requested status under the configured policy.
func (h *UpdateStatusCommandHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error) {
	target := domain.Status(strings.ToUpper(strings.TrimSpace(cmd.Status)))
	if !domain.IsOperatorTarget(target) {
		return nil, domain.ErrInvalidStatus
	}

	order, err := h.load(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.ApplyOperatorStatus(target, h.policy, h.now()); err != nil {
		return nil, err
	}

	if err := h.repo.UpdateStatus(ctx, *order, from); err != nil {
		return nil, err
	}

	if err := h.events.PublishOrderStatusChanged(ctx, *order, from); err != nil {
		h.logger.WarnContext(ctx, "order status changed but event was not published", "order_id", order.ID, "error", err)
	}

	return &StatusChange{Order: order, From: from}, nil
}

// WithClock overrides the time source of either status handler.
func (s *statusChanger) WithClock(now func() time.Time) {
	s.now = now
}
