// Package notify delivers order lifecycle events to users and downstream
// consumers. Dispatch happens after the originating transaction commits, so
// a delivery failure never undoes an order change.
package notify

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// Kind names an event type.
type Kind string

const (
	KindOrderPlaced          Kind = "order.placed"
	KindOrderStatusChanged   Kind = "order.status_changed"
	KindPaymentStatusChanged Kind = "order.payment_status_changed"
)

// Event describes something that happened to an order.
type Event struct {
	ID            uuid.UUID           `json:"id"`
	Kind          Kind                `json:"kind"`
	UserID        int64               `json:"userId"`
	OrderID       int64               `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	Total         string              `json:"total"`
	OccurredAt    time.Time           `json:"occurredAt"`
}

// NewOrderEvent builds an event of the given kind from the order's current state.
func NewOrderEvent(kind Kind, order *model.Order) Event {
	return Event{
		ID:            uuid.New(),
		Kind:          kind,
		UserID:        order.UserID,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total.StringFixed(model.MoneyScale),
		OccurredAt:    time.Now().UTC(),
	}
}

// Dispatcher delivers events.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, Event) error { return nil }

// Multi fans an event out to every dispatcher and joins their errors.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, event Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
