package notify

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// MessageDispatcher turns events into messages in the user's inbox.
type MessageDispatcher struct {
	messages repository.MessageRepository
	logger   zerolog.Logger
}

func NewMessageDispatcher(messages repository.MessageRepository, logger zerolog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		messages: messages,
		logger:   logger.With().Str("component", "message_dispatcher").Logger(),
	}
}

func (d *MessageDispatcher) Dispatch(ctx context.Context, event Event) error {
	msg := messageFor(event)
	if err := d.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to store %s message: %w", event.Kind, err)
	}

	d.logger.Debug().
		Int64("user_id", event.UserID).
		Int64("order_id", event.OrderID).
		Int64("message_id", msg.ID).
		Msg("message stored")
	return nil
}

func messageFor(event Event) *model.Message {
	orderID := event.OrderID
	msg := &model.Message{UserID: event.UserID, OrderID: &orderID}

	switch event.Kind {
	case KindOrderPlaced:
		msg.Kind = model.MessageKindOrderPlaced
		msg.Subject = fmt.Sprintf("Order %s received", event.OrderNumber)
		msg.Body = fmt.Sprintf("Thank you for your order. We have received order %s totalling %s.", event.OrderNumber, event.Total)
	case KindOrderStatusChanged:
		msg.Kind = model.MessageKindOrderStatus
		msg.Subject = fmt.Sprintf("Order %s is %s", event.OrderNumber, event.Status)
		msg.Body = fmt.Sprintf("The status of order %s changed to %s.", event.OrderNumber, event.Status)
	case KindPaymentStatusChanged:
		msg.Kind = model.MessageKindPaymentStatus
		msg.Subject = fmt.Sprintf("Payment for order %s is %s", event.OrderNumber, event.PaymentStatus)
		msg.Body = fmt.Sprintf("The payment status of order %s changed to %s.", event.OrderNumber, event.PaymentStatus)
	default:
		msg.Kind = model.MessageKindGeneral
		msg.Subject = fmt.Sprintf("Update on order %s", event.OrderNumber)
	}

	return msg
}
