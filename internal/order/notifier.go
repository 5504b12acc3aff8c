package order

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksonlangat/clinicsync-api/internal/notify"
	"github.com/nicksonlangat/clinicsync-api/internal/vendors"
)

// orderTemplateID names the document template rendered for new orders.
const orderTemplateID = "new_order"

// NotificationResult reports whether the fulfillment notification reached
// the delivery collaborator. Failures never surface as errors: a failed
// notification must not fail the order operation that triggered it.
type NotificationResult struct {
	Delivered bool `json:"delivered"`
}

// Notifier assembles the fulfillment notification for an order (the order,
// its line items and the clinic context), renders it into a document and
// hands it to the delivery collaborator addressed to the order's vendor.
type Notifier struct {
	renderer   notify.Renderer
	sender     notify.Sender
	clinicName string
	timeout    time.Duration
}

func NewNotifier(renderer notify.Renderer, sender notify.Sender, clinicName string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{
		renderer:   renderer,
		sender:     sender,
		clinicName: clinicName,
		timeout:    timeout,
	}
}

// Notify renders and sends the notification. Both collaborator calls share
// one deadline so a stalled renderer or relay cannot hang the caller; they
// run outside any database transaction.
func (n *Notifier) Notify(ctx context.Context, o *Order, vendor *vendors.Vendor) NotificationResult {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	data := map[string]any{
		"clinic":       n.clinicName,
		"order_number": o.OrderNumber,
		"status":       o.Status.String(),
		"notes":        o.Notes,
		"vendor":       vendor.Name,
		"items":        o.Items,
	}

	document, err := n.renderer.Render(ctx, orderTemplateID, data)
	if err != nil {
		log.Warn().Err(err).
			Stringer("order_id", o.ID).
			Str("order_number", o.OrderNumber).
			Msg("notifier: failed to render order document")
		return NotificationResult{Delivered: false}
	}

	msg := notify.Message{
		Recipients: []string{vendor.Email},
		Subject:    "You have a new order",
		Body:       "A new order " + o.OrderNumber + " from " + n.clinicName + " is attached.",
		Attachments: []notify.Attachment{{
			Filename:    o.OrderNumber + ".html",
			ContentType: "text/html",
			Data:        document,
		}},
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		log.Warn().Err(err).
			Stringer("order_id", o.ID).
			Str("order_number", o.OrderNumber).
			Str("vendor_email", vendor.Email).
			Msg("notifier: failed to deliver order notification")
		return NotificationResult{Delivered: false}
	}

	log.Info().
		Stringer("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Str("vendor_email", vendor.Email).
		Msg("notifier: order notification delivered")
	return NotificationResult{Delivered: true}
}
