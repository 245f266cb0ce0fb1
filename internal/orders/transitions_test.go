package orders

import (
	"testing"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
)

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    enums.OrderStatus
		payment enums.PaymentStatus
		to      enums.OrderStatus
		code    pkgerrors.Code
	}{
		{name: "confirm pending", from: enums.OrderStatusPending, to: enums.OrderStatusConfirmed},
		{name: "cancel confirmed", from: enums.OrderStatusConfirmed, to: enums.OrderStatusCancelled},
		{name: "ship processing", from: enums.OrderStatusProcessing, to: enums.OrderStatusShipped},
		{name: "deliver shipped", from: enums.OrderStatusShipped, to: enums.OrderStatusDelivered},
		{name: "refund paid delivery", from: enums.OrderStatusDelivered, payment: enums.PaymentStatusPaid, to: enums.OrderStatusRefunded},
		{name: "cancel processing", from: enums.OrderStatusProcessing, to: enums.OrderStatusCancelled, code: pkgerrors.CodeStateConflict},
		{name: "ship pending", from: enums.OrderStatusPending, to: enums.OrderStatusShipped, code: pkgerrors.CodeStateConflict},
		{name: "refund unpaid", from: enums.OrderStatusDelivered, payment: enums.PaymentStatusPending, to: enums.OrderStatusRefunded, code: pkgerrors.CodeStateConflict},
		{name: "leave cancelled", from: enums.OrderStatusCancelled, to: enums.OrderStatusPending, code: pkgerrors.CodeStateConflict},
		{name: "leave refunded", from: enums.OrderStatusRefunded, to: enums.OrderStatusDelivered, code: pkgerrors.CodeStateConflict},
		{name: "same status", from: enums.OrderStatusShipped, to: enums.OrderStatusShipped, code: pkgerrors.CodeStateConflict},
		{name: "backwards", from: enums.OrderStatusShipped, to: enums.OrderStatusConfirmed, code: pkgerrors.CodeStateConflict},
		{name: "unknown", from: enums.OrderStatusPending, to: "lost", code: pkgerrors.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payment := tc.payment
			if payment == "" {
				payment = enums.PaymentStatusPending
			}
			err := CheckTransition(&models.Order{Status: tc.from, PaymentStatus: payment}, tc.to)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected transition allowed, got %v", err)
				}
				return
			}
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}
