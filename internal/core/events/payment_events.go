package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentSettled        = "payment.settled"
	EventTypePaymentVoided         = "payment.voided"
	EventTypePaymentRefunded       = "payment.refunded"
	EventTypeInstallmentFeeApplied = "payment.installment_fee_applied"
)

const (
	EventSourceWebhook      = "webhook"
	EventSourceConfirmation = "confirmation"
	EventSourceAdmin        = "admin"
)

type PaymentSettledEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	OrderGUID string `json:"order_guid"`
	PaymentID string `json:"payment_id"`
	Source    string `json:"source"`
}

func NewPaymentSettledEvent(orderID int64, orderGUID, paymentID, source string) *PaymentSettledEvent {
	return &PaymentSettledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentSettled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":   orderID,
				"order_guid": orderGUID,
				"payment_id": paymentID,
				"source":     source,
			},
		},
		OrderID:   orderID,
		OrderGUID: orderGUID,
		PaymentID: paymentID,
		Source:    source,
	}
}

type PaymentVoidedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	OrderGUID string `json:"order_guid"`
	Status    string `json:"status"`
	Source    string `json:"source"`
}

func NewPaymentVoidedEvent(orderID int64, orderGUID, status, source string) *PaymentVoidedEvent {
	return &PaymentVoidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentVoided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":   orderID,
				"order_guid": orderGUID,
				"status":     status,
				"source":     source,
			},
		},
		OrderID:   orderID,
		OrderGUID: orderGUID,
		Status:    status,
		Source:    source,
	}
}

type PaymentRefundedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	OrderGUID string `json:"order_guid"`
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
}

func NewPaymentRefundedEvent(orderID int64, orderGUID, paymentID, amount string) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRefunded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":   orderID,
				"order_guid": orderGUID,
				"payment_id": paymentID,
				"amount":     amount,
			},
		},
		OrderID:   orderID,
		OrderGUID: orderGUID,
		PaymentID: paymentID,
		Amount:    amount,
	}
}

type InstallmentFeeAppliedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	Installment int    `json:"installment"`
	Fee         string `json:"fee"`
	NewTotal    string `json:"new_total"`
}

func NewInstallmentFeeAppliedEvent(orderID int64, paymentID string, installment int, fee, newTotal string) *InstallmentFeeAppliedEvent {
	return &InstallmentFeeAppliedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeInstallmentFeeApplied,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":    orderID,
				"payment_id":  paymentID,
				"installment": installment,
				"fee":         fee,
				"new_total":   newTotal,
			},
		},
		OrderID:     orderID,
		PaymentID:   paymentID,
		Installment: installment,
		Fee:         fee,
		NewTotal:    newTotal,
	}
}
