package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	paymentmodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/payment"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport"
)

const (
	SignatureHeader = "X-Iyz-Signature-V3"

	maxWebhookBody = 1 << 20
)

// NotificationRecorder keeps the raw audit trail of webhook deliveries.
type NotificationRecorder interface {
	Record(ctx context.Context, n *paymentmodel.NotificationLog) error
	MarkHandled(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	recorder       NotificationRecorder
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, recorder NotificationRecorder) *WebhookHandler {
	if baseHandler == nil {
		baseHandler = transport.NewBaseHandler(nil)
	}
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		recorder:       recorder,
	}
}

// HandleWebhook handles POST /api/v1/payments/iyzipay/webhook
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Log(r.Context()).Error("failed to read webhook body", "error", err)
		h.WriteMessage(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	signature := r.Header.Get(SignatureHeader)

	entry := h.record(r.Context(), body, signature, middleware.GetReqID(r.Context()))

	result, err := h.paymentService.HandleWebhook(r.Context(), body, signature)
	if err != nil {
		_, message := transport.ServiceErrorMessage(err)
		h.Log(r.Context()).Warn("webhook rejected", "error", err, "signed", signature != "")
		if entry != nil {
			if merr := h.recorder.MarkFailed(r.Context(), entry.ID, err.Error()); merr != nil {
				h.Log(r.Context()).Error("failed to mark notification failed", "notification_id", entry.ID, "error", merr)
			}
		}
		h.WriteMessage(w, http.StatusBadRequest, message)
		return
	}

	if entry != nil {
		if merr := h.recorder.MarkHandled(r.Context(), entry.ID); merr != nil {
			h.Log(r.Context()).Error("failed to mark notification handled", "notification_id", entry.ID, "error", merr)
		}
	}

	h.Log(r.Context()).Info("webhook processed",
		"conversation_id", result.Fields.ConversationID,
		"payment_id", result.Fields.PaymentID,
		"applied", result.Applied)
	w.WriteHeader(http.StatusOK)
}

// record stores the delivery before processing. A recording failure never
// blocks the webhook.
func (h *WebhookHandler) record(ctx context.Context, body []byte, signature, traceID string) *paymentmodel.NotificationLog {
	if h.recorder == nil {
		return nil
	}

	payload := body
	if !json.Valid(payload) {
		quoted, _ := json.Marshal(string(body))
		payload = quoted
	}

	entry := &paymentmodel.NotificationLog{
		ID:         uuid.NewString(),
		TraceID:    traceID,
		Signature:  signature,
		Payload:    payload,
		Status:     paymentmodel.NotificationStatusReceived,
		ReceivedAt: time.Now().UTC(),
	}
	if m, err := ParseWebhookPayload(body); err == nil {
		f := ExtractWebhookFields(m)
		entry.EventType = f.EventType
		entry.PaymentID = f.PaymentID
		entry.ConversationID = f.ConversationID
	}

	if err := h.recorder.Record(ctx, entry); err != nil {
		h.Log(ctx).Error("failed to record webhook notification", "error", err)
		return nil
	}
	return entry
}
