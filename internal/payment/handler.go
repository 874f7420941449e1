package payment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/auth"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/iyzipay-checkout/internal/transport"
)

const defaultCompletedURL = "/checkout/completed"

type Handler struct {
	*transport.BaseHandler
	PaymentService ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI) *Handler {
	if baseHandler == nil {
		baseHandler = transport.NewBaseHandler(nil)
	}
	return &Handler{
		BaseHandler:    baseHandler,
		PaymentService: paymentService,
	}
}

type ProcessResponse struct {
	Success             bool   `json:"success"`
	Mode                string `json:"mode,omitempty"`
	CheckoutFormContent string `json:"checkoutFormContent,omitempty"`
	Token               string `json:"token,omitempty"`
	Message             string `json:"message,omitempty"`
}

type RefundRequestDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

type OrderPaymentResponse struct {
	OrderID       int64  `json:"order_id"`
	OrderGUID     string `json:"order_guid"`
	OrderStatus   string `json:"order_status"`
	PaymentStatus string `json:"payment_status"`
	OrderTotal    string `json:"order_total"`
}

func newOrderPaymentResponse(o *order.Order) OrderPaymentResponse {
	return OrderPaymentResponse{
		OrderID:       o.ID,
		OrderGUID:     o.OrderGUID.String(),
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		OrderTotal:    formatAmount(o.OrderTotal),
	}
}

// ProcessPayment handles POST /api/v1/payments/iyzipay/process
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	mode := strings.TrimSpace(r.FormValue("mode"))
	guidParam := strings.TrimSpace(r.FormValue("orderGuid"))
	if mode == "" || guidParam == "" {
		h.writeProcessFailure(w, r, errors.NewValidationError("Missing required parameters", errors.ErrCodeMissingParameter))
		return
	}

	guid, err := uuid.Parse(guidParam)
	if err != nil {
		h.writeProcessFailure(w, r, errors.NewValidationError("Invalid OrderGuid format", errors.ErrCodeInvalidOrderGUID))
		return
	}

	result, err := h.PaymentService.InitiateCheckout(r.Context(), CheckoutRequest{
		OrderGUID: guid,
		Mode:      mode,
		Shopper:   shopperFromRequest(r),
	})
	if err != nil {
		h.writeProcessFailure(w, r, err)
		return
	}

	if result.Mode == ModeRedirect {
		if result.PaymentPageURL == "" {
			h.writeProcessFailure(w, r, ErrRemoteGateway("Payment page is not available", nil))
			return
		}
		http.Redirect(w, r, result.PaymentPageURL, http.StatusFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, ProcessResponse{
		Success:             true,
		Mode:                result.Mode,
		CheckoutFormContent: result.CheckoutFormContent,
		Token:               guid.String(),
	})
}

func (h *Handler) writeProcessFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, message := transport.ServiceErrorMessage(err)
	h.Log(r.Context()).Warn("checkout initiation failed", "status", status, "error", err)
	h.WriteJSON(w, status, ProcessResponse{Success: false, Message: message})
}

// Confirmation handles GET|POST /api/v1/payments/iyzipay/confirmation, the
// browser return from the hosted form.
func (h *Handler) Confirmation(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.FormValue("token"))

	result, err := h.PaymentService.Confirm(r.Context(), ConfirmationRequest{
		Token:   token,
		Shopper: shopperFromRequest(r),
	})
	if err != nil {
		h.Log(r.Context()).Warn("payment confirmation failed", "error", err)
		h.WriteMessage(w, http.StatusBadRequest, confirmationMessage(err))
		return
	}

	http.Redirect(w, r, completedURL(h.PaymentService.Settings().CompletedURL, result.OrderID), http.StatusFound)
}

func confirmationMessage(err error) string {
	appErr, ok := errors.IsAppError(err)
	if !ok || appErr.Type == errors.ErrorTypeInternal {
		return "Payment confirmation error: " + internalMessage(err)
	}
	return appErr.GetDetailedMessage()
}

func internalMessage(err error) string {
	if appErr, ok := errors.IsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func completedURL(base string, orderID int64) string {
	if base == "" {
		base = defaultCompletedURL
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "orderId=" + url.QueryEscape(fmt.Sprint(orderID))
}

// RefundOrder handles POST /api/v1/admin/orders/{guid}/refund
func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	guid, ok := h.orderGUIDParam(w, r)
	if !ok {
		return
	}

	var dto RefundRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	o, err := h.PaymentService.Refund(r.Context(), RefundRequest{
		OrderGUID: guid,
		Amount:    dto.Amount,
		IP:        transport.ClientIP(r),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, newOrderPaymentResponse(o))
}

// VoidOrder handles POST /api/v1/admin/orders/{guid}/void
func (h *Handler) VoidOrder(w http.ResponseWriter, r *http.Request) {
	guid, ok := h.orderGUIDParam(w, r)
	if !ok {
		return
	}

	o, err := h.PaymentService.Void(r.Context(), VoidRequest{
		OrderGUID: guid,
		IP:        transport.ClientIP(r),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, newOrderPaymentResponse(o))
}

func (h *Handler) orderGUIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	guid, err := uuid.Parse(chi.URLParam(r, "guid"))
	if err != nil {
		h.HandleError(w, errors.NewValidationError("Invalid OrderGuid format", errors.ErrCodeInvalidOrderGUID))
		return uuid.Nil, false
	}
	return guid, true
}

func shopperFromRequest(r *http.Request) Shopper {
	s := Shopper{IP: transport.ClientIP(r)}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		s.CustomerID = p.CustomerID
		s.StoreID = p.StoreID
	}
	return s
}
