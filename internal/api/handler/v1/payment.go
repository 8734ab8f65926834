package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"

	"github.com/eventra-app/eventra-api/internal/api/handler/v1/response"
	"github.com/eventra-app/eventra-api/internal/domain"
	"github.com/eventra-app/eventra-api/internal/service"
)

// Stripe caps webhook payloads at 64KB; anything larger is not ours.
const maxWebhookBody = 65536

type PaymentService interface {
	StartCheckout(ctx context.Context, eventID, userID uint) (service.Checkout, error)
	RecordCashPayment(ctx context.Context, eventID, userID uint) (domain.Payment, error)
	CompleteCheckout(ctx context.Context, sessionID string) error
	ExpireCheckout(ctx context.Context, sessionID string) error
}

type PaymentHandler struct {
	svc           PaymentService
	webhookSecret string
}

func NewPaymentHandler(svc PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		svc:           svc,
		webhookSecret: webhookSecret,
	}
}

// HandleStartCheckout godoc
// @Summary      Start a Stripe checkout for an event fee
// @Description  Opens a checkout session for the authenticated attendee. The event's payment window, including any grace period, must still be open.
// @Tags         payments
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      201      {object}  service.Checkout
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/checkout [post]
// @Security BearerAuth
func (h *PaymentHandler) HandleStartCheckout(ctx *gin.Context) {
	caller, respErr := callerFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	checkout, err := h.svc.StartCheckout(ctx.Request.Context(), eventID, caller.ID)
	if err != nil {
		h.renderPaymentErr(ctx, "HandleStartCheckout", eventID, err)
		return
	}

	ctx.JSON(http.StatusCreated, checkout)
}

// HandleRecordCashPayment godoc
// @Summary      Record an intent to pay in cash
// @Description  Registers a pending cash payment for the authenticated attendee, to be confirmed at the door.
// @Tags         payments
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      201      {object}  domain.Payment
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/payments/cash [post]
// @Security BearerAuth
func (h *PaymentHandler) HandleRecordCashPayment(ctx *gin.Context) {
	caller, respErr := callerFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	payment, err := h.svc.RecordCashPayment(ctx.Request.Context(), eventID, caller.ID)
	if err != nil {
		h.renderPaymentErr(ctx, "HandleRecordCashPayment", eventID, err)
		return
	}

	ctx.JSON(http.StatusCreated, payment)
}

// HandleStripeWebhook godoc
// @Summary      Receive Stripe checkout events
// @Description  Verifies the Stripe signature and settles the matching payment. Unhandled event types are acknowledged and ignored.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      400  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /webhooks/stripe [post]
func (h *PaymentHandler) HandleStripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBody))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("webhook signature verification failed: %v", err)))
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var sess struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("malformed checkout session: %v", err)))
			return
		}

		if event.Type == "checkout.session.completed" {
			err = h.svc.CompleteCheckout(ctx.Request.Context(), sess.ID)
		} else {
			err = h.svc.ExpireCheckout(ctx.Request.Context(), sess.ID)
		}
		if err != nil {
			if errors.Is(err, service.ErrPaymentNotFound) {
				// A session we never opened; acknowledge so Stripe stops retrying.
				zap.L().Warn("webhook for unknown checkout session",
					zap.String("session_id", sess.ID),
					zap.String("type", string(event.Type)))
				break
			}

			err = fmt.Errorf("HandleStripeWebhook -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
	default:
		zap.L().Debug("ignoring stripe event", zap.String("type", string(event.Type)))
	}

	ctx.Status(http.StatusOK)
}

func (h *PaymentHandler) renderPaymentErr(ctx *gin.Context, op string, eventID uint, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
	case errors.Is(err, service.ErrNotRegistered),
		errors.Is(err, service.ErrPaymentWindowClosed),
		errors.Is(err, service.ErrMethodNotEnabled),
		errors.Is(err, service.ErrNothingToPay):
		response.RenderErr(ctx, response.ErrConflict(err))
	default:
		err = fmt.Errorf("%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
