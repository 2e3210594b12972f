package handlers

import (
	"JagannathOPD/middlewares"
	"JagannathOPD/models"
	"JagannathOPD/services"
	"JagannathOPD/utils"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	maxWebhookBytes = 1 << 20
)

type PaymentService interface {
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest, actor services.Actor) (*models.PaymentIntent, error)
	HandleCallback(ctx context.Context, body []byte, signature string, actor services.Actor) (*models.CallbackResult, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	GetPayment(ctx context.Context, id uint) (*models.Payment, error)
	FetchGatewayPayment(ctx context.Context, gatewayPaymentID string) (map[string]interface{}, error)
}

type PaymentHandler struct {
	service     PaymentService
	systemActor services.Actor
	log         *zap.Logger
}

func NewPaymentHandler(service PaymentService, systemActorID int64, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		systemActor: services.Actor{UserID: systemActorID},
		log:         log,
	}
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	intent, err := h.service.CreatePayment(c.Request.Context(), req, h.actor(c))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, intent, http.StatusCreated)
}

// PaymentCallback verifies the signature over the raw body, so the body is
// read as bytes and never rebound.
func (h *PaymentHandler) PaymentCallback(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middlewares.RespondError(c, h.log,
			utils.WrapAppError(err, utils.KindValidation, utils.CodeMalformedPayload, "could not read webhook body"))
		return
	}

	result, err := h.service.HandleCallback(c.Request.Context(), body, c.GetHeader(signatureHeader), h.systemActor)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, gin.H{"message": "Payment processed successfully", "result": result}, http.StatusOK)
}

func (h *PaymentHandler) GetAllPayments(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context())
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, payments, http.StatusOK)
}

func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	id, err := uintParam(c, "payment_id")
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	payment, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) GetGatewayPayment(c *gin.Context) {
	payment, err := h.service.FetchGatewayPayment(c.Request.Context(), c.Param("gateway_payment_id"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

// actor is the staff member from the access token when one was presented,
// otherwise the system user.
func (h *PaymentHandler) actor(c *gin.Context) services.Actor {
	if userID, err := middlewares.ExtractUserIDFromContext(c.Request.Context()); err == nil {
		return services.Actor{UserID: userID}
	}
	return h.systemActor
}
