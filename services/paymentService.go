package services

import (
	"JagannathOPD/gateway"
	"JagannathOPD/models"
	"JagannathOPD/repositories"
	"JagannathOPD/utils"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type PaymentRepository interface {
	Transaction(ctx context.Context, fn func(store repositories.PaymentStore) error) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	List(ctx context.Context) ([]models.Payment, error)
	AppointmentExists(ctx context.Context, appointmentID uint) (bool, error)
}

// Actor is the user recorded in audit columns.
type Actor struct {
	UserID int64
}

// PaymentSettings are the payment values read from configuration.
type PaymentSettings struct {
	WebhookSecret   string
	Currency        string
	RegistrationFee float64
}

type PaymentService struct {
	repository PaymentRepository
	mrNumbers  *MRNumberService
	gateway    gateway.Client
	settings   PaymentSettings
	log        *zap.Logger
	now        func() time.Time
}

func NewPaymentService(
	repository PaymentRepository,
	mrNumbers *MRNumberService,
	gatewayClient gateway.Client,
	settings PaymentSettings,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repository: repository,
		mrNumbers:  mrNumbers,
		gateway:    gatewayClient,
		settings:   settings,
		log:        log,
		now:        time.Now,
	}
}

// CreatePayment records a pending payment and opens a gateway order for it.
// The payment row is rolled back when the gateway refuses the order.
func (s *PaymentService) CreatePayment(ctx context.Context, req models.CreatePaymentRequest, actor Actor) (*models.PaymentIntent, error) {
	if err := utils.ValidateCreatePaymentRequest(req); err != nil {
		return nil, utils.RequestValidationError(err)
	}

	exists, err := s.repository.AppointmentExists(ctx, req.OPDOnlineAppointmentID)
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load appointment")
	}
	if !exists {
		return nil, utils.NotFoundError(utils.CodeAppointmentNotFound,
			fmt.Sprintf("appointment %d not found", req.OPDOnlineAppointmentID))
	}

	createdBy := req.CreatedBy
	if createdBy == nil {
		createdBy = &actor.UserID
	}

	var payment models.Payment
	err = s.repository.Transaction(ctx, func(store repositories.PaymentStore) error {
		payment = models.Payment{
			OPDOnlineAppointmentID: req.OPDOnlineAppointmentID,
			PaymentDate:            s.now(),
			PaymentMode:            req.PaymentMode,
			PaymentStatus:          models.PaymentStatusPending,
			AmountPaid:             req.AmountPaid,
			CreatedBy:              createdBy,
		}
		if err := store.CreatePayment(ctx, &payment); err != nil {
			return utils.DatabaseError(err, "failed to create payment")
		}

		order, err := s.gateway.CreateOrder(ctx, req.AmountPaid, s.settings.Currency, strconv.FormatUint(uint64(payment.PaymentID), 10))
		if err != nil {
			return utils.WrapAppError(err, utils.KindGateway, utils.CodeGatewayError, "failed to create gateway order")
		}

		payment.OrderID = &order.ID
		if err := store.SavePayment(ctx, &payment); err != nil {
			return utils.DatabaseError(err, "failed to store gateway order")
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to create payment",
			zap.Uint("appointment_id", req.OPDOnlineAppointmentID), zap.Error(err))
		return nil, err
	}

	return &models.PaymentIntent{
		Message:   "Payment created successfully",
		PaymentID: payment.PaymentID,
		OrderID:   *payment.OrderID,
	}, nil
}

// HandleCallback verifies and applies one gateway webhook delivery. Every
// write happens in a single transaction, so a failure leaves no partial
// patient, registration or payment state behind.
func (s *PaymentService) HandleCallback(ctx context.Context, body []byte, signature string, actor Actor) (*models.CallbackResult, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, utils.NewAppError(utils.KindSecurity, utils.CodeMissingSignature, "webhook signature header is missing")
	}
	if !utils.VerifySignature(body, s.settings.WebhookSecret, signature) {
		return nil, utils.NewAppError(utils.KindSecurity, utils.CodeInvalidSignature, "webhook signature does not match")
	}

	event, err := parsePaymentEvent(body)
	if err != nil {
		return nil, err
	}

	if !event.settles() && !event.fails() {
		s.log.Info("payment webhook ignored",
			zap.String("event", event.Event),
			zap.String("gateway_payment_id", event.PaymentID))
		return &models.CallbackResult{Ignored: true}, nil
	}

	var result models.CallbackResult
	err = s.repository.Transaction(ctx, func(store repositories.PaymentStore) error {
		outcome, err := s.reconcile(ctx, store, event, actor)
		if err != nil {
			return err
		}
		result = *outcome
		return nil
	})
	if err != nil {
		if appErr, ok := utils.AsAppError(err); ok && appErr.Kind == utils.KindNotFound {
			s.log.Warn("webhook has no matching payment",
				zap.String("gateway_payment_id", event.PaymentID),
				zap.String("order_id", event.OrderID),
				zap.Uint("appointment_id", event.AppointmentID))
			return nil, appErr
		}
		s.log.Error("payment reconciliation failed",
			zap.String("event", event.Event),
			zap.String("gateway_payment_id", event.PaymentID),
			zap.String("order_id", event.OrderID),
			zap.Uint("appointment_id", event.AppointmentID),
			zap.Error(err))
		return nil, utils.WrapAppError(err, utils.KindInfra, utils.CodeReconciliationFailed, "payment reconciliation failed")
	}

	s.log.Info("payment webhook processed",
		zap.String("event", event.Event),
		zap.String("gateway_payment_id", event.PaymentID),
		zap.Uint("payment_id", result.PaymentID),
		zap.String("status", result.Status),
		zap.Bool("duplicate", result.Duplicate))
	return &result, nil
}

func (s *PaymentService) reconcile(ctx context.Context, store repositories.PaymentStore, event *paymentEvent, actor Actor) (*models.CallbackResult, error) {
	processed, err := store.EventProcessed(ctx, event.PaymentID)
	if err != nil {
		return nil, err
	}
	if processed {
		return &models.CallbackResult{Duplicate: true}, nil
	}

	payment, err := store.FindPaymentForUpdate(ctx, event.AppointmentID, event.PaymentID, event.OrderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, utils.NotFoundError(utils.CodePaymentRecordNotFound,
			fmt.Sprintf("no payment for appointment %d matches %s", event.AppointmentID, event.PaymentID))
	}
	if payment.IsCaptured() {
		return &models.CallbackResult{PaymentID: payment.PaymentID, Status: payment.PaymentStatus, Duplicate: true}, nil
	}

	now := s.now()
	if event.fails() {
		s.stampPayment(payment, event, models.PaymentStatusFailed, actor, now)
		if err := store.SavePayment(ctx, payment); err != nil {
			return nil, err
		}
		if err := s.recordEvent(ctx, store, event, payment, now); err != nil {
			return nil, err
		}
		return &models.CallbackResult{PaymentID: payment.PaymentID, Status: payment.PaymentStatus}, nil
	}

	mrNo := event.MRNo
	if mrNo == "" {
		if mrNo, err = s.mrNumbers.NextWithin(ctx, store); err != nil {
			return nil, err
		}
	}

	registrationID, err := s.upsertPatient(ctx, store, mrNo, event, actor, now)
	if err != nil {
		return nil, err
	}

	s.stampPayment(payment, event, models.PaymentStatusCaptured, actor, now)
	payment.AmountPaid = event.Amount
	payment.PaymentMode = event.Mode
	payment.PaymentDate = now
	if err := store.SavePayment(ctx, payment); err != nil {
		return nil, err
	}
	if err := store.MarkAppointmentPaid(ctx, event.AppointmentID, mrNo, event.PaymentID); err != nil {
		return nil, err
	}
	if err := s.recordEvent(ctx, store, event, payment, now); err != nil {
		return nil, err
	}

	return &models.CallbackResult{
		PaymentID:      payment.PaymentID,
		Status:         payment.PaymentStatus,
		MRNo:           mrNo,
		RegistrationID: registrationID,
	}, nil
}

// upsertPatient creates the patient master with a first registration, or
// refreshes the latest registration of a known patient.
func (s *PaymentService) upsertPatient(ctx context.Context, store repositories.PaymentStore, mrNo string, event *paymentEvent, actor Actor, now time.Time) (uint, error) {
	master, err := store.FindMrMaster(ctx, mrNo)
	if err != nil {
		return 0, err
	}
	if master == nil {
		master = &models.MrMaster{MRNo: mrNo, MRDate: now, PatientName: event.PatientName}
		if err := store.CreateMrMaster(ctx, master); err != nil {
			return 0, err
		}
		return s.register(ctx, store, mrNo, event, actor, now)
	}

	registration, err := store.LatestRegistration(ctx, mrNo)
	if err != nil {
		return 0, err
	}
	if registration == nil {
		return s.register(ctx, store, mrNo, event, actor, now)
	}

	registration.ConsultationDate = now
	registration.Amount = event.Amount
	registration.PaymentMode = event.Mode
	registration.ModifiedBy = &actor.UserID
	registration.ModifiedOn = &now
	if err := store.SaveRegistration(ctx, registration); err != nil {
		return 0, err
	}
	return registration.RegistrationID, nil
}

func (s *PaymentService) register(ctx context.Context, store repositories.PaymentStore, mrNo string, event *paymentEvent, actor Actor, now time.Time) (uint, error) {
	registration := &models.Registration{
		MRNo:             mrNo,
		RegistrationDate: now,
		ConsultationDate: now,
		RegistrationFee:  s.settings.RegistrationFee,
		Amount:           event.Amount,
		PaymentMode:      event.Mode,
		CreatedBy:        actor.UserID,
		CreatedOn:        now,
	}
	if err := store.CreateRegistration(ctx, registration); err != nil {
		return 0, err
	}

	consultation := &models.Consultation{
		RegistrationID:   registration.RegistrationID,
		ConsultationDate: now,
		ConsultedAt:      now,
		PatientName:      event.PatientName,
		CreatedBy:        actor.UserID,
		CreatedOn:        now,
	}
	if err := store.CreateConsultation(ctx, consultation); err != nil {
		return 0, err
	}
	return registration.RegistrationID, nil
}

func (s *PaymentService) stampPayment(payment *models.Payment, event *paymentEvent, status string, actor Actor, now time.Time) {
	transactionID := event.PaymentID
	payment.PaymentStatus = status
	payment.TransactionID = &transactionID
	payment.ModifiedBy = &actor.UserID
	payment.ModifiedOn = &now
}

func (s *PaymentService) recordEvent(ctx context.Context, store repositories.PaymentStore, event *paymentEvent, payment *models.Payment, now time.Time) error {
	return store.RecordEvent(ctx, &models.ProcessedPaymentEvent{
		ExternalPaymentID: event.PaymentID,
		Event:             event.Event,
		PaymentID:         payment.PaymentID,
		ProcessedAt:       now,
	})
}

func (s *PaymentService) ListPayments(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.repository.List(ctx)
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load payments")
	}
	return payments, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load payment")
	}
	if payment == nil {
		return nil, utils.NotFoundError(utils.CodePaymentNotFound, fmt.Sprintf("payment %d not found", id))
	}
	return payment, nil
}

// FetchGatewayPayment returns the gateway's own record of a payment.
func (s *PaymentService) FetchGatewayPayment(ctx context.Context, gatewayPaymentID string) (map[string]interface{}, error) {
	gatewayPaymentID = strings.TrimSpace(gatewayPaymentID)
	if gatewayPaymentID == "" {
		return nil, utils.ValidationError("gateway payment id is required")
	}
	payment, err := s.gateway.FetchPayment(ctx, gatewayPaymentID)
	if err != nil {
		return nil, utils.WrapAppError(err, utils.KindGateway, utils.CodeGatewayError, "failed to fetch payment from gateway")
	}
	return payment, nil
}
