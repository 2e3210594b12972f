package repositories

import (
	"JagannathOPD/models"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentStore is the set of reads and writes a payment flow performs inside
// one transaction.
type PaymentStore interface {
	MRCounterStore

	CreatePayment(ctx context.Context, payment *models.Payment) error
	SavePayment(ctx context.Context, payment *models.Payment) error
	// FindPaymentForUpdate locks the payment of the appointment whose
	// transaction id or order id matches. Returns nil when nothing matches.
	FindPaymentForUpdate(ctx context.Context, appointmentID uint, transactionID, orderID string) (*models.Payment, error)

	EventProcessed(ctx context.Context, externalPaymentID string) (bool, error)
	RecordEvent(ctx context.Context, event *models.ProcessedPaymentEvent) error

	FindMrMaster(ctx context.Context, mrNo string) (*models.MrMaster, error)
	CreateMrMaster(ctx context.Context, master *models.MrMaster) error
	LatestRegistration(ctx context.Context, mrNo string) (*models.Registration, error)
	CreateRegistration(ctx context.Context, registration *models.Registration) error
	SaveRegistration(ctx context.Context, registration *models.Registration) error
	CreateConsultation(ctx context.Context, consultation *models.Consultation) error

	MarkAppointmentPaid(ctx context.Context, appointmentID uint, mrNo, transactionID string) error
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Transaction runs fn with a store bound to a new transaction. Any error
// returned by fn rolls back every write made through the store.
func (r *PaymentRepository) Transaction(ctx context.Context, fn func(store PaymentStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

// GetByID returns nil without an error when the payment does not exist.
func (r *PaymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "payment_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get payment")
	}
	return &payment, nil
}

func (r *PaymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payments []models.Payment
	if err := r.db.WithContext(ctx).Order("payment_date DESC, payment_id DESC").Find(&payments).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list payments")
	}
	return payments, nil
}

func (r *PaymentRepository) AppointmentExists(ctx context.Context, appointmentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OnlineAppointment{}).
		Where("opd_online_appointment_id = ?", appointmentID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check appointment")
	}
	return count > 0, nil
}

func (s *txStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(payment).Error, "failed to create payment")
}

func (s *txStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	return errors.Wrap(s.db.WithContext(ctx).Save(payment).Error, "failed to save payment")
}

func (s *txStore) FindPaymentForUpdate(ctx context.Context, appointmentID uint, transactionID, orderID string) (*models.Payment, error) {
	query := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("opd_online_appointment_id = ?", appointmentID)
	if orderID != "" {
		query = query.Where("(transaction_id = ? OR order_id = ?)", transactionID, orderID)
	} else {
		query = query.Where("transaction_id = ?", transactionID)
	}

	var payment models.Payment
	if err := query.Order("payment_id DESC").First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to lock payment")
	}
	return &payment, nil
}

func (s *txStore) EventProcessed(ctx context.Context, externalPaymentID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ProcessedPaymentEvent{}).
		Where("external_payment_id = ?", externalPaymentID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check payment event")
	}
	return count > 0, nil
}

func (s *txStore) RecordEvent(ctx context.Context, event *models.ProcessedPaymentEvent) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(event).Error, "failed to record payment event")
}

func (s *txStore) FindMrMaster(ctx context.Context, mrNo string) (*models.MrMaster, error) {
	var master models.MrMaster
	err := s.db.WithContext(ctx).First(&master, "mr_no = ?", mrNo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get MR master")
	}
	return &master, nil
}

func (s *txStore) CreateMrMaster(ctx context.Context, master *models.MrMaster) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(master).Error, "failed to create MR master")
}

func (s *txStore) LatestRegistration(ctx context.Context, mrNo string) (*models.Registration, error) {
	var registration models.Registration
	err := s.db.WithContext(ctx).
		Where("mr_no = ?", mrNo).
		Order("registration_date DESC, registration_id DESC").
		First(&registration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get registration")
	}
	return &registration, nil
}

func (s *txStore) CreateRegistration(ctx context.Context, registration *models.Registration) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(registration).Error, "failed to create registration")
}

func (s *txStore) SaveRegistration(ctx context.Context, registration *models.Registration) error {
	return errors.Wrap(s.db.WithContext(ctx).Save(registration).Error, "failed to update registration")
}

func (s *txStore) CreateConsultation(ctx context.Context, consultation *models.Consultation) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(consultation).Error, "failed to create consultation")
}

func (s *txStore) MarkAppointmentPaid(ctx context.Context, appointmentID uint, mrNo, transactionID string) error {
	err := s.db.WithContext(ctx).Model(&models.OnlineAppointment{}).
		Where("opd_online_appointment_id = ?", appointmentID).
		Updates(map[string]interface{}{
			"pending":        false,
			"mr_no":          mrNo,
			"transaction_id": transactionID,
		}).Error
	return errors.Wrap(err, "failed to update appointment")
}
