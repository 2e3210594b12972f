package repositories

import (
	"JagannathOPD/models"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// slotInsertBatchSize keeps a single INSERT well under the Postgres parameter limit.
const slotInsertBatchSize = 200

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// TokenExists reports whether any stored slot, for any consultant, carries token.
func (r *SlotRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TimeSlot{}).
		Where("slot_token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check slot token")
	}
	return count > 0, nil
}

// CreateBatch inserts all slots in one transaction. A unique violation on the
// token index is returned wrapping gorm.ErrDuplicatedKey.
func (r *SlotRepository) CreateBatch(ctx context.Context, slots []models.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&slots, slotInsertBatchSize).Error; err != nil {
			return errors.Wrap(err, "failed to insert slots")
		}
		return nil
	})
}

// ListByConsultantDate returns one day of a consultant's slots ordered by time.
func (r *SlotRepository) ListByConsultantDate(ctx context.Context, consultantID uint, date string) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slots []models.TimeSlot
	err := r.db.WithContext(ctx).
		Where("consultant_id = ? AND consultation_date = ?", consultantID, date).
		Order("slot_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list slots")
	}
	return slots, nil
}

// ListByConsultant returns every slot of a consultant with its appointments,
// ordered by date then time.
func (r *SlotRepository) ListByConsultant(ctx context.Context, consultantID uint) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slots []models.TimeSlot
	err := r.db.WithContext(ctx).
		Preload("Appointments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_on ASC")
		}).
		Where("consultant_id = ?", consultantID).
		Order("consultation_date ASC, slot_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list consultant slots")
	}
	return slots, nil
}

func (r *SlotRepository) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var slots []models.TimeSlot
	err := r.db.WithContext(ctx).
		Preload("Appointments").
		Order("consultant_id ASC, consultation_date ASC, slot_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list slots")
	}
	return slots, nil
}
