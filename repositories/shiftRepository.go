package repositories

import (
	"JagannathOPD/models"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ShiftRepository struct {
	db *gorm.DB
}

func NewShiftRepository(db *gorm.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// GetByID returns nil without an error when the shift does not exist.
func (r *ShiftRepository) GetByID(ctx context.Context, id uint) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).First(&shift, "shift_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get shift")
	}
	return &shift, nil
}

// GetForConsultant returns the shift assigned to the consultant, falling back
// to the first configured shift.
func (r *ShiftRepository) GetForConsultant(ctx context.Context, consultantID uint) (*models.Shift, error) {
	var assignment models.ConsultantShift
	err := r.db.WithContext(ctx).
		Where("consultant_id = ?", consultantID).
		Order("consultant_shift_id ASC").
		First(&assignment).Error
	switch {
	case err == nil:
		return r.GetByID(ctx, assignment.ShiftID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "failed to get consultant shift")
	}

	var shift models.Shift
	err = r.db.WithContext(ctx).Order("shift_id ASC").First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get default shift")
	}
	return &shift, nil
}
