package repositories

import (
	"JagannathOPD/models"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Exists(ctx context.Context, consultantID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Consultant{}).
		Where("consultant_id = ?", consultantID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check consultant")
	}
	return count > 0, nil
}

// ListByDepartment returns the consultants of a department, optionally narrowed
// to one consultant, with their shift assignment loaded.
func (r *DoctorRepository) ListByDepartment(ctx context.Context, departmentID uint, consultantID *uint) ([]models.Consultant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := r.db.WithContext(ctx).
		Preload("ConsultantShift").
		Where("department_id = ?", departmentID)
	if consultantID != nil {
		query = query.Where("consultant_id = ?", *consultantID)
	}

	var consultants []models.Consultant
	if err := query.Order("consultant_name ASC").Find(&consultants).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list department consultants")
	}
	return consultants, nil
}

func (r *DoctorRepository) ListAll(ctx context.Context) ([]models.Consultant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var consultants []models.Consultant
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("ConsultantShift").
		Order("consultant_name ASC").
		Find(&consultants).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list consultants")
	}
	return consultants, nil
}
