package services

import (
	"JagannathOPD/models"
	"JagannathOPD/utils"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const DoctorCacheExpiry = time.Hour

type DoctorRepository interface {
	ListByDepartment(ctx context.Context, departmentID uint, consultantID *uint) ([]models.Consultant, error)
	ListAll(ctx context.Context) ([]models.Consultant, error)
}

type DoctorService struct {
	repository DoctorRepository
	cache      JSONCache
	log        *zap.Logger
}

func NewDoctorService(repository DoctorRepository, cache JSONCache, log *zap.Logger) *DoctorService {
	return &DoctorService{repository: repository, cache: cache, log: log}
}

// ListByDepartment lists a department's consultants once per name, with the
// fee of their shift assignment.
func (s *DoctorService) ListByDepartment(ctx context.Context, departmentID uint, consultantID *uint) ([]models.DoctorView, error) {
	key := fmt.Sprintf("doctors_cache:department:%d", departmentID)
	if consultantID != nil {
		key = fmt.Sprintf("%s:%d", key, *consultantID)
	}

	return s.cached(ctx, key, func() ([]models.DoctorView, error) {
		consultants, err := s.repository.ListByDepartment(ctx, departmentID, consultantID)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(consultants))
		views := make([]models.DoctorView, 0, len(consultants))
		for _, consultant := range consultants {
			if _, dup := seen[consultant.ConsultantName]; dup {
				continue
			}
			seen[consultant.ConsultantName] = struct{}{}
			views = append(views, models.DoctorView{
				ConsultantID:   consultant.ConsultantID,
				ConsultantName: consultant.ConsultantName,
				Fee:            consultantFee(consultant),
			})
		}
		return views, nil
	})
}

func (s *DoctorService) ListAll(ctx context.Context) ([]models.DoctorView, error) {
	return s.cached(ctx, "doctors_cache:all", func() ([]models.DoctorView, error) {
		consultants, err := s.repository.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		views := make([]models.DoctorView, 0, len(consultants))
		for _, consultant := range consultants {
			view := models.DoctorView{
				ConsultantID:       consultant.ConsultantID,
				ConsultantName:     consultant.ConsultantName,
				ProfessionalDegree: consultant.ProfessionalDegree,
				Fee:                consultantFee(consultant),
			}
			if consultant.Department != nil {
				department := consultant.Department.Department
				view.Department = &department
			}
			views = append(views, view)
		}
		return views, nil
	})
}

func (s *DoctorService) cached(ctx context.Context, key string, load func() ([]models.DoctorView, error)) ([]models.DoctorView, error) {
	if s.cache != nil {
		var views []models.DoctorView
		found, err := s.cache.GetJSON(ctx, key, &views)
		if err != nil {
			s.log.Warn("failed to read doctors from cache", zap.String("key", key), zap.Error(err))
		} else if found {
			return views, nil
		}
	}

	views, err := load()
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load doctors")
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, views, DoctorCacheExpiry); err != nil {
			s.log.Warn("failed to cache doctors", zap.String("key", key), zap.Error(err))
		}
	}
	return views, nil
}

func consultantFee(consultant models.Consultant) *float64 {
	if consultant.ConsultantShift == nil {
		return nil
	}
	fee := consultant.ConsultantShift.Fee
	return &fee
}
