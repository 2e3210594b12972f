package repositories

import (
	"JagannathOPD/models"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mrCounterRowID is the primary key of the singleton counter row.
const mrCounterRowID = 1

// MRCounterStore reads and writes the MR counter inside a transaction.
type MRCounterStore interface {
	// LockCounter returns nil without an error when the row is missing.
	LockCounter(ctx context.Context) (*models.MrParameter, error)
	SaveCounter(ctx context.Context, counter *models.MrParameter) error
}

type MRRepository struct {
	db *gorm.DB
}

func NewMRRepository(db *gorm.DB) *MRRepository {
	return &MRRepository{db: db}
}

// Transaction runs fn with a counter store bound to a new transaction.
func (r *MRRepository) Transaction(ctx context.Context, fn func(store MRCounterStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

// txStore implements the transaction-bound stores on one *gorm.DB transaction.
type txStore struct {
	db *gorm.DB
}

func (s *txStore) LockCounter(ctx context.Context) (*models.MrParameter, error) {
	var counter models.MrParameter
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&counter, "id = ?", mrCounterRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to lock MR counter")
	}
	return &counter, nil
}

func (s *txStore) SaveCounter(ctx context.Context, counter *models.MrParameter) error {
	err := s.db.WithContext(ctx).Model(&models.MrParameter{}).
		Where("id = ?", counter.ID).
		Update("mr_counter", counter.MRCounter).Error
	return errors.Wrap(err, "failed to save MR counter")
}
