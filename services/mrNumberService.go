package services

import (
	"JagannathOPD/repositories"
	"JagannathOPD/utils"
	"context"
	"time"
)

type MRRepository interface {
	Transaction(ctx context.Context, fn func(store repositories.MRCounterStore) error) error
}

// MRNumberService mints medical record numbers from the shared counter row.
type MRNumberService struct {
	repository MRRepository
	loc        *time.Location
	now        func() time.Time
}

func NewMRNumberService(repository MRRepository, loc *time.Location) *MRNumberService {
	return &MRNumberService{repository: repository, loc: loc, now: time.Now}
}

// Next mints one MR number in its own transaction.
func (s *MRNumberService) Next(ctx context.Context) (string, error) {
	var mrNo string
	err := s.repository.Transaction(ctx, func(store repositories.MRCounterStore) error {
		next, err := s.NextWithin(ctx, store)
		if err != nil {
			return err
		}
		mrNo = next
		return nil
	})
	if err != nil {
		return "", err
	}
	return mrNo, nil
}

// NextWithin mints one MR number using the caller's transaction. The counter
// row stays locked until that transaction ends.
func (s *MRNumberService) NextWithin(ctx context.Context, store repositories.MRCounterStore) (string, error) {
	counter, err := store.LockCounter(ctx)
	if err != nil {
		return "", utils.DatabaseError(err, "failed to read MR counter")
	}
	if counter == nil {
		return "", utils.NewAppError(utils.KindConfiguration, utils.CodeCounterMissing, "MR counter row is missing")
	}

	mrNo, err := utils.FormatMRNo(s.now().In(s.loc), counter.MRCounter)
	if err != nil {
		return "", err
	}

	counter.MRCounter++
	if err := store.SaveCounter(ctx, counter); err != nil {
		return "", utils.DatabaseError(err, "failed to advance MR counter")
	}
	return mrNo, nil
}
