package services

import (
	"JagannathOPD/models"
	"JagannathOPD/utils"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

func newMRFixture() (*MRNumberService, *memoryPaymentRepository) {
	db := newMemoryPaymentRepository()
	service := NewMRNumberService(memoryCounterRepository{db: db}, time.UTC)
	service.now = func() time.Time { return issuedAt }
	return service, db
}

func TestMRNumberNext(t *testing.T) {
	service, db := newMRFixture()
	db.state.counter.MRCounter = 42

	mrNo, err := service.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2610000426", mrNo)
	assert.True(t, utils.ValidMRNo(mrNo))
	assert.Equal(t, int64(43), db.snapshot().counter.MRCounter)
}

func TestMRNumberConcurrentCallsAreDistinctAndGapless(t *testing.T) {
	service, db := newMRFixture()
	const callers = 50

	var wg sync.WaitGroup
	results := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mrNo, err := service.Next(context.Background())
			assert.NoError(t, err)
			results <- mrNo
		}()
	}
	wg.Wait()
	close(results)

	got := map[string]bool{}
	for mrNo := range results {
		assert.False(t, got[mrNo], "duplicate MR number %s", mrNo)
		got[mrNo] = true
	}
	require.Len(t, got, callers)

	for counter := int64(1); counter <= callers; counter++ {
		want, err := utils.FormatMRNo(issuedAt, counter)
		require.NoError(t, err)
		assert.True(t, got[want], "missing MR number for counter %d", counter)
	}
	assert.Equal(t, int64(callers+1), db.snapshot().counter.MRCounter)
}

func TestMRNumberCounterMissing(t *testing.T) {
	service, db := newMRFixture()
	db.state.counter = nil

	_, err := service.Next(context.Background())
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.CodeCounterMissing))
}

func TestMRNumberCounterExhausted(t *testing.T) {
	service, db := newMRFixture()
	db.state.counter = &models.MrParameter{ID: 1, MRCounter: utils.MaxMRCounter + 1}

	_, err := service.Next(context.Background())
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.CodeCounterExhausted))
	assert.Equal(t, int64(utils.MaxMRCounter+1), db.snapshot().counter.MRCounter)
}
