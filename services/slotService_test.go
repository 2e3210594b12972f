package services

import (
	"JagannathOPD/models"
	"JagannathOPD/utils"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type slotFixture struct {
	service *SlotService
	slots   *mockSlotRepository
	locker  *mockLocker
	cache   *mockCache
}

func newSlotFixture(t *testing.T) *slotFixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	shifts := &mockShiftRepository{
		shifts: map[uint]*models.Shift{
			1: {ShiftID: 1, StartTime: "09:00", StartTimeAMPM: "AM", EndTime: "01:00", EndTimeAMPM: "PM"},
			2: {ShiftID: 2, StartTime: "10:00", StartTimeAMPM: "PM", EndTime: "02:00", EndTimeAMPM: "AM"},
		},
		assigned: map[uint]uint{},
		fallback: 1,
	}
	f := &slotFixture{
		slots:  &mockSlotRepository{},
		locker: &mockLocker{},
		cache:  newMockCache(),
	}
	f.service = NewSlotService(f.slots, shifts, mockConsultants{7: true}, f.locker, f.cache, zap.NewNop(), loc, 30)
	f.service.now = func() time.Time { return time.Date(2026, 10, 14, 10, 0, 0, 0, loc) }
	return f
}

func TestAllocateForDay(t *testing.T) {
	f := newSlotFixture(t)

	slots, err := f.service.AllocateForDay(context.Background(), models.DaySlotsRequest{
		ConsultantID: 7, ShiftID: 1, Date: "2026-10-20", NumSlots: 6, SlotInterval: 30,
	})
	require.NoError(t, err)
	require.Len(t, slots, 6)

	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	for i, slot := range slots {
		assert.Equal(t, want[i], slot.SlotTime)
		assert.Equal(t, "2026-10-20", slot.ConsultationDate)
		assert.Equal(t, 1, slot.MaxSlots)
		assert.Equal(t, 1, slot.AvailableSlots)
		assert.False(t, slot.IsBooked)
	}
	assert.Equal(t, "20261020090001", slots[0].SlotToken)
	assert.Equal(t, "20261020113006", slots[5].SlotToken)

	assert.Equal(t, []string{"slot_lock:7"}, f.locker.acquired)
	assert.Equal(t, 1, f.locker.released)
	assert.Contains(t, f.cache.deleted, "doctor_slots_cache:7")
}

func TestAllocateForDayAppliesDefaults(t *testing.T) {
	f := newSlotFixture(t)

	slots, err := f.service.AllocateForDay(context.Background(), models.DaySlotsRequest{
		ConsultantID: 7, ShiftID: 1, Date: "2026-10-20",
	})
	require.NoError(t, err)
	assert.Len(t, slots, utils.DefaultDayNumSlots)
}

func TestAllocateForDayInsufficientCapacity(t *testing.T) {
	f := newSlotFixture(t)

	_, err := f.service.AllocateForDay(context.Background(), models.DaySlotsRequest{
		ConsultantID: 7, ShiftID: 1, Date: "2026-10-20", NumSlots: 10, SlotInterval: 30,
	})
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.CodeInsufficientShiftCapacity))

	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, 409, appErr.HTTPStatus())
	assert.Equal(t, int32(0), f.slots.CreateBatchCallCount)
	assert.Empty(t, f.slots.slots)
	assert.Empty(t, f.locker.acquired)
}

func TestAllocateForDayErrors(t *testing.T) {
	tests := []struct {
		name string
		req  models.DaySlotsRequest
		code string
	}{
		{"unknown consultant", models.DaySlotsRequest{ConsultantID: 99, ShiftID: 1, Date: "2026-10-20"}, utils.CodeConsultantNotFound},
		{"unknown shift", models.DaySlotsRequest{ConsultantID: 7, ShiftID: 9, Date: "2026-10-20"}, utils.CodeConfigurationError},
		{"midnight shift", models.DaySlotsRequest{ConsultantID: 7, ShiftID: 2, Date: "2026-10-20"}, utils.CodeConfigurationError},
		{"bad date", models.DaySlotsRequest{ConsultantID: 7, ShiftID: 1, Date: "20-10-2026"}, utils.CodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSlotFixture(t)
			_, err := f.service.AllocateForDay(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, utils.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, f.slots.slots)
		})
	}
}

func TestAllocateForDayTokensUniqueAcrossCalls(t *testing.T) {
	f := newSlotFixture(t)
	req := models.DaySlotsRequest{ConsultantID: 7, ShiftID: 1, Date: "2026-10-20", NumSlots: 8, SlotInterval: 30}

	for i := 0; i < 3; i++ {
		_, err := f.service.AllocateForDay(context.Background(), req)
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, slot := range f.slots.slots {
		assert.False(t, seen[slot.SlotToken], "token %s reused", slot.SlotToken)
		seen[slot.SlotToken] = true
	}
	assert.Len(t, seen, 24)
}

func TestAllocateForDayConflictOnInsert(t *testing.T) {
	f := newSlotFixture(t)
	f.slots.CreateBatchFunc = func(ctx context.Context, slots []models.TimeSlot) error {
		return errors.Wrap(gorm.ErrDuplicatedKey, "failed to insert slots")
	}

	_, err := f.service.AllocateForDay(context.Background(), models.DaySlotsRequest{
		ConsultantID: 7, ShiftID: 1, Date: "2026-10-20",
	})
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.CodeSlotConflict))
	assert.Equal(t, int32(slotInsertAttempts), f.slots.CreateBatchCallCount)
	assert.Empty(t, f.cache.deleted)
}

func TestAllocateForDayRebuildsAfterConcurrentToken(t *testing.T) {
	f := newSlotFixture(t)
	f.slots.CreateBatchFunc = func(ctx context.Context, slots []models.TimeSlot) error {
		if f.slots.CreateBatchCallCount > 1 {
			return nil
		}
		// another consultant stored the same date and time first
		f.slots.mu.Lock()
		f.slots.slots = append(f.slots.slots, models.TimeSlot{
			ConsultantID: 8, ConsultationDate: "2026-10-20", SlotTime: "09:00", SlotToken: "20261020090001",
		})
		f.slots.mu.Unlock()
		return errors.Wrap(gorm.ErrDuplicatedKey, "failed to insert slots")
	}

	slots, err := f.service.AllocateForDay(context.Background(), models.DaySlotsRequest{
		ConsultantID: 7, ShiftID: 1, Date: "2026-10-20", NumSlots: 2, SlotInterval: 30,
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, int32(2), f.slots.CreateBatchCallCount)
	assert.NotEqual(t, "20261020090001", slots[0].SlotToken)
	assert.True(t, strings.HasPrefix(slots[0].SlotToken, "202610200900"))
	assert.Equal(t, "20261020093002", slots[1].SlotToken)
	assert.Equal(t, []string{"slot_lock:7"}, f.locker.acquired)
}

func TestAllocateForDayLockBusy(t *testing.T) {
	f := newSlotFixture(t)
	f.locker.busy = true

	_, err := f.service.AllocateForDay(context.Background(), models.DaySlotsRequest{
		ConsultantID: 7, ShiftID: 1, Date: "2026-10-20",
	})
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.CodeLockUnavailable))
	assert.Equal(t, int32(0), f.slots.CreateBatchCallCount)
}

func TestAllocateForRangeTruncatesAtShiftEnd(t *testing.T) {
	f := newSlotFixture(t)

	slots, err := f.service.AllocateForRange(context.Background(), models.RangeSlotsRequest{
		ConsultantID:    7,
		StartDate:       "2026-10-20",
		EndDate:         "2026-10-22",
		IntervalMinutes: 30,
		DailySlots: []models.DailySlots{
			{Date: "2026-10-20", NumSlots: 10},
			{Date: "2026-10-22", NumSlots: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, slots, 10)

	first := slots[:8]
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30"}
	for i, slot := range first {
		assert.Equal(t, "2026-10-20", slot.ConsultationDate)
		assert.Equal(t, want[i], slot.SlotTime)
		require.NotNil(t, slot.ShiftID)
		assert.Equal(t, uint(1), *slot.ShiftID)
	}
	assert.Equal(t, "2026-10-22", slots[8].ConsultationDate)
	assert.Equal(t, "09:30", slots[9].SlotTime)
	assert.Equal(t, int32(1), f.slots.CreateBatchCallCount)
}

func TestAllocateForRangeAttemptSuffixOnCollision(t *testing.T) {
	f := newSlotFixture(t)
	f.slots.slots = []models.TimeSlot{{ConsultantID: 8, ConsultationDate: "2026-10-20", SlotTime: "09:00", SlotToken: "20261020090001"}}

	slots, err := f.service.AllocateForRange(context.Background(), models.RangeSlotsRequest{
		ConsultantID:    7,
		StartDate:       "2026-10-20",
		EndDate:         "2026-10-20",
		IntervalMinutes: 60,
		DailySlots:      []models.DailySlots{{Date: "2026-10-20", NumSlots: 1}},
	})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "202610200900-1", slots[0].SlotToken)
}

func TestAllocateForRangeErrors(t *testing.T) {
	f := newSlotFixture(t)

	_, err := f.service.AllocateForRange(context.Background(), models.RangeSlotsRequest{
		ConsultantID: 7, StartDate: "2026-10-22", EndDate: "2026-10-20", IntervalMinutes: 30,
		DailySlots: []models.DailySlots{{Date: "2026-10-21", NumSlots: 1}},
	})
	assert.True(t, utils.HasCode(err, utils.CodeInvalidRange))

	_, err = f.service.AllocateForRange(context.Background(), models.RangeSlotsRequest{
		ConsultantID: 7, StartDate: "2026-10-20", EndDate: "2026-10-22", IntervalMinutes: 30,
		DailySlots: []models.DailySlots{{Date: "2026-10-21", NumSlots: 2}, {Date: "2026-10-25", NumSlots: 2}},
	})
	assert.True(t, utils.HasCode(err, utils.CodeDateOutOfRange))

	_, err = f.service.AllocateForRange(context.Background(), models.RangeSlotsRequest{
		ConsultantID: 7, StartDate: "2026-10-20", EndDate: "2026-10-22", IntervalMinutes: 30,
		DailySlots: []models.DailySlots{{Date: "2026-10-21", NumSlots: 2}, {Date: "2026-10-21", NumSlots: 3}},
	})
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.CodeValidationError))

	assert.Empty(t, f.slots.slots)
	assert.Empty(t, f.locker.acquired)
}

func TestListAvailable(t *testing.T) {
	f := newSlotFixture(t)
	_, err := f.service.AllocateForDay(context.Background(), models.DaySlotsRequest{
		ConsultantID: 7, ShiftID: 1, Date: "2026-10-20", NumSlots: 3, SlotInterval: 60,
	})
	require.NoError(t, err)

	views, err := f.service.ListAvailable(context.Background(), 7, "2026-10-20")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "09:00", views[0].SlotTime)
	assert.Equal(t, "11:00", views[2].SlotTime)
	assert.Nil(t, views[0].Appointments)

	_, err = f.service.ListAvailable(context.Background(), 7, "2026-10-21")
	assert.True(t, utils.HasCode(err, utils.CodeSlotsNotFound))
}

func TestListAvailableHorizon(t *testing.T) {
	f := newSlotFixture(t)

	_, err := f.service.ListAvailable(context.Background(), 7, "2026-11-28")
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.CodeDateTooFarAhead))

	// Exactly thirty days out is still bookable.
	_, err = f.service.ListAvailable(context.Background(), 7, "2026-11-13")
	assert.True(t, utils.HasCode(err, utils.CodeSlotsNotFound))
}

func TestListGroupedByDateUsesCache(t *testing.T) {
	f := newSlotFixture(t)
	_, err := f.service.AllocateForRange(context.Background(), models.RangeSlotsRequest{
		ConsultantID: 7, StartDate: "2026-10-20", EndDate: "2026-10-21", IntervalMinutes: 30,
		DailySlots: []models.DailySlots{{Date: "2026-10-20", NumSlots: 2}, {Date: "2026-10-21", NumSlots: 3}},
	})
	require.NoError(t, err)
	mrNo := "2610000426"
	f.slots.slots[0].Appointments = []models.OnlineAppointment{{OPDOnlineAppointmentID: 42, MRNo: &mrNo, PatientName: "Asha", Pending: true}}

	grouped, err := f.service.ListGroupedByDate(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, grouped["2026-10-20"], 2)
	assert.Len(t, grouped["2026-10-21"], 3)
	require.Len(t, grouped["2026-10-20"][0].Appointments, 1)
	assert.Equal(t, "Asha", grouped["2026-10-20"][0].Appointments[0].PatientName)

	again, err := f.service.ListGroupedByDate(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, again["2026-10-21"], 3)
	require.Len(t, again["2026-10-20"][0].Appointments, 1)
	assert.Equal(t, &mrNo, again["2026-10-20"][0].Appointments[0].MRNo)
	assert.Equal(t, int32(1), f.slots.ListByConsultantCallCount)

	_, err = f.service.ListGroupedByDate(context.Background(), 8)
	assert.True(t, utils.HasCode(err, utils.CodeSlotsNotFound))
}
