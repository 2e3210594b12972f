package services

import (
	"JagannathOPD/database"
	"JagannathOPD/models"
	"JagannathOPD/utils"
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	slotLockTTL       = 30 * time.Second
	SlotsCacheExpiry  = 10 * time.Minute
	slotsCachePrefix  = "doctor_slots_cache:"
	slotLockKeyPrefix = "slot_lock:"
)

// slotInsertAttempts bounds the rebuilds after a concurrent token collision.
const slotInsertAttempts = 2

type SlotRepository interface {
	TokenExists(ctx context.Context, token string) (bool, error)
	CreateBatch(ctx context.Context, slots []models.TimeSlot) error
	ListByConsultantDate(ctx context.Context, consultantID uint, date string) ([]models.TimeSlot, error)
	ListByConsultant(ctx context.Context, consultantID uint) ([]models.TimeSlot, error)
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
}

type ShiftRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Shift, error)
	GetForConsultant(ctx context.Context, consultantID uint) (*models.Shift, error)
}

type ConsultantLookup interface {
	Exists(ctx context.Context, consultantID uint) (bool, error)
}

// Locker serializes work on a key across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// JSONCache is the read-through cache used by the listing endpoints.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type SlotService struct {
	slots       SlotRepository
	shifts      ShiftRepository
	consultants ConsultantLookup
	locker      Locker
	cache       JSONCache
	log         *zap.Logger
	loc         *time.Location
	horizonDays int
	now         func() time.Time
}

func NewSlotService(
	slots SlotRepository,
	shifts ShiftRepository,
	consultants ConsultantLookup,
	locker Locker,
	cache JSONCache,
	log *zap.Logger,
	loc *time.Location,
	horizonDays int,
) *SlotService {
	return &SlotService{
		slots:       slots,
		shifts:      shifts,
		consultants: consultants,
		locker:      locker,
		cache:       cache,
		log:         log,
		loc:         loc,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// AllocateForDay creates NumSlots consecutive slots from the start of the
// shift. The request fails without writing anything when the shift is too
// short to hold all of them.
func (s *SlotService) AllocateForDay(ctx context.Context, req models.DaySlotsRequest) ([]models.TimeSlot, error) {
	utils.ApplyDaySlotsDefaults(&req)
	if err := utils.ValidateDaySlotsRequest(req); err != nil {
		return nil, utils.RequestValidationError(err)
	}
	date, err := utils.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, utils.ValidationError("date must be YYYY-MM-DD")
	}

	if err := s.requireConsultant(ctx, req.ConsultantID); err != nil {
		return nil, err
	}

	shift, err := s.shifts.GetByID(ctx, req.ShiftID)
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load shift")
	}
	window, err := utils.ResolveShiftWindow(shift, date, s.loc)
	if err != nil {
		return nil, err
	}

	required := req.NumSlots * req.SlotInterval
	if window.Minutes() < required {
		return nil, utils.NewAppError(utils.KindConflict, utils.CodeInsufficientShiftCapacity,
			fmt.Sprintf("shift has %d minutes but %d slots of %d minutes need %d",
				window.Minutes(), req.NumSlots, req.SlotInterval, required))
	}

	release, err := s.lockConsultant(ctx, req.ConsultantID)
	if err != nil {
		return nil, err
	}
	defer release()

	interval := time.Duration(req.SlotInterval) * time.Minute
	shiftID := req.ShiftID

	return s.generate(ctx, req.ConsultantID, func() ([]models.TimeSlot, error) {
		tokens := utils.NewSlotTokenGenerator(s.slots.TokenExists, utils.SuffixRandom)
		slots := make([]models.TimeSlot, 0, req.NumSlots)
		for i := 0; i < req.NumSlots; i++ {
			start := window.Start.Add(time.Duration(i) * interval)
			if !start.Before(window.End) {
				break
			}
			token, err := tokens.Next(ctx, start, i+1)
			if err != nil {
				return nil, s.tokenError(err)
			}
			slots = append(slots, newSlot(req.ConsultantID, &shiftID, start, token))
		}
		return slots, nil
	})
}

// AllocateForRange creates slots for each requested day of the range. A day
// stops at its requested count or at the end of the shift, whichever comes
// first. All days are written in one batch.
func (s *SlotService) AllocateForRange(ctx context.Context, req models.RangeSlotsRequest) ([]models.TimeSlot, error) {
	if err := utils.ValidateRangeSlotsRequest(req); err != nil {
		return nil, utils.RequestValidationError(err)
	}
	start, err := utils.ParseDate(req.StartDate, s.loc)
	if err != nil {
		return nil, utils.ValidationError("start_date must be YYYY-MM-DD")
	}
	end, err := utils.ParseDate(req.EndDate, s.loc)
	if err != nil {
		return nil, utils.ValidationError("end_date must be YYYY-MM-DD")
	}
	if start.After(end) {
		return nil, utils.NewAppError(utils.KindValidation, utils.CodeInvalidRange,
			"start_date must not be after end_date")
	}

	days := make([]time.Time, len(req.DailySlots))
	seen := make(map[string]struct{}, len(req.DailySlots))
	for i, daily := range req.DailySlots {
		day, err := utils.ParseDate(daily.Date, s.loc)
		if err != nil {
			return nil, utils.ValidationError("daily_slots date must be YYYY-MM-DD")
		}
		if day.Before(start) || day.After(end) {
			return nil, utils.NewAppError(utils.KindValidation, utils.CodeDateOutOfRange,
				fmt.Sprintf("%s is outside %s to %s", daily.Date, req.StartDate, req.EndDate))
		}
		key := day.Format(utils.DateLayout)
		if _, dup := seen[key]; dup {
			return nil, utils.ValidationError(fmt.Sprintf("daily_slots lists %s more than once", key))
		}
		seen[key] = struct{}{}
		days[i] = day
	}

	if err := s.requireConsultant(ctx, req.ConsultantID); err != nil {
		return nil, err
	}

	shift, err := s.rangeShift(ctx, req)
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load shift")
	}
	var shiftID *uint
	if shift != nil {
		id := shift.ShiftID
		shiftID = &id
	}

	release, err := s.lockConsultant(ctx, req.ConsultantID)
	if err != nil {
		return nil, err
	}
	defer release()

	interval := time.Duration(req.IntervalMinutes) * time.Minute

	return s.generate(ctx, req.ConsultantID, func() ([]models.TimeSlot, error) {
		tokens := utils.NewSlotTokenGenerator(s.slots.TokenExists, utils.SuffixAttempt)
		var slots []models.TimeSlot
		for i, daily := range req.DailySlots {
			window, err := utils.ResolveShiftWindow(shift, days[i], s.loc)
			if err != nil {
				return nil, err
			}
			for n := 0; n < daily.NumSlots; n++ {
				at := window.Start.Add(time.Duration(n) * interval)
				if !at.Before(window.End) {
					break
				}
				token, err := tokens.Next(ctx, at, n+1)
				if err != nil {
					return nil, s.tokenError(err)
				}
				slots = append(slots, newSlot(req.ConsultantID, shiftID, at, token))
			}
		}
		return slots, nil
	})
}

// ListAvailable returns a consultant's slots on one date ordered by time.
func (s *SlotService) ListAvailable(ctx context.Context, doctorID uint, date string) ([]models.SlotView, error) {
	day, err := utils.ParseDate(date, s.loc)
	if err != nil {
		return nil, utils.ValidationError("date must be YYYY-MM-DD")
	}

	y, m, d := s.now().In(s.loc).Date()
	limit := time.Date(y, m, d, 0, 0, 0, 0, s.loc).AddDate(0, 0, s.horizonDays)
	if day.After(limit) {
		return nil, utils.NewAppError(utils.KindValidation, utils.CodeDateTooFarAhead,
			fmt.Sprintf("You cannot book appointments more than %d days in advance.", s.horizonDays))
	}

	slots, err := s.slots.ListByConsultantDate(ctx, doctorID, day.Format(utils.DateLayout))
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load slots")
	}
	if len(slots) == 0 {
		return nil, utils.NotFoundError(utils.CodeSlotsNotFound, "No available slots for the given date.")
	}

	views := make([]models.SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, models.NewSlotView(slot, false))
	}
	return views, nil
}

// ListGroupedByDate returns every slot of a consultant keyed by date, each
// with the appointments booked on it.
func (s *SlotService) ListGroupedByDate(ctx context.Context, doctorID uint) (map[string][]models.SlotView, error) {
	cacheKey := s.slotsCacheKey(doctorID)
	if s.cache != nil {
		var cached map[string][]models.SlotView
		found, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read slots from cache", zap.Uint("consultant_id", doctorID), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	slots, err := s.slots.ListByConsultant(ctx, doctorID)
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load slots")
	}
	if len(slots) == 0 {
		return nil, utils.NotFoundError(utils.CodeSlotsNotFound, "No slots found for the given doctor.")
	}

	grouped := make(map[string][]models.SlotView)
	for _, slot := range slots {
		grouped[slot.ConsultationDate] = append(grouped[slot.ConsultationDate], models.NewSlotView(slot, true))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, grouped, SlotsCacheExpiry); err != nil {
			s.log.Warn("failed to cache slots", zap.Uint("consultant_id", doctorID), zap.Error(err))
		}
	}
	return grouped, nil
}

func (s *SlotService) ListAll(ctx context.Context) ([]models.SlotView, error) {
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, utils.DatabaseError(err, "failed to load slots")
	}
	views := make([]models.SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, models.NewSlotView(slot, true))
	}
	return views, nil
}

func (s *SlotService) requireConsultant(ctx context.Context, consultantID uint) error {
	exists, err := s.consultants.Exists(ctx, consultantID)
	if err != nil {
		return utils.DatabaseError(err, "failed to load consultant")
	}
	if !exists {
		return utils.NotFoundError(utils.CodeConsultantNotFound,
			fmt.Sprintf("consultant %d not found", consultantID))
	}
	return nil
}

func (s *SlotService) rangeShift(ctx context.Context, req models.RangeSlotsRequest) (*models.Shift, error) {
	if req.ShiftID != nil {
		return s.shifts.GetByID(ctx, *req.ShiftID)
	}
	return s.shifts.GetForConsultant(ctx, req.ConsultantID)
}

func (s *SlotService) lockConsultant(ctx context.Context, consultantID uint) (func(), error) {
	key := fmt.Sprintf("%s%d", slotLockKeyPrefix, consultantID)
	release, err := s.locker.Acquire(ctx, key, slotLockTTL)
	if err != nil {
		if errors.Is(err, database.ErrLockNotAcquired) {
			return nil, utils.WrapAppError(err, utils.KindConflict, utils.CodeLockUnavailable,
				"slots for this consultant are being generated, try again")
		}
		return nil, utils.WrapAppError(err, utils.KindInfra, utils.CodeDatabaseError, "failed to acquire slot lock")
	}
	return release, nil
}

// generate builds and stores a batch. Tokens are unique across consultants
// while the lock is per consultant, so a batch that loses a token race to
// another consultant is rebuilt against the stored tokens and inserted again.
func (s *SlotService) generate(ctx context.Context, consultantID uint, build func() ([]models.TimeSlot, error)) ([]models.TimeSlot, error) {
	for attempt := 1; ; attempt++ {
		slots, err := build()
		if err != nil {
			return nil, err
		}
		err = s.persist(ctx, consultantID, slots)
		if err == nil {
			return slots, nil
		}
		if attempt >= slotInsertAttempts || !utils.HasCode(err, utils.CodeSlotConflict) {
			return nil, err
		}
		s.log.Warn("slot token taken concurrently, regenerating batch",
			zap.Uint("consultant_id", consultantID), zap.Int("attempt", attempt))
	}
}

func (s *SlotService) persist(ctx context.Context, consultantID uint, slots []models.TimeSlot) error {
	if err := s.slots.CreateBatch(ctx, slots); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.WrapAppError(err, utils.KindConflict, utils.CodeSlotConflict,
				"a slot token was taken concurrently, retry the request")
		}
		s.log.Error("failed to persist slots",
			zap.Uint("consultant_id", consultantID), zap.Int("count", len(slots)), zap.Error(err))
		return utils.DatabaseError(err, "failed to save slots")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.slotsCacheKey(consultantID)); err != nil {
			s.log.Warn("failed to invalidate slots cache", zap.Uint("consultant_id", consultantID), zap.Error(err))
		}
	}
	return nil
}

func (s *SlotService) tokenError(err error) error {
	if _, ok := utils.AsAppError(err); ok {
		return err
	}
	return utils.DatabaseError(err, "failed to allocate slot token")
}

func (s *SlotService) slotsCacheKey(consultantID uint) string {
	return fmt.Sprintf("%s%d", slotsCachePrefix, consultantID)
}

func newSlot(consultantID uint, shiftID *uint, at time.Time, token string) models.TimeSlot {
	return models.TimeSlot{
		ConsultantID:     consultantID,
		ShiftID:          shiftID,
		ConsultationDate: at.Format(utils.DateLayout),
		SlotTime:         at.Format(utils.SlotTimeLayout),
		SlotToken:        token,
		MaxSlots:         1,
		AvailableSlots:   1,
		IsBooked:         false,
	}
}
