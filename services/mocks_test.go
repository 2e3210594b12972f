package services

import (
	"JagannathOPD/database"
	"JagannathOPD/gateway"
	"JagannathOPD/models"
	"JagannathOPD/repositories"
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// --- slots ---

var _ SlotRepository = (*mockSlotRepository)(nil)

type mockSlotRepository struct {
	mu    sync.Mutex
	slots []models.TimeSlot

	CreateBatchFunc func(ctx context.Context, slots []models.TimeSlot) error

	CreateBatchCallCount      int32
	ListByConsultantCallCount int32
}

func (m *mockSlotRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, slot := range m.slots {
		if slot.SlotToken == token {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSlotRepository) CreateBatch(ctx context.Context, slots []models.TimeSlot) error {
	atomic.AddInt32(&m.CreateBatchCallCount, 1)
	if m.CreateBatchFunc != nil {
		if err := m.CreateBatchFunc(ctx, slots); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range slots {
		slots[i].SlotID = uint(len(m.slots) + 1)
		m.slots = append(m.slots, slots[i])
	}
	return nil
}

func (m *mockSlotRepository) ListByConsultantDate(ctx context.Context, consultantID uint, date string) ([]models.TimeSlot, error) {
	var out []models.TimeSlot
	for _, slot := range m.sorted() {
		if slot.ConsultantID == consultantID && slot.ConsultationDate == date {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (m *mockSlotRepository) ListByConsultant(ctx context.Context, consultantID uint) ([]models.TimeSlot, error) {
	atomic.AddInt32(&m.ListByConsultantCallCount, 1)
	var out []models.TimeSlot
	for _, slot := range m.sorted() {
		if slot.ConsultantID == consultantID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (m *mockSlotRepository) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	return m.sorted(), nil
}

func (m *mockSlotRepository) sorted() []models.TimeSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.TimeSlot(nil), m.slots...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConsultationDate != out[j].ConsultationDate {
			return out[i].ConsultationDate < out[j].ConsultationDate
		}
		return out[i].SlotTime < out[j].SlotTime
	})
	return out
}

var _ ShiftRepository = (*mockShiftRepository)(nil)

type mockShiftRepository struct {
	shifts   map[uint]*models.Shift
	assigned map[uint]uint
	fallback uint
}

func (m *mockShiftRepository) GetByID(ctx context.Context, id uint) (*models.Shift, error) {
	return m.shifts[id], nil
}

func (m *mockShiftRepository) GetForConsultant(ctx context.Context, consultantID uint) (*models.Shift, error) {
	if id, ok := m.assigned[consultantID]; ok {
		return m.shifts[id], nil
	}
	return m.shifts[m.fallback], nil
}

type mockConsultants map[uint]bool

func (m mockConsultants) Exists(ctx context.Context, consultantID uint) (bool, error) {
	return m[consultantID], nil
}

var _ Locker = (*mockLocker)(nil)

type mockLocker struct {
	mu       sync.Mutex
	acquired []string
	released int
	busy     bool
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return nil, database.ErrLockNotAcquired
	}
	m.acquired = append(m.acquired, key)
	return func() {
		m.mu.Lock()
		m.released++
		m.mu.Unlock()
	}, nil
}

var _ JSONCache = (*mockCache)(nil)

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *mockCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- payments ---

// memoryState is an in-memory copy of the payment tables.
type memoryState struct {
	payments      map[uint]models.Payment
	events        map[string]models.ProcessedPaymentEvent
	masters       map[string]models.MrMaster
	registrations []models.Registration
	consultations []models.Consultation
	appointments  map[uint]models.OnlineAppointment
	counter       *models.MrParameter
	nextID        uint
}

func newMemoryState() *memoryState {
	return &memoryState{
		payments:     map[uint]models.Payment{},
		events:       map[string]models.ProcessedPaymentEvent{},
		masters:      map[string]models.MrMaster{},
		appointments: map[uint]models.OnlineAppointment{},
		counter:      &models.MrParameter{ID: 1, MRCounter: 1},
		nextID:       100,
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		payments:      make(map[uint]models.Payment, len(s.payments)),
		events:        make(map[string]models.ProcessedPaymentEvent, len(s.events)),
		masters:       make(map[string]models.MrMaster, len(s.masters)),
		registrations: append([]models.Registration(nil), s.registrations...),
		consultations: append([]models.Consultation(nil), s.consultations...),
		appointments:  make(map[uint]models.OnlineAppointment, len(s.appointments)),
		nextID:        s.nextID,
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.masters {
		c.masters[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	if s.counter != nil {
		counter := *s.counter
		c.counter = &counter
	}
	return c
}

var _ PaymentRepository = (*memoryPaymentRepository)(nil)

// memoryPaymentRepository serializes transactions and commits the working
// copy only when fn succeeds.
type memoryPaymentRepository struct {
	mu     sync.Mutex
	state  *memoryState
	failOn string

	TransactionCallCount int32
}

func newMemoryPaymentRepository() *memoryPaymentRepository {
	return &memoryPaymentRepository{state: newMemoryState()}
}

func (r *memoryPaymentRepository) Transaction(ctx context.Context, fn func(store repositories.PaymentStore) error) error {
	atomic.AddInt32(&r.TransactionCallCount, 1)
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.state.clone()
	if err := fn(&memoryStore{state: work, failOn: r.failOn}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *memoryPaymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.state.payments[id]
	if !ok {
		return nil, nil
	}
	return &payment, nil
}

func (r *memoryPaymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Payment, 0, len(r.state.payments))
	for _, payment := range r.state.payments {
		out = append(out, payment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentID > out[j].PaymentID })
	return out, nil
}

func (r *memoryPaymentRepository) AppointmentExists(ctx context.Context, appointmentID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state.appointments[appointmentID]
	return ok, nil
}

// snapshot returns the committed state for assertions.
func (r *memoryPaymentRepository) snapshot() *memoryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

// memoryCounterRepository exposes the counter of a memoryPaymentRepository
// through the MR repository contract.
type memoryCounterRepository struct {
	db *memoryPaymentRepository
}

func (r memoryCounterRepository) Transaction(ctx context.Context, fn func(store repositories.MRCounterStore) error) error {
	return r.db.Transaction(ctx, func(store repositories.PaymentStore) error {
		return fn(store)
	})
}

var _ repositories.PaymentStore = (*memoryStore)(nil)

type memoryStore struct {
	state  *memoryState
	failOn string
}

var errInjected = errors.New("injected failure")

func (s *memoryStore) fail(op string) error {
	if s.failOn == op {
		return errInjected
	}
	return nil
}

func (s *memoryStore) id() uint {
	s.state.nextID++
	return s.state.nextID
}

func (s *memoryStore) LockCounter(ctx context.Context) (*models.MrParameter, error) {
	if s.state.counter == nil {
		return nil, nil
	}
	counter := *s.state.counter
	return &counter, nil
}

func (s *memoryStore) SaveCounter(ctx context.Context, counter *models.MrParameter) error {
	copied := *counter
	s.state.counter = &copied
	return nil
}

func (s *memoryStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := s.fail("CreatePayment"); err != nil {
		return err
	}
	payment.PaymentID = s.id()
	s.state.payments[payment.PaymentID] = *payment
	return nil
}

func (s *memoryStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	if err := s.fail("SavePayment"); err != nil {
		return err
	}
	s.state.payments[payment.PaymentID] = *payment
	return nil
}

func (s *memoryStore) FindPaymentForUpdate(ctx context.Context, appointmentID uint, transactionID, orderID string) (*models.Payment, error) {
	for _, payment := range s.state.payments {
		if payment.OPDOnlineAppointmentID != appointmentID {
			continue
		}
		byTxn := payment.TransactionID != nil && *payment.TransactionID == transactionID
		byOrder := orderID != "" && payment.OrderID != nil && *payment.OrderID == orderID
		if byTxn || byOrder {
			p := payment
			return &p, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) EventProcessed(ctx context.Context, externalPaymentID string) (bool, error) {
	_, ok := s.state.events[externalPaymentID]
	return ok, nil
}

func (s *memoryStore) RecordEvent(ctx context.Context, event *models.ProcessedPaymentEvent) error {
	s.state.events[event.ExternalPaymentID] = *event
	return nil
}

func (s *memoryStore) FindMrMaster(ctx context.Context, mrNo string) (*models.MrMaster, error) {
	master, ok := s.state.masters[mrNo]
	if !ok {
		return nil, nil
	}
	return &master, nil
}

func (s *memoryStore) CreateMrMaster(ctx context.Context, master *models.MrMaster) error {
	if err := s.fail("CreateMrMaster"); err != nil {
		return err
	}
	s.state.masters[master.MRNo] = *master
	return nil
}

func (s *memoryStore) LatestRegistration(ctx context.Context, mrNo string) (*models.Registration, error) {
	for i := len(s.state.registrations) - 1; i >= 0; i-- {
		if s.state.registrations[i].MRNo == mrNo {
			registration := s.state.registrations[i]
			return &registration, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) CreateRegistration(ctx context.Context, registration *models.Registration) error {
	registration.RegistrationID = s.id()
	s.state.registrations = append(s.state.registrations, *registration)
	return nil
}

func (s *memoryStore) SaveRegistration(ctx context.Context, registration *models.Registration) error {
	for i := range s.state.registrations {
		if s.state.registrations[i].RegistrationID == registration.RegistrationID {
			s.state.registrations[i] = *registration
			return nil
		}
	}
	return errors.New("registration not found")
}

func (s *memoryStore) CreateConsultation(ctx context.Context, consultation *models.Consultation) error {
	if err := s.fail("CreateConsultation"); err != nil {
		return err
	}
	consultation.ConsultationID = s.id()
	s.state.consultations = append(s.state.consultations, *consultation)
	return nil
}

func (s *memoryStore) MarkAppointmentPaid(ctx context.Context, appointmentID uint, mrNo, transactionID string) error {
	appointment, ok := s.state.appointments[appointmentID]
	if !ok {
		return nil
	}
	appointment.Pending = false
	appointment.MRNo = &mrNo
	appointment.TransactionID = &transactionID
	s.state.appointments[appointmentID] = appointment
	return nil
}

var _ gateway.Client = (*mockGateway)(nil)

type mockGateway struct {
	CreateOrderFunc  func(ctx context.Context, amount float64, currency, receipt string) (*gateway.Order, error)
	FetchPaymentFunc func(ctx context.Context, paymentID string) (map[string]interface{}, error)
}

func (m *mockGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*gateway.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, amount, currency, receipt)
	}
	return &gateway.Order{ID: "order_" + receipt, Currency: currency, Receipt: receipt}, nil
}

func (m *mockGateway) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	if m.FetchPaymentFunc != nil {
		return m.FetchPaymentFunc(ctx, paymentID)
	}
	return nil, errors.New("FetchPaymentFunc not implemented in mock")
}

// --- doctors ---

type mockDoctorRepository struct {
	consultants []models.Consultant

	ListAllCallCount int32
}

func (m *mockDoctorRepository) ListByDepartment(ctx context.Context, departmentID uint, consultantID *uint) ([]models.Consultant, error) {
	var out []models.Consultant
	for _, consultant := range m.consultants {
		if consultant.DepartmentID != departmentID {
			continue
		}
		if consultantID != nil && consultant.ConsultantID != *consultantID {
			continue
		}
		out = append(out, consultant)
	}
	return out, nil
}

func (m *mockDoctorRepository) ListAll(ctx context.Context) ([]models.Consultant, error) {
	atomic.AddInt32(&m.ListAllCallCount, 1)
	return m.consultants, nil
}
