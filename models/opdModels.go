package models

import (
	"time"
)

// Payment states. Pending is the only non-terminal state.
const (
	PaymentStatusPending  = "Pending"
	PaymentStatusCaptured = "Captured"
	PaymentStatusFailed   = "Failed"
)

// Department model
type Department struct {
	DepartmentID uint   `gorm:"primaryKey;column:department_id" json:"DepartmentID"`
	Department   string `gorm:"column:department;not null" json:"Department"`
}

func (Department) TableName() string {
	return "gen_departments"
}

// Consultant model
type Consultant struct {
	ConsultantID       uint             `gorm:"primaryKey;column:consultant_id" json:"ConsultantID"`
	ConsultantName     string           `gorm:"column:consultant_name;not null;index" json:"ConsultantName"`
	ProfessionalDegree string           `gorm:"column:professional_degree" json:"ProfessionalDegree"`
	DepartmentID       uint             `gorm:"column:department_id;not null;index" json:"DepartmentID"`
	Department         *Department      `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"-"`
	ConsultantShift    *ConsultantShift `gorm:"foreignKey:ConsultantID;references:ConsultantID" json:"-"`
}

func (Consultant) TableName() string {
	return "gen_consultants"
}

// Shift model. Times are stored on the 12-hour clock with a separate AM/PM marker.
type Shift struct {
	ShiftID       uint   `gorm:"primaryKey;column:shift_id" json:"ShiftID"`
	ShiftName     string `gorm:"column:shift_name" json:"ShiftName"`
	StartTime     string `gorm:"column:start_time;size:8;not null" json:"StartTime"`
	StartTimeAMPM string `gorm:"column:start_time_ampm;size:2;not null" json:"StartTimeAMPM"`
	EndTime       string `gorm:"column:end_time;size:8;not null" json:"EndTime"`
	EndTimeAMPM   string `gorm:"column:end_time_ampm;size:2;not null" json:"EndTimeAMPM"`
}

func (Shift) TableName() string {
	return "gen_shifts"
}

// ConsultantShift model
type ConsultantShift struct {
	ConsultantShiftID uint    `gorm:"primaryKey;column:consultant_shift_id" json:"ConsultantShiftID"`
	ConsultantID      uint    `gorm:"column:consultant_id;not null;index" json:"ConsultantID"`
	ShiftID           uint    `gorm:"column:shift_id;not null" json:"ShiftID"`
	Fee               float64 `gorm:"column:fee" json:"Fee"`
}

func (ConsultantShift) TableName() string {
	return "gen_consultantshifts"
}

// TimeSlot model
type TimeSlot struct {
	SlotID           uint                `gorm:"primaryKey;autoIncrement;column:slot_id" json:"SlotID"`
	ConsultantID     uint                `gorm:"column:consultant_id;not null;index:idx_slot_consultant_date" json:"ConsultantID"`
	ShiftID          *uint               `gorm:"column:shift_id" json:"ShiftID,omitempty"`
	ConsultationDate string              `gorm:"column:consultation_date;type:varchar(10);not null;index:idx_slot_consultant_date" json:"ConsultationDate"`
	SlotTime         string              `gorm:"column:slot_time;type:varchar(8);not null" json:"SlotTime"`
	SlotToken        string              `gorm:"column:slot_token;size:32;not null;uniqueIndex" json:"SlotToken"`
	MaxSlots         int                 `gorm:"column:max_slots;not null;default:1" json:"MaxSlots"`
	AvailableSlots   int                 `gorm:"column:available_slots;not null;default:1;check:available_slots <= max_slots" json:"AvailableSlots"`
	IsBooked         bool                `gorm:"column:is_booked;not null;default:false" json:"isBooked"`
	AppointmentID    *uint               `gorm:"column:appointment_id" json:"AppointmentID"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime" json:"-"`
	Appointments     []OnlineAppointment `gorm:"foreignKey:SlotID;references:SlotID" json:"-"`
}

func (TimeSlot) TableName() string {
	return "opd_doctorslots"
}

// OnlineAppointment model
type OnlineAppointment struct {
	OPDOnlineAppointmentID uint      `gorm:"primaryKey;autoIncrement;column:opd_online_appointment_id" json:"OPDOnlineAppointmentID"`
	SlotID                 *uint     `gorm:"column:slot_id;index" json:"SlotID"`
	ConsultantID           uint      `gorm:"column:consultant_id;not null;index" json:"ConsultantID"`
	ConsultationDate       string    `gorm:"column:consultation_date;type:varchar(10)" json:"ConsultationDate"`
	MRNo                   *string   `gorm:"column:mr_no;size:10" json:"MRNo"`
	PatientName            string    `gorm:"column:patient_name;not null" json:"PatientName"`
	MobileNo               string    `gorm:"column:mobile_no" json:"MobileNo"`
	Remarks                string    `gorm:"column:remarks" json:"Remarks"`
	Pending                bool      `gorm:"column:pending;not null;default:true" json:"Pending"`
	TransactionID          *string   `gorm:"column:transaction_id" json:"TransactionID"`
	CreatedOn              time.Time `gorm:"column:created_on;autoCreateTime" json:"CreatedOn"`
}

func (OnlineAppointment) TableName() string {
	return "opd_onlineappointments"
}

// MrMaster model
type MrMaster struct {
	MRNo        string    `gorm:"primaryKey;column:mr_no;size:10" json:"MRNo"`
	MRDate      time.Time `gorm:"column:mr_date;not null" json:"MRDate"`
	PatientName string    `gorm:"column:patient_name;not null" json:"PatientName"`
}

func (MrMaster) TableName() string {
	return "mr_master"
}

// MrParameter holds the shared MR sequence counter in the row with ID 1.
type MrParameter struct {
	ID        uint  `gorm:"primaryKey;column:id" json:"ID"`
	MRCounter int64 `gorm:"column:mr_counter;not null;default:1" json:"MRCounter"`
}

func (MrParameter) TableName() string {
	return "mr_parameter"
}

// Registration model
type Registration struct {
	RegistrationID   uint       `gorm:"primaryKey;autoIncrement;column:registration_id" json:"RegistrationID"`
	MRNo             string     `gorm:"column:mr_no;size:10;not null;index" json:"MRNo"`
	RegistrationDate time.Time  `gorm:"column:registration_date;not null" json:"RegistrationDate"`
	ConsultationDate time.Time  `gorm:"column:consultation_date;not null" json:"ConsultationDate"`
	RegistrationFee  float64    `gorm:"column:registration_fee;not null" json:"RegistrationFee"`
	Amount           float64    `gorm:"column:amount;not null" json:"Amount"`
	PaymentMode      string     `gorm:"column:payment_mode;size:50" json:"PaymentMode"`
	CreatedBy        int64      `gorm:"column:created_by" json:"CreatedBy"`
	CreatedOn        time.Time  `gorm:"column:created_on" json:"CreatedOn"`
	ModifiedBy       *int64     `gorm:"column:modified_by" json:"ModifiedBy"`
	ModifiedOn       *time.Time `gorm:"column:modified_on" json:"ModifiedOn"`
}

func (Registration) TableName() string {
	return "opd_registrations"
}

// Consultation model
type Consultation struct {
	ConsultationID   uint      `gorm:"primaryKey;autoIncrement;column:consultation_id" json:"ConsultationID"`
	RegistrationID   uint      `gorm:"column:registration_id;not null;index" json:"RegistrationID"`
	ConsultationDate time.Time `gorm:"column:consultation_date;not null" json:"ConsultationDate"`
	ConsultedAt      time.Time `gorm:"column:consulted_at" json:"ConsultedAt"`
	PatientName      string    `gorm:"column:patient_name" json:"PatientName"`
	CreatedBy        int64     `gorm:"column:created_by" json:"CreatedBy"`
	CreatedOn        time.Time `gorm:"column:created_on" json:"CreatedOn"`
}

func (Consultation) TableName() string {
	return "opd_consultations"
}

// Payment model
type Payment struct {
	PaymentID              uint       `gorm:"primaryKey;autoIncrement;column:payment_id" json:"PaymentID"`
	OPDOnlineAppointmentID uint       `gorm:"column:opd_online_appointment_id;not null;index;uniqueIndex:idx_payment_txn_appointment,priority:2" json:"OPDOnlineAppointmentID"`
	PaymentDate            time.Time  `gorm:"column:payment_date;not null" json:"PaymentDate"`
	PaymentMode            string     `gorm:"column:payment_mode;size:50;not null" json:"PaymentMode"`
	PaymentStatus          string     `gorm:"column:payment_status;size:20;not null;check:payment_status IN ('Pending', 'Captured', 'Failed')" json:"PaymentStatus"`
	AmountPaid             float64    `gorm:"column:amount_paid;not null" json:"AmountPaid"`
	OrderID                *string    `gorm:"column:order_id;index" json:"OrderID"`
	TransactionID          *string    `gorm:"column:transaction_id;uniqueIndex:idx_payment_txn_appointment,priority:1" json:"TransactionID"`
	CreatedBy              *int64     `gorm:"column:created_by" json:"CreatedBy"`
	CreatedOn              time.Time  `gorm:"column:created_on;autoCreateTime" json:"CreatedOn"`
	ModifiedBy             *int64     `gorm:"column:modified_by" json:"ModifiedBy"`
	ModifiedOn             *time.Time `gorm:"column:modified_on" json:"ModifiedOn"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsCaptured reports whether the payment is settled. A Failed payment stays
// open because the customer may retry on the same gateway order.
func (p *Payment) IsCaptured() bool {
	return p.PaymentStatus == PaymentStatusCaptured
}

// ProcessedPaymentEvent records a gateway payment id whose webhook has been applied.
type ProcessedPaymentEvent struct {
	ExternalPaymentID string    `gorm:"primaryKey;column:external_payment_id;size:64" json:"ExternalPaymentID"`
	Event             string    `gorm:"column:event;size:64" json:"Event"`
	PaymentID         uint      `gorm:"column:payment_id;not null" json:"PaymentID"`
	ProcessedAt       time.Time `gorm:"column:processed_at;not null" json:"ProcessedAt"`
}

func (ProcessedPaymentEvent) TableName() string {
	return "payment_events"
}
