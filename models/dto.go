package models

import "time"

// DaySlotsRequest is the body of POST /slots/day.
type DaySlotsRequest struct {
	ConsultantID uint   `json:"consultant_id"`
	ShiftID      uint   `json:"shift_id"`
	Date         string `json:"date"`
	NumSlots     int    `json:"num_slots"`
	SlotInterval int    `json:"slot_interval"`
}

// DailySlots is one entry of a range allocation.
type DailySlots struct {
	Date     string `json:"date"`
	NumSlots int    `json:"num_slots"`
}

// RangeSlotsRequest is the body of POST /slots/range.
type RangeSlotsRequest struct {
	ConsultantID    uint         `json:"consultant_id"`
	ShiftID         *uint        `json:"shift_id,omitempty"`
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date"`
	IntervalMinutes int          `json:"interval_minutes"`
	DailySlots      []DailySlots `json:"daily_slots"`
}

// CreatePaymentRequest is the body of POST /payments.
type CreatePaymentRequest struct {
	OPDOnlineAppointmentID uint    `json:"OPDOnlineAppointmentID"`
	AmountPaid             float64 `json:"AmountPaid"`
	PaymentMode            string  `json:"PaymentMode"`
	CreatedBy              *int64  `json:"CreatedBy,omitempty"`
}

// AppointmentSummary is the booking information shown under a slot.
type AppointmentSummary struct {
	OPDOnlineAppointmentID uint      `json:"OPDOnlineAppointmentID"`
	MRNo                   *string   `json:"MRNo"`
	PatientName            string    `json:"PatientName"`
	MobileNo               string    `json:"MobileNo"`
	Remarks                string    `json:"Remarks"`
	Pending                bool      `json:"Pending"`
	TransactionID          *string   `json:"TransactionID"`
	CreatedOn              time.Time `json:"CreatedOn"`
}

// SlotView is the API representation of a TimeSlot.
type SlotView struct {
	SlotID           uint                 `json:"SlotID"`
	ConsultationDate string               `json:"ConsultationDate"`
	SlotTime         string               `json:"SlotTime"`
	AvailableSlots   int                  `json:"AvailableSlots"`
	MaxSlots         int                  `json:"MaxSlots"`
	SlotToken        string               `json:"SlotToken"`
	IsBooked         bool                 `json:"isBooked"`
	AppointmentID    *uint                `json:"AppointmentID"`
	Appointments     []AppointmentSummary `json:"appointments,omitempty"`
}

// NewSlotView maps a slot, optionally with its appointments.
func NewSlotView(slot TimeSlot, withAppointments bool) SlotView {
	view := SlotView{
		SlotID:           slot.SlotID,
		ConsultationDate: slot.ConsultationDate,
		SlotTime:         slot.SlotTime,
		AvailableSlots:   slot.AvailableSlots,
		MaxSlots:         slot.MaxSlots,
		SlotToken:        slot.SlotToken,
		IsBooked:         slot.IsBooked,
		AppointmentID:    slot.AppointmentID,
	}
	if withAppointments {
		view.Appointments = make([]AppointmentSummary, 0, len(slot.Appointments))
		for _, appointment := range slot.Appointments {
			view.Appointments = append(view.Appointments, AppointmentSummary{
				OPDOnlineAppointmentID: appointment.OPDOnlineAppointmentID,
				MRNo:                   appointment.MRNo,
				PatientName:            appointment.PatientName,
				MobileNo:               appointment.MobileNo,
				Remarks:                appointment.Remarks,
				Pending:                appointment.Pending,
				TransactionID:          appointment.TransactionID,
				CreatedOn:              appointment.CreatedOn,
			})
		}
	}
	return view
}

// DoctorView is the API representation of a consultant.
type DoctorView struct {
	ConsultantID       uint     `json:"ConsultantID"`
	ConsultantName     string   `json:"ConsultantName"`
	ProfessionalDegree string   `json:"ProfessionalDegree,omitempty"`
	Fee                *float64 `json:"Fee"`
	Department         *string  `json:"Department,omitempty"`
}

// PaymentIntent is returned once a pending payment has a gateway order.
type PaymentIntent struct {
	Message   string `json:"message"`
	PaymentID uint   `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

// CallbackResult describes what a webhook delivery changed.
type CallbackResult struct {
	PaymentID      uint   `json:"payment_id,omitempty"`
	Status         string `json:"status,omitempty"`
	MRNo           string `json:"mr_no,omitempty"`
	RegistrationID uint   `json:"registration_id,omitempty"`
	Duplicate      bool   `json:"duplicate"`
	// Ignored is set for events that neither settle nor fail a payment.
	Ignored bool `json:"ignored,omitempty"`
}
