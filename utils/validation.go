package utils

import (
	"JagannathOPD/models"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Request defaults carried over from the booking desk's form.
const (
	DefaultDayNumSlots     = 5
	DefaultSlotInterval    = 30
	MaxDayNumSlots         = 100
	MaxIntervalMinutes     = 24 * 60
	DefaultCallbackAmount  = 1000.00
	DefaultPaymentMode     = "Online"
	DefaultPatientName     = "Unknown"
	MaxPaymentModeLength   = 50
	MaxRangeDailySlotsSize = 366
)

// ApplyDaySlotsDefaults fills optional fields of a day allocation request.
func ApplyDaySlotsDefaults(req *models.DaySlotsRequest) {
	if req.NumSlots == 0 {
		req.NumSlots = DefaultDayNumSlots
	}
	if req.SlotInterval == 0 {
		req.SlotInterval = DefaultSlotInterval
	}
}

// ValidateDaySlotsRequest validates a day allocation request using ozzo-validation.
func ValidateDaySlotsRequest(req models.DaySlotsRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ConsultantID, validation.Required),
		validation.Field(&req.ShiftID, validation.Required),
		validation.Field(&req.Date, validation.Required, validation.Date(DateLayout)),
		validation.Field(&req.NumSlots, validation.Required, validation.Min(1), validation.Max(MaxDayNumSlots)),
		validation.Field(&req.SlotInterval, validation.Required, validation.Min(1), validation.Max(MaxIntervalMinutes)),
	)
}

// ValidateRangeSlotsRequest validates a range allocation request.
func ValidateRangeSlotsRequest(req models.RangeSlotsRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ConsultantID, validation.Required),
		validation.Field(&req.StartDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&req.EndDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&req.IntervalMinutes, validation.Required, validation.Min(1), validation.Max(MaxIntervalMinutes)),
		validation.Field(&req.DailySlots, validation.Required, validation.Length(1, MaxRangeDailySlotsSize),
			validation.Each(validation.By(validateDailySlots))),
	)
}

func validateDailySlots(value interface{}) error {
	day, ok := value.(models.DailySlots)
	if !ok {
		return errors.New("must be a daily slot entry")
	}
	return validation.Errors{
		"date":      validation.Validate(day.Date, validation.Required, validation.Date(DateLayout)),
		"num_slots": validation.Validate(day.NumSlots, validation.Required, validation.Min(1)),
	}.Filter()
}

// ValidateCreatePaymentRequest validates a payment intent request.
func ValidateCreatePaymentRequest(req models.CreatePaymentRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.OPDOnlineAppointmentID, validation.Required),
		validation.Field(&req.AmountPaid, validation.Required, validation.Min(0.01)),
		validation.Field(&req.PaymentMode, validation.Required, validation.Length(1, MaxPaymentModeLength)),
	)
}

// RequestValidationError wraps an ozzo error so handlers answer 400 with field details.
func RequestValidationError(err error) *AppError {
	return WrapAppError(err, KindValidation, CodeValidationError, fmt.Sprintf("invalid request: %v", err))
}
