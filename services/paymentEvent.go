package services

import (
	"JagannathOPD/utils"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const (
	eventPaymentCaptured = "payment.captured"
	eventOrderPaid       = "order.paid"
	eventPaymentFailed   = "payment.failed"
)

// settles reports whether the event finalizes a payment.
func (e *paymentEvent) settles() bool {
	return e.Event == eventPaymentCaptured || e.Event == eventOrderPaid
}

// fails reports whether the event records a failed attempt.
func (e *paymentEvent) fails() bool {
	return e.Event == eventPaymentFailed
}

// paymentEvent is the part of a gateway webhook the reconciler acts on.
type paymentEvent struct {
	Event         string
	PaymentID     string
	OrderID       string
	Amount        float64
	Mode          string
	MRNo          string
	PatientName   string
	AppointmentID uint
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity map[string]interface{} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// entityFields looks keys up on the payment entity first and its notes second.
type entityFields struct {
	entity map[string]interface{}
	notes  map[string]interface{}
}

func (f entityFields) lookup(keys ...string) (interface{}, bool) {
	for _, source := range []map[string]interface{}{f.entity, f.notes} {
		for _, key := range keys {
			if value, ok := source[key]; ok && value != nil {
				if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
					continue
				}
				return value, true
			}
		}
	}
	return nil, false
}

func (f entityFields) str(keys ...string) string {
	value, ok := f.lookup(keys...)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func parsePaymentEvent(body []byte) (*paymentEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, malformed("webhook body is not valid JSON")
	}
	entity := envelope.Payload.Payment.Entity
	if entity == nil {
		return nil, malformed("payload.payment.entity is missing")
	}

	fields := entityFields{entity: entity}
	// An empty notes object is sent as [] by the gateway.
	if notes, ok := entity["notes"].(map[string]interface{}); ok {
		fields.notes = notes
	}

	event := &paymentEvent{
		Event:       strings.TrimSpace(envelope.Event),
		PaymentID:   fields.str("id"),
		OrderID:     fields.str("order_id"),
		Amount:      utils.DefaultCallbackAmount,
		Mode:        utils.DefaultPaymentMode,
		MRNo:        fields.str("MRNo", "mr_no"),
		PatientName: utils.DefaultPatientName,
	}
	if event.PaymentID == "" {
		return nil, malformed("payment entity id is missing")
	}

	if raw, ok := fields.lookup("amount"); ok {
		amount, err := toFloat(raw)
		if err != nil || amount < 0 {
			return nil, malformed("payment amount is not a number")
		}
		event.Amount = amount
	}
	if mode := fields.str("paymentmode", "method"); mode != "" {
		event.Mode = mode
	}
	if name := fields.str("patientname", "patient_name"); name != "" {
		event.PatientName = name
	}

	raw, ok := fields.lookup("appointment_id", "OPDOnlineAppointmentID")
	if !ok {
		return nil, malformed("appointment_id is missing")
	}
	id, err := toFloat(raw)
	if err != nil || id < 1 || id != math.Trunc(id) || id > math.MaxUint32 {
		return nil, malformed("appointment_id must be a positive integer")
	}
	event.AppointmentID = uint(id)

	return event, nil
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", value)
	}
}

func malformed(message string) error {
	return utils.NewAppError(utils.KindValidation, utils.CodeMalformedPayload, message)
}
