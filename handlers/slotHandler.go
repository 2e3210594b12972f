package handlers

import (
	"JagannathOPD/middlewares"
	"JagannathOPD/models"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SlotService interface {
	AllocateForDay(ctx context.Context, req models.DaySlotsRequest) ([]models.TimeSlot, error)
	AllocateForRange(ctx context.Context, req models.RangeSlotsRequest) ([]models.TimeSlot, error)
	ListAvailable(ctx context.Context, doctorID uint, date string) ([]models.SlotView, error)
	ListGroupedByDate(ctx context.Context, doctorID uint) (map[string][]models.SlotView, error)
	ListAll(ctx context.Context) ([]models.SlotView, error)
}

type SlotHandler struct {
	service SlotService
	log     *zap.Logger
}

func NewSlotHandler(service SlotService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{service: service, log: log}
}

func (h *SlotHandler) CreateDaySlots(c *gin.Context) {
	var req models.DaySlotsRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	slots, err := h.service.AllocateForDay(c.Request.Context(), req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	h.log.Info("slots generated",
		zap.Uint("consultant_id", req.ConsultantID), zap.String("date", req.Date), zap.Int("count", len(slots)))
	h.respondCreated(c, slots)
}

func (h *SlotHandler) CreateRangeSlots(c *gin.Context) {
	var req models.RangeSlotsRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	slots, err := h.service.AllocateForRange(c.Request.Context(), req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	h.log.Info("slots generated",
		zap.Uint("consultant_id", req.ConsultantID),
		zap.String("start_date", req.StartDate), zap.String("end_date", req.EndDate),
		zap.Int("count", len(slots)))
	h.respondCreated(c, slots)
}

func (h *SlotHandler) GetAvailableSlots(c *gin.Context) {
	doctorID, err := uintParam(c, "doctor_id")
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	views, err := h.service.ListAvailable(c.Request.Context(), doctorID, c.Param("date"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, views, http.StatusOK)
}

func (h *SlotHandler) GetDoctorSlots(c *gin.Context) {
	doctorID, err := uintParam(c, "doctor_id")
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	grouped, err := h.service.ListGroupedByDate(c.Request.Context(), doctorID)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, grouped, http.StatusOK)
}

func (h *SlotHandler) GetAllSlots(c *gin.Context) {
	views, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, views, http.StatusOK)
}

func (h *SlotHandler) respondCreated(c *gin.Context, slots []models.TimeSlot) {
	views := make([]models.SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, models.NewSlotView(slot, false))
	}
	middlewares.RespondJSON(c, gin.H{"message": "Slots generated successfully", "slots": views}, http.StatusCreated)
}
