package handlers

import (
	"JagannathOPD/middlewares"
	"JagannathOPD/models"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DoctorService interface {
	ListByDepartment(ctx context.Context, departmentID uint, consultantID *uint) ([]models.DoctorView, error)
	ListAll(ctx context.Context) ([]models.DoctorView, error)
}

type DoctorHandler struct {
	service DoctorService
	log     *zap.Logger
}

func NewDoctorHandler(service DoctorService, log *zap.Logger) *DoctorHandler {
	return &DoctorHandler{service: service, log: log}
}

// GetDoctorsByDepartment answers 200 with an empty list when the department has no consultants.
func (h *DoctorHandler) GetDoctorsByDepartment(c *gin.Context) {
	departmentID, err := uintParam(c, "department_id")
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}

	var consultantID *uint
	if c.Param("consultant_id") != "" {
		id, err := uintParam(c, "consultant_id")
		if err != nil {
			middlewares.RespondError(c, h.log, err)
			return
		}
		consultantID = &id
	}

	doctors, err := h.service.ListByDepartment(c.Request.Context(), departmentID, consultantID)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, gin.H{"doctors": doctors}, http.StatusOK)
}

func (h *DoctorHandler) GetAllDoctors(c *gin.Context) {
	doctors, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, gin.H{"doctors": doctors}, http.StatusOK)
}
