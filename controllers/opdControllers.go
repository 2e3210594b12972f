package controllers

import (
	"JagannathOPD/handlers"

	"github.com/gin-gonic/gin"
)

type SlotController struct {
	Handler *handlers.SlotHandler
	// StaffAuth guards slot generation.
	StaffAuth gin.HandlerFunc
}

func NewSlotController(slotHandler *handlers.SlotHandler, staffAuth gin.HandlerFunc) *SlotController {
	return &SlotController{Handler: slotHandler, StaffAuth: staffAuth}
}

// RegisterRoutes initializes the slot routes on the given group
func (sc *SlotController) RegisterRoutes(router gin.IRouter) {
	router.GET("/slots", sc.Handler.GetAllSlots)
	router.GET("/slots/:doctor_id", sc.Handler.GetDoctorSlots)
	router.GET("/slots/:doctor_id/:date", sc.Handler.GetAvailableSlots)

	staff := router.Group("/slots").Use(sc.StaffAuth)
	{
		staff.POST("/day", sc.Handler.CreateDaySlots)
		staff.POST("/range", sc.Handler.CreateRangeSlots)
	}
}

type PaymentController struct {
	Handler *handlers.PaymentHandler
}

func NewPaymentController(paymentHandler *handlers.PaymentHandler) *PaymentController {
	return &PaymentController{Handler: paymentHandler}
}

// RegisterRoutes initializes the bearer-protected payment routes
func (pc *PaymentController) RegisterRoutes(router gin.IRouter) {
	router.POST("/payments", pc.Handler.CreatePayment)
	router.GET("/payments", pc.Handler.GetAllPayments)
	router.GET("/payments/:payment_id", pc.Handler.GetPaymentByID)
	router.GET("/payment-reconciliations/:gateway_payment_id", pc.Handler.GetGatewayPayment)
}

// RegisterWebhook initializes the gateway callback. It is authenticated by
// its signature alone.
func (pc *PaymentController) RegisterWebhook(router gin.IRouter) {
	router.POST("/payments/webhook", pc.Handler.PaymentCallback)
}

type DoctorController struct {
	Handler *handlers.DoctorHandler
}

func NewDoctorController(doctorHandler *handlers.DoctorHandler) *DoctorController {
	return &DoctorController{Handler: doctorHandler}
}

func (dc *DoctorController) RegisterRoutes(router gin.IRouter) {
	router.GET("/doctors", dc.Handler.GetAllDoctors)
	router.GET("/doctors/department/:department_id", dc.Handler.GetDoctorsByDepartment)
	router.GET("/doctors/department/:department_id/:consultant_id", dc.Handler.GetDoctorsByDepartment)
}
