package middlewares

import (
	"JagannathOPD/utils"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// RespondJSON writes a JSON response to the client.
func RespondJSON(c *gin.Context, data interface{}, status int) {
	c.JSON(status, data)
}

// RespondError maps err to its status and writes the error body. Errors that
// are not AppErrors are answered as 500 without leaking their text.
func RespondError(c *gin.Context, log *zap.Logger, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		appErr = utils.WrapAppError(err, utils.KindInfra, utils.CodeDatabaseError, "internal server error")
	}
	status := appErr.HTTPStatus()

	body := ErrorResponse{
		Error:   http.StatusText(status),
		Message: appErr.Message,
		Code:    appErr.Code,
	}
	var fieldErrs validation.Errors
	if errors.As(appErr.Err, &fieldErrs) {
		body.Details = fieldErrs
		body.Message = "invalid request"
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.String("code", appErr.Code),
			zap.Error(err))
		if appErr.Kind == utils.KindInfra && appErr.Code == utils.CodeDatabaseError {
			body.Message = "internal server error"
		}
	}

	c.AbortWithStatusJSON(status, body)
}

// HttpError writes an error response for failures raised in middleware.
func HttpError(c *gin.Context, kind utils.ErrorKind, code, message string) {
	appErr := utils.NewAppError(kind, code, message)
	status := appErr.HTTPStatus()
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}
