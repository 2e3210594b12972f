package handlers

import (
	"JagannathOPD/utils"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func uintParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, utils.ValidationError(fmt.Sprintf("%s must be a positive integer", name))
	}
	return uint(value), nil
}

func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return utils.WrapAppError(err, utils.KindValidation, utils.CodeValidationError, "request body must be valid JSON")
	}
	return nil
}
