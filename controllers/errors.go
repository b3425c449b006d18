package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/qr-restaurant/middlewares"
	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

// respondServiceError maps service errors onto HTTP status codes. Anything
// unexpected is logged and reported as 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		utils.RespondError(c, http.StatusNotFound, err)
	case services.IsInvalidState(err):
		utils.RespondError(c, http.StatusConflict, err)
	case services.IsValidation(err):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.ErrorLogger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString(middlewares.RequestIDKey),
		}).Errorf("unexpected error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
	}
}

// paramID reads a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, &services.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("invalid id %q", c.Param(name)),
		})
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the request body and answers 400 when it does not fit.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}
