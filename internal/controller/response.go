package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/service"
)

func jsonSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func jsonError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}

// errorStatus maps service errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrFacilityNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrAuthorizationNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTimeConflict),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicate),
		errors.Is(err, service.ErrRoomInUse):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		jsonError(c, code, "internal server error")
		return
	}

	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		c.AbortWithStatusJSON(code, gin.H{
			"success":     false,
			"error":       service.ErrTimeConflict.Error(),
			"conflicting": conflict.BookingIDs,
		})
		return
	}

	jsonError(c, code, err.Error())
}

// pathID reads a positive numeric path parameter, replying 400 otherwise
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		jsonError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
