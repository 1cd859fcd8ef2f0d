package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/room_booking/internal/booking"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/service"
)

// bookingBody is a booking as sent by clients. Times are "HH:MM" on date or
// RFC 3339 instants.
type bookingBody struct {
	RoomID    int64  `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Purpose   string `json:"purpose"`
	Phone     string `json:"phone"`
}

// editBody carries the fields changed on resubmission; absent fields keep their value
type editBody struct {
	RoomID    *int64  `json:"room_id"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Purpose   *string `json:"purpose"`
	Phone     *string `json:"phone"`
}

type rejectBody struct {
	Reason string `json:"reason"`
}

func (h *Handler) parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, h.loc)
}

// parseInstant reads "HH:MM" relative to date, or an RFC 3339 timestamp
func (h *Handler) parseInstant(date time.Time, s string) (time.Time, error) {
	if len(s) == len("15:04") {
		clock, err := model.ParseClockTime(s)
		if err != nil {
			return time.Time{}, err
		}
		return clock.On(date, h.loc), nil
	}
	return time.Parse(time.RFC3339, s)
}

// clockOf returns t as a time of day on date; the following midnight is 24:00
func (h *Handler) clockOf(date, t time.Time) model.ClockTime {
	return model.ClockOf(date, t, h.loc)
}

func (h *Handler) parseRequest(body bookingBody) (service.BookingRequest, error) {
	req := service.BookingRequest{
		RoomID:  body.RoomID,
		Purpose: body.Purpose,
		Phone:   body.Phone,
	}

	var err error
	if req.Date, err = h.parseDate(body.Date); err != nil {
		return req, fmt.Errorf("invalid date, expected YYYY-MM-DD")
	}
	if req.StartTime, err = h.parseInstant(req.Date, body.StartTime); err != nil {
		return req, fmt.Errorf("invalid start_time")
	}
	if req.EndTime, err = h.parseInstant(req.Date, body.EndTime); err != nil {
		return req, fmt.Errorf("invalid end_time")
	}
	return req, nil
}

func (h *Handler) parseEdit(body editBody, current *model.Booking) (booking.Edit, error) {
	edit := booking.Edit{
		RoomID:  body.RoomID,
		Purpose: body.Purpose,
		Phone:   body.Phone,
	}

	date := current.Date
	if body.Date != nil {
		d, err := h.parseDate(*body.Date)
		if err != nil {
			return edit, fmt.Errorf("invalid date, expected YYYY-MM-DD")
		}
		date = d
		edit.Date = &d
	}

	// Clock times follow the date, so a new date alone moves the window with it
	start := h.clockOf(current.Date, current.StartTime).String()
	end := h.clockOf(current.Date, current.EndTime).String()
	if body.StartTime != nil {
		start = *body.StartTime
	}
	if body.EndTime != nil {
		end = *body.EndTime
	}
	if body.Date != nil || body.StartTime != nil || body.EndTime != nil {
		s, err := h.parseInstant(date, start)
		if err != nil {
			return edit, fmt.Errorf("invalid start_time")
		}
		e, err := h.parseInstant(date, end)
		if err != nil {
			return edit, fmt.Errorf("invalid end_time")
		}
		edit.StartTime, edit.EndTime = &s, &e
	}

	return edit, nil
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var body bookingBody
	if !bindJSON(c, &body) {
		return
	}

	req, err := h.parseRequest(body)
	if err != nil {
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), currentAccount(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusCreated, b)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.bookings.Get(c.Request.Context(), currentAccount(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, b)
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	bookings, err := h.bookings.ListMine(c.Request.Context(), currentAccount(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, bookings)
}

// ListBookings is the admin listing: ?status=PENDING&room_id=5&date=2024-06-01
func (h *Handler) ListBookings(c *gin.Context) {
	filter := model.BookingFilter{
		Status: model.BookingStatus(strings.ToUpper(c.Query("status"))),
	}

	if raw := c.Query("room_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid room_id")
			return
		}
		filter.RoomID = id
	}
	if raw := c.Query("date"); raw != "" {
		date, err := h.parseDate(raw)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}

	bookings, err := h.bookings.List(c.Request.Context(), currentAccount(c), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, bookings)
}

func (h *Handler) ApproveBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.bookings.Approve(c.Request.Context(), currentAccount(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, b)
}

func (h *Handler) RejectBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body rejectBody
	if !bindJSON(c, &body) {
		return
	}

	b, err := h.bookings.Reject(c.Request.Context(), currentAccount(c), id, body.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, b)
}

func (h *Handler) ResubmitBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body editBody
	if !bindJSON(c, &body) {
		return
	}

	current, err := h.bookings.Get(c.Request.Context(), currentAccount(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	edit, err := h.parseEdit(body, current)
	if err != nil {
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.bookings.Resubmit(c.Request.Context(), currentAccount(c), id, edit)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, b)
}

func (h *Handler) DiscardBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.bookings.Discard(c.Request.Context(), currentAccount(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, b)
}
