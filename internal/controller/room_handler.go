package controller

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/service"
)

func (h *Handler) ListRooms(c *gin.Context) {
	onlyActive := c.Query("active") == "true"

	rooms, err := h.rooms.List(c.Request.Context(), currentAccount(c), onlyActive)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, rooms)
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	room, err := h.rooms.Get(c.Request.Context(), currentAccount(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, room)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var in service.RoomInput
	if !bindJSON(c, &in) {
		return
	}

	room, err := h.rooms.Create(c.Request.Context(), currentAccount(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusCreated, room)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in service.RoomInput
	if !bindJSON(c, &in) {
		return
	}

	room, err := h.rooms.Update(c.Request.Context(), currentAccount(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, room)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.rooms.Delete(c.Request.Context(), currentAccount(c), id); err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, gin.H{"id": id})
}

func (h *Handler) UploadRoomImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		jsonError(c, http.StatusBadRequest, "image file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		jsonError(c, http.StatusBadRequest, "cannot read image")
		return
	}
	defer src.Close()

	// Sniff the type instead of trusting the client's header
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		jsonError(c, http.StatusBadRequest, "cannot read image")
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	room, err := h.rooms.UploadImage(c.Request.Context(), currentAccount(c), id, file.Filename,
		io.MultiReader(bytes.NewReader(head), src), contentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, room)
}

// RoomAvailability answers whether a window is free:
// ?date=2024-06-01&start=10:00&end=12:00&exclude=42
func (h *Handler) RoomAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	date, err := h.parseDate(c.Query("date"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	start, err := model.ParseClockTime(c.Query("start"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid start, expected HH:MM")
		return
	}
	end, err := model.ParseClockTime(c.Query("end"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid end, expected HH:MM")
		return
	}

	var exclude int64
	if raw := c.Query("exclude"); raw != "" {
		exclude, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid exclude")
			return
		}
	}

	availability, err := h.rooms.Availability(c.Request.Context(), id, date, start, end, exclude)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, availability)
}

func (h *Handler) ListAuthorizations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rules, err := h.rooms.ListAuthorizations(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, rules)
}

type authorizationBody struct {
	IsAllowed            bool `json:"is_allowed"`
	RequiresConfirmation bool `json:"requires_confirmation"`
}

func (h *Handler) SetAuthorization(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body authorizationBody
	if !bindJSON(c, &body) {
		return
	}

	role := model.Role(strings.ToUpper(c.Param("role")))
	rule, err := h.rooms.SetAuthorization(c.Request.Context(), currentAccount(c), id, role, body.IsAllowed, body.RequiresConfirmation)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, rule)
}

func (h *Handler) DeleteAuthorization(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	role := model.Role(strings.ToUpper(c.Param("role")))
	if err := h.rooms.DeleteAuthorization(c.Request.Context(), currentAccount(c), id, role); err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, gin.H{"room_id": id, "role": role})
}

type roomFacilitiesBody struct {
	FacilityIDs []int64 `json:"facility_ids"`
}

func (h *Handler) SetRoomFacilities(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body roomFacilitiesBody
	if !bindJSON(c, &body) {
		return
	}

	facilities, err := h.rooms.SetFacilities(c.Request.Context(), currentAccount(c), id, body.FacilityIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, facilities)
}
