package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type facilityBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) ListFacilities(c *gin.Context) {
	facilities, err := h.facilities.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, facilities)
}

func (h *Handler) CreateFacility(c *gin.Context) {
	var body facilityBody
	if !bindJSON(c, &body) {
		return
	}

	facility, err := h.facilities.Create(c.Request.Context(), currentAccount(c), body.Name, body.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusCreated, facility)
}

func (h *Handler) DeleteFacility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.facilities.Delete(c.Request.Context(), currentAccount(c), id); err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, gin.H{"id": id})
}
