package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/room_booking/internal/model"
)

func (h *Handler) GetMe(c *gin.Context) {
	jsonSuccess(c, http.StatusOK, currentAccount(c))
}

type telegramLinkBody struct {
	Code string `json:"code"`
}

// LinkTelegram links the caller to the chat where the bot issued the code
func (h *Handler) LinkTelegram(c *gin.Context) {
	var body telegramLinkBody
	if !bindJSON(c, &body) {
		return
	}

	account, err := h.accounts.LinkTelegram(c.Request.Context(), currentAccount(c), body.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, account)
}

func (h *Handler) UnlinkTelegram(c *gin.Context) {
	account, err := h.accounts.UnlinkTelegram(c.Request.Context(), currentAccount(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, account)
}

func (h *Handler) ListAccounts(c *gin.Context) {
	role := model.Role(strings.ToUpper(c.Query("role")))

	accounts, err := h.accounts.List(c.Request.Context(), currentAccount(c), role)
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, accounts)
}

type roleBody struct {
	Role string `json:"role"`
}

func (h *Handler) SetAccountRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body roleBody
	if !bindJSON(c, &body) {
		return
	}

	account, err := h.accounts.SetRole(c.Request.Context(), currentAccount(c), id, model.Role(strings.ToUpper(body.Role)))
	if err != nil {
		h.fail(c, err)
		return
	}
	jsonSuccess(c, http.StatusOK, account)
}
