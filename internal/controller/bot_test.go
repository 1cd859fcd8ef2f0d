package controller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/controller/state"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/notifier"
	"github.com/Freeeeeet/room_booking/internal/repository/memstore"
	"github.com/Freeeeeet/room_booking/internal/service"
)

const (
	adminChat   int64 = 555
	studentChat int64 = 777
)

type apiCall struct {
	method string
	chatID string
	text   string
}

// telegramAPI answers Bot API requests and records them
type telegramAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (a *telegramAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(1 << 20)
	method := path.Base(r.URL.Path)

	a.mu.Lock()
	a.calls = append(a.calls, apiCall{method: method, chatID: r.FormValue("chat_id"), text: r.FormValue("text")})
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"rooms"}}`)
	case "answerCallbackQuery", "setMyCommands":
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	default:
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
	}
}

func (a *telegramAPI) byMethod(method string) []apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []apiCall
	for _, c := range a.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type botFixture struct {
	ctx        context.Context
	api        *telegramAPI
	bot        *bot.Bot
	controller *BotController
	accounts   *service.AccountService
	bookings   *service.BookingService
	admin      *model.Account
	student    *model.Account
	bookingID  int64
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	stores := service.MemoryStores(memstore.New())
	accounts := service.NewAccountService(stores.Accounts, []string{"root"}, logger)
	rooms := service.NewRoomService(stores, nil, time.UTC, logger)
	bookings := service.NewBookingService(stores, notifier.Nop{}, time.UTC, logger)

	api := &telegramAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test", bot.WithServerURL(srv.URL))
	require.NoError(t, err)

	admin, err := accounts.Resolve(ctx, service.Identity{Subject: "root", Email: "root@example.com", Name: "Root"})
	require.NoError(t, err)
	admin, err = accounts.LinkTelegram(ctx, admin, accounts.IssueTelegramLink(adminChat))
	require.NoError(t, err)

	student, err := accounts.Resolve(ctx, service.Identity{Subject: "student", Email: "student@example.com"})
	require.NoError(t, err)
	student, err = accounts.LinkTelegram(ctx, student, accounts.IssueTelegramLink(studentChat))
	require.NoError(t, err)

	room, err := rooms.Create(ctx, admin, service.RoomInput{
		Name:               "Room <5>",
		Capacity:           10,
		OpenTime:           8 * 60,
		CloseTime:          20 * 60,
		MinIntervalMinutes: 30,
		IsActive:           true,
	})
	require.NoError(t, err)
	_, err = rooms.SetAuthorization(ctx, admin, room.ID, model.RoleStudent, true, true)
	require.NoError(t, err)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	booking, err := bookings.Create(ctx, student, service.BookingRequest{
		RoomID:    room.ID,
		Date:      day,
		StartTime: day.Add(10 * time.Hour),
		EndTime:   day.Add(11 * time.Hour),
		Purpose:   "exam prep",
	})
	require.NoError(t, err)
	require.Equal(t, model.BookingStatusPending, booking.Status)

	return &botFixture{
		ctx:        ctx,
		api:        api,
		bot:        b,
		controller: NewBotController(b, accounts, bookings, time.UTC, logger),
		accounts:   accounts,
		bookings:   bookings,
		admin:      admin,
		student:    student,
		bookingID:  booking.ID,
	}
}

func callbackUpdate(from int64, data string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb",
			From: models.User{ID: from},
			Data: data,
		},
	}
}

func messageUpdate(from int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			From: &models.User{ID: from},
			Chat: models.Chat{ID: from, Type: models.ChatTypePrivate},
			Text: text,
		},
	}
}

func (f *botFixture) status(t *testing.T) model.BookingStatus {
	t.Helper()
	b, err := f.bookings.Get(f.ctx, f.admin, f.bookingID)
	require.NoError(t, err)
	return b.Status
}

func TestBotApproveButton(t *testing.T) {
	f := newBotFixture(t)

	f.controller.handleApprove(f.ctx, f.bot, callbackUpdate(adminChat, fmt.Sprintf("approve_booking:%d", f.bookingID)))

	assert.Equal(t, model.BookingStatusApproved, f.status(t))
	assert.Len(t, f.api.byMethod("answerCallbackQuery"), 1)

	// a second press finds the booking already decided
	f.controller.handleApprove(f.ctx, f.bot, callbackUpdate(adminChat, fmt.Sprintf("approve_booking:%d", f.bookingID)))
	assert.Len(t, f.api.byMethod("answerCallbackQuery"), 2)
	assert.Equal(t, model.BookingStatusApproved, f.status(t))
}

func TestBotRejectDialog(t *testing.T) {
	f := newBotFixture(t)

	f.controller.handleReject(f.ctx, f.bot, callbackUpdate(adminChat, fmt.Sprintf("reject_booking:%d", f.bookingID)))
	assert.Equal(t, state.UserData{State: state.StateRejectReason, BookingID: f.bookingID}, f.controller.state.Get(adminChat))
	assert.Equal(t, model.BookingStatusPending, f.status(t))

	// blank reasons keep the dialog open
	f.controller.handleText(f.ctx, f.bot, messageUpdate(adminChat, "   "))
	assert.Equal(t, state.StateRejectReason, f.controller.state.Get(adminChat).State)

	f.controller.handleText(f.ctx, f.bot, messageUpdate(adminChat, "room is being renovated"))
	assert.Equal(t, state.StateNone, f.controller.state.Get(adminChat).State)

	b, err := f.bookings.Get(f.ctx, f.admin, f.bookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusRejected, b.Status)
	require.Len(t, b.RejectionReasons, 1)
	assert.Equal(t, "room is being renovated", b.RejectionReasons[0].Reason)
}

func TestBotCancelDialog(t *testing.T) {
	f := newBotFixture(t)

	f.controller.handleReject(f.ctx, f.bot, callbackUpdate(adminChat, fmt.Sprintf("reject_booking:%d", f.bookingID)))
	f.controller.handleCancel(f.ctx, f.bot, messageUpdate(adminChat, "/cancel"))
	assert.Equal(t, state.StateNone, f.controller.state.Get(adminChat).State)

	f.controller.handleText(f.ctx, f.bot, messageUpdate(adminChat, "too late"))
	assert.Equal(t, model.BookingStatusPending, f.status(t))
}

func TestBotIgnoresNonAdmins(t *testing.T) {
	f := newBotFixture(t)

	f.controller.handleApprove(f.ctx, f.bot, callbackUpdate(studentChat, fmt.Sprintf("approve_booking:%d", f.bookingID)))
	f.controller.handleReject(f.ctx, f.bot, callbackUpdate(studentChat, fmt.Sprintf("reject_booking:%d", f.bookingID)))
	f.controller.handleApprove(f.ctx, f.bot, callbackUpdate(999, fmt.Sprintf("approve_booking:%d", f.bookingID)))

	assert.Equal(t, model.BookingStatusPending, f.status(t))
	assert.Equal(t, state.StateNone, f.controller.state.Get(studentChat).State)
	assert.Len(t, f.api.byMethod("answerCallbackQuery"), 3)
}

func TestBotPendingList(t *testing.T) {
	f := newBotFixture(t)

	f.controller.handlePending(f.ctx, f.bot, messageUpdate(adminChat, "/pending"))

	sent := f.api.byMethod("sendMessage")
	require.Len(t, sent, 1)
	assert.Equal(t, fmt.Sprint(adminChat), sent[0].chatID)
	assert.Contains(t, sent[0].text, fmt.Sprintf("Booking #%d", f.bookingID))
	assert.Contains(t, sent[0].text, "exam prep")

	f.controller.handlePending(f.ctx, f.bot, messageUpdate(studentChat, "/pending"))
	sent = f.api.byMethod("sendMessage")
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].text, "Only admins")
}

func TestBotStartIssuesLinkCode(t *testing.T) {
	f := newBotFixture(t)

	f.controller.handleStart(f.ctx, f.bot, messageUpdate(4242, "/start"))
	f.controller.handleStart(f.ctx, f.bot, messageUpdate(adminChat, "/start"))

	sent := f.api.byMethod("sendMessage")
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].text, "Root")
	assert.Contains(t, sent[1].text, "/pending")

	// the code in the reply links the chat
	match := regexp.MustCompile(`<code>([0-9A-F]{8})</code>`).FindStringSubmatch(sent[0].text)
	require.Len(t, match, 2, sent[0].text)

	newcomer, err := f.accounts.Resolve(f.ctx, service.Identity{Subject: "newcomer"})
	require.NoError(t, err)
	linked, err := f.accounts.LinkTelegram(f.ctx, newcomer, match[1])
	require.NoError(t, err)
	require.NotNil(t, linked.TelegramChatID)
	assert.Equal(t, int64(4242), *linked.TelegramChatID)
}

func TestBotStartRefusesGroupChats(t *testing.T) {
	f := newBotFixture(t)

	update := messageUpdate(adminChat, "/start")
	update.Message.Chat = models.Chat{ID: -100500, Type: models.ChatTypeGroup}
	f.controller.handleStart(f.ctx, f.bot, update)

	sent := f.api.byMethod("sendMessage")
	require.Len(t, sent, 1)
	assert.Equal(t, "-100500", sent[0].chatID)
	assert.Contains(t, sent[0].text, "private chat")
	assert.NotContains(t, sent[0].text, "<code>")
}

func TestBotAdminRecognizedInGroupByUserID(t *testing.T) {
	f := newBotFixture(t)

	update := messageUpdate(adminChat, "/pending")
	update.Message.Chat = models.Chat{ID: -100500, Type: models.ChatTypeGroup}
	f.controller.handlePending(f.ctx, f.bot, update)

	sent := f.api.byMethod("sendMessage")
	require.Len(t, sent, 1)
	assert.Equal(t, "-100500", sent[0].chatID)
	assert.Contains(t, sent[0].text, fmt.Sprintf("Booking #%d", f.bookingID))
}

func TestParseCallbackID(t *testing.T) {
	id, err := parseCallbackID("approve_booking:42", notifier.ApproveBookingPrefix)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseCallbackID("reject_booking:42", notifier.ApproveBookingPrefix)
	assert.Error(t, err)

	_, err = parseCallbackID("approve_booking:x", notifier.ApproveBookingPrefix)
	assert.Error(t, err)
}
