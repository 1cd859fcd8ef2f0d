package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/notifier"
	"github.com/Freeeeeet/room_booking/internal/repository/memstore"
	"github.com/Freeeeeet/room_booking/internal/service"
	"github.com/Freeeeeet/room_booking/internal/storage"
)

const testSecret = "test-secret"

type envelope struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error"`
	Conflicting []int64         `json:"conflicting"`
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	accounts *service.AccountService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	stores := service.MemoryStores(memstore.New())

	uploadDir := t.TempDir()
	local, err := storage.NewLocal(uploadDir, "http://localhost:8080")
	require.NoError(t, err)

	accounts := service.NewAccountService(stores.Accounts, []string{"admin"}, logger)
	h := NewHandler(
		accounts,
		service.NewRoomService(stores, local, time.UTC, logger),
		service.NewFacilityService(stores.Facilities, logger),
		service.NewBookingService(stores, notifier.Nop{}, time.UTC, logger),
		time.UTC,
		logger,
	)

	return &testServer{
		t:        t,
		router:   NewRouter(RouterConfig{CORSOrigins: []string{"*"}, JWTSecret: testSecret, UploadDir: uploadDir}, h),
		accounts: accounts,
	}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	claims := Claims{
		Email: subject + "@example.com",
		Name:  subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(method, path, subject string, body interface{}) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+token(s.t, subject))
	}

	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) (int, envelope) {
	s.t.Helper()

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type idOnly struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// setupRoom creates Room 5 open 08:00-20:00 where students need approval
func (s *testServer) setupRoom() int64 {
	code, env := s.do(http.MethodPost, "/api/rooms", "admin", map[string]any{
		"name":                 "Room 5",
		"capacity":             10,
		"open_time":            "08:00",
		"close_time":           "20:00",
		"min_interval_minutes": 30,
		"is_active":            true,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Error)
	room := decode[idOnly](s.t, env)

	code, env = s.do(http.MethodPut, fmt.Sprintf("/api/rooms/%d/authorizations/student", room.ID), "admin", map[string]any{
		"is_allowed":            true,
		"requires_confirmation": true,
	})
	require.Equal(s.t, http.StatusOK, code, env.Error)

	return room.ID
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := s.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	code, _ = s.serve(req)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(http.MethodGet, "/api/me", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[map[string]any](t, env)
	assert.Equal(t, "STUDENT", me["role"])
	assert.Equal(t, "alice@example.com", me["email"])
}

func TestTelegramLinkNeedsBotCode(t *testing.T) {
	s := newTestServer(t)

	// raw chat ids are not accepted
	code, _ := s.do(http.MethodPatch, "/api/me/telegram", "alice", map[string]any{"chat_id": 777})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPatch, "/api/me/telegram", "alice", map[string]any{"code": "777"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(http.MethodPatch, "/api/me/telegram", "admin", map[string]any{"code": s.accounts.IssueTelegramLink(777)})
	require.Equal(t, http.StatusOK, code, env.Error)
	me := decode[map[string]any](t, env)
	assert.EqualValues(t, 777, me["telegram_chat_id"])

	code, env = s.do(http.MethodPatch, "/api/me/telegram", "alice", map[string]any{"code": s.accounts.IssueTelegramLink(777)})
	assert.Equal(t, http.StatusConflict, code, env.Error)

	code, env = s.do(http.MethodDelete, "/api/me/telegram", "admin", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	me = decode[map[string]any](t, env)
	assert.Nil(t, me["telegram_chat_id"])
}

func TestRejectsForeignSigningMethod(t *testing.T) {
	s := newTestServer(t)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	code, _ := s.serve(req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodPost, "/api/rooms", "alice", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/bookings", "alice", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/accounts", "admin", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestBookingLifecycle(t *testing.T) {
	s := newTestServer(t)
	roomID := s.setupRoom()

	code, env := s.do(http.MethodGet, "/api/rooms?active=true", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	rooms := decode[[]map[string]any](t, env)
	require.Len(t, rooms, 1)
	eligibility := rooms[0]["eligibility"].(map[string]any)
	assert.Equal(t, true, eligibility["can_book"])
	assert.Equal(t, true, eligibility["requires_confirmation"])

	code, env = s.do(http.MethodPost, "/api/bookings", "alice", map[string]any{
		"room_id":    roomID,
		"date":       "2024-06-01",
		"start_time": "10:00",
		"end_time":   "12:00",
		"purpose":    "thesis defence rehearsal",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	first := decode[idOnly](t, env)
	assert.Equal(t, "PENDING", first.Status)

	code, env = s.do(http.MethodPost, "/api/bookings", "admin", map[string]any{
		"room_id":    roomID,
		"date":       "2024-06-01",
		"start_time": "2024-06-01T11:00:00Z",
		"end_time":   "2024-06-01T13:00:00Z",
		"purpose":    "staff meeting",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []int64{first.ID}, env.Conflicting)

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/rooms/%d/availability?date=2024-06-01&start=12:00&end=13:00", roomID), "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, decode[map[string]any](t, env)["free"])

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/api/bookings/%d/reject", first.ID), "admin", map[string]any{"reason": "room closed for cleaning"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/api/bookings/%d/resubmit", first.ID), "bob", map[string]any{})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/bookings/%d/resubmit", first.ID), "alice", map[string]any{
		"start_time": "14:00",
		"end_time":   "15:00",
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	resubmitted := decode[map[string]any](t, env)
	assert.Equal(t, "PENDING", resubmitted["status"])
	assert.Len(t, resubmitted["rejection_reasons"], 1)

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/bookings/%d/approve", first.ID), "admin", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "APPROVED", decode[idOnly](t, env).Status)

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/api/bookings/%d/approve", first.ID), "admin", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(http.MethodGet, "/api/bookings/mine", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]idOnly](t, env), 1)

	code, env = s.do(http.MethodGet, "/api/bookings?status=approved&date=2024-06-01", "admin", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]idOnly](t, env), 1)

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/bookings/%d/discard", first.ID), "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "DISCARDED", decode[idOnly](t, env).Status)
}

func TestCreateBookingBadInput(t *testing.T) {
	s := newTestServer(t)
	roomID := s.setupRoom()

	code, _ := s.do(http.MethodPost, "/api/bookings", "alice", map[string]any{
		"room_id": roomID, "date": "01.06.2024", "start_time": "10:00", "end_time": "11:00", "purpose": "x",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/bookings", "alice", map[string]any{
		"room_id": roomID, "date": "2024-06-01", "start_time": "07:00", "end_time": "09:00", "purpose": "x",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/bookings", "alice", map[string]any{
		"room_id": 999, "date": "2024-06-01", "start_time": "10:00", "end_time": "11:00", "purpose": "x",
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/bookings/abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFacilitiesAndImage(t *testing.T) {
	s := newTestServer(t)
	roomID := s.setupRoom()

	code, env := s.do(http.MethodPost, "/api/facilities", "admin", map[string]any{"name": "Whiteboard"})
	require.Equal(t, http.StatusCreated, code)
	facility := decode[idOnly](t, env)

	code, _ = s.do(http.MethodPost, "/api/facilities", "admin", map[string]any{"name": "Whiteboard"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/rooms/%d/facilities", roomID), "admin", map[string]any{"facility_ids": []int64{facility.ID}})
	require.Equal(t, http.StatusOK, code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "room.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/rooms/%d/image", roomID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, "admin"))
	code, env = s.serve(req)
	require.Equal(t, http.StatusOK, code, env.Error)

	room := decode[map[string]any](t, env)
	assert.Contains(t, room["image_url"], "http://localhost:8080/uploads/rooms/")

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/rooms/%d", roomID), "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[map[string]any](t, env)["facilities"], 1)
}
