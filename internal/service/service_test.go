package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/memstore"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event model.BookingEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) types() []model.BookingEventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.BookingEventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeUploader struct {
	keys []string
}

func (u *fakeUploader) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	return "https://cdn.example/" + key, nil
}

type fixture struct {
	ctx      context.Context
	stores   Stores
	notifier *recordingNotifier
	uploader *fakeUploader

	accounts   *AccountService
	rooms      *RoomService
	facilities *FacilityService
	bookings   *BookingService

	admin    *model.Account
	employee *model.Account
	student  *model.Account
	room     *model.Room
	day      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zap.NewNop()
	f := &fixture{
		ctx:      context.Background(),
		stores:   MemoryStores(memstore.New()),
		notifier: &recordingNotifier{},
		uploader: &fakeUploader{},
		day:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	f.accounts = NewAccountService(f.stores.Accounts, []string{"root"}, logger)
	f.rooms = NewRoomService(f.stores, f.uploader, time.UTC, logger)
	f.facilities = NewFacilityService(f.stores.Facilities, logger)
	f.bookings = NewBookingService(f.stores, f.notifier, time.UTC, logger)

	var err error
	f.admin, err = f.accounts.Resolve(f.ctx, Identity{Subject: "root", Email: "root@example.com"})
	require.NoError(t, err)
	f.student, err = f.accounts.Resolve(f.ctx, Identity{Subject: "student", Email: "student@example.com"})
	require.NoError(t, err)
	f.employee, err = f.accounts.Resolve(f.ctx, Identity{Subject: "employee", Email: "employee@example.com"})
	require.NoError(t, err)
	f.employee, err = f.accounts.SetRole(f.ctx, f.admin, f.employee.ID, model.RoleEmployee)
	require.NoError(t, err)

	f.room, err = f.rooms.Create(f.ctx, f.admin, RoomInput{
		Name:               "Room 5",
		Capacity:           12,
		OpenTime:           8 * 60,
		CloseTime:          20 * 60,
		MinIntervalMinutes: 30,
		IsActive:           true,
	})
	require.NoError(t, err)

	_, err = f.rooms.SetAuthorization(f.ctx, f.admin, f.room.ID, model.RoleStudent, true, true)
	require.NoError(t, err)
	_, err = f.rooms.SetAuthorization(f.ctx, f.admin, f.room.ID, model.RoleEmployee, true, false)
	require.NoError(t, err)

	return f
}

// at returns h:m on the fixture day
func (f *fixture) at(h, m int) time.Time {
	return f.day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func (f *fixture) request(startH, endH int) BookingRequest {
	return BookingRequest{
		RoomID:    f.room.ID,
		Date:      f.day,
		StartTime: f.at(startH, 0),
		EndTime:   f.at(endH, 0),
		Purpose:   "study group",
	}
}
