package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/room_booking/internal/model"
)

func TestRoomCreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   RoomInput
	}{
		{"missing name", RoomInput{OpenTime: 8 * 60, CloseTime: 9 * 60}},
		{"closes before opening", RoomInput{Name: "A", OpenTime: 10 * 60, CloseTime: 9 * 60}},
		{"interval longer than day", RoomInput{Name: "A", OpenTime: 8 * 60, CloseTime: 9 * 60, MinIntervalMinutes: 90}},
		{"negative capacity", RoomInput{Name: "A", Capacity: -1, OpenTime: 8 * 60, CloseTime: 9 * 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rooms.Create(f.ctx, f.admin, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := f.rooms.Create(f.ctx, f.student, RoomInput{Name: "A", OpenTime: 8 * 60, CloseTime: 9 * 60})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRoomListCarriesEligibility(t *testing.T) {
	f := newFixture(t)

	closed, err := f.rooms.Create(f.ctx, f.admin, RoomInput{Name: "Server room", OpenTime: 0, CloseTime: 24 * 60, IsActive: true})
	require.NoError(t, err)

	views, err := f.rooms.List(f.ctx, f.student, true)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[int64]*RoomView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	assert.True(t, byID[f.room.ID].Eligibility.CanBook)
	assert.True(t, byID[f.room.ID].Eligibility.RequiresConfirmation)
	assert.False(t, byID[closed.ID].Eligibility.CanBook)
	assert.NotEmpty(t, byID[closed.ID].Eligibility.Reason)

	adminView, err := f.rooms.Get(f.ctx, f.admin, closed.ID)
	require.NoError(t, err)
	assert.True(t, adminView.Eligibility.CanBook)
	assert.False(t, adminView.Eligibility.RequiresConfirmation)
}

func TestDeactivatedRoomIsNotBookable(t *testing.T) {
	f := newFixture(t)

	_, err := f.rooms.Update(f.ctx, f.admin, f.room.ID, RoomInput{
		Name: "Room 5", OpenTime: 8 * 60, CloseTime: 20 * 60, IsActive: false,
	})
	require.NoError(t, err)

	view, err := f.rooms.Get(f.ctx, f.student, f.room.ID)
	require.NoError(t, err)
	assert.False(t, view.Eligibility.CanBook)

	_, err = f.bookings.Create(f.ctx, f.student, f.request(9, 10))
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestRoomDeleteWithBookings(t *testing.T) {
	f := newFixture(t)

	_, err := f.bookings.Create(f.ctx, f.employee, f.request(9, 10))
	require.NoError(t, err)

	assert.ErrorIs(t, f.rooms.Delete(f.ctx, f.admin, f.room.ID), ErrRoomInUse)
	assert.ErrorIs(t, f.rooms.Delete(f.ctx, f.admin, 9999), ErrRoomNotFound)
}

func TestAuthorizations(t *testing.T) {
	f := newFixture(t)

	_, err := f.rooms.SetAuthorization(f.ctx, f.admin, f.room.ID, model.RoleStudent, false, false)
	require.NoError(t, err)

	rules, err := f.rooms.ListAuthorizations(f.ctx, f.room.ID)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	_, err = f.bookings.Create(f.ctx, f.student, f.request(9, 10))
	assert.ErrorIs(t, err, ErrNotEligible)

	require.NoError(t, f.rooms.DeleteAuthorization(f.ctx, f.admin, f.room.ID, model.RoleStudent))
	assert.ErrorIs(t, f.rooms.DeleteAuthorization(f.ctx, f.admin, f.room.ID, model.RoleStudent), ErrAuthorizationNotFound)

	_, err = f.rooms.SetAuthorization(f.ctx, f.admin, 9999, model.RoleStudent, true, false)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomFacilities(t *testing.T) {
	f := newFixture(t)

	projector, err := f.facilities.Create(f.ctx, f.admin, "Projector", "HDMI")
	require.NoError(t, err)
	_, err = f.facilities.Create(f.ctx, f.admin, "Projector", "")
	assert.ErrorIs(t, err, ErrDuplicate)

	list, err := f.rooms.SetFacilities(f.ctx, f.admin, f.room.ID, []int64{projector.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.rooms.SetFacilities(f.ctx, f.admin, f.room.ID, []int64{9999})
	assert.ErrorIs(t, err, ErrFacilityNotFound)

	view, err := f.rooms.Get(f.ctx, f.student, f.room.ID)
	require.NoError(t, err)
	require.Len(t, view.Facilities, 1)
	assert.Equal(t, "Projector", view.Facilities[0].Name)

	require.NoError(t, f.facilities.Delete(f.ctx, f.admin, projector.ID))
	assert.ErrorIs(t, f.facilities.Delete(f.ctx, f.admin, projector.ID), ErrFacilityNotFound)
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t)

	room, err := f.rooms.UploadImage(f.ctx, f.admin, f.room.ID, "photo.PNG", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	require.Len(t, f.uploader.keys, 1)
	assert.True(t, strings.HasSuffix(f.uploader.keys[0], ".png"))
	assert.Equal(t, "https://cdn.example/"+f.uploader.keys[0], room.ImageURL)

	_, err = f.rooms.UploadImage(f.ctx, f.admin, f.room.ID, "notes.txt", strings.NewReader("x"), "text/plain")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)

	existing, err := f.bookings.Create(f.ctx, f.employee, f.request(10, 12))
	require.NoError(t, err)

	avail, err := f.rooms.Availability(f.ctx, f.room.ID, f.day, 11*60, 13*60, 0)
	require.NoError(t, err)
	assert.False(t, avail.Free)
	assert.Equal(t, []int64{existing.ID}, avail.Conflicting)

	avail, err = f.rooms.Availability(f.ctx, f.room.ID, f.day, 12*60, 13*60, 0)
	require.NoError(t, err)
	assert.True(t, avail.Free)

	avail, err = f.rooms.Availability(f.ctx, f.room.ID, f.day, 11*60, 13*60, existing.ID)
	require.NoError(t, err)
	assert.True(t, avail.Free)

	_, err = f.rooms.Availability(f.ctx, f.room.ID, f.day, 13*60, 12*60, 0)
	assert.ErrorIs(t, err, ErrValidation)
}
