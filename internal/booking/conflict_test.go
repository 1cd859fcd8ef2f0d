package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/room_booking/internal/model"
)

var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func window(t *testing.T, sh, sm, eh, em int) Window {
	t.Helper()
	w, err := NewWindow(at(sh, sm), at(eh, em))
	require.NoError(t, err)
	return w
}

func bookingAt(id int64, sh, sm, eh, em int, status model.BookingStatus) *model.Booking {
	return &model.Booking{
		ID:        id,
		RoomID:    5,
		Date:      day,
		StartTime: at(sh, sm),
		EndTime:   at(eh, em),
		Status:    status,
	}
}

func TestNewWindowRejectsEmptyAndInverted(t *testing.T) {
	_, err := NewWindow(at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewWindow(at(11, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestOverlaps(t *testing.T) {
	existing := Window{Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name     string
		proposed Window
		want     bool
	}{
		{"identical", window(t, 10, 0, 11, 0), true},
		{"start inside", window(t, 10, 30, 11, 30), true},
		{"end inside", window(t, 9, 30, 10, 30), true},
		{"contained", window(t, 10, 15, 10, 45), true},
		{"contains", window(t, 9, 0, 12, 0), true},
		{"same start longer", window(t, 10, 0, 12, 0), true},
		{"same end earlier start", window(t, 9, 0, 11, 0), true},
		{"back to back after", window(t, 11, 0, 12, 0), false},
		{"back to back before", window(t, 9, 0, 10, 0), false},
		{"well before", window(t, 7, 0, 8, 0), false},
		{"well after", window(t, 13, 0, 14, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.proposed, existing))
		})
	}
}

func TestDetectConflictsOneFlagPerBooking(t *testing.T) {
	existing := []*model.Booking{
		bookingAt(1, 10, 0, 11, 0, model.BookingStatusApproved),
		bookingAt(2, 14, 0, 15, 0, model.BookingStatusPending),
	}

	flags := DetectConflicts(existing, window(t, 10, 30, 14, 30))
	assert.Equal(t, []bool{false, false}, flags)
	assert.False(t, AllFree(flags))

	flags = DetectConflicts(existing, window(t, 11, 0, 14, 0))
	assert.Equal(t, []bool{true, true}, flags)
	assert.True(t, AllFree(flags))

	assert.Empty(t, DetectConflicts(nil, window(t, 8, 0, 9, 0)))
	assert.True(t, AllFree(nil))
}

func TestCheckRoomFiveExample(t *testing.T) {
	bookings := []*model.Booking{
		bookingAt(1, 10, 0, 11, 0, model.BookingStatusApproved),
		bookingAt(2, 14, 0, 15, 0, model.BookingStatusApproved),
	}

	free := Check(bookings, day, window(t, 11, 0, 13, 0), 0)
	assert.True(t, free.Free)
	assert.Equal(t, []bool{true, true}, free.Flags)
	assert.Empty(t, free.Conflicting)

	contained := Check(bookings, day, window(t, 10, 30, 10, 45), 0)
	assert.False(t, contained.Free)
	assert.Equal(t, []int64{1}, contained.Conflicting)

	acrossStart := Check(bookings, day, window(t, 9, 0, 10, 30), 0)
	assert.False(t, acrossStart.Free)
	assert.Equal(t, []int64{1}, acrossStart.Conflicting)
}

func TestBlockingFiltersStatusDateAndExcluded(t *testing.T) {
	otherDay := bookingAt(4, 10, 0, 11, 0, model.BookingStatusApproved)
	otherDay.Date = day.AddDate(0, 0, 1)
	otherDay.StartTime = otherDay.StartTime.AddDate(0, 0, 1)
	otherDay.EndTime = otherDay.EndTime.AddDate(0, 0, 1)

	bookings := []*model.Booking{
		bookingAt(1, 10, 0, 11, 0, model.BookingStatusDiscarded),
		bookingAt(2, 10, 0, 11, 0, model.BookingStatusRejected),
		bookingAt(3, 10, 0, 11, 0, model.BookingStatusPending),
		otherDay,
	}

	got := Blocking(bookings, day, 3)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestRejectedBookingStillBlocks(t *testing.T) {
	bookings := []*model.Booking{bookingAt(7, 10, 0, 11, 0, model.BookingStatusRejected)}

	res := Check(bookings, day, window(t, 10, 0, 11, 0), 0)
	assert.False(t, res.Free)

	bookings[0].Status = model.BookingStatusDiscarded
	res = Check(bookings, day, window(t, 10, 0, 11, 0), 0)
	assert.True(t, res.Free)
}

func TestSameDateIgnoresClock(t *testing.T) {
	assert.True(t, SameDate(at(0, 0), at(23, 59)))
	assert.False(t, SameDate(at(0, 0), at(0, 0).AddDate(0, 0, 1)))
}
