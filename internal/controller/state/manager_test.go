package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	m := NewManager()
	assert.Equal(t, StateNone, m.Get(1).State)

	m.Set(1, UserData{State: StateRejectReason, BookingID: 7})
	assert.Equal(t, UserData{State: StateRejectReason, BookingID: 7}, m.Get(1))
	assert.Equal(t, StateNone, m.Get(2).State)

	m.Set(1, UserData{})
	assert.Equal(t, StateNone, m.Get(1).State)

	m.Set(3, UserData{State: StateRejectReason, BookingID: 9})
	m.Clear(3)
	assert.Equal(t, UserData{}, m.Get(3))
}
