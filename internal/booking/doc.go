// Package booking holds the rules that decide whether a booking may be made:
// the conflict detector for time windows, the role based eligibility gate for
// rooms, and the booking status state machine.
//
// Nothing here touches storage or the network. Callers fetch the room's
// bookings and authorization rules and pass them in as slices; the expected
// sizes (bookings per room per day) are small enough for linear scans.
package booking
