package booking

import "github.com/Freeeeeet/room_booking/internal/model"

// Eligibility is the result of the capability check for one user and one room.
// Room listings use it to grey out rooms, booking submission uses it to refuse
// or to pick the initial status, so both always agree.
type Eligibility struct {
	CanBook              bool   `json:"can_book"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Reason               string `json:"reason,omitempty"`
}

// InitialStatus is the status a new booking enters under this eligibility
func (e Eligibility) InitialStatus() model.BookingStatus {
	if e.RequiresConfirmation {
		return model.BookingStatusPending
	}
	return model.BookingStatusApproved
}

// Evaluate decides whether role may book the room governed by rules.
//
// A role may book when any rule for it has IsAllowed set; administrators may
// book any room. Confirmation is required when any allowed rule for the role
// asks for it. Rules for other roles are ignored.
func Evaluate(role model.Role, rules []*model.RoomAuthorization) Eligibility {
	var e Eligibility

	for _, rule := range rules {
		if rule == nil || rule.Role != role || !rule.IsAllowed {
			continue
		}
		e.CanBook = true
		if rule.RequiresConfirmation {
			e.RequiresConfirmation = true
		}
	}

	if role == model.RoleAdmin {
		e.CanBook = true
	}

	if !e.CanBook {
		e.Reason = "role " + string(role) + " is not allowed to book this room"
	}

	return e
}

// EvaluateAccount is Evaluate for an account. A nil account may not book.
func EvaluateAccount(account *model.Account, rules []*model.RoomAuthorization) Eligibility {
	if account == nil {
		return Eligibility{Reason: "not signed in"}
	}
	return Evaluate(account.Role, rules)
}
