package model

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
	RoleStudent  Role = "STUDENT"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleStudent:
		return true
	}
	return false
}

type Account struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"` // "sub" claim of the bearer token
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsAdmin checks if the account has the administrator role
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}
