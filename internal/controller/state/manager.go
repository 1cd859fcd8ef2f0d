// Package state хранит состояния многошаговых диалогов пользователей Telegram.
package state

import "sync"

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// StateRejectReason ожидаем текст причины отклонения
	StateRejectReason UserState = "reject_reason"
)

// UserData состояние диалога и бронирование, к которому он относится
type UserData struct {
	State     UserState
	BookingID int64
}

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]UserData // telegramID -> UserData
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]UserData),
	}
}

// Get возвращает состояние пользователя или пустой UserData, если диалога нет
func (m *Manager) Get(userID int64) UserData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.states[userID]
}

// Set устанавливает состояние пользователя
func (m *Manager) Set(userID int64, data UserData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Если состояние None, удаляем запись
	if data.State == StateNone {
		delete(m.states, userID)
		return
	}
	m.states[userID] = data
}

// Clear очищает состояние пользователя
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, userID)
}
