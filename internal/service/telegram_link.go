package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TelegramLinkTTL is how long a code issued by the bot stays valid
const TelegramLinkTTL = 10 * time.Minute

type linkCode struct {
	chatID  int64
	expires time.Time
}

// linkCodes holds one-time codes proving that the caller controls a chat.
// The bot issues a code inside the chat and the account owner sends it back
// through the API.
type linkCodes struct {
	mu     sync.Mutex
	codes  map[string]linkCode
	byChat map[int64]string
	now    func() time.Time
}

func newLinkCodes() *linkCodes {
	return &linkCodes{
		codes:  make(map[string]linkCode),
		byChat: make(map[int64]string),
		now:    time.Now,
	}
}

// issue returns a fresh code for chatID, replacing the chat's previous one
func (l *linkCodes) issue(chatID int64) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for code, link := range l.codes {
		if now.After(link.expires) {
			delete(l.codes, code)
			delete(l.byChat, link.chatID)
		}
	}
	if old, ok := l.byChat[chatID]; ok {
		delete(l.codes, old)
	}

	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	l.codes[code] = linkCode{chatID: chatID, expires: now.Add(TelegramLinkTTL)}
	l.byChat[chatID] = code
	return code
}

// redeem consumes code and returns its chat
func (l *linkCodes) redeem(code string) (int64, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))

	l.mu.Lock()
	defer l.mu.Unlock()

	link, ok := l.codes[code]
	if !ok {
		return 0, false
	}
	delete(l.codes, code)
	delete(l.byChat, link.chatID)

	if l.now().After(link.expires) {
		return 0, false
	}
	return link.chatID, true
}
