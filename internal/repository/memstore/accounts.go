package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
)

func copyAccount(a *model.Account) *model.Account {
	c := *a
	if a.TelegramChatID != nil {
		id := *a.TelegramChatID
		c.TelegramChatID = &id
	}
	return &c
}

// sameChat mirrors the unique index on telegram_chat_id
func sameChat(a, b *model.Account) bool {
	return a.TelegramChatID != nil && b.TelegramChatID != nil && *a.TelegramChatID == *b.TelegramChatID
}

type AccountRepository struct {
	db *db
}

func (r *AccountRepository) Create(_ context.Context, account *model.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.accounts {
		if existing.Subject == account.Subject || sameChat(existing, account) {
			return fmt.Errorf("create account: %w", repository.ErrDuplicate)
		}
	}

	account.ID = r.db.id()
	account.CreatedAt = time.Now()
	r.db.accounts[account.ID] = copyAccount(account)
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id int64) (*model.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if a, ok := r.db.accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, nil
}

func (r *AccountRepository) GetBySubject(_ context.Context, subject string) (*model.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, a := range r.db.accounts {
		if a.Subject == subject {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (r *AccountRepository) GetByTelegramChatID(_ context.Context, chatID int64) (*model.Account, error) {
	accounts := r.filter(func(a *model.Account) bool {
		return a.TelegramChatID != nil && *a.TelegramChatID == chatID
	})
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	return r.filter(func(*model.Account) bool { return true }), nil
}

func (r *AccountRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.Account, error) {
	return r.filter(func(a *model.Account) bool { return a.Role == role }), nil
}

func (r *AccountRepository) filter(keep func(*model.Account) bool) []*model.Account {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Account
	for _, a := range r.db.accounts {
		if keep(a) {
			out = append(out, copyAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *AccountRepository) Update(_ context.Context, account *model.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.accounts[account.ID]
	if !ok {
		return repository.ErrNotFound
	}

	for id, other := range r.db.accounts {
		if id != account.ID && sameChat(other, account) {
			return fmt.Errorf("update account: %w", repository.ErrDuplicate)
		}
	}

	updated := copyAccount(account)
	updated.Subject = existing.Subject
	updated.CreatedAt = existing.CreatedAt
	r.db.accounts[account.ID] = updated
	return nil
}
