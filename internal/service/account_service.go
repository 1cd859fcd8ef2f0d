package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
)

// Identity is what a verified bearer token says about its holder
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type AccountService struct {
	accounts      AccountStore
	adminSubjects map[string]struct{}
	links         *linkCodes
	logger        *zap.Logger
}

func NewAccountService(accounts AccountStore, adminSubjects []string, logger *zap.Logger) *AccountService {
	admins := make(map[string]struct{}, len(adminSubjects))
	for _, subject := range adminSubjects {
		admins[subject] = struct{}{}
	}

	return &AccountService{
		accounts:      accounts,
		adminSubjects: admins,
		links:         newLinkCodes(),
		logger:        logger,
	}
}

// Resolve finds the account for a token identity, creating it on first use
func (s *AccountService) Resolve(ctx context.Context, id Identity) (*model.Account, error) {
	if id.Subject == "" {
		return nil, validationError("token has no subject")
	}

	account, err := s.accounts.GetBySubject(ctx, id.Subject)
	if err != nil {
		return nil, fmt.Errorf("get account by subject: %w", err)
	}

	if account != nil {
		if (id.Email == "" || id.Email == account.Email) && (id.Name == "" || id.Name == account.Name) {
			return account, nil
		}

		if id.Email != "" {
			account.Email = id.Email
		}
		if id.Name != "" {
			account.Name = id.Name
		}
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}

		s.logger.Info("Account updated",
			zap.Int64("account_id", account.ID),
			zap.String("email", account.Email),
		)
		return account, nil
	}

	account = &model.Account{
		Subject: id.Subject,
		Email:   id.Email,
		Name:    id.Name,
		Role:    model.RoleStudent,
	}
	if _, ok := s.adminSubjects[id.Subject]; ok {
		account.Role = model.RoleAdmin
	}

	err = s.accounts.Create(ctx, account)
	if errors.Is(err, repository.ErrDuplicate) {
		// Another request provisioned the same subject first
		return s.accounts.GetBySubject(ctx, id.Subject)
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("New account registered",
		zap.Int64("account_id", account.ID),
		zap.String("email", account.Email),
		zap.String("role", string(account.Role)),
	)

	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// GetByTelegramChat returns the account linked to a Telegram chat
func (s *AccountService) GetByTelegramChat(ctx context.Context, chatID int64) (*model.Account, error) {
	account, err := s.accounts.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get account by telegram chat: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// List returns all accounts, optionally only those with role
func (s *AccountService) List(ctx context.Context, actor *model.Account, role model.Role) ([]*model.Account, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if role != "" {
		if !role.Valid() {
			return nil, validationError("unknown role %q", role)
		}
		return s.accounts.ListByRole(ctx, role)
	}
	return s.accounts.List(ctx)
}

// SetRole changes an account's role. Admins cannot change their own role.
func (s *AccountService) SetRole(ctx context.Context, actor *model.Account, id int64, role model.Role) (*model.Account, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, validationError("unknown role %q", role)
	}
	if actor.ID == id {
		return nil, validationError("cannot change your own role")
	}

	account, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role == role {
		return account, nil
	}

	previous := account.Role
	account.Role = role
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account role: %w", err)
	}

	s.logger.Info("Account role changed",
		zap.Int64("account_id", account.ID),
		zap.Int64("admin_id", actor.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(role)),
	)

	return account, nil
}

// IssueTelegramLink returns a one-time code for a private Telegram chat. The
// account owner proves control of the chat by sending the code to LinkTelegram.
func (s *AccountService) IssueTelegramLink(chatID int64) string {
	return s.links.issue(chatID)
}

// LinkTelegram links the actor's account to the chat a code was issued for.
// A chat belongs to at most one account.
func (s *AccountService) LinkTelegram(ctx context.Context, actor *model.Account, code string) (*model.Account, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(code) == "" {
		return nil, validationError("code is required")
	}

	chatID, ok := s.links.redeem(code)
	if !ok {
		return nil, validationError("unknown or expired link code, send /start to the bot for a new one")
	}

	owner, err := s.accounts.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get account by telegram chat: %w", err)
	}
	if owner != nil && owner.ID != actor.ID {
		return nil, fmt.Errorf("%w: telegram chat is linked to another account", ErrDuplicate)
	}

	return s.setTelegramChat(ctx, actor, &chatID)
}

// UnlinkTelegram removes the actor's Telegram chat
func (s *AccountService) UnlinkTelegram(ctx context.Context, actor *model.Account) (*model.Account, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	return s.setTelegramChat(ctx, actor, nil)
}

func (s *AccountService) setTelegramChat(ctx context.Context, actor *model.Account, chatID *int64) (*model.Account, error) {
	account, err := s.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	account.TelegramChatID = chatID
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: telegram chat is linked to another account", ErrDuplicate)
		}
		return nil, fmt.Errorf("update telegram chat: %w", err)
	}

	s.logger.Info("Telegram chat linked",
		zap.Int64("account_id", account.ID),
		zap.Bool("linked", chatID != nil),
	)

	return account, nil
}
