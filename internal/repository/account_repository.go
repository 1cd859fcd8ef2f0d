package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
)

type AccountRepository struct {
	*base.Repository
}

func NewAccountRepository(b *base.Repository) *AccountRepository {
	return &AccountRepository{Repository: b}
}

const accountColumns = `id, subject, email, name, role, telegram_chat_id, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ID,
		&account.Subject,
		&account.Email,
		&account.Name,
		&account.Role,
		&account.TelegramChatID,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (subject, email, name, role, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		account.Subject,
		account.Email,
		account.Name,
		account.Role,
		account.TelegramChatID,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create account: %w", ErrDuplicate)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

// GetByID returns the account or nil when it does not exist
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}

	return account, nil
}

// GetBySubject looks an account up by its token subject
func (r *AccountRepository) GetBySubject(ctx context.Context, subject string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE subject = $1`

	account, err := scanAccount(r.QueryRow(ctx, query, subject))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by subject: %w", err)
	}

	return account, nil
}

// GetByTelegramChatID looks an account up by its linked Telegram chat
func (r *AccountRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE telegram_chat_id = $1`

	account, err := scanAccount(r.QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by telegram chat: %w", err)
	}

	return account, nil
}

// List returns all accounts ordered by name
func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY name, id`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// ListByRole returns accounts with the given role
func (r *AccountRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 ORDER BY id`

	rows, err := r.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list accounts by role: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Update stores profile fields, role and telegram chat. A telegram chat
// already linked to another account fails with ErrDuplicate.
func (r *AccountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `
		UPDATE accounts
		SET email = $1, name = $2, role = $3, telegram_chat_id = $4
		WHERE id = $5
	`

	affected, err := r.ExecAffected(
		ctx, query,
		account.Email,
		account.Name,
		account.Role,
		account.TelegramChatID,
		account.ID,
	)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("update account: %w", ErrDuplicate)
		}
		return fmt.Errorf("update account: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
