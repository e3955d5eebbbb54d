package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
)

const accountColumns = `uid, email, name, photo_url, role, is_premium, created_at, updated_at`

// accountRepository implements AccountRepository using sqlx
type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account. A uid conflict is not an error: the caller
// re-reads the existing row. An email owned by another uid is ErrEmailTaken.
func (r *accountRepository) Create(ctx context.Context, a *model.Account) (bool, error) {
	query := `
		INSERT INTO accounts (uid, email, name, photo_url, role, is_premium, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (uid) DO NOTHING
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		a.UID, a.Email, a.Name, a.PhotoURL, a.Role, a.IsPremium, a.CreatedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		if isUniqueViolation(err, "email") {
			return false, model.ErrEmailTaken
		}
		return false, fmt.Errorf("failed to insert account: %w", err)
	}
	return true, nil
}

func (r *accountRepository) GetByUID(ctx context.Context, uid string) (*model.Account, error) {
	var a model.Account
	err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE uid = $1`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by uid: %w", err)
	}
	return &a, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &a, nil
}

func (r *accountRepository) UpdateProfile(ctx context.Context, uid, name, photoURL string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = $1, photo_url = $2, updated_at = NOW()
		WHERE uid = $3
	`, name, photoURL, uid)
	if err != nil {
		return 0, fmt.Errorf("failed to update profile: %w", err)
	}
	return res.RowsAffected()
}

// Patch applies the admin allow-list. COALESCE keeps columns whose patch field is nil.
func (r *accountRepository) Patch(ctx context.Context, email string, patch model.AccountPatch) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET role = COALESCE($1, role),
		    is_premium = COALESCE($2, is_premium),
		    updated_at = NOW()
		WHERE email = $3
	`, patch.Role, patch.IsPremium, email)
	if err != nil {
		return 0, fmt.Errorf("failed to patch account: %w", err)
	}
	return res.RowsAffected()
}

func (r *accountRepository) Delete(ctx context.Context, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete account: %w", err)
	}
	return res.RowsAffected()
}

func (r *accountRepository) List(ctx context.Context) ([]model.Account, error) {
	accounts := []model.Account{}
	err := r.db.SelectContext(ctx, &accounts, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// isUniqueViolation reports a 23505 whose constraint name mentions column.
func isUniqueViolation(err error, column string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return column == "" || strings.Contains(pqErr.Constraint, column)
	}
	return false
}
