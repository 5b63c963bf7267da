package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/account"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/db"
)

const (
	accountColumns = `id, name, email, password_hash, role, verified, created_at, updated_at`

	pqUniqueViolation = "23505"
)

// AccountRepository implements ports.AccountRepository on PostgreSQL.
type AccountRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(database *db.Database, logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{
		db:     database,
		logger: logger,
	}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// Create inserts a new account. A duplicate email yields a Conflict error.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.DB.ExecContext(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Verified, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email already in use")
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"account_id": a.ID, "email": a.Email}).WithError(err).Error("db: failed to create account")
		}
		return apperr.Internal("failed to create account", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"account_id": a.ID, "email": a.Email}).Info("db: account created")
	}

	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.findOne(ctx, "id", id)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.findOne(ctx, "email", account.NormalizeEmail(email))
}

// findOne returns (nil, nil) when no row matches.
func (r *AccountRepository) findOne(ctx context.Context, column string, value interface{}) (*account.Account, error) {
	var a account.Account
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s = $1`, accountColumns, column)

	err := r.db.DB.GetContext(ctx, &a, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{column: value}).WithError(err).Error("db: failed to get account")
		}
		return nil, apperr.Internal(fmt.Sprintf("failed to get account by %s", column), err)
	}

	return &a, nil
}

func (r *AccountRepository) FindAll(ctx context.Context) ([]*account.Account, error) {
	accounts := []*account.Account{}
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC`

	if err := r.db.DB.SelectContext(ctx, &accounts, query); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to list accounts")
		}
		return nil, apperr.Internal("failed to list accounts", err)
	}

	return accounts, nil
}

// Update writes only the provided fields and returns the stored row.
func (r *AccountRepository) Update(ctx context.Context, id uuid.UUID, fields account.UpdateFields) (*account.Account, error) {
	if fields.IsEmpty() {
		return nil, apperr.InvalidInput("At least one field must be provided to update the user.")
	}

	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.Name != nil {
		add("name", strings.TrimSpace(*fields.Name))
	}
	if fields.Email != nil {
		add("email", account.NormalizeEmail(*fields.Email))
	}
	if fields.PasswordHash != nil {
		add("password_hash", *fields.PasswordHash)
	}
	if fields.Role != nil {
		add("role", strings.TrimSpace(*fields.Role))
	}
	if fields.Verified != nil {
		add("verified", *fields.Verified)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), accountColumns)

	var a account.Account
	err := r.db.DB.GetContext(ctx, &a, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"account_id": id}).Debug("db: update affected 0 rows - account not found")
			}
			return nil, apperr.NotFound("user", id.String())
		}
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("email already in use")
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"account_id": id}).WithError(err).Error("db: failed to update account")
		}
		return nil, apperr.Internal("failed to update account", err)
	}

	return &a, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"account_id": id}).WithError(err).Error("db: failed to delete account")
		}
		return apperr.Internal("failed to delete account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"account_id": id}).Debug("db: delete affected 0 rows - account not found")
		}
		return apperr.NotFound("user", id.String())
	}

	return nil
}
