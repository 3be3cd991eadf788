package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

const userColumns = `id, username, email, full_name, role, password_hash, is_email_verified,
		refresh_token, email_verification_token, email_verification_expiry,
		password_reset_token, password_reset_expiry, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Role,
		&user.PasswordHash, &user.IsEmailVerified, &user.RefreshToken,
		&user.EmailVerificationToken, &user.EmailVerificationExpiry,
		&user.PasswordResetToken, &user.PasswordResetExpiry,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Create inserts the user under a fresh id and returns it with generated
// fields populated. A username or email collision maps to common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, email, full_name, role, password_hash, is_email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	user.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.Role,
		user.PasswordHash, user.IsEmailVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $2`
	return scanUser(r.db.QueryRowContext(ctx, query, email, username))
}

// GetByVerificationTokenHash looks up by token digest with the expiry filter
// applied in SQL: an expired hash behaves exactly like an absent one.
func (r *PostgresRepository) GetByVerificationTokenHash(ctx context.Context, hash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE email_verification_token = $1 AND email_verification_expiry > now()`
	return scanUser(r.db.QueryRowContext(ctx, query, hash))
}

func (r *PostgresRepository) GetByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE password_reset_token = $1 AND password_reset_expiry > now()`
	return scanUser(r.db.QueryRowContext(ctx, query, hash))
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.update(ctx, id, squirrel.Eq{"refresh_token": token})
}

// RotateRefreshToken is a compare-and-swap on the stored refresh token.
// Zero rows affected means the stored value changed underneath us (rotation
// already happened, or the session was revoked) and maps to ErrNotFound.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, id, old, next string) error {
	query := `
		UPDATE users SET refresh_token = $1, updated_at = now()
		WHERE id = $2 AND refresh_token = $3
	`
	res, err := r.db.ExecContext(ctx, query, next, id, old)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetVerificationToken(ctx context.Context, id, hash string, expiry time.Time) error {
	return r.update(ctx, id, squirrel.Eq{
		"email_verification_token":  hash,
		"email_verification_expiry": expiry,
	})
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error {
	return r.update(ctx, id, squirrel.Eq{
		"password_reset_token":  hash,
		"password_reset_expiry": expiry,
	})
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.update(ctx, id, squirrel.Eq{
		"is_email_verified":         true,
		"email_verification_token":  nil,
		"email_verification_expiry": nil,
	})
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string, clearResetToken bool) error {
	set := squirrel.Eq{"password_hash": passwordHash}
	if clearResetToken {
		set["password_reset_token"] = nil
		set["password_reset_expiry"] = nil
	}
	return r.update(ctx, id, set)
}

// update applies a SetMap-built UPDATE to one user row; a missing row maps to
// common.ErrNotFound.
func (r *PostgresRepository) update(ctx context.Context, id string, set squirrel.Eq) error {
	query, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Update("users").
		SetMap(set).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building sql query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows == 0 {
		return common.ErrNotFound
	}
	return nil
}
