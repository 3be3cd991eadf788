// Package users provides the credential store: persistence for accounts and
// their token fields. All business rules live in the services layer; this
// package is pure data access.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the credential store contract consumed by the account
// lifecycle service.
//
// Lookup methods return common.ErrNotFound on a miss. The token-hash lookups
// apply the expiry filter in SQL, so an expired token and a wrong token are
// indistinguishable to the caller.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	GetByVerificationTokenHash(ctx context.Context, hash string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (*models.User, error)

	// SetRefreshToken overwrites the stored refresh token. Login passes the
	// new token, logout passes "".
	SetRefreshToken(ctx context.Context, id, token string) error

	// RotateRefreshToken atomically swaps old for next and fails with
	// common.ErrNotFound when the stored value no longer equals old, so two
	// concurrent refreshes cannot both succeed against the same token.
	RotateRefreshToken(ctx context.Context, id, old, next string) error

	// SetVerificationToken and SetResetToken overwrite any previous pair of
	// the same kind; only the latest issued token is ever valid.
	SetVerificationToken(ctx context.Context, id, hash string, expiry time.Time) error
	SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error

	// MarkEmailVerified clears the verification pair and flips the flag.
	MarkEmailVerified(ctx context.Context, id string) error

	// UpdatePassword stores a new password hash; when clearResetToken is set
	// the reset pair is cleared in the same statement.
	UpdatePassword(ctx context.Context, id, passwordHash string, clearResetToken bool) error
}
