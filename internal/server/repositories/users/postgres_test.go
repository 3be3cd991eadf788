package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

var userCols = []string{
	"id", "username", "email", "full_name", "role", "password_hash", "is_email_verified",
	"refresh_token", "email_verification_token", "email_verification_expiry",
	"password_reset_token", "password_reset_expiry", "created_at", "updated_at",
}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, func() { db.Close() }
}

func userRow(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		id, "alice", "alice@x.com", "", "user", "$2a$10$hash", false,
		"", nil, nil, nil, nil, now, now,
	)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "alice", "alice@x.com", "", "user", "$2a$10$hash", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	u, err := repo.Create(context.Background(), &models.User{
		Username:     "alice",
		Email:        "alice@x.com",
		Role:         "user",
		PasswordHash: "$2a$10$hash",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("id not populated: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "alice@x.com"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email =").
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByEmailOrUsername_Found(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+) OR username =").
		WithArgs("alice@x.com", "alice").
		WillReturnRows(userRow("u1"))

	u, err := repo.GetByEmailOrUsername(context.Background(), "alice@x.com", "alice")
	if err != nil {
		t.Fatalf("GetByEmailOrUsername error: %v", err)
	}
	if u.ID != "u1" || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetByVerificationTokenHash_AppliesExpiryFilter(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	// The expiry comparison lives in the SQL, so an expired-but-matching hash
	// comes back as no rows, same as a wrong hash.
	mock.ExpectQuery("WHERE email_verification_token = (.+) AND email_verification_expiry > now()").
		WithArgs("deadbeef").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByVerificationTokenHash(context.Background(), "deadbeef")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRotateRefreshToken_CAS(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("UPDATE users SET refresh_token = (.+) WHERE id = (.+) AND refresh_token =").
		WithArgs("new-token", "u1", "old-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RotateRefreshToken(context.Background(), "u1", "old-token", "new-token"); err != nil {
		t.Fatalf("RotateRefreshToken error: %v", err)
	}
}

func TestRotateRefreshToken_StaleToken(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	// Stored value no longer matches: zero rows, the swap must fail.
	mock.ExpectExec("UPDATE users SET refresh_token =").
		WithArgs("new-token", "u1", "stale-token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RotateRefreshToken(context.Background(), "u1", "stale-token", "new-token")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSetVerificationToken(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetVerificationToken(context.Background(), "u1", "hash", time.Now().Add(20*time.Minute))
	if err != nil {
		t.Fatalf("SetVerificationToken error: %v", err)
	}
}

func TestMarkEmailVerified_MissingUser(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkEmailVerified(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdatePassword_ClearsResetToken(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), "u1", "$2a$10$newhash", true); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
}
