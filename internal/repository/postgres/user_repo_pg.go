package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/fitcity-auth/internal/domain"
	"github.com/njprem/fitcity-auth/internal/repository/ports"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, reset_token_hash, reset_token_expires_at, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// userRow mirrors user_account; the reset columns are nullable as a pair.
type userRow struct {
	ID                  uuid.UUID  `db:"id"`
	Name                string     `db:"name"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	ResetTokenHash      *string    `db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	user := &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.ResetTokenHash != nil && r.ResetTokenExpiresAt != nil {
		user.Reset = &domain.ResetToken{TokenHash: *r.ResetTokenHash, ExpiresAt: *r.ResetTokenExpiresAt}
	}
	return user
}

func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (id, name, email, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, uuid.New(), name, email, passwordHash)
	var out userRow
	if err := row.StructScan(&out); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ports.ErrDuplicateEmail
		}
		return nil, err
	}
	return out.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE email = $1
    `
	var out userRow
	if err := r.db.GetContext(ctx, &out, query, email); err != nil {
		return nil, notFound(err)
	}
	return out.toDomain(), nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID uuid.UUID, reset domain.ResetToken) error {
	const query = `
        UPDATE user_account
        SET reset_token_hash = $2,
            reset_token_expires_at = $3,
            updated_at = NOW()
        WHERE id = $1
    `
	res, err := r.db.ExecContext(ctx, query, userID, reset.TokenHash, reset.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	const query = `
        UPDATE user_account
        SET reset_token_hash = NULL,
            reset_token_expires_at = NULL,
            updated_at = NOW()
        WHERE id = $1 AND reset_token_hash = $2
    `
	_, err := r.db.ExecContext(ctx, query, userID, tokenHash)
	return err
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
    `
	var out userRow
	if err := r.db.GetContext(ctx, &out, query, tokenHash, now); err != nil {
		return nil, notFound(err)
	}
	return out.toDomain(), nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET password_hash = $3,
            reset_token_hash = NULL,
            reset_token_expires_at = NULL,
            updated_at = NOW()
        WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, tokenHash, now, passwordHash)
	var out userRow
	if err := row.StructScan(&out); err != nil {
		return nil, notFound(err)
	}
	return out.toDomain(), nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return err
}
