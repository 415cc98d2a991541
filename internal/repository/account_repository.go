package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/smart-resolve/internal/domain"
)

// ErrEmailTaken is returned when a credential with the email already exists.
var ErrEmailTaken = errors.New("email already registered")

const uniqueViolation = "23505"

// AccountRepository manages credentials and the profile created alongside them.
type AccountRepository interface {
	CreateAccount(ctx context.Context, credential *domain.Credential, profile *domain.Profile) error
	GetCredentialByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

// CreateAccount inserts the credential and its profile in one transaction.
func (r *accountRepository) CreateAccount(ctx context.Context, credential *domain.Credential, profile *domain.Profile) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertCredential = `
            INSERT INTO credentials (email, password_hash)
            VALUES ($1, $2)
            RETURNING id, created_at`
		if err := tx.QueryRow(ctx, insertCredential, credential.Email, credential.PasswordHash).
			Scan(&credential.ID, &credential.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrEmailTaken
			}
			return err
		}

		profile.ID = credential.ID
		const insertProfile = `
            INSERT INTO profiles (id, name, email, role)
            VALUES ($1, $2, $3, $4)
            RETURNING created_at`
		return tx.QueryRow(ctx, insertProfile, profile.ID, profile.Name, profile.Email, profile.Role).
			Scan(&profile.CreatedAt)
	})
}

func (r *accountRepository) GetCredentialByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	const query = `
        SELECT id, email, password_hash, created_at
        FROM credentials WHERE email=$1`

	var credential domain.Credential
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&credential.ID,
		&credential.Email,
		&credential.PasswordHash,
		&credential.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &credential, nil
}
