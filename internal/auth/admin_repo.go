package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/petalandstem/storefront/internal/postgres"
)

type Admin struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a Admin) Identity() Identity { return Identity{ID: a.ID, Email: a.Email, Name: a.Name} }

type AdminRepo struct{ DB postgres.DB }

const adminColumns = `id, email, name, password_hash, created_at, updated_at`

func scanAdmin(row pgx.Row) (Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Admin{}, ErrAdminNotFound
	}
	return a, err
}

func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (Admin, error) {
	return scanAdmin(r.DB.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(email))))
}

func (r *AdminRepo) GetByID(ctx context.Context, id string) (Admin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Admin{}, ErrAdminNotFound
	}
	return scanAdmin(r.DB.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id=$1`, id))
}

func (r *AdminRepo) Create(ctx context.Context, email, name, hash string) (Admin, error) {
	ts := time.Now().UTC()
	a := Admin{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	_, err := r.DB.Exec(ctx, `INSERT INTO admins(`+adminColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Admin{}, ErrEmailTaken
	}
	if err != nil {
		return Admin{}, err
	}
	return a, nil
}

func (r *AdminRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE admins SET password_hash=$2, updated_at=now() WHERE id=$1`, id, hash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}
