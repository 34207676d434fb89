package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "railbook/internal/config"
	intdb "railbook/internal/db"
	"railbook/internal/domain"
	"railbook/internal/domain/models"
	"railbook/internal/utils"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Create inserts a new account. Email is the unique login handle.
func (r UserRepository) Create(ctx context.Context, name, email, phone, passwordHash string) (models.User, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash)
		VALUES (?, ?, ?, ?)`,
		utils.NormalizeSpace(name), utils.TrimOrEmpty(email), utils.TrimOrEmpty(phone), passwordHash)
	if err != nil {
		if intdb.IsDuplicate(err, "uniq_user_email") {
			return models.User{}, domain.ConflictError{Resource: "email", Msg: "already registered"}
		}
		return models.User{}, intdb.WrapErr(err)
	}
	id, _ := res.LastInsertId()
	return r.GetByID(ctx, id)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db().QueryRowContext(ctx, `
		SELECT id, name, email, phone, password_hash, created_at
		FROM users
		WHERE email = ?
		LIMIT 1`, utils.TrimOrEmpty(email)).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user"}
		}
		return models.User{}, intdb.WrapErr(err)
	}
	return u, nil
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := r.db().QueryRowContext(ctx, `
		SELECT id, name, email, phone, password_hash, created_at
		FROM users
		WHERE id = ?
		LIMIT 1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user"}
		}
		return models.User{}, intdb.WrapErr(err)
	}
	return u, nil
}

// UpdateProfile changes name and phone only; email stays the login handle.
func (r UserRepository) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	_, err := r.db().ExecContext(ctx,
		`UPDATE users SET name = ?, phone = ? WHERE id = ?`,
		utils.NormalizeSpace(name), utils.TrimOrEmpty(phone), id)
	return intdb.WrapErr(err)
}
