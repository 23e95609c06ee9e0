package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/lp2808/retail-pos/internal/core/domain"
)

const userSelect = `SELECT id, email, name, password_hash, role, refresh_token, refresh_expires_at, created_at, updated_at FROM users`

func (m *MySQLStore) CreateUser(ctx context.Context, user *domain.User) error {
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"id":            user.ID,
			"email":         user.Email,
			"name":          user.Name,
			"password_hash": user.PasswordHash,
			"role":          user.Role.String(),
			"created_at":    user.CreatedAt,
			"updated_at":    user.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return translateMySQL("insert user", err)
	}
	return nil
}

func (m *MySQLStore) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(m.db.QueryRowContext(ctx, userSelect+` WHERE email = ?`, email))
}

func (m *MySQLStore) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(m.db.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id))
}

func (m *MySQLStore) UserByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	return scanUser(m.db.QueryRowContext(ctx, userSelect+` WHERE refresh_token = ?`, token))
}

func (m *MySQLStore) UpdateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE users SET refresh_token = ?, refresh_expires_at = ?, updated_at = NOW()
		WHERE id = ?`, token, expiresAt, userID)
	if err != nil {
		return translateMySQL("update refresh token", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update refresh token: no user %s", userID)
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user             domain.User
		role             string
		refreshToken     sql.NullString
		refreshExpiresAt sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role,
		&refreshToken, &refreshExpiresAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateMySQL("query user", err)
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("scan user %s: %w", user.ID, err)
	}
	user.Role = parsed
	user.RefreshToken = refreshToken.String
	user.RefreshExpiresAt = refreshExpiresAt.Time
	return &user, nil
}
