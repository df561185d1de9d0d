package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/telecombase/internal/models"
)

// PostgresUserRepository stores accounts in the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository on db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts a user. The first account ever created becomes an
// approved admin, every later one an unapproved user. The table is locked
// for the duration so two concurrent first registrations cannot both win.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, username string, passwordHash []byte) (*models.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock users: %w", err)
	}

	u := &models.User{Username: username, PasswordHash: passwordHash}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role, approved)
		SELECT $1, $2,
		       CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'user' ELSE 'admin' END,
		       NOT EXISTS (SELECT 1 FROM users)
		RETURNING id, role, approved, created_at
	`, username, passwordHash).Scan(&u.ID, &u.Role, &u.Approved, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", mapError(err, err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the user with the given name or ErrNotFound.
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, approved, created_at
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Approved, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, err)
	}
	return u, nil
}

// GetUserByID returns the user with the given id or ErrNotFound.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, approved, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Approved, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, err)
	}
	return u, nil
}

// ListUsers returns every account ordered by id.
func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.queryUsers(ctx, `
		SELECT id, username, role, approved, created_at FROM users ORDER BY id
	`)
}

// ListPendingUsers returns accounts waiting for approval, oldest first.
func (r *PostgresUserRepository) ListPendingUsers(ctx context.Context) ([]models.User, error) {
	return r.queryUsers(ctx, `
		SELECT id, username, role, approved, created_at FROM users
		WHERE approved = false AND role <> 'admin'
		ORDER BY created_at, id
	`)
}

func (r *PostgresUserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.Approved, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetUserApproved updates the approval flag. Returns ErrNotFound for an
// unknown id.
func (r *PostgresUserRepository) SetUserApproved(ctx context.Context, id int64, approved bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET approved = $1 WHERE id = $2`, approved, id)
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}
	return affected(res)
}

// DeleteUser removes the user with the given id.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", mapError(err, ErrInUse))
	}
	return affected(res)
}

// DeletePendingBefore removes unapproved non-admin accounts created before
// cutoff and returns how many were removed.
func (r *PostgresUserRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM users
		 WHERE approved = false
		   AND role <> 'admin'
		   AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete pending users: %w", err)
	}
	return res.RowsAffected()
}
