package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresUserRepository(db), mock
}

func TestCreateUser_FirstBecomesAdmin(t *testing.T) {
	repo, mock := setupUserMock(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, password_hash, role, approved)`)).
		WithArgs("alice", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role", "approved", "created_at"}).
			AddRow(int64(1), "admin", true, created))
	mock.ExpectCommit()

	u, err := repo.CreateUser(context.Background(), "alice", []byte("hash"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 1 || u.Role != "admin" || !u.Approved || !u.CreatedAt.Equal(created) {
		t.Errorf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo, mock := setupUserMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE users`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.CreateUser(context.Background(), "alice", []byte("hash"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	repo, mock := setupUserMock(t)
	query := regexp.QuoteMeta(`FROM users WHERE username = $1`)

	mock.ExpectQuery(query).WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "approved", "created_at"}).
			AddRow(int64(2), "bob", []byte("h"), "user", false, time.Now()))
	u, err := repo.GetUserByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Username != "bob" || u.Approved || u.Active() {
		t.Errorf("unexpected user: %+v", u)
	}

	mock.ExpectQuery(query).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "approved", "created_at"}))
	if _, err := repo.GetUserByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPendingUsers(t *testing.T) {
	repo, mock := setupUserMock(t)

	rows := sqlmock.NewRows([]string{"id", "username", "role", "approved", "created_at"}).
		AddRow(int64(3), "carol", "user", false, time.Now()).
		AddRow(int64(4), "dave", "user", false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE approved = false AND role <> 'admin'`)).WillReturnRows(rows)

	users, err := repo.ListPendingUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].Username != "carol" || users[1].ID != 4 {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestListUsers_Empty(t *testing.T) {
	repo, mock := setupUserMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role", "approved", "created_at"}))

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", users)
	}
}

func TestSetUserApproved(t *testing.T) {
	repo, mock := setupUserMock(t)
	query := regexp.QuoteMeta(`UPDATE users SET approved = $1 WHERE id = $2`)

	mock.ExpectExec(query).WithArgs(true, int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetUserApproved(context.Background(), 5, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(query).WithArgs(false, int64(6)).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SetUserApproved(context.Background(), 6, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	repo, mock := setupUserMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteUser(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeletePendingBefore(t *testing.T) {
	repo, mock := setupUserMock(t)
	cutoff := time.Now().Add(-time.Hour)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users`)).
		WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeletePendingBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 removed, got %d", n)
	}
}
