package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateEmail は既に登録済みのメールアドレスで登録しようとしたことを表します。
var ErrDuplicateEmail = errors.New("email already registered")

const (
	selectByEmailQuery = `SELECT id, email, password, name FROM "user" WHERE email = ?`
	selectByIDQuery    = `SELECT id, email, password, name FROM "user" WHERE id = ?`
	insertQuery        = `INSERT INTO "user" (email, password, name) VALUES (?, ?, ?) RETURNING id`
)

// Store は user テーブルへのアクセスを担います。
type Store struct {
	db *sqlx.DB
}

// NewStore は Store を作成します。
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// FindByEmail はメールアドレスでユーザーを検索します（大文字小文字は区別）。
// 見つからない場合は nil, nil を返します。
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, selectByEmailQuery, email)
}

// FindByID は ID でユーザーを検索します。見つからない場合は nil, nil を返します。
func (s *Store) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.get(ctx, selectByIDQuery, id)
}

// Create はユーザーを登録し、採番された ID を含むレコードを返します。
// 事前チェックと一意制約違反のどちらでも ErrDuplicateEmail を返します。
func (s *Store) Create(ctx context.Context, name, email, passwordDigest string) (*User, error) {
	existing, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	user := &User{
		Email:    email,
		Password: passwordDigest,
		Name:     name,
	}
	// 事前チェックと INSERT の間に同じメールが登録され得るため、一意制約違反も重複として扱う
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(insertQuery), email, passwordDigest, name).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (s *Store) get(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	if err := s.db.GetContext(ctx, &user, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
