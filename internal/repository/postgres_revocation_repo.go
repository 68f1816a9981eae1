package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/atelier/internal/model"
)

// PostgresRevocationRepo はPostgreSQLを使用した失効レコードリポジトリ。
// blacklisted_tokensテーブルへの挿入と存在チェックのみを行う。
// 挿入専用のため読み取り・書き込みの競合は発生しない。
type PostgresRevocationRepo struct {
	db *sql.DB
}

// NewPostgresRevocationRepo はPostgresRevocationRepoを生成する。
func NewPostgresRevocationRepo(db *sql.DB) *PostgresRevocationRepo {
	return &PostgresRevocationRepo{db: db}
}

// Create は失効レコードを挿入する。
// 同一トークンの重複挿入は許容する（ログアウトの冪等性のため）。
func (r *PostgresRevocationRepo) Create(ctx context.Context, record *model.RevocationRecord) error {
	userID := sql.NullString{String: record.UserID, Valid: record.UserID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blacklisted_tokens (id, token, user_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		record.ID, record.Token, userID, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert revocation record: %w", err)
	}
	return nil
}

// ExistsByToken は指定トークンの失効レコードが存在するかを返す。
func (r *PostgresRevocationRepo) ExistsByToken(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE token = $1)`,
		token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists, nil
}

// ExistsByUserID は指定ユーザーの失効レコードが存在するかを返す。
// ユーザー単位の失効はそのユーザーの全トークンを無効化する。
func (r *PostgresRevocationRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE user_id = $1)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ RevocationRepository = (*PostgresRevocationRepo)(nil)
