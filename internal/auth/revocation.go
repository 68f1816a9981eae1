package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
)

// RevocationAuthority はトークン・ユーザー単位の失効を管理する。
// 失効レコードは永続ストアに保存されるため、プロセス再起動や
// 複数インスタンス構成でも失効状態が維持される。
type RevocationAuthority struct {
	repo            repository.RevocationRepository
	bootstrapUserID string
}

// NewRevocationAuthority はRevocationAuthorityを生成する。
// bootstrapUserIDに一致するユーザーは失効の対象外となる。
func NewRevocationAuthority(repo repository.RevocationRepository, bootstrapUserID string) *RevocationAuthority {
	return &RevocationAuthority{
		repo:            repo,
		bootstrapUserID: bootstrapUserID,
	}
}

// Revoke はトークン（および任意でユーザー）の失効レコードを作成し、レコードIDを返す。
// userIDがブートストラップユーザーの場合は何もせず空文字列を返す。
// このアカウントは失効させられない。
// 同一トークンの重複失効は冪等で、エラーにならない。
func (a *RevocationAuthority) Revoke(ctx context.Context, token, userID string) (string, error) {
	if userID != "" && userID == a.bootstrapUserID {
		slog.Info("revocation skipped for bootstrap user", slog.String("user_id", userID))
		return "", nil
	}

	record := &model.RevocationRecord{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if err := a.repo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to revoke token: %w", err)
	}

	return record.ID, nil
}

// IsTokenRevoked は指定トークンが失効済みかを返す。
func (a *RevocationAuthority) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	return a.repo.ExistsByToken(ctx, token)
}

// IsUserRevoked は指定ユーザーが失効済みかを返す。
// ブートストラップユーザーは常にfalse。
func (a *RevocationAuthority) IsUserRevoked(ctx context.Context, userID string) (bool, error) {
	if userID == a.bootstrapUserID {
		return false, nil
	}
	return a.repo.ExistsByUserID(ctx, userID)
}

// IsBootstrapUser は指定IDがブートストラップユーザーかを返す。
// ブートストラップユーザーは失効チェックの対象外（認可ゲートでバイパスされる）。
func (a *RevocationAuthority) IsBootstrapUser(userID string) bool {
	return userID == a.bootstrapUserID
}
