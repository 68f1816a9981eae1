// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/atelier/internal/auth"
	"github.com/hitoshi/atelier/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストに認証済みクレームを格納するためのキー。
var claimsContextKey = contextKey("claims")

// TokenVerifier はトークン検証に必要なインターフェース。
// auth.TokenManagerの部分集合として定義する。
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RevocationChecker は失効確認に必要なインターフェース。
// auth.RevocationAuthorityの部分集合として定義する。
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
	IsUserRevoked(ctx context.Context, userID string) (bool, error)
	IsBootstrapUser(userID string) bool
}

// AuthMetrics は認可ゲートが記録するメトリクスのインターフェース。
type AuthMetrics interface {
	RecordTokenVerifyFailure(reason string)
	RecordRevokedDenial()
}

// NewAuthMiddleware はBearerトークンによる認可ゲートミドルウェアを返す。
//
// リクエストごとの判定順序:
//  1. Authorizationヘッダーの抽出（「Bearer <token>」形式のみ）
//  2. トークンの署名・有効期限の検証
//  3. ブートストラップユーザーは失効チェックをバイパスして即許可
//  4. トークン単位・ユーザー単位の失効チェック
//  5. クレームをコンテキストに注入してハンドラーへ
//
// 検証失敗と失効は外部から区別できない同一の401レスポンスを返す。
// ストア障害時も401で拒否する（疑わしい場合は拒否）。
func NewAuthMiddleware(verifier TokenVerifier, revocation RevocationChecker, metrics AuthMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーからトークンを抽出
			token, ok := ExtractBearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingAuthHeaderError())
				return
			}

			// 2. 署名と有効期限の検証
			claims, err := verifier.Verify(token)
			if err != nil {
				reason := verifyFailureReason(err)
				slog.Warn("token verification failed",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path),
				)
				if metrics != nil {
					metrics.RecordTokenVerifyFailure(reason)
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. ブートストラップユーザーは失効チェックをバイパス
			if !revocation.IsBootstrapUser(claims.UserID) {
				// 4. 失効チェック（トークン単位 OR ユーザー単位）
				denied, err := isRevoked(r.Context(), revocation, token, claims.UserID)
				if err != nil {
					slog.Error("revocation check failed",
						slog.String("error", err.Error()),
					)
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}
				if denied {
					slog.Warn("revoked credential rejected", slog.String("user_id", claims.UserID))
					if metrics != nil {
						metrics.RecordRevokedDenial()
					}
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}
			}

			// 5. 認証済みクレームをコンテキストに注入
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキームが「Bearer」以外、またはトークンが空の場合はfalseを返す。
func ExtractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// isRevoked はトークン単位・ユーザー単位の失効レコードの有無を確認する。
// どちらかが存在すれば失効済みとみなす。
func isRevoked(ctx context.Context, revocation RevocationChecker, token, userID string) (bool, error) {
	tokenRevoked, err := revocation.IsTokenRevoked(ctx, token)
	if err != nil {
		return false, err
	}
	if tokenRevoked {
		return true, nil
	}

	userRevoked, err := revocation.IsUserRevoked(ctx, userID)
	if err != nil {
		return false, err
	}
	return userRevoked, nil
}

// verifyFailureReason は検証エラーをメトリクス・ログ用の理由文字列に分類する。
func verifyFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenSignatureInvalid):
		return "bad_signature"
	default:
		return "malformed"
	}
}

// ClaimsFromContext はリクエストコンテキストから認証済みクレームを取得する。
// 認可ゲートを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("claims not found in context")
	}
	return claims, nil
}

// ContextWithClaims はコンテキストにクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
