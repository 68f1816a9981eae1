package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/atelier/internal/auth"
	"github.com/hitoshi/atelier/internal/middleware"
	"github.com/hitoshi/atelier/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	Logout(ctx context.Context, token string) error
	CheckAuth(ctx context.Context, token string) (*model.UserSummary, error)
}

// AuthMetricsRecorder は認証ハンドラーが記録するメトリクスのインターフェース。
type AuthMetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordRegistration()
	RecordRevocation()
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetricsRecorder) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// --- リクエスト・レスポンス型 ---

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// logoutRequest はログアウトリクエストのボディ（ヘッダー未指定時のフォールバック）。
type logoutRequest struct {
	Token string `json:"token"`
}

// Register は新規ユーザーを登録する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	// パスワードは空白のみを欠落として扱うが、ハッシュ化には
	// 受信した文字列をそのまま使う。登録時だけトリムすると
	// 前後に空白を含むパスワードで二度とログインできなくなる。
	if name == "" || email == "" || strings.TrimSpace(req.Password) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	user, err := h.service.Register(r.Context(), name, email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeAPIErrorResponse(w, http.StatusConflict, model.NewEmailExistsError())
			return
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "ユーザー登録が完了しました。",
		"user":    user.Summary(),
	})
}

// Login はメールアドレスとパスワードを検証し、セッショントークンを発行する。
// ユーザー不在とパスワード不一致のレスポンスはバイト単位で同一にする
// （ユーザー列挙攻撃への対策）。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	token, user, err := h.service.Login(r.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if h.metrics != nil {
				h.metrics.RecordLoginFailure()
			}
			writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
			return
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "ログインしました。",
		"token":   token,
		"user":    user.Summary(),
	})
}

// Logout はトークンを失効させる。
// トークンはAuthorizationヘッダーから取得し、なければリクエストボディの
// tokenフィールドにフォールバックする。どちらにもない場合は400を返す。
// トークンが有効かどうかに関わらず200を返す（冪等なログアウト）。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.ExtractBearerToken(r)
	if !ok {
		var req logoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.Token)
		}
	}

	if token == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingTokenError())
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRevocation()
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Check は提示されたトークンの有効性を確認する。
// 検証失敗・失効のどちらでも同一のレスポンスを返す。
// GET /auth/check
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.ExtractBearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"allowed": false,
			"message": "Authorizationヘッダーがないか、形式が正しくありません。",
		})
		return
	}

	user, err := h.service.CheckAuth(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"allowed": false,
			"message": "認証に失敗しました。",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"allowed": true,
		"user":    user,
	})
}
