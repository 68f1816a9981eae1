package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/atelier/internal/model"
)

// RevocationAuthorityInterface は管理ハンドラーが必要とする失効操作のインターフェース。
type RevocationAuthorityInterface interface {
	Revoke(ctx context.Context, token, userID string) (string, error)
}

// AdminHandler は管理操作のHTTPハンドラー。
// 認可ゲートの背後に配置される。
type AdminHandler struct {
	revocation RevocationAuthorityInterface
	metrics    AuthMetricsRecorder
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(revocation RevocationAuthorityInterface, metrics AuthMetricsRecorder) *AdminHandler {
	return &AdminHandler{
		revocation: revocation,
		metrics:    metrics,
	}
}

// revokeRequest は失効レコード作成リクエストのボディ。
// tokenとuserIdの少なくとも一方を指定する。
// userIdを指定するとそのユーザーの全トークンが失効する（ユーザー単位の失効）。
type revokeRequest struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Revoke は失効レコードを作成する。
// ブートストラップユーザーに対する失効は何も記録せず成功を返す。
// POST /api/admin/revocations
func (h *AdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingTokenError())
		return
	}

	token := strings.TrimSpace(req.Token)
	userID := strings.TrimSpace(req.UserID)
	if token == "" && userID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingTokenError())
		return
	}

	recordID, err := h.revocation.Revoke(r.Context(), token, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil && recordID != "" {
		h.metrics.RecordRevocation()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"record_id": recordID,
	})
}
