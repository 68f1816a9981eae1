package handler

import (
	"context"
	"net/http"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// InfoHandler はサービス情報とヘルスチェックのHTTPハンドラー。
type InfoHandler struct {
	db HealthChecker
}

// NewInfoHandler はInfoHandlerを生成する。
func NewInfoHandler(db HealthChecker) *InfoHandler {
	return &InfoHandler{db: db}
}

// Info はサービス情報を返す。
// GET /api/info
func (h *InfoHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "atelier",
		"status":  "ok",
	})
}

// Health はDB接続を含むヘルスチェックを行う。
// GET /health
func (h *InfoHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}
