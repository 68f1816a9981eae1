package handler

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/hitoshi/atelier/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// CategoryHandler はカテゴリ管理のHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// ListCategories は全カテゴリを取得する。
// GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory はカテゴリを作成する。
// ボディはJSONまたはフォームのどちらでも受け付ける。
// POST /api/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	name, err := extractNameField(r)
	if err != nil || name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidNameError("カテゴリ"))
		return
	}

	category, err := h.service.CreateCategory(r.Context(), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

// extractNameField はリクエストボディからnameフィールドを取り出す。
// Content-Typeヘッダーで明示的に分岐する（ボディの内容からの推測はしない）。
func extractNameField(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", err
		}
		mediaType = mt
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return "", err
		}
		return strings.TrimSpace(r.FormValue("name")), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return strings.TrimSpace(r.FormValue("name")), nil
	default:
		// JSONをデフォルトとして扱う
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", err
		}
		return strings.TrimSpace(body.Name), nil
	}
}
