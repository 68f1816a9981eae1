package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/atelier/internal/model"
)

// MaterialServiceInterface は素材ハンドラーが必要とするサービスインターフェース。
type MaterialServiceInterface interface {
	CreateMaterial(ctx context.Context, name string) (*model.Material, error)
	ListMaterials(ctx context.Context) ([]model.Material, error)
}

// MaterialHandler は素材管理のHTTPハンドラー。
type MaterialHandler struct {
	service MaterialServiceInterface
}

// NewMaterialHandler はMaterialHandlerを生成する。
func NewMaterialHandler(service MaterialServiceInterface) *MaterialHandler {
	return &MaterialHandler{service: service}
}

// ListMaterials は全素材を取得する。
// GET /api/materials
func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.ListMaterials(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, materials)
}

// CreateMaterial は素材を作成する。
// ボディはJSONまたはフォームのどちらでも受け付ける。
// POST /api/materials
func (h *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	name, err := extractNameField(r)
	if err != nil || name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidNameError("素材"))
		return
	}

	material, err := h.service.CreateMaterial(r.Context(), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, material)
}
