package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/atelier/internal/catalog"
	"github.com/hitoshi/atelier/internal/model"
)

// maxUploadSize はマルチパートボディの最大サイズ（32MiB）。
const maxUploadSize = 32 << 20

// ProductServiceInterface は作品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, input catalog.NewProductInput) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductImage(ctx context.Context, id string) (*model.Product, error)
}

// ProductHandler は作品管理のHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// ListProducts は全作品のサマリ一覧を取得する。画像バイト列は含まない。
// GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summaries := make([]model.ProductSummary, 0, len(products))
	for i := range products {
		summaries = append(summaries, products[i].Summary())
	}

	writeJSON(w, http.StatusOK, summaries)
}

// GetProduct は指定IDの作品サマリを取得する。
// GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product.Summary())
}

// GetProductImage は指定IDの作品画像を保存時のMIMEタイプで配信する。
// GET /api/products/{id}/image
func (h *ProductHandler) GetProductImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProductImage(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", product.MimeType)
	w.WriteHeader(http.StatusOK)
	w.Write(product.ImageData)
}

// CreateProduct は作品を登録する。
// ボディはmultipart/form-dataのみを受け付ける（それ以外は415）。
// 画像はimageFileフィールドのファイル、またはimageUrlフィールドの
// リモートURLのどちらかで指定する。
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	// Content-Typeヘッダーで明示的に判定する（ボディの内容からの推測はしない）
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		writeAPIErrorResponse(w, http.StatusUnsupportedMediaType, model.NewUnsupportedMediaTypeError())
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingImageError())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidNameError("作品"))
		return
	}

	input := catalog.NewProductInput{
		Title:       title,
		Description: r.FormValue("description"),
		CategoryID:  strings.TrimSpace(r.FormValue("categoryId")),
		ImageURL:    strings.TrimSpace(r.FormValue("imageUrl")),
		MaterialIDs: parseMaterialIDs(r.FormValue("materialIds")),
	}

	if v := strings.TrimSpace(r.FormValue("price")); v != "" {
		if price, err := strconv.Atoi(v); err == nil {
			input.Price = &price
		}
	}
	if v := strings.TrimSpace(r.FormValue("amountAvailable")); v != "" {
		if amount, err := strconv.Atoi(v); err == nil {
			input.AmountAvailable = &amount
		}
	}

	// 画像ファイルの読み込み（任意。なければimageUrlにフォールバック）
	if file, header, err := r.FormFile("imageFile"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		input.ImageData = data
		input.MimeType = header.Header.Get("Content-Type")
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, product.Summary())
}

// parseMaterialIDs はmaterialIdsフィールドを解析する。
// JSON配列（["id1","id2"]）または単一ID文字列のどちらも受け付ける。
func parseMaterialIDs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err == nil {
		return ids
	}

	// JSON配列でなければ単一IDとして扱う
	return []string{raw}
}
