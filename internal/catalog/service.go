// Package catalog はカテゴリ・素材・作品のビジネスロジックを提供する。
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
	"github.com/hitoshi/atelier/internal/security"
)

// ServiceConfig はカタログサービスの設定。
type ServiceConfig struct {
	FetchTimeout time.Duration // リモート画像取得のタイムアウト
	FetchMaxSize int64         // リモート画像の最大サイズ（バイト）
}

// Service はカタログに関するビジネスロジックを提供する。
type Service struct {
	categoryRepo repository.CategoryRepository
	materialRepo repository.MaterialRepository
	productRepo  repository.ProductRepository
	sanitizer    security.DescriptionSanitizerService
	ssrfGuard    security.SSRFGuardService
	config       ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	categoryRepo repository.CategoryRepository,
	materialRepo repository.MaterialRepository,
	productRepo repository.ProductRepository,
	sanitizer security.DescriptionSanitizerService,
	ssrfGuard security.SSRFGuardService,
	config ServiceConfig,
) *Service {
	return &Service{
		categoryRepo: categoryRepo,
		materialRepo: materialRepo,
		productRepo:  productRepo,
		sanitizer:    sanitizer,
		ssrfGuard:    ssrfGuard,
		config:       config,
	}
}

// CreateCategory はカテゴリを作成する。
func (s *Service) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	now := time.Now()
	category := &model.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("category created", slog.String("category_id", category.ID))
	return category, nil
}

// ListCategories は全カテゴリを返す。
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

// CreateMaterial は素材を作成する。
func (s *Service) CreateMaterial(ctx context.Context, name string) (*model.Material, error) {
	now := time.Now()
	material := &model.Material{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.materialRepo.Create(ctx, material); err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	slog.Info("material created", slog.String("material_id", material.ID))
	return material, nil
}

// ListMaterials は全素材を返す。
func (s *Service) ListMaterials(ctx context.Context) ([]model.Material, error) {
	return s.materialRepo.FindAll(ctx)
}

// NewProductInput は作品作成の入力。
// ImageDataとImageURLはどちらか一方を指定する。両方指定された場合はImageDataを優先する。
type NewProductInput struct {
	Title           string
	Description     string
	Price           *int
	AmountAvailable *int
	CategoryID      string
	MaterialIDs     []string
	ImageData       []byte
	MimeType        string
	ImageURL        string
}

// CreateProduct は作品を作成する。
// 説明文はサニタイズされる。ImageURLが指定された場合は
// SSRF防止付きクライアントでリモート画像を取得する。
// 素材IDは存在するものだけが関連付けられる。
func (s *Service) CreateProduct(ctx context.Context, input NewProductInput) (*model.Product, error) {
	imageData := input.ImageData
	mimeType := input.MimeType

	// リモート画像の取り込み
	if len(imageData) == 0 && input.ImageURL != "" {
		data, mt, err := s.fetchRemoteImage(ctx, input.ImageURL)
		if err != nil {
			return nil, err
		}
		imageData = data
		mimeType = mt
	}

	if len(imageData) == 0 {
		return nil, model.NewMissingImageError()
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(imageData)
	}

	// 素材IDの解決（存在しないIDは無視）
	materials, err := s.materialRepo.FindByIDs(ctx, input.MaterialIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve materials: %w", err)
	}

	now := time.Now()
	product := &model.Product{
		ID:              uuid.New().String(),
		Title:           input.Title,
		Description:     s.sanitizer.Sanitize(input.Description),
		Price:           input.Price,
		AmountAvailable: input.AmountAvailable,
		CategoryID:      input.CategoryID,
		MimeType:        mimeType,
		ImageData:       imageData,
		Materials:       materials,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	slog.Info("product created",
		slog.String("product_id", product.ID),
		slog.Int("image_bytes", len(imageData)),
	)

	return product, nil
}

// ListProducts は全作品のサマリを返す。
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

// GetProduct は指定IDの作品サマリを返す。
// 見つからない場合はProductNotFoundエラーを返す。
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// GetProductImage は指定IDの作品画像を返す。
// 画像データが不完全な場合もProductNotFoundエラーを返す。
func (s *Service) GetProductImage(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindImageByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product image: %w", err)
	}
	if product == nil || len(product.ImageData) == 0 || product.MimeType == "" {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// fetchRemoteImage はSSRF防止付きクライアントでリモート画像を取得する。
// 取得サイズはFetchMaxSizeに制限される。
func (s *Service) fetchRemoteImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := s.ssrfGuard.ValidateURL(rawURL); err != nil {
		return nil, "", model.NewInvalidImageURLError(err.Error())
	}

	client := s.ssrfGuard.NewSafeClient(s.config.FetchTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", model.NewInvalidImageURLError(err.Error())
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", model.NewInvalidImageURLError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", model.NewInvalidImageURLError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	// サイズ制限付きで読み込む
	limited := io.LimitReader(resp.Body, s.config.FetchMaxSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read remote image: %w", err)
	}
	if int64(len(data)) > s.config.FetchMaxSize {
		return nil, "", model.NewInvalidImageURLError("image exceeds size limit")
	}
	if len(data) == 0 {
		return nil, "", model.NewInvalidImageURLError("empty response")
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return data, mimeType, nil
}
