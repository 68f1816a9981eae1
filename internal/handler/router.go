package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/atelier/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	RevocationChecker middleware.RevocationChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	AuthMetrics       middleware.AuthMetrics
	HTTPMetrics       middleware.HTTPMetrics

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService    AuthServiceInterface
	MetricsHandler AuthMetricsRecorder

	// 失効（管理操作）
	RevocationAuthority RevocationAuthorityInterface

	// カタログ
	CategoryService CategoryServiceInterface
	MaterialService MaterialServiceInterface
	ProductService  ProductServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Logging → Metrics →（保護ルートのみ）AuthGate → RateLimit
//
// カタログの参照系と認証ルート（/auth/*）は認可ゲートの外に配置する。
// 保護ルートのハンドラーは、認可ゲートが検証済みクレームを
// コンテキストに注入した後でのみ実行される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.MetricsHandler)
	adminHandler := NewAdminHandler(deps.RevocationAuthority, deps.MetricsHandler)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	materialHandler := NewMaterialHandler(deps.MaterialService)
	productHandler := NewProductHandler(deps.ProductService)
	infoHandler := NewInfoHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Get("/health", infoHandler.Health)
	r.Get("/api/info", infoHandler.Info)

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		// ログインには総当たり対策のIP単位レート制限を追加
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/check", authHandler.Check)
	})

	// カタログの参照系（公開）
	r.Get("/api/categories", categoryHandler.ListCategories)
	r.Get("/api/materials", materialHandler.ListMaterials)
	r.Get("/api/products", productHandler.ListProducts)
	r.Get("/api/products/{id}", productHandler.GetProduct)
	r.Get("/api/products/{id}/image", productHandler.GetProductImage)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: AuthGate → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.RevocationChecker, deps.AuthMetrics))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/api/categories", categoryHandler.CreateCategory)
		r.Post("/api/materials", materialHandler.CreateMaterial)
		r.Post("/api/products", productHandler.CreateProduct)

		// 管理操作
		r.Post("/api/admin/revocations", adminHandler.Revoke)
	})

	return r
}
