package model

import "time"

// Category は作品のカテゴリを表す。
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Material は作品に使用される素材を表す。
type Material struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product はカタログに登録された作品を表す。
// ImageDataは画像ファイルのバイト列で、一覧取得時には読み込まない。
type Product struct {
	ID              string
	Title           string
	Description     string
	Price           *int
	AmountAvailable *int
	CategoryID      string // 未分類の場合は空文字列
	MimeType        string
	ImageData       []byte
	Materials       []Material
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProductSummary は一覧・詳細APIレスポンス用の作品情報。
// 画像バイト列を含まない（画像は専用エンドポイントで配信する）。
type ProductSummary struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Price           *int       `json:"price,omitempty"`
	AmountAvailable *int       `json:"amount_available,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	MimeType        string     `json:"mime_type,omitempty"`
	Materials       []Material `json:"materials,omitempty"`
}

// Summary はAPIレスポンス用のProductSummaryを返す。
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Price:           p.Price,
		AmountAvailable: p.AmountAvailable,
		CategoryID:      p.CategoryID,
		MimeType:        p.MimeType,
		Materials:       p.Materials,
	}
}
