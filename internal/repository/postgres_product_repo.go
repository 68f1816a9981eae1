package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/atelier/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した作品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// Create は作品と素材の関連を同一トランザクションで作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	categoryID := sql.NullString{String: product.CategoryID, Valid: product.CategoryID != ""}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (id, title, description, price, amount_available,
		                       category_id, mime_type, image_data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		product.ID, product.Title, product.Description, product.Price,
		product.AmountAvailable, categoryID, product.MimeType, product.ImageData,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	for _, m := range product.Materials {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO product_materials (id, product_id, material_id)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (product_id, material_id) DO NOTHING`,
			uuid.New().String(), product.ID, m.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product material: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindAll は全作品のサマリを新着順で返す。画像バイト列は読み込まない。
func (r *PostgresProductRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(description, ''), price, amount_available,
		        COALESCE(category_id, ''), mime_type, created_at, updated_at
		 FROM products ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price,
			&p.AmountAvailable, &p.CategoryID, &p.MimeType, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	for i := range products {
		materials, err := r.findMaterials(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Materials = materials
	}

	return products, nil
}

// FindByID は指定IDの作品サマリを取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	p := &model.Product{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(description, ''), price, amount_available,
		        COALESCE(category_id, ''), mime_type, created_at, updated_at
		 FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.AmountAvailable,
		&p.CategoryID, &p.MimeType, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	materials, err := r.findMaterials(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Materials = materials

	return p, nil
}

// FindImageByID は指定IDの作品の画像バイト列とMIMEタイプを取得する。
// 見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindImageByID(ctx context.Context, id string) (*model.Product, error) {
	p := &model.Product{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, mime_type, image_data FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.MimeType, &p.ImageData)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product image by ID: %w", err)
	}

	return p, nil
}

// findMaterials は作品に関連付けられた素材を取得する。
func (r *PostgresProductRepo) findMaterials(ctx context.Context, productID string) ([]model.Material, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.name, m.created_at, m.updated_at
		 FROM materials m
		 JOIN product_materials pm ON pm.material_id = m.id
		 WHERE pm.product_id = $1
		 ORDER BY m.name`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query product materials: %w", err)
	}
	defer rows.Close()

	return scanMaterials(rows)
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
