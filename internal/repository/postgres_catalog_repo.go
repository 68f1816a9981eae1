package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/atelier/internal/model"
	"github.com/lib/pq"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// FindAll は全カテゴリを名前順で返す。
func (r *PostgresCategoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)

// PostgresMaterialRepo はPostgreSQLを使用した素材リポジトリ。
type PostgresMaterialRepo struct {
	db *sql.DB
}

// NewPostgresMaterialRepo はPostgresMaterialRepoを生成する。
func NewPostgresMaterialRepo(db *sql.DB) *PostgresMaterialRepo {
	return &PostgresMaterialRepo{db: db}
}

// Create は素材を作成する。
func (r *PostgresMaterialRepo) Create(ctx context.Context, material *model.Material) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO materials (id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		material.ID, material.Name, material.CreatedAt, material.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert material: %w", err)
	}
	return nil
}

// FindAll は全素材を名前順で返す。
func (r *PostgresMaterialRepo) FindAll(ctx context.Context) ([]model.Material, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM materials ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	return scanMaterials(rows)
}

// FindByIDs は指定IDの素材をまとめて取得する。存在しないIDは無視する。
func (r *PostgresMaterialRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Material, error) {
	if len(ids) == 0 {
		return []model.Material{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM materials WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials by IDs: %w", err)
	}
	defer rows.Close()

	return scanMaterials(rows)
}

func scanMaterials(rows *sql.Rows) ([]model.Material, error) {
	materials := []model.Material{}
	for rows.Next() {
		var m model.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate materials: %w", err)
	}
	return materials, nil
}

// compile-time interface check
var _ MaterialRepository = (*PostgresMaterialRepo)(nil)
