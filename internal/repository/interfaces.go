// Package repository はデータ永続化層のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/atelier/internal/model"
)

// ErrDuplicateKey は一意制約違反を示す。
// 同時登録レースの検出に使用され、errors.Isで判別できる。
var ErrDuplicateKey = errors.New("duplicate key")

// UserRepository はユーザーの永続化を担う。
type UserRepository interface {
	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Count は登録済みユーザー数を返す。
	Count(ctx context.Context) (int, error)
}

// RevocationRepository はトークン失効レコードの永続化を担う。
// レコードは挿入のみで更新・削除はしない。重複挿入は許容する。
type RevocationRepository interface {
	// Create は失効レコードを挿入し、採番したレコードIDを返す。
	Create(ctx context.Context, record *model.RevocationRecord) error
	// ExistsByToken は指定トークンの失効レコードが存在するかを返す。
	ExistsByToken(ctx context.Context, token string) (bool, error)
	// ExistsByUserID は指定ユーザーの失効レコードが存在するかを返す。
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
}

// CategoryRepository はカテゴリの永続化を担う。
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindAll(ctx context.Context) ([]model.Category, error)
}

// MaterialRepository は素材の永続化を担う。
type MaterialRepository interface {
	Create(ctx context.Context, material *model.Material) error
	FindAll(ctx context.Context) ([]model.Material, error)
	// FindByIDs は指定IDの素材をまとめて取得する。存在しないIDは無視する。
	FindByIDs(ctx context.Context, ids []string) ([]model.Material, error)
}

// ProductRepository は作品の永続化を担う。
type ProductRepository interface {
	// Create は作品と素材の関連を同一トランザクションで作成する。
	Create(ctx context.Context, product *model.Product) error
	// FindAll は全作品のサマリを返す。画像バイト列は読み込まない。
	FindAll(ctx context.Context) ([]model.Product, error)
	// FindByID は指定IDの作品サマリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// FindImageByID は指定IDの作品の画像バイト列とMIMEタイプを取得する。
	// 見つからない場合はnilを返す。
	FindImageByID(ctx context.Context, id string) (*model.Product, error)
}
