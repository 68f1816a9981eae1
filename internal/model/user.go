// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには決して含めない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary はAPIレスポンス用のユーザー情報。
// パスワードハッシュを含まない公開可能なサブセット。
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary はAPIレスポンス用のUserSummaryを返す。
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// RevocationRecord は失効済みトークンまたは失効済みユーザーを表す永続レコード。
// トークン単位またはユーザー単位の失効を記録する。作成のみで更新・削除はしない。
type RevocationRecord struct {
	ID        string
	Token     string
	UserID    string // 空文字列の場合はトークン単位の失効のみ
	CreatedAt time.Time
}
