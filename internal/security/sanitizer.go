// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizer は作品説明文をサニタイズし、
// XSS攻撃などのセキュリティリスクからフロントエンドを保護する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DescriptionSanitizerService は説明文サニタイズ機能のインターフェースを定義する。
// 作品の保存前に使用される。
type DescriptionSanitizerService interface {
	// Sanitize は説明文から全てのHTMLタグを除去したプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はDescriptionSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerServiceの新しいインスタンスを生成する。
// 説明文はプレーンテキストとして扱うため、StrictPolicy（全タグ除去）を使用する。
func NewDescriptionSanitizer() *descriptionSanitizer {
	return &descriptionSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は説明文から全てのHTMLタグを除去したプレーンテキストを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ DescriptionSanitizerService = (*descriptionSanitizer)(nil)
