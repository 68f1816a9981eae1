// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeEmailExists        = "EMAIL_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidName        = "INVALID_NAME"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeMissingImage       = "MISSING_IMAGE"
	ErrCodeInvalidImageURL    = "INVALID_IMAGE_URL"
)

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "名前、メールアドレス、パスワードは必須です。",
		Category: "validation",
		Action:   "すべての項目を入力してください。",
	}
}

// NewEmailExistsError はメールアドレス重複エラーを生成する。
func NewEmailExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailExists,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致のどちらでも同一のレスポンスを返す
// （ユーザー列挙攻撃への対策として失敗理由を区別しない）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は認可失敗エラーを生成する。
// トークン不正・期限切れ・失効済みのいずれでも同一のレスポンスを返す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewMissingAuthHeaderError はAuthorizationヘッダー欠落・形式不正エラーを生成する。
// スキームは「Bearer <token>」のみを受け付ける。
func NewMissingAuthHeaderError() *APIError {
	return &APIError{
		Code:     "MISSING_AUTH_HEADER",
		Message:  "Authorizationヘッダーがないか、形式が正しくありません。",
		Category: "auth",
		Action:   "「Authorization: Bearer <トークン>」形式でトークンを指定してください。",
	}
}

// NewMissingTokenError はトークン未指定エラーを生成する。
func NewMissingTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingToken,
		Message:  "トークンが指定されていません。",
		Category: "validation",
		Action:   "Authorizationヘッダーまたはリクエストボディでトークンを指定してください。",
	}
}

// NewInvalidNameError は名称欠落エラーを生成する。
func NewInvalidNameError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidName,
		Message:  fmt.Sprintf("%sの名称は必須です。", field),
		Category: "validation",
		Action:   "名称を入力してください。",
	}
}

// NewProductNotFoundError は作品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された作品が見つかりません: %s", productID),
		Category: "catalog",
		Action:   "作品IDを確認してください。",
	}
}

// NewUnsupportedMediaTypeError はコンテントタイプ不正エラーを生成する。
func NewUnsupportedMediaTypeError() *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedMedia,
		Message:  "リクエストボディはmultipart/form-data形式である必要があります。",
		Category: "validation",
		Action:   "Content-Typeヘッダーを確認してください。",
	}
}

// NewMissingImageError は画像未指定エラーを生成する。
func NewMissingImageError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingImage,
		Message:  "画像ファイルが指定されていません。",
		Category: "validation",
		Action:   "imageFileフィールドでファイルを添付するか、imageUrlを指定してください。",
	}
}

// NewInvalidImageURLError は画像URL不正エラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("無効な画像URLです: %s", reason),
		Category: "validation",
		Action:   "公開されているWebサイトの画像URL（http:// または https://）を指定してください。",
	}
}
