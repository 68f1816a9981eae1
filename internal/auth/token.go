package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/atelier/internal/model"
)

// トークン検証の失敗理由。
// 外部へのレスポンスはすべて401に集約されるが、
// ログとメトリクスでは理由を区別する。
var (
	// ErrTokenMalformed はトークンの構造が不正であることを示す
	// （セグメント数不正、base64不正、JSONパース不能）。
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenSignatureInvalid は署名の検証に失敗したことを示す。
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	// ErrTokenExpired はトークンの有効期限が過ぎていることを示す。
	ErrTokenExpired = errors.New("token is expired")
)

// Claims はセッショントークンのペイロードを表す。
// ワイヤフォーマットは {"id","email","exp","jti"} で、expはエポック秒。
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager はHMAC-SHA256署名付きセッショントークンの発行と検証を行う。
// 秘密鍵は起動時に設定から読み込まれ、以後変更されない。
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue はユーザーに対するセッショントークンを発行する。
// 発行ごとに一意のトークンID（jti）を付与するため、同一ユーザーへ
// 同一秒内に再発行しても常に異なるトークン文字列になる。
// これによりログアウト直後の再ログインで、失効レコードに記録された
// 旧トークンと新トークンが一致することはない。
func (m *TokenManager) Issue(user *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			ID:        uuid.New().String(),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
// 失敗理由はErrTokenMalformed / ErrTokenSignatureInvalid / ErrTokenExpiredの
// いずれかに分類される。副作用はなく、並行呼び出しに対して安全。
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, fmt.Errorf("%w: %s", ErrTokenMalformed, err)
		}
	}

	if !token.Valid {
		return nil, ErrTokenSignatureInvalid
	}

	return claims, nil
}
