// Package auth はパスワード検証、トークン発行・検証、失効管理を提供する。
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はbcryptによるパスワードのハッシュ化と照合を行う。
// ソルトはbcryptがハッシュ文字列に埋め込むため、別途保存する必要はない。
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher はPasswordHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使用する。
// DummyVerify用のダミーハッシュもここで生成する。実ユーザーの照合と
// 同じcostでなければ、所要時間の差からユーザーの有無が推測できてしまう。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("timing-equalizer"), cost)
	if err != nil {
		// costは直前に範囲内へ丸めているため、ここには到達しない
		panic(fmt.Sprintf("failed to generate dummy hash: %v", err))
	}
	return &PasswordHasher{cost: cost, dummyHash: dummyHash}
}

// Hash はパスワードをハッシュ化する。
// ランダムなソルトを含むため、同一パスワードでも呼び出しごとに異なるハッシュを返す。
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はパスワード候補と保存済みハッシュを照合する。
// 不一致・ハッシュ形式不正のいずれもfalseを返し、エラーにはしない。
// 認証経路で「ハッシュが壊れている」ことと「パスワードが違う」ことを
// 区別できてはならないため。
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyVerify は存在しないユーザーに対するログイン試行の所要時間を
// 実在ユーザーのパスワード照合と揃えるためのダミー照合を行う。
// 設定されたcostで生成済みのハッシュに対して照合を1回実行する。
// 結果は常に不一致。
func (h *PasswordHasher) DummyVerify() {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte("timing-equalizer-candidate"))
}
