package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
)

// ErrEmailExists は登録済みメールアドレスでの再登録を示す。
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidCredentials は認証失敗を示す。
// ユーザー不在とパスワード不一致を区別しない。
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrTokenRejected はトークンが受理されなかったことを示す。
// 検証失敗と失効済みを区別しない（呼び出し側が区別できてはならない）。
var ErrTokenRejected = errors.New("token rejected")

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BootstrapUserID string // 最初に登録されたユーザーに割り当てる特別なID
}

// Service は登録・ログイン・ログアウトのビジネスロジックを提供する。
type Service struct {
	userRepo   repository.UserRepository
	hasher     *PasswordHasher
	tokens     *TokenManager
	revocation *RevocationAuthority
	config     ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenManager,
	revocation *RevocationAuthority,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:   userRepo,
		hasher:     hasher,
		tokens:     tokens,
		revocation: revocation,
		config:     config,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスが登録済みの場合はErrEmailExistsを返す。
// 最初に登録されたユーザーにはブートストラップIDを割り当てる
// （シードアカウントとして失効対象外になる）。
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	// 1. メールアドレスの重複チェック
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	// 2. パスワードのハッシュ化
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. ユーザーIDの採番（最初のユーザーのみブートストラップID）
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	userID := uuid.New().String()
	if count == 0 {
		userID = s.config.BootstrapUserID
	}

	now := time.Now()
	user := &model.User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateKey) && user.ID == s.config.BootstrapUserID {
		// 同時登録レースでブートストラップIDの採番に敗れた場合は
		// 通常IDで1回だけ再試行する。それでも衝突するなら
		// メールアドレスの重複として扱う。
		user.ID = uuid.New().String()
		err = s.userRepo.Create(ctx, user)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
// ユーザーが存在しない場合でもダミーのパスワード照合を実行し、
// 応答時間から存在の有無を推測できないようにする。
// どちらの失敗でも同一のErrInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		s.hasher.DummyVerify()
		return "", nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return token, user, nil
}

// CheckAuth はトークンの署名・有効期限・失効状態を確認し、
// 有効な場合はユーザーサマリを返す。
// どの段階で拒否されたかはErrTokenRejectedに集約され、呼び出し側からは区別できない。
func (s *Service) CheckAuth(ctx context.Context, token string) (*model.UserSummary, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenRejected, err)
	}

	// ブートストラップユーザーは失効チェックをバイパス
	if !s.revocation.IsBootstrapUser(claims.UserID) {
		tokenRevoked, err := s.revocation.IsTokenRevoked(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		userRevoked, err := s.revocation.IsUserRevoked(ctx, claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check user revocation: %w", err)
		}
		if tokenRevoked || userRevoked {
			return nil, ErrTokenRejected
		}
	}

	// 表示名はクレームに含まれないため、ユーザーレコードから補完する
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrTokenRejected
	}

	summary := user.Summary()
	return &summary, nil
}

// Logout はトークンを失効させる。
// トークンが無効・期限切れでもレコードを作成する（冪等なログアウト）。
// ログアウトはトークン単位の失効のみを行う。ユーザー単位の失効は
// 管理操作（RevocationAuthority.Revoke）でのみ作成される。
func (s *Service) Logout(ctx context.Context, token string) error {
	var userID string
	if claims, err := s.tokens.Verify(token); err == nil {
		userID = claims.UserID
	}

	// ブートストラップユーザーのトークンは失効させられない
	if userID != "" && s.revocation.IsBootstrapUser(userID) {
		slog.Info("logout for bootstrap user, revocation skipped")
		return nil
	}

	if _, err := s.revocation.Revoke(ctx, token, ""); err != nil {
		return fmt.Errorf("failed to revoke token on logout: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", userID))
	return nil
}
