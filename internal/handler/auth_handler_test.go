package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/atelier/internal/auth"
	"github.com/hitoshi/atelier/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn  func(ctx context.Context, name, email, password string) (*model.User, error)
	loginFn     func(ctx context.Context, email, password string) (string, *model.User, error)
	logoutFn    func(ctx context.Context, token string) error
	checkAuthFn func(ctx context.Context, token string) (*model.UserSummary, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return &model.User{ID: "user-1", Name: name, Email: email}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "token-abc", &model.User{ID: "user-1", Email: email}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) CheckAuth(ctx context.Context, token string) (*model.UserSummary, error) {
	if m.checkAuthFn != nil {
		return m.checkAuthFn(ctx, token)
	}
	return &model.UserSummary{ID: "user-1"}, nil
}

type mockAuthMetricsRecorder struct {
	loginSuccesses int
	loginFailures  int
	registrations  int
	revocations    int
}

func (m *mockAuthMetricsRecorder) RecordLoginSuccess() { m.loginSuccesses++ }
func (m *mockAuthMetricsRecorder) RecordLoginFailure() { m.loginFailures++ }
func (m *mockAuthMetricsRecorder) RecordRegistration() { m.registrations++ }
func (m *mockAuthMetricsRecorder) RecordRevocation()   { m.revocations++ }

// --- compile-time interface checks ---
var _ AuthServiceInterface = (*mockAuthService)(nil)
var _ AuthMetricsRecorder = (*mockAuthMetricsRecorder)(nil)

// --- テスト ---

func TestRegister_ValidRequest_Returns201(t *testing.T) {
	metrics := &mockAuthMetricsRecorder{}
	h := NewAuthHandler(&mockAuthService{}, metrics)

	body := `{"name":"Hana","email":"hana@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object in response, got %v", resp)
	}
	if user["email"] != "hana@example.com" {
		t.Errorf("user email = %v, want %q", user["email"], "hana@example.com")
	}
	// パスワードやハッシュがレスポンスに含まれないこと
	if _, ok := user["password"]; ok {
		t.Error("response must not contain password")
	}
	if metrics.registrations != 1 {
		t.Errorf("registrations = %d, want 1", metrics.registrations)
	}
}

func TestRegister_MissingFields_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	for _, body := range []string{
		`{}`,
		`{"name":"Hana"}`,
		`{"name":"Hana","email":"hana@example.com"}`,
		`{"name":"  ","email":"hana@example.com","password":"secret123"}`,
		`{"name":"Hana","email":"hana@example.com","password":"   "}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Register(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

// TestRegister_PasswordPassedVerbatim はパスワードがトリムされずに
// そのままサービスへ渡されることを検証する。
// 登録時だけ空白を除去すると、同じ文字列でログインできなくなる。
func TestRegister_PasswordPassedVerbatim(t *testing.T) {
	var received string
	h := NewAuthHandler(&mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
			received = password
			return &model.User{ID: "user-1", Name: name, Email: email}, nil
		},
	}, nil)

	body := `{"name":"Hana","email":"hana@example.com","password":" pw123 "}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if received != " pw123 " {
		t.Errorf("service received password %q, want %q", received, " pw123 ")
	}
}

func TestRegister_DuplicateEmail_Returns409(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
			return nil, auth.ErrEmailExists
		},
	}
	h := NewAuthHandler(svc, nil)

	body := `{"name":"Hana","email":"dup@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != model.ErrCodeEmailExists {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeEmailExists)
	}
}

func TestLogin_ValidCredentials_ReturnsToken(t *testing.T) {
	metrics := &mockAuthMetricsRecorder{}
	h := NewAuthHandler(&mockAuthService{}, metrics)

	body := `{"email":"hana@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["token"] != "token-abc" {
		t.Errorf("token = %v, want %q", resp["token"], "token-abc")
	}
	if metrics.loginSuccesses != 1 {
		t.Errorf("login successes = %d, want 1", metrics.loginSuccesses)
	}
}

func TestLogin_MissingFields_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	for _, body := range []string{`{}`, `{"email":"a@example.com"}`, `{"password":"x"}`} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Login(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestLogin_FailureResponses_AreByteIdentical(t *testing.T) {
	// ユーザー不在とパスワード不一致はサービス層で同一エラーに
	// 潰されている。その前提でハンドラーのレスポンスが同一になること
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *model.User, error) {
			return "", nil, auth.ErrInvalidCredentials
		},
	}
	metrics := &mockAuthMetricsRecorder{}
	h := NewAuthHandler(svc, metrics)

	doLogin := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.Login(w, req)
		return w
	}

	recUnknown := doLogin(`{"email":"nobody@example.com","password":"whatever"}`)
	recWrongPass := doLogin(`{"email":"hana@example.com","password":"wrong"}`)

	if recUnknown.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", recUnknown.Code, http.StatusUnauthorized)
	}
	if !bytes.Equal(recUnknown.Body.Bytes(), recWrongPass.Body.Bytes()) {
		t.Errorf("login failure responses must be byte-identical:\n%s\n%s",
			recUnknown.Body.String(), recWrongPass.Body.String())
	}
	if metrics.loginFailures != 2 {
		t.Errorf("login failures = %d, want 2", metrics.loginFailures)
	}
}

func TestLogout_TokenFromHeader_Returns200(t *testing.T) {
	var revokedToken string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			revokedToken = token
			return nil
		},
	}
	metrics := &mockAuthMetricsRecorder{}
	h := NewAuthHandler(svc, metrics)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if revokedToken != "header-token" {
		t.Errorf("revoked token = %q, want %q", revokedToken, "header-token")
	}
	if metrics.revocations != 1 {
		t.Errorf("revocations = %d, want 1", metrics.revocations)
	}
}

func TestLogout_TokenFromBody_Returns200(t *testing.T) {
	var revokedToken string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			revokedToken = token
			return nil
		},
	}
	h := NewAuthHandler(svc, nil)

	// ヘッダーがない場合はボディのtokenフィールドにフォールバック
	body := `{"token":"body-token"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if revokedToken != "body-token" {
		t.Errorf("revoked token = %q, want %q", revokedToken, "body-token")
	}
}

func TestLogout_NoToken_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != model.ErrCodeMissingToken {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeMissingToken)
	}
}

func TestCheck_ValidToken_ReturnsAllowedTrue(t *testing.T) {
	svc := &mockAuthService{
		checkAuthFn: func(ctx context.Context, token string) (*model.UserSummary, error) {
			return &model.UserSummary{ID: "user-1", Name: "Hana", Email: "hana@example.com"}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	h.Check(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["allowed"] != true {
		t.Errorf("allowed = %v, want true", resp["allowed"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "user-1" {
		t.Errorf("unexpected user in response: %v", resp["user"])
	}
}

func TestCheck_RejectedToken_ReturnsAllowedFalse(t *testing.T) {
	svc := &mockAuthService{
		checkAuthFn: func(ctx context.Context, token string) (*model.UserSummary, error) {
			return nil, auth.ErrTokenRejected
		},
	}
	h := NewAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	req.Header.Set("Authorization", "Bearer rejected-token")
	w := httptest.NewRecorder()

	h.Check(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["allowed"] != false {
		t.Errorf("allowed = %v, want false", resp["allowed"])
	}
}

func TestCheck_MissingHeader_ReturnsAllowedFalse(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	w := httptest.NewRecorder()

	h.Check(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
