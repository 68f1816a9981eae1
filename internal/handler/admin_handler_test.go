package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockRevocationAuthority struct {
	revokeFn func(ctx context.Context, token, userID string) (string, error)
}

func (m *mockRevocationAuthority) Revoke(ctx context.Context, token, userID string) (string, error) {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, token, userID)
	}
	return "record-1", nil
}

var _ RevocationAuthorityInterface = (*mockRevocationAuthority)(nil)

func TestAdminRevoke_TokenOnly_Returns201(t *testing.T) {
	var gotToken, gotUserID string
	authority := &mockRevocationAuthority{
		revokeFn: func(ctx context.Context, token, userID string) (string, error) {
			gotToken = token
			gotUserID = userID
			return "record-1", nil
		},
	}
	metrics := &mockAuthMetricsRecorder{}
	h := NewAdminHandler(authority, metrics)

	body := `{"token":"some-token"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/revocations", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Revoke(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotToken != "some-token" {
		t.Errorf("token = %q, want %q", gotToken, "some-token")
	}
	if gotUserID != "" {
		t.Errorf("userID = %q, want empty", gotUserID)
	}
	if metrics.revocations != 1 {
		t.Errorf("revocations = %d, want 1", metrics.revocations)
	}
}

func TestAdminRevoke_UserWide_Returns201(t *testing.T) {
	var gotUserID string
	authority := &mockRevocationAuthority{
		revokeFn: func(ctx context.Context, token, userID string) (string, error) {
			gotUserID = userID
			return "record-2", nil
		},
	}
	h := NewAdminHandler(authority, nil)

	// userIdのみの指定でユーザー単位の失効となる
	body := `{"userId":"user-42"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/revocations", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Revoke(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotUserID != "user-42" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-42")
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["record_id"] != "record-2" {
		t.Errorf("record_id = %v, want %q", resp["record_id"], "record-2")
	}
}

func TestAdminRevoke_BootstrapUser_SucceedsWithoutRecord(t *testing.T) {
	// ブートストラップユーザーへの失効はレコードを作らず空IDを返す
	authority := &mockRevocationAuthority{
		revokeFn: func(ctx context.Context, token, userID string) (string, error) {
			return "", nil
		},
	}
	metrics := &mockAuthMetricsRecorder{}
	h := NewAdminHandler(authority, metrics)

	body := `{"userId":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/revocations", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Revoke(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	// レコードが作られなかった場合はメトリクスを記録しない
	if metrics.revocations != 0 {
		t.Errorf("revocations = %d, want 0", metrics.revocations)
	}
}

func TestAdminRevoke_MissingBoth_Returns400(t *testing.T) {
	h := NewAdminHandler(&mockRevocationAuthority{}, nil)

	for _, body := range []string{`{}`, `{"token":"  ","userId":""}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/revocations", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Revoke(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestAdminRevoke_StoreError_Returns500(t *testing.T) {
	authority := &mockRevocationAuthority{
		revokeFn: func(ctx context.Context, token, userID string) (string, error) {
			return "", errors.New("db down")
		},
	}
	h := NewAdminHandler(authority, nil)

	body := `{"token":"some-token"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/revocations", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Revoke(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// 内部エラーの詳細がレスポンスに漏れないこと
	if strings.Contains(resp.Message, "db down") {
		t.Error("internal error details must not leak into the response")
	}
	if resp.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", resp.Code, "INTERNAL_ERROR")
	}
}

func TestInfo_ReturnsServiceMetadata(t *testing.T) {
	h := NewInfoHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	w := httptest.NewRecorder()

	h.Info(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["service"] != "atelier" {
		t.Errorf("service = %v, want %q", resp["service"], "atelier")
	}
}

type mockHealthChecker struct {
	pingFn func(ctx context.Context) error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func TestHealth_DatabaseReachable_Returns200(t *testing.T) {
	h := NewInfoHandler(&mockHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHealth_DatabaseDown_Returns503(t *testing.T) {
	h := NewInfoHandler(&mockHealthChecker{
		pingFn: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}
