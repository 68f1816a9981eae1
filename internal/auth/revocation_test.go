package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/atelier/internal/model"
)

func TestRevoke_CreatesRecordAndReturnsID(t *testing.T) {
	ctx := context.Background()

	var created *model.RevocationRecord
	repo := &mockRevocationRepo{
		createFn: func(ctx context.Context, record *model.RevocationRecord) error {
			created = record
			return nil
		},
	}
	authority := NewRevocationAuthority(repo, "1")

	recordID, err := authority.Revoke(ctx, "some-token", "user-42")
	if err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if recordID == "" {
		t.Error("expected non-empty record ID")
	}
	if created == nil {
		t.Fatal("expected record to be persisted")
	}
	if created.Token != "some-token" {
		t.Errorf("record token = %q, want %q", created.Token, "some-token")
	}
	if created.UserID != "user-42" {
		t.Errorf("record userID = %q, want %q", created.UserID, "user-42")
	}
}

func TestRevoke_BootstrapUser_IsNoOp(t *testing.T) {
	ctx := context.Background()

	repo := &mockRevocationRepo{
		createFn: func(ctx context.Context, record *model.RevocationRecord) error {
			t.Error("no record should be created for the bootstrap user")
			return nil
		},
	}
	authority := NewRevocationAuthority(repo, "1")

	recordID, err := authority.Revoke(ctx, "some-token", "1")
	if err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if recordID != "" {
		t.Errorf("record ID = %q, want empty for bootstrap user", recordID)
	}
}

func TestRevoke_DuplicateToken_IsIdempotent(t *testing.T) {
	ctx := context.Background()

	var calls int
	repo := &mockRevocationRepo{
		createFn: func(ctx context.Context, record *model.RevocationRecord) error {
			calls++
			return nil
		},
	}
	authority := NewRevocationAuthority(repo, "1")

	// 同一トークンを2回失効させてもエラーにならないこと
	if _, err := authority.Revoke(ctx, "same-token", ""); err != nil {
		t.Fatalf("first Revoke() error = %v", err)
	}
	if _, err := authority.Revoke(ctx, "same-token", ""); err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("repo.Create calls = %d, want 2", calls)
	}
}

func TestRevoke_StoreError_IsPropagated(t *testing.T) {
	ctx := context.Background()

	repo := &mockRevocationRepo{
		createFn: func(ctx context.Context, record *model.RevocationRecord) error {
			return errors.New("db down")
		},
	}
	authority := NewRevocationAuthority(repo, "1")

	if _, err := authority.Revoke(ctx, "some-token", "user-42"); err == nil {
		t.Fatal("expected error when store insert fails")
	}
}

func TestIsUserRevoked_BootstrapUser_AlwaysFalse(t *testing.T) {
	ctx := context.Background()

	repo := &mockRevocationRepo{
		existsByUserIDFn: func(ctx context.Context, userID string) (bool, error) {
			return true, nil
		},
	}
	authority := NewRevocationAuthority(repo, "1")

	revoked, err := authority.IsUserRevoked(ctx, "1")
	if err != nil {
		t.Fatalf("IsUserRevoked() error = %v", err)
	}
	if revoked {
		t.Error("bootstrap user must never be reported as revoked")
	}

	// 通常ユーザーはストアの結果に従う
	revoked, err = authority.IsUserRevoked(ctx, "user-42")
	if err != nil {
		t.Fatalf("IsUserRevoked() error = %v", err)
	}
	if !revoked {
		t.Error("expected normal user to be reported as revoked")
	}
}

func TestIsBootstrapUser(t *testing.T) {
	authority := NewRevocationAuthority(&mockRevocationRepo{}, "1")

	if !authority.IsBootstrapUser("1") {
		t.Error("expected ID 1 to be the bootstrap user")
	}
	if authority.IsBootstrapUser("2") {
		t.Error("ID 2 must not be the bootstrap user")
	}
	if authority.IsBootstrapUser("") {
		t.Error("empty ID must not be the bootstrap user")
	}
}
