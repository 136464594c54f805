package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"campaign-platform/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		Issuer:          "issuer",
		Audience:        "aud",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

var alice = Principal{UserID: "user-1", Email: "alice@example.com"}

func TestNewManager_FailsFastOnMissingSecrets(t *testing.T) {
	cases := []config.AuthConfig{
		{RefreshSecret: "r", AccessTokenTTL: time.Hour, RefreshTokenTTL: 2 * time.Hour},
		{AccessSecret: "a", AccessTokenTTL: time.Hour, RefreshTokenTTL: 2 * time.Hour},
		{AccessSecret: "same", RefreshSecret: "same", AccessTokenTTL: time.Hour, RefreshTokenTTL: 2 * time.Hour},
	}
	for i, c := range cases {
		if _, err := NewManager(c); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestIssueAndVerifyAccessToken_WithTenant(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.IssueAccessToken(now, Principal{UserID: "user-1", Email: "alice@example.com", IsSuperAdmin: true}, "tenant-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.VerifyAccessToken(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" || !claims.IsSuperAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Tenant() != "tenant-1" {
		t.Fatalf("expected tenant-1, got %q", claims.Tenant())
	}
}

func TestIssueAndVerifyAccessToken_WithoutTenant(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.IssueAccessToken(now, alice, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.VerifyAccessToken(tok, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.TenantID != nil {
		t.Fatalf("expected null tenant, got %q", *claims.TenantID)
	}
}

func TestVerifyAccessToken_RejectsExpired(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.IssueAccessToken(now, alice, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.VerifyAccessToken(tok, now.Add(time.Hour+clockSkew+time.Second)); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_ToleratesClockSkew(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	// Issued by an instance whose clock runs 10s ahead.
	tok, err := m.IssueAccessToken(now.Add(10*time.Second), alice, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.VerifyAccessToken(tok, now); err != nil {
		t.Fatalf("expected token within skew to verify, got %v", err)
	}

	tok, err = m.IssueAccessToken(now.Add(2*time.Minute), alice, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.VerifyAccessToken(tok, now); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for token issued in the future, got %v", err)
	}

	tok, err = m.IssueAccessToken(now, alice, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.VerifyAccessToken(tok, now.Add(time.Hour+10*time.Second)); err != nil {
		t.Fatalf("expected token just past expiry to verify within skew, got %v", err)
	}
}

func TestVerifyRefreshToken_ExpiresAfterSevenDays(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.IssueRefreshToken(now, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.VerifyRefreshToken(tok, now.Add(6*24*time.Hour))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected user: %q", claims.UserID)
	}
	if _, err := m.VerifyRefreshToken(tok, now.Add(7*24*time.Hour+clockSkew+time.Second)); err != ErrInvalidToken {
		t.Fatalf("expected expiry rejection, got %v", err)
	}
}

func TestVerify_RejectsCrossedTokenClasses(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	access, _ := m.IssueAccessToken(now, alice, "")
	refresh, _ := m.IssueRefreshToken(now, alice.UserID)

	if _, err := m.VerifyAccessToken(refresh, now); err != ErrInvalidToken {
		t.Fatalf("refresh token must not verify as access token")
	}
	if _, err := m.VerifyRefreshToken(access, now); err != ErrInvalidToken {
		t.Fatalf("access token must not verify as refresh token")
	}
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	m := testManager(t)
	other, err := NewManager(config.AuthConfig{
		AccessSecret:    "other-access",
		RefreshSecret:   "other-refresh",
		Issuer:          "issuer",
		Audience:        "aud",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	now := time.Now()
	tok, _ := other.IssueAccessToken(now, alice, "")
	if _, err := m.VerifyAccessToken(tok, now); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := m.VerifyAccessToken("not.a.jwt", now); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestIssueRefreshToken_UniquePerCall(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()
	a, _ := m.IssueRefreshToken(now, "user-1")
	b, _ := m.IssueRefreshToken(now, "user-1")
	if a == b {
		t.Fatalf("expected distinct refresh tokens")
	}
}

func TestExtractBearerToken(t *testing.T) {
	if tok, ok := ExtractBearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("expected abc, got %q %v", tok, ok)
	}
	for _, h := range []string{"abc", "", "Basic abc", "bearer abc", "Bearer ", "Bearer    "} {
		if _, ok := ExtractBearerToken(h); ok {
			t.Fatalf("expected no token for %q", h)
		}
	}
}

func TestAccessClaims_PayloadShape(t *testing.T) {
	m := testManager(t)
	tok, _ := m.IssueAccessToken(time.Now(), alice, "")

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact JWS, got %d parts", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	for _, want := range []string{`"userId":"user-1"`, `"email":"alice@example.com"`, `"tenantId":null`, `"isSuperAdmin":false`} {
		if !strings.Contains(string(payload), want) {
			t.Fatalf("payload %s missing %s", payload, want)
		}
	}
}
