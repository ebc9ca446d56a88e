package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/config"
	"github.com/formworks/formworks-server/internal/models"
)

func testManager(ttl time.Duration) *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  ttl,
		RefreshTokenTTL: ttl,
	})
}

func TestTokenPairRoundTrip(t *testing.T) {
	m := testManager(time.Minute)

	tenantID := uuid.New()
	user := &models.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		TenantID: &tenantID,
	}

	access, refresh, err := m.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	claims, err := m.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("UserID = %s, want %s", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.TenantID == nil || *claims.TenantID != tenantID {
		t.Errorf("TenantID = %v, want %s", claims.TenantID, tenantID)
	}

	subject, err := m.ParseRefreshToken(refresh)
	if err != nil {
		t.Fatalf("ParseRefreshToken: %v", err)
	}
	if subject != user.ID {
		t.Errorf("subject = %s, want %s", subject, user.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := testManager(time.Minute)
	access, _, err := m.GenerateTokenPair(&models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	other := NewJWTManager(&config.JWTConfig{Secret: "different", AccessTokenTTL: time.Minute})
	if _, err := other.ValidateToken(access); err == nil {
		t.Error("token signed with another secret should fail validation")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	m := testManager(-time.Minute)
	access, _, err := m.GenerateTokenPair(&models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	if _, err := m.ValidateToken(access); err == nil {
		t.Error("expired token should fail validation")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	m := testManager(time.Minute)
	if _, err := m.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token should fail validation")
	}
}
