package utils

import (
	"errors"
	"testing"
	"time"

	"imageoptimize/models"
)

var testSecret = []byte("test-secret-key-for-jwt-signing-at-least-32-bytes-long")

func sign(t *testing.T, c *models.UploadClaims) string {
	t.Helper()
	token, err := CreateUploadJWT(c, testSecret)
	if err != nil {
		t.Fatalf("CreateUploadJWT: %v", err)
	}
	return token
}

func TestVerifyUploadJWT(t *testing.T) {
	now := time.Now().Unix()
	token := sign(t, &models.UploadClaims{
		Issuer:    "cms",
		Subject:   "editor",
		IssuedAt:  now,
		ExpiresAt: now + 60,
		Volume:    "local",
		Folder:    "blog",
	})

	claims, err := VerifyUploadJWT(token, VerifyConfig{SecretKey: testSecret, ExpectedIssuer: "cms"})
	if err != nil {
		t.Fatalf("VerifyUploadJWT: %v", err)
	}
	if claims.Volume != "local" || claims.Folder != "blog" || claims.Subject != "editor" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerifyUploadJWTRejects(t *testing.T) {
	now := time.Now().Unix()
	tests := []struct {
		name   string
		token  func(t *testing.T) string
		config VerifyConfig
		want   error
	}{
		{
			name:   "empty",
			token:  func(t *testing.T) string { return "" },
			config: VerifyConfig{SecretKey: testSecret},
			want:   ErrInvalidToken,
		},
		{
			name:   "garbage",
			token:  func(t *testing.T) string { return "not.a.jwt" },
			config: VerifyConfig{SecretKey: testSecret},
			want:   ErrInvalidToken,
		},
		{
			name:   "expired",
			token:  func(t *testing.T) string { return sign(t, &models.UploadClaims{ExpiresAt: now - 3600}) },
			config: VerifyConfig{SecretKey: testSecret},
			want:   ErrTokenExpired,
		},
		{
			name:   "future",
			token:  func(t *testing.T) string { return sign(t, &models.UploadClaims{IssuedAt: now + 3600}) },
			config: VerifyConfig{SecretKey: testSecret},
			want:   ErrTokenNotYetValid,
		},
		{
			name:   "wrong secret",
			token:  func(t *testing.T) string { return sign(t, &models.UploadClaims{}) },
			config: VerifyConfig{SecretKey: []byte("another-secret-key-that-is-long-enough-too")},
			want:   ErrInvalidSignature,
		},
		{
			name:   "issuer",
			token:  func(t *testing.T) string { return sign(t, &models.UploadClaims{Issuer: "someone"}) },
			config: VerifyConfig{SecretKey: testSecret, ExpectedIssuer: "cms"},
			want:   ErrInvalidIssuer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyUploadJWT(tt.token(t), tt.config)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
