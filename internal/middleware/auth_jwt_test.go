package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	testSecret = "s3cret"
	testIssuer = "fundraiser"
)

func TestSignAndVerifyJWT(t *testing.T) {
	token, err := SignJWT(testSecret, testIssuer, "owner-1", time.Minute)
	if err != nil {
		t.Fatalf("SignJWT() error: %v", err)
	}
	claims, err := VerifyJWT(testSecret, testIssuer, token)
	if err != nil {
		t.Fatalf("VerifyJWT() error: %v", err)
	}
	if claims.Subject != "owner-1" {
		t.Fatalf("subject = %q, want owner-1", claims.Subject)
	}
}

func TestVerifyJWTRejects(t *testing.T) {
	valid, _ := SignJWT(testSecret, testIssuer, "owner-1", time.Minute)
	expired, _ := SignJWT(testSecret, testIssuer, "owner-1", -time.Minute)
	foreign, _ := SignJWT(testSecret, "someone-else", "owner-1", time.Minute)
	noSubject, _ := SignJWT(testSecret, testIssuer, "", time.Minute)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong secret", secret: "other", token: valid},
		{name: "expired", secret: testSecret, token: expired},
		{name: "wrong issuer", secret: testSecret, token: foreign},
		{name: "no subject", secret: testSecret, token: noSubject},
		{name: "garbage", secret: testSecret, token: "a.b.c"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyJWT(tc.secret, testIssuer, tc.token); err == nil {
				t.Fatalf("VerifyJWT() should fail")
			}
		})
	}
}

func TestAuthJWTMiddleware(t *testing.T) {
	var subject string
	h := AuthJWT(testSecret, testIssuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, _ := SignJWT(testSecret, testIssuer, "owner-1", time.Minute)
	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + token, status: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + token, status: http.StatusNoContent},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "basic", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "tampered", header: "Bearer " + token + "x", status: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(http.MethodPost, "/v1/campaigns", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusNoContent && subject != "owner-1" {
				t.Fatalf("subject = %q, want owner-1", subject)
			}
			if tc.status == http.StatusUnauthorized && rec.Header().Get("Content-Type") != "application/problem+json" {
				t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}
