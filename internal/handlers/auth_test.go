package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"slackpulse-backend/internal/middleware"
)

func newTestAuthHandler(t *testing.T, password string) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return NewAuthHandler(middleware.NewJWTAuth("test-secret"), "admin@example.com", string(hash))
}

func doLogin(h *AuthHandler, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	return rr
}

func TestLoginSuccess(t *testing.T) {
	h := newTestAuthHandler(t, "CorrectHorse9!")

	rr := doLogin(h, "admin@example.com", "CorrectHorse9!")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["access_token"] == "" {
		t.Error("Expected access_token in response")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newTestAuthHandler(t, "CorrectHorse9!")

	rr := doLogin(h, "admin@example.com", "wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	h := newTestAuthHandler(t, "CorrectHorse9!")

	rr := doLogin(h, "someone@else.com", "CorrectHorse9!")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
}

func TestLoginMalformedBody(t *testing.T) {
	h := newTestAuthHandler(t, "CorrectHorse9!")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte("{not-json")))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}
