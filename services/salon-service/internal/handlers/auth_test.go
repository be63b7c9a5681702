package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
)

func TestPasswordHashing(t *testing.T) {
	password := "Pass123!"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	reg := map[string]any{"name": "Rina", "email": "Rina@Example.com", "password": "Secret1!"}

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", reg)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		User userView `json:"user"`
	}
	decodeBody(t, rec, &created)
	if created.User.Role != model.RoleCustomer || !strings.HasPrefix(created.User.ID, "user-") {
		t.Fatalf("expected customer user, got %+v", created.User)
	}
	if _, ok := e.store.customers[created.User.ID]; !ok {
		t.Fatal("expected customer row")
	}
	if strings.Contains(rec.Body.String(), "Secret1!") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rec.Body)
	}

	if rec := e.do(t, http.MethodPost, "/api/auth/register", "", reg); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "rina@example.com", "password": "Secret1!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var login struct {
		Message string   `json:"message"`
		User    userView `json:"user"`
		Token   string   `json:"token"`
	}
	decodeBody(t, rec, &login)
	claims, err := e.signer.Verify(login.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject() != created.User.ID || claims.UserRole != "Customer" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	rec = e.do(t, http.MethodGet, "/api/customer/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected customer profile, got %d", rec.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ghost@example.com", "password": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}

	e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"name": "Sam", "email": "sam@example.com", "password": "Secret1!", "role": "Owner"})
	rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "sam@example.com", "password": "Wrong1!!"})
	var body messageBody
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusBadRequest || body.Message != "Invalid password" {
		t.Fatalf("expected 400 Invalid password, got %d %q", rec.Code, body.Message)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"name": "A", "email": "a@example.com", "password": "weak"})
	var body validationBody
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusBadRequest || len(body.Errors) != 1 || body.Errors[0].Field != "password" {
		t.Fatalf("expected password error, got %d %+v", rec.Code, body)
	}
}
