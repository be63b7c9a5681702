package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	RegisterUser(ctx context.Context, u model.User) error
	UserByEmail(ctx context.Context, email string) (model.User, error)
}

type TokenIssuer interface {
	Issue(userID, role, email string) (string, error)
}

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
	logger *slog.Logger
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Role     string `json:"role" validate:"omitempty,oneof=Owner Staff Customer"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userView struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func viewOf(u model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := decode[registerRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to register user.")
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := newUser(role, req.Name, req.Email, req.Password)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to register user.")
		return
	}
	if err := h.users.RegisterUser(r.Context(), u); err != nil {
		writeFailure(w, r, h.logger, emailTaken(err), "Failed to register user.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": viewOf(u)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decode[loginRequest](r)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to log in.")
		return
	}
	u, err := h.users.UserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeFailure(w, r, h.logger, named(err, "User not found"), "Failed to log in.")
		return
	}
	if err := verifyPassword(u.PasswordHash, req.Password); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid password")
		return
	}
	token, err := h.tokens.Issue(u.ID, string(u.Role), u.Email)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to issue token.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    viewOf(u),
		"token":   token,
	})
}

// newUser mints a role-prefixed id and hashes the password.
func newUser(role model.Role, name, email, password string) (model.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           role.IDPrefix() + uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	}, nil
}

func emailTaken(err error) error {
	if isConflict(err) && apperr.Message(err, "") == "" {
		return apperr.Conflict("Email already registered")
	}
	return err
}

func hashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash string, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
