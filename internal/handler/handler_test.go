package handler

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/breemind-dev/breemind/internal/config"
	"github.com/breemind-dev/breemind/internal/domain"
	internal_errors "github.com/breemind-dev/breemind/internal/errors"
)

func createRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/verify-email", h.VerifyEmail)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})
	return r
}

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		EmailVerificationTTL: 24 * time.Hour,
		PasswordResetTTL:     time.Hour,
		SessionTTL:           time.Hour,
		PasswordMinLength:    8,
	}}
}

// --- Mocks ---

type MockAuthService struct {
	CreateUserFunc                     func(email, pass, username, name string) (domain.User, error)
	AuthenticateFunc                   func(email, pass string) (domain.User, error)
	GenerateEmailVerificationTokenFunc func(user domain.User) string
	VerifyEmailTokenFunc               func(token string) (domain.User, error)
	VerifyEmailFunc                    func(user domain.User) (domain.User, error)
	GeneratePasswordResetTokenFunc     func(user domain.User) string
	VerifyPasswordResetTokenFunc       func(token string) (domain.User, error)
	ResetPasswordFunc                  func(user domain.User, newPassword string) (domain.User, error)
	UserByEmailFunc                    func(email string) (domain.User, error)
}

func (m *MockAuthService) CreateUser(email domain.Email, pass, username, name string) (domain.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(email, pass, username, name)
	}
	return domain.User{Id: 1, Email: email, Username: username, Name: name}, nil
}

func (m *MockAuthService) Authenticate(email domain.Email, pass string) (domain.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(email, pass)
	}
	return domain.User{Id: 1, Email: email, IsActive: true}, nil
}

func (m *MockAuthService) GenerateEmailVerificationToken(user domain.User) string {
	if m.GenerateEmailVerificationTokenFunc != nil {
		return m.GenerateEmailVerificationTokenFunc(user)
	}
	return "verification-token"
}

func (m *MockAuthService) VerifyEmailToken(token string) (domain.User, error) {
	if m.VerifyEmailTokenFunc != nil {
		return m.VerifyEmailTokenFunc(token)
	}
	return domain.User{Id: 1}, nil
}

func (m *MockAuthService) VerifyEmail(user domain.User) (domain.User, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(user)
	}
	user.IsActive = true
	user.EmailVerified = true
	return user, nil
}

func (m *MockAuthService) GeneratePasswordResetToken(user domain.User) string {
	if m.GeneratePasswordResetTokenFunc != nil {
		return m.GeneratePasswordResetTokenFunc(user)
	}
	return "reset-token"
}

func (m *MockAuthService) VerifyPasswordResetToken(token string) (domain.User, error) {
	if m.VerifyPasswordResetTokenFunc != nil {
		return m.VerifyPasswordResetTokenFunc(token)
	}
	return domain.User{Id: 1}, nil
}

func (m *MockAuthService) ResetPassword(user domain.User, newPassword string) (domain.User, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(user, newPassword)
	}
	return user, nil
}

func (m *MockAuthService) UserByEmail(email domain.Email) (domain.User, error) {
	if m.UserByEmailFunc != nil {
		return m.UserByEmailFunc(email)
	}
	return domain.User{}, internal_errors.NotFound("User not found")
}

type MockMailer struct {
	SendFunc func(recipientEmail, subject, body string) error
}

func (m *MockMailer) Send(recipientEmail, subject, body string) error {
	if m.SendFunc != nil {
		return m.SendFunc(recipientEmail, subject, body)
	}
	return nil
}

type MockIssuer struct {
	NewTokenFunc func(user domain.User) (string, error)
}

func (m *MockIssuer) NewToken(user domain.User) (string, error) {
	if m.NewTokenFunc != nil {
		return m.NewTokenFunc(user)
	}
	return "session-token", nil
}

func (m *MockIssuer) DecodeToken(jwtStr string) (*jwt.Token, error) {
	return nil, nil
}
