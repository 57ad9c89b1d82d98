package service

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breemind-dev/breemind/internal/config"
	"github.com/breemind-dev/breemind/internal/domain"
	internal_errors "github.com/breemind-dev/breemind/internal/errors"
	"github.com/breemind-dev/breemind/internal/password"
	"github.com/breemind-dev/breemind/internal/signing"
)

// --- Mocks ---

type MockUserStorage struct {
	SaveUserFunc          func(user domain.User) (domain.UserId, error)
	UserByEmailFunc       func(email domain.Email) (domain.User, error)
	UserByUsernameFunc    func(username domain.Username) (domain.User, error)
	UserByIdFunc          func(id domain.UserId) (domain.User, error)
	UpdatePasswordFunc    func(id domain.UserId, passHash string) error
	MarkEmailVerifiedFunc func(id domain.UserId, verifiedAt time.Time) error
}

func (m *MockUserStorage) SaveUser(user domain.User) (domain.UserId, error) {
	if m.SaveUserFunc != nil {
		return m.SaveUserFunc(user)
	}
	return 1, nil
}

func (m *MockUserStorage) UserByEmail(email domain.Email) (domain.User, error) {
	if m.UserByEmailFunc != nil {
		return m.UserByEmailFunc(email)
	}
	// Default: Not found
	return domain.User{}, internal_errors.NotFound("User not found")
}

func (m *MockUserStorage) UserByUsername(username domain.Username) (domain.User, error) {
	if m.UserByUsernameFunc != nil {
		return m.UserByUsernameFunc(username)
	}
	return domain.User{}, internal_errors.NotFound("User not found")
}

func (m *MockUserStorage) UserById(id domain.UserId) (domain.User, error) {
	if m.UserByIdFunc != nil {
		return m.UserByIdFunc(id)
	}
	return domain.User{}, internal_errors.NotFound("User not found")
}

func (m *MockUserStorage) UpdatePassword(id domain.UserId, passHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(id, passHash)
	}
	return nil
}

func (m *MockUserStorage) MarkEmailVerified(id domain.UserId, verifiedAt time.Time) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(id, verifiedAt)
	}
	return nil
}

func newTestAuth(storage *MockUserStorage) *Auth {
	cfg := &config.Public{
		EmailVerificationTTL: 24 * time.Hour,
		PasswordResetTTL:     time.Hour,
		PasswordMinLength:    8,
	}
	return NewAuth(
		storage,
		signing.New("test-signing-key"),
		&password.DefaultPolicy{MinLength: cfg.PasswordMinLength},
		password.Bcrypt{},
		cfg,
	)
}

func assertStatusAndField(t *testing.T, err error, status int, field string) *internal_errors.ErrorWithStatusCode {
	t.Helper()
	var errWithStatus *internal_errors.ErrorWithStatusCode
	require.True(t, errors.As(err, &errWithStatus), "expected ErrorWithStatusCode, got %v", err)
	assert.Equal(t, status, errWithStatus.StatusCode)
	assert.Equal(t, field, errWithStatus.Field)
	return errWithStatus
}

// --- CreateUser ---

func TestCreateUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		storage := &MockUserStorage{}
		var saved domain.User
		storage.SaveUserFunc = func(user domain.User) (domain.UserId, error) {
			saved = user
			return 7, nil
		}
		service := newTestAuth(storage)

		user, err := service.CreateUser("a@x.com", "StrongPass123", "alice", "Alice")

		require.NoError(t, err)
		assert.Equal(t, int64(7), user.Id)
		assert.Equal(t, "a@x.com", user.Email)
		assert.False(t, user.IsActive, "new users start inactive")
		assert.False(t, user.EmailVerified)
		assert.NotEqual(t, "StrongPass123", saved.PassHash, "password must be stored hashed")
		require.NoError(t, password.Bcrypt{}.Compare(saved.PassHash, "StrongPass123"))
	})

	t.Run("email taken", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) {
				return domain.User{Id: 1, Email: email}, nil
			},
		}
		service := newTestAuth(storage)

		_, err := service.CreateUser("a@x.com", "StrongPass123", "alice", "")

		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusConflict, "email")
	})

	t.Run("username taken", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByUsernameFunc: func(username domain.Username) (domain.User, error) {
				return domain.User{Id: 1, Username: username}, nil
			},
		}
		service := newTestAuth(storage)

		_, err := service.CreateUser("a@x.com", "StrongPass123", "alice", "")

		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusConflict, "username")
	})

	t.Run("weak password", func(t *testing.T) {
		saveCalled := false
		storage := &MockUserStorage{
			SaveUserFunc: func(user domain.User) (domain.UserId, error) {
				saveCalled = true
				return 1, nil
			},
		}
		service := newTestAuth(storage)

		_, err := service.CreateUser("a@x.com", "short", "alice", "")

		require.Error(t, err)
		e := assertStatusAndField(t, err, http.StatusBadRequest, "")
		assert.NotEmpty(t, e.Errors, "policy violations should be carried in the error")
		assert.False(t, saveCalled, "nothing should be persisted on policy failure")
	})

	t.Run("storage conflict on racing insert", func(t *testing.T) {
		// Pre-checks pass, the insert itself loses the race.
		storage := &MockUserStorage{
			SaveUserFunc: func(user domain.User) (domain.UserId, error) {
				return -1, internal_errors.Conflict("User with this email already exists", "email")
			},
		}
		service := newTestAuth(storage)

		_, err := service.CreateUser("a@x.com", "StrongPass123", "alice", "")

		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusConflict, "email")
	})

	t.Run("storage error propagates", func(t *testing.T) {
		mockError := errors.New("mock storage error")
		storage := &MockUserStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) {
				return domain.User{}, mockError
			},
		}
		service := newTestAuth(storage)

		_, err := service.CreateUser("a@x.com", "StrongPass123", "alice", "")

		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})
}

// --- Authenticate ---

func TestAuthenticate(t *testing.T) {
	passHash, err := password.Bcrypt{}.Hash("StrongPass123")
	require.NoError(t, err)

	activeUser := domain.User{Id: 1, Email: "a@x.com", PassHash: passHash, IsActive: true}

	t.Run("success", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) { return activeUser, nil },
		}
		service := newTestAuth(storage)

		user, err := service.Authenticate("a@x.com", "StrongPass123")

		require.NoError(t, err)
		assert.Equal(t, activeUser.Id, user.Id)
	})

	t.Run("unknown email", func(t *testing.T) {
		service := newTestAuth(&MockUserStorage{})

		_, err := service.Authenticate("nobody@x.com", "StrongPass123")

		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusUnauthorized, "email")
	})

	t.Run("wrong password", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) { return activeUser, nil },
		}
		service := newTestAuth(storage)

		_, err := service.Authenticate("a@x.com", "WrongPass123")

		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusUnauthorized, "password")
	})

	t.Run("inactive account gates login", func(t *testing.T) {
		inactive := activeUser
		inactive.IsActive = false
		storage := &MockUserStorage{
			UserByEmailFunc: func(email domain.Email) (domain.User, error) { return inactive, nil },
		}
		service := newTestAuth(storage)

		_, err := service.Authenticate("a@x.com", "StrongPass123")

		require.Error(t, err)
		e := assertStatusAndField(t, err, http.StatusForbidden, "email")
		assert.Contains(t, e.Message, "not active")
	})
}

// --- Token lifecycle ---

func TestEmailVerificationTokens(t *testing.T) {
	user := domain.User{Id: 42, Email: "a@x.com"}

	t.Run("round trip resolves the same user", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByIdFunc: func(id domain.UserId) (domain.User, error) {
				require.Equal(t, user.Id, id)
				return user, nil
			},
		}
		service := newTestAuth(storage)

		token := service.GenerateEmailVerificationToken(user)
		got, err := service.VerifyEmailToken(token)

		require.NoError(t, err)
		assert.Equal(t, user.Id, got.Id)
	})

	t.Run("cross purpose rejection", func(t *testing.T) {
		service := newTestAuth(&MockUserStorage{})

		verification := service.GenerateEmailVerificationToken(user)
		_, err := service.VerifyPasswordResetToken(verification)
		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusBadRequest, "token")

		reset := service.GeneratePasswordResetToken(user)
		_, err = service.VerifyEmailToken(reset)
		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusBadRequest, "token")
	})

	t.Run("expired token rejected", func(t *testing.T) {
		storage := &MockUserStorage{
			UserByIdFunc: func(id domain.UserId) (domain.User, error) { return user, nil },
		}
		service := newTestAuth(storage)

		// Mint directly with an issue time beyond the 24h window.
		signer := signing.New("test-signing-key")
		token := signer.Sign(signing.PurposeEmailVerification, user.Id, time.Now().Add(-25*time.Hour))

		_, err := service.VerifyEmailToken(token)
		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusBadRequest, "token")
	})

	t.Run("user deleted after issuance", func(t *testing.T) {
		service := newTestAuth(&MockUserStorage{}) // default UserById: not found

		token := service.GenerateEmailVerificationToken(user)
		_, err := service.VerifyEmailToken(token)

		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusNotFound, "token")
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		service := newTestAuth(&MockUserStorage{})

		_, err := service.VerifyEmailToken("not-a-token")
		require.Error(t, err)
		assertStatusAndField(t, err, http.StatusBadRequest, "token")
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Run("activates the account", func(t *testing.T) {
		var gotId domain.UserId
		var gotAt time.Time
		storage := &MockUserStorage{
			MarkEmailVerifiedFunc: func(id domain.UserId, verifiedAt time.Time) error {
				gotId, gotAt = id, verifiedAt
				return nil
			},
		}
		service := newTestAuth(storage)

		user, err := service.VerifyEmail(domain.User{Id: 42})

		require.NoError(t, err)
		assert.Equal(t, int64(42), gotId)
		assert.WithinDuration(t, time.Now(), gotAt, time.Second)
		assert.True(t, user.IsActive)
		assert.True(t, user.EmailVerified)
		require.NotNil(t, user.EmailVerifiedAt)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		mockError := errors.New("mock MarkEmailVerified error")
		storage := &MockUserStorage{
			MarkEmailVerifiedFunc: func(id domain.UserId, verifiedAt time.Time) error { return mockError },
		}
		service := newTestAuth(storage)

		_, err := service.VerifyEmail(domain.User{Id: 42})

		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})
}

// --- ResetPassword ---

func TestResetPassword(t *testing.T) {
	t.Run("success replaces hash", func(t *testing.T) {
		var storedHash string
		storage := &MockUserStorage{
			UpdatePasswordFunc: func(id domain.UserId, passHash string) error {
				storedHash = passHash
				return nil
			},
		}
		service := newTestAuth(storage)

		user, err := service.ResetPassword(domain.User{Id: 1, PassHash: "old"}, "NewStrongPass123")

		require.NoError(t, err)
		assert.NotEmpty(t, storedHash)
		require.NoError(t, password.Bcrypt{}.Compare(storedHash, "NewStrongPass123"))
		assert.Equal(t, storedHash, user.PassHash)
	})

	t.Run("weak password leaves hash unchanged", func(t *testing.T) {
		updateCalled := false
		storage := &MockUserStorage{
			UpdatePasswordFunc: func(id domain.UserId, passHash string) error {
				updateCalled = true
				return nil
			},
		}
		service := newTestAuth(storage)

		_, err := service.ResetPassword(domain.User{Id: 1, PassHash: "old"}, "short")

		require.Error(t, err)
		e := assertStatusAndField(t, err, http.StatusBadRequest, "")
		assert.NotEmpty(t, e.Errors)
		assert.False(t, updateCalled, "storage must not be touched on policy failure")
	})

	t.Run("storage error propagates", func(t *testing.T) {
		mockError := errors.New("mock UpdatePassword error")
		storage := &MockUserStorage{
			UpdatePasswordFunc: func(id domain.UserId, passHash string) error { return mockError },
		}
		service := newTestAuth(storage)

		_, err := service.ResetPassword(domain.User{Id: 1}, "NewStrongPass123")

		require.Error(t, err)
		assert.True(t, errors.Is(err, mockError))
	})
}
