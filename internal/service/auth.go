package service

import (
	"time"

	"github.com/breemind-dev/breemind/internal/config"
	"github.com/breemind-dev/breemind/internal/domain"
	internal_errors "github.com/breemind-dev/breemind/internal/errors"
	"github.com/breemind-dev/breemind/internal/logger"
	"github.com/breemind-dev/breemind/internal/password"
	"github.com/breemind-dev/breemind/internal/signing"
)

type AuthService interface {
	CreateUser(email domain.Email, pass, username, name string) (domain.User, error)
	Authenticate(email domain.Email, pass string) (domain.User, error)

	GenerateEmailVerificationToken(user domain.User) string
	VerifyEmailToken(token string) (domain.User, error)
	VerifyEmail(user domain.User) (domain.User, error)

	GeneratePasswordResetToken(user domain.User) string
	VerifyPasswordResetToken(token string) (domain.User, error)
	ResetPassword(user domain.User, newPassword string) (domain.User, error)

	UserByEmail(email domain.Email) (domain.User, error)
}

// UserStorage is the persistence boundary the service depends on. The pg
// package provides the production implementation.
type UserStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByEmail(email domain.Email) (domain.User, error)
	UserByUsername(username domain.Username) (domain.User, error)
	UserById(id domain.UserId) (domain.User, error)
	UpdatePassword(id domain.UserId, passHash string) error
	MarkEmailVerified(id domain.UserId, verifiedAt time.Time) error
}

// TokenSigner mints and checks the purpose-salted verification/reset tokens.
type TokenSigner interface {
	Sign(purpose string, userId domain.UserId, issuedAt time.Time) string
	Verify(purpose, token string, maxAge time.Duration) (domain.UserId, error)
}

type Auth struct {
	storage UserStorage
	signer  TokenSigner
	policy  password.Policy
	hasher  password.Hasher
	cfg     *config.Public
}

func NewAuth(storage UserStorage, signer TokenSigner, policy password.Policy, hasher password.Hasher, cfg *config.Public) *Auth {
	return &Auth{
		storage: storage,
		signer:  signer,
		policy:  policy,
		hasher:  hasher,
		cfg:     cfg,
	}
}

// CreateUser registers a new, inactive user. Email and username must be
// unused; the password must pass the configured policy. The caller decides
// whether to issue a verification token afterwards.
func (a *Auth) CreateUser(email domain.Email, pass, username, name string) (domain.User, error) {
	if _, err := a.storage.UserByEmail(email); err == nil {
		return domain.User{}, internal_errors.Conflict("User with this email already exists", "email")
	} else if !internal_errors.IsNotFound(err) {
		return domain.User{}, err
	}

	if _, err := a.storage.UserByUsername(username); err == nil {
		return domain.User{}, internal_errors.Conflict("User with this username already exists", "username")
	} else if !internal_errors.IsNotFound(err) {
		return domain.User{}, err
	}

	if violations := a.policy.Validate(pass); len(violations) > 0 {
		return domain.User{}, internal_errors.PasswordPolicy(violations)
	}

	passHash, err := a.hasher.Hash(pass)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.User{}, err
	}

	user := domain.User{
		Email:    email,
		Username: username,
		Name:     name,
		PassHash: passHash,
		IsActive: false,
	}
	// The existence checks above race with concurrent inserts; the storage
	// layer translates unique violations into the same conflict errors.
	id, err := a.storage.SaveUser(user)
	if err != nil {
		return domain.User{}, err
	}
	user.Id = id

	return user, nil
}

// Authenticate checks the credentials and the activation gate. On success
// it returns the user; session token issuance is the caller's business.
func (a *Auth) Authenticate(email domain.Email, pass string) (domain.User, error) {
	user, err := a.storage.UserByEmail(email)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			// to not leak existing users
			return domain.User{}, internal_errors.Authentication("Invalid credentials", "email")
		}
		return domain.User{}, err
	}

	if err := a.hasher.Compare(user.PassHash, pass); err != nil {
		return domain.User{}, internal_errors.Authentication("Invalid credentials", "password")
	}

	if !user.IsActive {
		return domain.User{}, internal_errors.Inactive("Account is not active. Please verify your email.")
	}

	return user, nil
}

// GenerateEmailVerificationToken is a pure function of the user id and the
// current time; nothing is persisted.
func (a *Auth) GenerateEmailVerificationToken(user domain.User) string {
	return a.signer.Sign(signing.PurposeEmailVerification, user.Id, time.Now())
}

func (a *Auth) VerifyEmailToken(token string) (domain.User, error) {
	userId, err := a.signer.Verify(signing.PurposeEmailVerification, token, a.cfg.EmailVerificationTTL)
	if err != nil {
		return domain.User{}, internal_errors.InvalidToken("Invalid or expired verification token")
	}
	return a.userForToken(userId)
}

// VerifyEmail activates the account. Re-running it just re-stamps the
// verification time; single-use token enforcement is intentionally absent.
func (a *Auth) VerifyEmail(user domain.User) (domain.User, error) {
	verifiedAt := time.Now().UTC()
	if err := a.storage.MarkEmailVerified(user.Id, verifiedAt); err != nil {
		return domain.User{}, err
	}

	user.EmailVerified = true
	user.EmailVerifiedAt = &verifiedAt
	user.IsActive = true
	return user, nil
}

func (a *Auth) GeneratePasswordResetToken(user domain.User) string {
	return a.signer.Sign(signing.PurposePasswordReset, user.Id, time.Now())
}

func (a *Auth) VerifyPasswordResetToken(token string) (domain.User, error) {
	userId, err := a.signer.Verify(signing.PurposePasswordReset, token, a.cfg.PasswordResetTTL)
	if err != nil {
		return domain.User{}, internal_errors.InvalidToken("Invalid or expired reset token")
	}
	return a.userForToken(userId)
}

// ResetPassword validates the new password against the same policy as
// registration and replaces the stored hash. Outstanding reset tokens and
// sessions stay valid until they expire.
func (a *Auth) ResetPassword(user domain.User, newPassword string) (domain.User, error) {
	if violations := a.policy.Validate(newPassword); len(violations) > 0 {
		return domain.User{}, internal_errors.PasswordPolicy(violations)
	}

	passHash, err := a.hasher.Hash(newPassword)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.User{}, err
	}

	if err := a.storage.UpdatePassword(user.Id, passHash); err != nil {
		return domain.User{}, err
	}

	user.PassHash = passHash
	return user, nil
}

func (a *Auth) UserByEmail(email domain.Email) (domain.User, error) {
	return a.storage.UserByEmail(email)
}

// userForToken resolves a token subject, distinguishing a user deleted after
// issuance (not found) from a bad token.
func (a *Auth) userForToken(userId domain.UserId) (domain.User, error) {
	user, err := a.storage.UserById(userId)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.User{}, internal_errors.NotFoundWithField("User not found", "token")
		}
		return domain.User{}, err
	}
	return user, nil
}
