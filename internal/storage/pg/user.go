package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/breemind-dev/breemind/internal/domain"
	internal_errors "github.com/breemind-dev/breemind/internal/errors"
)

// pq error code for unique_violation. Concurrent inserts racing past the
// service-level existence checks land here and must surface as the same
// conflict error the pre-check produces.
const uniqueViolation = "23505"

// =========================================================================
// Public Methods (satisfy the service.UserStorage interface)
// =========================================================================

// SaveUser inserts a new user record inside a transaction and returns its id.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, user)
		return err
	})
	return id, err
}

// UserByEmail is a read-only lookup on the connection pool.
func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	return s.user(s.db, "email", email)
}

func (s *Storage) UserByUsername(username domain.Username) (domain.User, error) {
	return s.user(s.db, "username", username)
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	return s.user(s.db, "id", id)
}

// UpdatePassword replaces the stored password hash.
func (s *Storage) UpdatePassword(id domain.UserId, passHash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updatePassword(tx, id, passHash)
	})
}

// MarkEmailVerified flips email_verified and is_active and stamps the
// verification time in one transaction.
func (s *Storage) MarkEmailVerified(id domain.UserId, verifiedAt time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.markEmailVerified(tx, id, verifiedAt)
	})
}

// DeleteUser removes a user record. Used by operational tooling and tests.
func (s *Storage) DeleteUser(id domain.UserId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteUser(tx, id)
	})
}

// =========================================================================
// Internal Methods (Core Database Logic)
// These methods accept a Querier and are transaction-agnostic.
// =========================================================================

func (s *Storage) saveUser(q Querier, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRow(`
        INSERT INTO users(email, username, name, password_hash, is_active, email_verified)
        VALUES($1, $2, $3, $4, $5, $6) RETURNING id`,
		user.Email, user.Username, user.Name, user.PassHash, user.IsActive, user.EmailVerified,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case "users_username_key":
				return -1, internal_errors.Conflict("User with this username already exists", "username")
			case "users_email_key":
				return -1, internal_errors.Conflict("User with this email already exists", "email")
			default:
				return -1, internal_errors.Conflict("User already exists", "")
			}
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) user(q Querier, column string, value interface{}) (domain.User, error) {
	// column is one of the fixed identifiers above, never user input
	query := fmt.Sprintf(`
        SELECT id, email, username, name, password_hash, is_active, email_verified,
               email_verified_at, created_at
        FROM users WHERE %s = $1`, column)

	var user domain.User
	err := q.QueryRow(query, value).Scan(
		&user.Id, &user.Email, &user.Username, &user.Name, &user.PassHash,
		&user.IsActive, &user.EmailVerified, &user.EmailVerifiedAt, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *Storage) updatePassword(q Querier, id domain.UserId, passHash string) error {
	result, err := q.Exec("UPDATE users SET password_hash = $1 WHERE id = $2", passHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for password update: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NotFound("User not found for password update")
	}
	return nil
}

func (s *Storage) markEmailVerified(q Querier, id domain.UserId, verifiedAt time.Time) error {
	result, err := q.Exec(`
        UPDATE users SET email_verified = TRUE, email_verified_at = $1, is_active = TRUE
        WHERE id = $2`, verifiedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for email verification: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NotFound("User not found for email verification")
	}
	return nil
}

func (s *Storage) deleteUser(q Querier, id domain.UserId) error {
	result, err := q.Exec("DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsDeleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for user deletion: %w", err)
	}
	if rowsDeleted == 0 {
		return internal_errors.NotFound("User not found for deletion")
	}
	return nil
}
