package errors

import "net/http"

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int

	// Field names the offending input ("email", "username", "password",
	// "token"), Errors carries password policy violation messages. At most
	// one of the two is set; handlers serialize whichever is present so
	// callers branch on data instead of error types.
	Field  string
	Errors []string
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func Authentication(message, field string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnauthorized, Field: field}
}

// Conflict is an authentication error reused for registration conflicts
// on already-taken email or username.
func Conflict(message, field string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusConflict, Field: field}
}

// InvalidToken covers bad signatures and expired verification/reset tokens.
func InvalidToken(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest, Field: "token"}
}

// PasswordPolicy wraps the violation messages returned by a password policy.
func PasswordPolicy(violations []string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: "Invalid password", StatusCode: http.StatusBadRequest, Errors: violations}
}

// Inactive is the account-activation gate: the account exists and the
// password matched, but email verification has not happened yet.
func Inactive(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusForbidden, Field: "email"}
}

func NotFound(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound}
}

// NotFoundWithField is a not-found error attributable to a specific input,
// e.g. a token whose subject no longer exists.
func NotFoundWithField(message, field string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound, Field: field}
}

func IsNotFound(err error) bool {
	e, ok := err.(*ErrorWithStatusCode)
	return ok && e.StatusCode == http.StatusNotFound
}
